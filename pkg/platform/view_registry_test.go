package platform

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/go-drift/viewbridge/pkg/core"
	"github.com/go-drift/viewbridge/pkg/errors"
)

// recordingView is a factory product that records what it observed.
type recordingView struct {
	strings  []string
	disposed int
}

func (v *recordingView) Dispose() { v.disposed++ }

// observingFactory returns a factory whose views observe the String slot.
func observingFactory(views *[]*recordingView) func(ctx *ViewContext) (View, error) {
	return func(ctx *ViewContext) (View, error) {
		v := &recordingView{}
		core.UseObservable(ctx.Scope, ctx.Data.Text(), func(s string) {
			v.strings = append(v.strings, s)
		})
		*views = append(*views, v)
		return v, nil
	}
}

func TestViewRegistry_InstantiateUnknownName(t *testing.T) {
	rec := recordReports(t)
	r := NewViewRegistry()

	inst, err := r.Instantiate("Missing", nil, Callbacks{})
	if inst != nil {
		t.Error("expected no instance")
	}
	if !errors.Is(err, ErrViewNotFound) {
		t.Fatalf("err = %v, want ErrViewNotFound", err)
	}
	var nf *errors.NotFoundError
	if !errors.As(err, &nf) || nf.View != "Missing" {
		t.Errorf("err = %#v, want *NotFoundError for Missing", err)
	}
	if r.LiveCount() != 0 {
		t.Errorf("LiveCount = %d, want 0", r.LiveCount())
	}
	if got := rec.errorsOfKind(errors.KindNotFound); len(got) != 1 {
		t.Errorf("expected 1 not-found report, got %d", len(got))
	}
	if got := PlaceholderText("Missing"); got != "View named Missing not found" {
		t.Errorf("PlaceholderText = %q", got)
	}
}

func TestViewRegistry_ObserverAttachedBeforeSet(t *testing.T) {
	r := NewViewRegistry()
	var views []*recordingView
	r.RegisterFunc("Label", observingFactory(&views))

	if _, err := r.Instantiate("Label", nil, Callbacks{}); err != nil {
		t.Fatal(err)
	}
	if !r.SetDataString("Label", "hi") {
		t.Fatal("SetDataString reported no live instance")
	}

	if want := []string{"", "hi"}; !reflect.DeepEqual(views[0].strings, want) {
		t.Errorf("view observed %q, want %q", views[0].strings, want)
	}
}

func TestViewRegistry_LateObserverSeesCurrentValue(t *testing.T) {
	r := NewViewRegistry()
	r.RegisterFunc("Label", func(ctx *ViewContext) (View, error) { return nil, nil })
	inst, err := r.Instantiate("Label", nil, Callbacks{})
	if err != nil {
		t.Fatal(err)
	}
	r.SetDataString("Label", "hi")

	var got []string
	inst.Data().Text().Observe(func(s string) { got = append(got, s) })

	if !reflect.DeepEqual(got, []string{"hi"}) {
		t.Errorf("late observer saw %q, want [hi]", got)
	}
}

func TestViewRegistry_PushWithoutInstanceLeavesNoResidue(t *testing.T) {
	r := NewViewRegistry()
	var views []*recordingView
	r.RegisterFunc("Label", observingFactory(&views))

	if r.SetDataString("Label", "early") {
		t.Error("SetDataString reported delivery with no live instance")
	}
	r.SetDataInteger("Label", 1)
	r.SetDataObject("Label", `{"a":1}`)
	if r.LiveCount() != 0 {
		t.Fatalf("push created an instance")
	}

	inst, err := r.Instantiate("Label", nil, Callbacks{})
	if err != nil {
		t.Fatal(err)
	}
	if got := inst.Data().Text().Value(); got != "" {
		t.Errorf("new instance saw earlier push %q", got)
	}
	if got := inst.Data().Integer().Value(); got != 0 {
		t.Errorf("new instance saw earlier push %d", got)
	}
	if want := []string{""}; !reflect.DeepEqual(views[0].strings, want) {
		t.Errorf("view observed %q, want %q", views[0].strings, want)
	}
}

func TestViewRegistry_DisposedInstanceIsSilent(t *testing.T) {
	r := NewViewRegistry()
	var views []*recordingView
	r.RegisterFunc("Label", observingFactory(&views))
	host := &hostRecorder{}

	scope := core.NewScope()
	inst, err := r.Instantiate("Label", scope, host.callbacks())
	if err != nil {
		t.Fatal(err)
	}
	data := inst.Data()
	host.reset()

	scope.Dispose()

	if !inst.IsDisposed() {
		t.Error("instance not disposed with its lifecycle scope")
	}
	if views[0].disposed != 1 {
		t.Errorf("view disposed %d times, want 1", views[0].disposed)
	}
	if r.SetDataString("Label", "after") {
		t.Error("SetDataString delivered to a disposed instance")
	}
	data.Text().Set("direct")
	data.EmitEvent("k", "v")

	if want := []string{""}; !reflect.DeepEqual(views[0].strings, want) {
		t.Errorf("view observed %q after dispose", views[0].strings)
	}
	if len(host.strings) != 0 || len(host.events) != 0 {
		t.Errorf("host received %q and %v after dispose", host.strings, host.events)
	}

	inst.Dispose()
	if views[0].disposed != 1 {
		t.Errorf("second Dispose disposed the view again")
	}
}

func TestViewRegistry_ReinstantiateKeepsOneObserverPerSlot(t *testing.T) {
	r := NewViewRegistry()
	var views []*recordingView
	r.RegisterFunc("Label", func(ctx *ViewContext) (View, error) {
		v := &recordingView{}
		core.UseObservable(ctx.Scope, ctx.Data.Integer(), func(int64) {})
		core.UseObservable(ctx.Scope, ctx.Data.Float(), func(float64) {})
		core.UseObservable(ctx.Scope, ctx.Data.Bool(), func(bool) {})
		core.UseObservable(ctx.Scope, ctx.Data.Text(), func(s string) { v.strings = append(v.strings, s) })
		core.UseObservable(ctx.Scope, ctx.Data.Object(), func(map[string]any) {})
		core.UseObservable(ctx.Scope, ctx.Data.Array(), func([]any) {})
		views = append(views, v)
		return v, nil
	})
	host := &hostRecorder{}

	first, err := r.Instantiate("Label", nil, host.callbacks())
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Instantiate("Label", nil, host.callbacks())
	if err != nil {
		t.Fatal(err)
	}

	if !first.IsDisposed() || views[0].disposed != 1 {
		t.Error("first instance not torn down on re-instantiation")
	}
	if r.LiveCount() != 1 {
		t.Errorf("LiveCount = %d, want 1", r.LiveCount())
	}
	// One observer from the view plus one from the host callbacks.
	if got, want := second.data.observerCounts(), [6]int{2, 2, 2, 2, 2, 2}; got != want {
		t.Errorf("observer counts = %v, want %v", got, want)
	}

	host.reset()
	r.SetDataString("Label", "x")
	if want := []string{"x"}; !reflect.DeepEqual(host.strings, want) {
		t.Errorf("host received %q, want %q", host.strings, want)
	}
	if len(views[0].strings) != 1 {
		t.Errorf("old view observed %q", views[0].strings)
	}
	if want := []string{"", "x"}; !reflect.DeepEqual(views[1].strings, want) {
		t.Errorf("new view observed %q, want %q", views[1].strings, want)
	}
}

func TestViewRegistry_HostCallbacks(t *testing.T) {
	r := NewViewRegistry()
	r.RegisterFunc("Form", func(ctx *ViewContext) (View, error) {
		ctx.Data.EmitEvent("ready", "1")
		return nil, nil
	})
	host := &hostRecorder{}

	if _, err := r.Instantiate("Form", nil, host.callbacks()); err != nil {
		t.Fatal(err)
	}
	if want := []string{"{}"}; !reflect.DeepEqual(host.objects, want) {
		t.Errorf("initial objects = %q, want %q", host.objects, want)
	}
	if want := [][2]string{{"ready", "1"}}; !reflect.DeepEqual(host.events, want) {
		t.Errorf("events = %v, want %v", host.events, want)
	}
	host.reset()

	r.SetDataInteger("Form", 7)
	r.SetDataFloat("Form", 0.25)
	r.SetDataBool("Form", true)
	r.SetDataString("Form", "name")
	r.SetDataObject("Form", `{"b":[1,2],"a":null}`)
	r.SetDataArray("Form", `[{"k":"v"},3]`)

	if !reflect.DeepEqual(host.integers, []int64{7}) {
		t.Errorf("integers = %v", host.integers)
	}
	if !reflect.DeepEqual(host.floats, []float64{0.25}) {
		t.Errorf("floats = %v", host.floats)
	}
	if !reflect.DeepEqual(host.bools, []bool{true}) {
		t.Errorf("bools = %v", host.bools)
	}
	if !reflect.DeepEqual(host.strings, []string{"name"}) {
		t.Errorf("strings = %q", host.strings)
	}
	if !reflect.DeepEqual(host.objects, []string{`{"a":null,"b":[1,2]}`}) {
		t.Errorf("objects = %q", host.objects)
	}
	if !reflect.DeepEqual(host.arrays, []string{`[{"k":"v"},3]`}) {
		t.Errorf("arrays = %q", host.arrays)
	}
}

func TestViewRegistry_MalformedJSONDegradesToEmpty(t *testing.T) {
	rec := recordReports(t)
	r := NewViewRegistry()
	r.RegisterFunc("Form", func(ctx *ViewContext) (View, error) { return nil, nil })
	inst, err := r.Instantiate("Form", nil, Callbacks{})
	if err != nil {
		t.Fatal(err)
	}

	r.SetDataObject("Form", `{"a":1}`)
	var got []map[string]any
	inst.Data().Object().AddListener(func(m map[string]any) { got = append(got, m) })

	if !r.SetDataObject("Form", "{not json") {
		t.Fatal("malformed payload was not delivered")
	}
	r.SetDataArray("Form", `{"not":"an array"}`)

	if len(got) != 1 || len(got[0]) != 0 {
		t.Errorf("observer saw %v, want one empty map", got)
	}
	if v := inst.Data().Array().Value(); v == nil || len(v) != 0 {
		t.Errorf("Array = %#v, want empty", v)
	}
	reports := rec.errorsOfKind(errors.KindParsing)
	if len(reports) != 2 {
		t.Fatalf("expected 2 parsing reports, got %d", len(reports))
	}
	if !errors.Is(reports[0].Err, errors.ErrMalformedJSON) {
		t.Errorf("first report = %v, want ErrMalformedJSON", reports[0].Err)
	}
	if !errors.Is(reports[1].Err, errors.ErrTypeMismatch) {
		t.Errorf("second report = %v, want ErrTypeMismatch", reports[1].Err)
	}
	for i, op := range []string{"platform.SetDataObject", "platform.SetDataArray"} {
		if reports[i].Op != op || reports[i].View != "Form" {
			t.Errorf("report %d = %s/%s, want %s/Form", i, reports[i].Op, reports[i].View, op)
		}
	}
}

func TestViewRegistry_FactoryError(t *testing.T) {
	r := NewViewRegistry()
	boom := fmt.Errorf("no camera")
	half := &recordingView{}
	r.RegisterFunc("Camera", func(ctx *ViewContext) (View, error) {
		return half, boom
	})
	host := &hostRecorder{}

	_, err := r.Instantiate("Camera", nil, host.callbacks())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if r.LiveCount() != 0 {
		t.Error("failed instantiation left a live instance")
	}
	if half.disposed != 1 {
		t.Errorf("partially built view disposed %d times, want 1", half.disposed)
	}
	host.reset()
	r.SetDataString("Camera", "x")
	if len(host.strings) != 0 {
		t.Error("host callbacks survived a failed instantiation")
	}
}

func TestViewRegistry_FactoryPanic(t *testing.T) {
	rec := recordReports(t)
	r := NewViewRegistry()
	r.RegisterFunc("Bad", func(ctx *ViewContext) (View, error) { panic("boom") })

	_, err := r.Instantiate("Bad", nil, Callbacks{})
	if err == nil || !strings.Contains(err.Error(), "panicked") {
		t.Fatalf("err = %v, want factory panic error", err)
	}
	if len(rec.panics) != 1 {
		t.Errorf("expected 1 panic report, got %d", len(rec.panics))
	}
	if r.LiveCount() != 0 {
		t.Error("panicking factory left a live instance")
	}
}

func TestViewRegistry_DisposedLifecycleScope(t *testing.T) {
	r := NewViewRegistry()
	view := &recordingView{}
	r.RegisterFunc("Label", func(ctx *ViewContext) (View, error) { return view, nil })

	scope := core.NewScope()
	scope.Dispose()

	_, err := r.Instantiate("Label", scope, Callbacks{})
	if !errors.Is(err, ErrScopeDisposed) {
		t.Fatalf("err = %v, want ErrScopeDisposed", err)
	}
	if r.LiveCount() != 0 {
		t.Error("instance left behind for an ended scope")
	}
	if view.disposed != 1 {
		t.Errorf("view disposed %d times, want 1", view.disposed)
	}
}

func TestViewRegistry_TeardownDuringCreate(t *testing.T) {
	r := NewViewRegistry()
	r.RegisterFunc("Self", func(ctx *ViewContext) (View, error) {
		r.Teardown(ctx.Name)
		return nil, nil
	})

	_, err := r.Instantiate("Self", nil, Callbacks{})
	if !errors.Is(err, ErrScopeDisposed) {
		t.Fatalf("err = %v, want ErrScopeDisposed", err)
	}
}

func TestViewRegistry_TeardownUnbindsLifecycle(t *testing.T) {
	r := NewViewRegistry()
	r.RegisterFunc("Label", func(ctx *ViewContext) (View, error) { return nil, nil })

	scope := core.NewScope()
	if _, err := r.Instantiate("Label", scope, Callbacks{}); err != nil {
		t.Fatal(err)
	}
	if !r.Teardown("Label") {
		t.Fatal("Teardown found no instance")
	}
	if r.Teardown("Label") {
		t.Error("second Teardown reported an instance")
	}

	// A new instance must not be torn down by the old scope.
	next, err := r.Instantiate("Label", nil, Callbacks{})
	if err != nil {
		t.Fatal(err)
	}
	scope.Dispose()
	if next.IsDisposed() {
		t.Error("old lifecycle scope tore down a newer instance")
	}
}

func TestViewRegistry_Registration(t *testing.T) {
	r := NewViewRegistry()
	r.RegisterFunc("b", func(*ViewContext) (View, error) { return nil, nil })
	r.Register(FactoryFunc("a", func(*ViewContext) (View, error) { return nil, nil }))

	if got := r.Names(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Names = %v", got)
	}
	f, ok := r.Lookup("a")
	if !ok || f.ViewName() != "a" {
		t.Errorf("Lookup(a) = %v, %v", f, ok)
	}

	if _, err := r.Instantiate("b", nil, Callbacks{}); err != nil {
		t.Fatal(err)
	}
	r.Unregister("b")
	if _, ok := r.Lookup("b"); ok {
		t.Error("Lookup found an unregistered factory")
	}
	if _, ok := r.Instance("b"); !ok {
		t.Error("Unregister tore down a live instance")
	}
	if _, ok := r.Data("b"); !ok {
		t.Error("Data found no store for a live instance")
	}
}

func TestViewRegistry_Close(t *testing.T) {
	r := NewViewRegistry()
	views := map[string]*recordingView{}
	for _, name := range []string{"a", "b"} {
		r.RegisterFunc(name, func(ctx *ViewContext) (View, error) {
			v := &recordingView{}
			views[ctx.Name] = v
			return v, nil
		})
		if _, err := r.Instantiate(name, nil, Callbacks{}); err != nil {
			t.Fatal(err)
		}
	}
	if got := r.LiveNames(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("LiveNames = %v", got)
	}

	r.Close()
	r.Close()

	if r.LiveCount() != 0 {
		t.Errorf("LiveCount = %d after Close", r.LiveCount())
	}
	for name, v := range views {
		if v.disposed != 1 {
			t.Errorf("view %s disposed %d times, want 1", name, v.disposed)
		}
	}
	if _, err := r.Instantiate("a", nil, Callbacks{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Instantiate after Close: err = %v, want ErrClosed", err)
	}
	if r.SetDataBool("a", true) {
		t.Error("SetDataBool delivered after Close")
	}
}

func TestViewRegistry_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(WithRegisterer(reg), WithNamespace("test"))
	if err != nil {
		t.Fatal(err)
	}
	recordReports(t)

	r := NewViewRegistry(WithMetrics(m))
	r.RegisterFunc("Label", func(ctx *ViewContext) (View, error) {
		core.UseObservable(ctx.Scope, ctx.Data.Text(), func(string) {})
		ctx.Data.EmitEvent("ready", "")
		return nil, nil
	})

	r.SetDataString("Label", "dropped")
	r.Instantiate("Missing", nil, Callbacks{})
	if _, err := r.Instantiate("Label", nil, Callbacks{OnEvent: func(string, string) {}}); err != nil {
		t.Fatal(err)
	}
	r.SetDataString("Label", "a")
	r.SetDataString("Label", "b")
	r.SetDataObject("Label", "oops")

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"dropped string", testutil.ToFloat64(m.dropped.WithLabelValues("string")), 1},
		{"not found", testutil.ToFloat64(m.instantiations.WithLabelValues("not_found")), 1},
		{"ok", testutil.ToFloat64(m.instantiations.WithLabelValues("ok")), 1},
		{"string updates", testutil.ToFloat64(m.updates.WithLabelValues("string")), 2},
		// One initial call plus one per update.
		{"string notifications", testutil.ToFloat64(m.notifications.WithLabelValues("string")), 3},
		{"object decode errors", testutil.ToFloat64(m.decodeErrors.WithLabelValues("object")), 1},
		{"events", testutil.ToFloat64(m.events), 1},
		{"live views", testutil.ToFloat64(m.liveViews), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	r.Close()
	if got := testutil.ToFloat64(m.liveViews); got != 0 {
		t.Errorf("live views after Close = %v", got)
	}

	if _, err := NewMetrics(WithRegisterer(reg), WithNamespace("test")); err == nil {
		t.Error("registering the same metrics twice should fail")
	}
}
