package platform

import (
	"fmt"
	"sort"

	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"

	"github.com/go-drift/viewbridge/pkg/core"
	"github.com/go-drift/viewbridge/pkg/errors"
)

// View is the native content a factory builds for a view instance.
type View interface {
	// Dispose releases the native content. It runs once, at teardown.
	Dispose()
}

// DisposeFunc adapts a function to the View interface.
type DisposeFunc func()

// Dispose calls f.
func (f DisposeFunc) Dispose() {
	if f != nil {
		f()
	}
}

// ViewContext is what a factory receives when building a view.
type ViewContext struct {
	// Name is the registered view name.
	Name string

	// Data is the instance's data store. Views read and observe slots
	// through it and emit events with Data.EmitEvent.
	Data DataStore

	// Scope ends when the instance is torn down. Attach observers with
	// core.UseObservable(ctx.Scope, ...) so they detach with the view.
	Scope *core.Scope
}

// ViewFactory builds the native content for a named view.
type ViewFactory interface {
	// ViewName returns the name the factory is registered under.
	ViewName() string

	// Create builds the view. Returning an error aborts instantiation.
	Create(ctx *ViewContext) (View, error)
}

type factoryFunc struct {
	name string
	fn   func(ctx *ViewContext) (View, error)
}

func (f factoryFunc) ViewName() string                      { return f.name }
func (f factoryFunc) Create(ctx *ViewContext) (View, error) { return f.fn(ctx) }

// FactoryFunc returns a ViewFactory named name that builds views with fn.
func FactoryFunc(name string, fn func(ctx *ViewContext) (View, error)) ViewFactory {
	return factoryFunc{name: name, fn: fn}
}

// ViewInstance is a live binding between a view factory and its data store.
type ViewInstance struct {
	name            string
	data            *ViewData
	view            View
	scope           *core.Scope
	unbindLifecycle func()
	registry        *ViewRegistry
	disposed        bool
}

// Name returns the view name.
func (i *ViewInstance) Name() string { return i.name }

// Data returns the instance's data store.
func (i *ViewInstance) Data() DataStore { return i.data }

// View returns what the factory built. It is nil while the factory runs.
func (i *ViewInstance) View() View { return i.view }

// IsDisposed reports whether the instance has been torn down.
func (i *ViewInstance) IsDisposed() bool { return i.disposed }

// Dispose tears the instance down: every observer is detached, the native
// view is disposed and the registry entry is removed if it still points
// at this instance. Safe to call more than once.
func (i *ViewInstance) Dispose() {
	i.registry.teardown(i, "dispose")
}

// Option configures a ViewRegistry.
type Option func(*ViewRegistry)

// WithMetrics records registry traffic on m.
func WithMetrics(m *Metrics) Option {
	return func(r *ViewRegistry) {
		r.metrics = m
	}
}

// WithLogger sets the logger used for debug traces. The default is the
// package Logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *ViewRegistry) {
		r.logger = l
	}
}

// ViewRegistry maps view names to factories and to their live instances.
//
// Create one at application start and close it at shutdown. Factories may
// be registered from any goroutine. Everything else (instantiation,
// teardown, SetData*) must run on the UI thread; use Dispatch to get there.
type ViewRegistry struct {
	factories *xsync.Map[string, ViewFactory]
	instances map[string]*ViewInstance
	metrics   *Metrics
	logger    *zap.Logger
	closed    bool
}

// NewViewRegistry creates an empty registry.
func NewViewRegistry(opts ...Option) *ViewRegistry {
	r := &ViewRegistry{
		factories: xsync.NewMap[string, ViewFactory](),
		instances: make(map[string]*ViewInstance),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = Logger()
	}
	return r
}

// Register registers a factory under factory.ViewName(), replacing any
// previous factory with that name. Live instances are not affected.
func (r *ViewRegistry) Register(factory ViewFactory) {
	r.factories.Store(factory.ViewName(), factory)
}

// RegisterFunc registers fn as the factory for name.
func (r *ViewRegistry) RegisterFunc(name string, fn func(ctx *ViewContext) (View, error)) {
	r.Register(FactoryFunc(name, fn))
}

// Unregister removes the factory for name. Live instances are not affected.
func (r *ViewRegistry) Unregister(name string) {
	r.factories.Delete(name)
}

// Lookup returns the factory registered for name.
func (r *ViewRegistry) Lookup(name string) (ViewFactory, bool) {
	return r.factories.Load(name)
}

// Names returns the registered view names in sorted order.
func (r *ViewRegistry) Names() []string {
	names := make([]string, 0, r.factories.Size())
	r.factories.Range(func(name string, _ ViewFactory) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// Instantiate creates a live instance for name.
//
// A fresh data store is created, cb is bound to it, and the factory is
// called with the store so the view can observe its slots. If an instance
// for name is already live it is torn down first, so each slot ends up
// with exactly one set of observers.
//
// When lifecycle is non-nil the instance is torn down when that scope
// ends. Instantiating into a scope that has already ended returns
// ErrScopeDisposed and leaves nothing behind.
//
// An unregistered name returns a *errors.NotFoundError; adapters render
// a placeholder (see PlaceholderText) instead of failing.
func (r *ViewRegistry) Instantiate(name string, lifecycle core.LifecycleScope, cb Callbacks) (*ViewInstance, error) {
	if r.closed {
		return nil, ErrClosed
	}
	factory, ok := r.Lookup(name)
	if !ok {
		r.metrics.recordInstantiation("not_found")
		err := &errors.NotFoundError{View: name}
		errors.Report(&errors.BridgeError{
			Op:   "platform.Instantiate",
			Kind: errors.KindNotFound,
			View: name,
			Err:  err,
		})
		return nil, err
	}

	if old, ok := r.instances[name]; ok {
		r.logger.Debug("replacing live view instance", zap.String("view", name))
		r.teardown(old, "replaced")
	}

	inst := &ViewInstance{
		name:     name,
		scope:    core.NewScope(),
		registry: r,
	}
	inst.data = newViewData(name, cb.OnEvent, r.metrics)
	r.instances[name] = inst

	bindCallbacks(inst.scope, inst.data, cb)

	view, err := r.create(factory, inst)
	if err == nil && inst.disposed {
		err = ErrScopeDisposed
	}
	if err != nil {
		r.metrics.recordInstantiation("error")
		r.teardown(inst, "create failed")
		if view != nil {
			view.Dispose()
		}
		return nil, err
	}
	inst.view = view
	if view != nil {
		inst.scope.OnDispose(view.Dispose)
	}

	if lifecycle != nil {
		inst.unbindLifecycle = lifecycle.OnDispose(inst.Dispose)
		if inst.disposed {
			r.metrics.recordInstantiation("error")
			return nil, ErrScopeDisposed
		}
	}

	r.metrics.recordInstantiation("ok")
	r.metrics.setLiveViews(len(r.instances))
	r.logger.Debug("view instantiated", zap.String("view", name))
	return inst, nil
}

// create runs the factory, converting a panic into an error.
func (r *ViewRegistry) create(factory ViewFactory, inst *ViewInstance) (view View, err error) {
	defer errors.RecoverWithCallback("platform.ViewFactory.Create", func(p any) {
		view = nil
		err = fmt.Errorf("platform: view %q factory panicked: %v", inst.name, p)
	})
	view, err = factory.Create(&ViewContext{
		Name:  inst.name,
		Data:  inst.data,
		Scope: inst.scope,
	})
	return view, err
}

// teardown detaches everything bound to inst. Only the first call has an effect.
func (r *ViewRegistry) teardown(inst *ViewInstance, reason string) {
	if inst == nil || inst.disposed {
		return
	}
	inst.disposed = true
	if r.instances[inst.name] == inst {
		delete(r.instances, inst.name)
	}
	if inst.unbindLifecycle != nil {
		inst.unbindLifecycle()
	}
	inst.scope.Dispose()
	inst.data.Close()
	r.metrics.setLiveViews(len(r.instances))
	r.logger.Debug("view torn down", zap.String("view", inst.name), zap.String("reason", reason))
}

// Instance returns the live instance for name.
func (r *ViewRegistry) Instance(name string) (*ViewInstance, bool) {
	inst, ok := r.instances[name]
	return inst, ok
}

// Data returns the data store of the live instance for name.
func (r *ViewRegistry) Data(name string) (DataStore, bool) {
	inst, ok := r.instances[name]
	if !ok {
		return nil, false
	}
	return inst.data, true
}

// LiveNames returns the names with a live instance in sorted order.
func (r *ViewRegistry) LiveNames() []string {
	names := make([]string, 0, len(r.instances))
	for name := range r.instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LiveCount returns the number of live instances.
func (r *ViewRegistry) LiveCount() int {
	return len(r.instances)
}

// Teardown tears down the live instance for name. Returns false if there
// was none.
func (r *ViewRegistry) Teardown(name string) bool {
	inst, ok := r.instances[name]
	if !ok {
		return false
	}
	r.teardown(inst, "teardown")
	return true
}

// Close tears down every live instance. Later Instantiate calls fail with
// ErrClosed and SetData* calls are no-ops.
func (r *ViewRegistry) Close() {
	if r.closed {
		return
	}
	r.closed = true
	for _, name := range r.LiveNames() {
		r.teardown(r.instances[name], "registry closed")
	}
}

// live returns the data store for name, or records a dropped update.
func (r *ViewRegistry) live(name string, slot SlotKind) (*ViewData, bool) {
	inst, ok := r.instances[name]
	if !ok {
		r.metrics.recordDropped(slot)
		r.logger.Debug("dropping update for view without live instance",
			zap.String("view", name), zap.Stringer("slot", slot))
		return nil, false
	}
	return inst.data, true
}

// SetDataInteger sets the Integer slot of the live instance for name.
// Without a live instance it does nothing and returns false.
func (r *ViewRegistry) SetDataInteger(name string, value int64) bool {
	data, ok := r.live(name, SlotInteger)
	if ok {
		data.Integer().Set(value)
	}
	return ok
}

// SetDataFloat sets the Float slot of the live instance for name.
func (r *ViewRegistry) SetDataFloat(name string, value float64) bool {
	data, ok := r.live(name, SlotFloat)
	if ok {
		data.Float().Set(value)
	}
	return ok
}

// SetDataBool sets the Bool slot of the live instance for name.
func (r *ViewRegistry) SetDataBool(name string, value bool) bool {
	data, ok := r.live(name, SlotBool)
	if ok {
		data.Bool().Set(value)
	}
	return ok
}

// SetDataString sets the String slot of the live instance for name.
func (r *ViewRegistry) SetDataString(name string, value string) bool {
	data, ok := r.live(name, SlotString)
	if ok {
		data.Text().Set(value)
	}
	return ok
}

// SetDataObject decodes text and sets the Object slot of the live
// instance for name. Text that is not a JSON object is reported and
// stored as an empty map.
func (r *ViewRegistry) SetDataObject(name string, text string) bool {
	data, ok := r.live(name, SlotObject)
	if !ok {
		return false
	}
	m, decoded := degrade("platform.SetDataObject", name, text, DecodeObject, map[string]any{})
	if !decoded {
		r.metrics.recordDecodeError(SlotObject)
	}
	data.Object().Set(m)
	return true
}

// SetDataArray decodes text and sets the Array slot of the live instance
// for name. Text that is not a JSON array is reported and stored as an
// empty slice.
func (r *ViewRegistry) SetDataArray(name string, text string) bool {
	data, ok := r.live(name, SlotArray)
	if !ok {
		return false
	}
	list, decoded := degrade("platform.SetDataArray", name, text, DecodeArray, []any{})
	if !decoded {
		r.metrics.recordDecodeError(SlotArray)
	}
	data.Array().Set(list)
	return true
}
