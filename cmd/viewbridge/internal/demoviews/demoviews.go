// Package demoviews provides small views that exercise every data path of
// the bridge from a dev server session.
package demoviews

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/go-drift/viewbridge/pkg/core"
	"github.com/go-drift/viewbridge/pkg/platform"
)

// View names.
const (
	Echo      = "echo"
	Counter   = "counter"
	Inspector = "inspector"
)

var factories = map[string]func(*platform.ViewContext) (platform.View, error){
	Echo:      newEcho,
	Counter:   newCounter,
	Inspector: newInspector,
}

// Names returns every demo view name in sorted order.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register registers the named demo views on r, or all of them when names
// is empty.
func Register(r *platform.ViewRegistry, names ...string) error {
	if len(names) == 0 {
		names = Names()
	}
	for _, name := range names {
		fn, ok := factories[name]
		if !ok {
			return fmt.Errorf("demoviews: unknown view %q (have %v)", name, Names())
		}
		r.RegisterFunc(name, fn)
	}
	return nil
}

// newEcho re-emits every String slot value as an "echo" event.
func newEcho(ctx *platform.ViewContext) (platform.View, error) {
	core.UseListener(ctx.Scope, ctx.Data.Text(), func(s string) {
		ctx.Data.EmitEvent("echo", s)
	})
	return nil, nil
}

// newCounter increments the Integer slot each time the Bool slot is set
// to true, so the host sees a view-side change flow back out.
func newCounter(ctx *platform.ViewContext) (platform.View, error) {
	core.UseListener(ctx.Scope, ctx.Data.Bool(), func(pressed bool) {
		if pressed {
			count := ctx.Data.Integer()
			count.Set(count.Value() + 1)
		}
	})
	return nil, nil
}

// newInspector emits a "changed" event naming each slot that is set.
func newInspector(ctx *platform.ViewContext) (platform.View, error) {
	d := ctx.Data
	changed := func(slot platform.SlotKind) {
		d.EmitEvent("changed", slot.String())
	}
	core.UseListener(ctx.Scope, d.Integer(), func(int64) { changed(platform.SlotInteger) })
	core.UseListener(ctx.Scope, d.Float(), func(float64) { changed(platform.SlotFloat) })
	core.UseListener(ctx.Scope, d.Bool(), func(bool) { changed(platform.SlotBool) })
	core.UseListener(ctx.Scope, d.Text(), func(string) { changed(platform.SlotString) })
	core.UseListener(ctx.Scope, d.Object(), func(m map[string]any) {
		d.EmitEvent("changed", platform.SlotObject.String()+":"+strconv.Itoa(len(m)))
	})
	core.UseListener(ctx.Scope, d.Array(), func(list []any) {
		d.EmitEvent("changed", platform.SlotArray.String()+":"+strconv.Itoa(len(list)))
	})
	return nil, nil
}
