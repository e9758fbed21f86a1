package core

// UseController creates a controller and registers it for automatic disposal.
// The controller will be disposed when the scope is disposed.
//
// Example:
//
//	player := core.UseController(ctx.Scope, func() *Player {
//	    return NewPlayer()
//	})
func UseController[C Disposable](s LifecycleScope, create func() C) C {
	controller := create()
	s.OnDispose(func() {
		controller.Dispose()
	})
	return controller
}

// Subscribable is a value source that supports observation, such as
// Observable or a platform data slot.
type Subscribable[T any] interface {
	Observe(fn func(T)) func()
	AddListener(fn func(T)) func()
}

// UseObservable attaches fn to obs for the lifetime of s. fn is called
// immediately with the current value and again on every Set until the
// scope ends.
//
// Example:
//
//	core.UseObservable(ctx.Scope, ctx.Data.Text(), func(title string) {
//	    label.SetText(title)
//	})
func UseObservable[T any](s LifecycleScope, obs Subscribable[T], fn func(T)) {
	cancel := obs.Observe(fn)
	s.OnDispose(cancel)
}

// UseListener is like UseObservable but skips the initial call.
func UseListener[T any](s LifecycleScope, obs Subscribable[T], fn func(T)) {
	cancel := obs.AddListener(fn)
	s.OnDispose(cancel)
}
