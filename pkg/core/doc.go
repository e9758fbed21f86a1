// Package core provides the reactive primitives the view bridge is built
// on: Observable values and the attachment scopes that bound how long an
// observer stays attached.
//
// # Observables
//
// An Observable holds one value and calls its observers on every Set,
// including sets that store an unchanged value. Observe delivers the
// current value immediately, so an observer attached after a Set still
// starts from the latest state:
//
//	title := core.NewObservable("")
//	title.Set("Inbox")
//	title.Observe(func(s string) { fmt.Println(s) }) // prints "Inbox"
//
// # Scopes
//
// A Scope collects cleanup functions and runs them once, last registered
// first, when it is disposed. Binding an observer to a scope with
// UseObservable detaches it when the scope ends:
//
//	scope := core.NewScope()
//	core.UseObservable(scope, title, label.SetText)
//	...
//	scope.Dispose() // label no longer follows title
//
// Anything with an OnDispose method satisfies LifecycleScope, so a
// platform lifecycle can stand in for a Scope.
//
// # Threading
//
// Observable is not safe for concurrent use. All reads, writes and
// observer calls belong on the UI thread; use platform.Dispatch to get
// there from other goroutines. Scope is safe for concurrent use.
package core
