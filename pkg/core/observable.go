package core

// Observable holds a value and notifies observers every time it is set.
//
// Set never deduplicates: storing a value equal to the current one still
// notifies, so a host can re-trigger a render with unchanged data.
//
// Observable is NOT thread-safe. It must only be accessed from the UI thread.
// To update from a background goroutine, use platform.Dispatch:
//
//	go func() {
//	    result := fetch()
//	    platform.Dispatch(func() {
//	        obs.Set(result)
//	    })
//	}()
type Observable[T any] struct {
	value     T
	observers []*observer[T]
	closed    bool
}

type observer[T any] struct {
	fn     func(T)
	active bool
}

// NewObservable creates an observable with the given initial value.
func NewObservable[T any](initial T) *Observable[T] {
	return &Observable[T]{value: initial}
}

// Value returns the current value.
func (o *Observable[T]) Value() T {
	return o.value
}

// Set stores value and notifies every attached observer in attach order.
// After Close the value is still stored but nobody is notified.
func (o *Observable[T]) Set(value T) {
	o.value = value
	if o.closed || len(o.observers) == 0 {
		return
	}
	// Observers attached during dispatch wait for the next Set.
	snapshot := make([]*observer[T], len(o.observers))
	copy(snapshot, o.observers)
	for _, obs := range snapshot {
		if obs.active {
			obs.fn(value)
		}
	}
}

// Update applies transform to the current value and sets the result.
func (o *Observable[T]) Update(transform func(T) T) {
	o.Set(transform(o.value))
}

// Observe registers fn for every future Set and calls it once right away
// with the current value, so a late observer starts from current state.
// Returns a function that detaches fn; calling it more than once is safe.
func (o *Observable[T]) Observe(fn func(T)) func() {
	cancel := o.AddListener(fn)
	if o.closed || fn == nil {
		return cancel
	}
	fn(o.value)
	return cancel
}

// AddListener registers fn for every future Set without an initial call.
// On a closed observable it registers nothing.
func (o *Observable[T]) AddListener(fn func(T)) func() {
	if o.closed || fn == nil {
		return func() {}
	}
	obs := &observer[T]{fn: fn, active: true}
	o.observers = append(o.observers, obs)
	return func() {
		o.remove(obs)
	}
}

func (o *Observable[T]) remove(target *observer[T]) {
	if !target.active {
		return
	}
	target.active = false
	for i, obs := range o.observers {
		if obs == target {
			o.observers = append(o.observers[:i], o.observers[i+1:]...)
			return
		}
	}
}

// ObserverCount returns the number of attached observers.
func (o *Observable[T]) ObserverCount() int {
	return len(o.observers)
}

// Close detaches every observer. Later Observe and AddListener calls are
// no-ops and Set no longer notifies.
func (o *Observable[T]) Close() {
	for _, obs := range o.observers {
		obs.active = false
	}
	o.observers = nil
	o.closed = true
}

// IsClosed reports whether Close has been called.
func (o *Observable[T]) IsClosed() bool {
	return o.closed
}
