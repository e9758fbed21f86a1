package platform

import (
	"github.com/go-drift/viewbridge/pkg/core"
	"github.com/go-drift/viewbridge/pkg/errors"
)

// SlotKind identifies one of the six typed data channels of a view.
type SlotKind int

const (
	SlotInteger SlotKind = iota
	SlotFloat
	SlotBool
	SlotString
	SlotObject
	SlotArray
)

// SlotKinds lists every slot in declaration order.
var SlotKinds = []SlotKind{SlotInteger, SlotFloat, SlotBool, SlotString, SlotObject, SlotArray}

func (k SlotKind) String() string {
	switch k {
	case SlotInteger:
		return "integer"
	case SlotFloat:
		return "float"
	case SlotBool:
		return "bool"
	case SlotString:
		return "string"
	case SlotObject:
		return "object"
	case SlotArray:
		return "array"
	default:
		return "unknown"
	}
}

// Slot is one typed value of a view's data store.
//
// Slot is NOT thread-safe. It must only be accessed from the UI thread.
type Slot[T any] struct {
	kind    SlotKind
	obs     *core.Observable[T]
	clone   func(T) T
	metrics *Metrics
}

func newSlot[T any](kind SlotKind, initial T, clone func(T) T, m *Metrics) *Slot[T] {
	return &Slot[T]{
		kind:    kind,
		obs:     core.NewObservable(initial),
		clone:   clone,
		metrics: m,
	}
}

// Kind returns which slot this is.
func (s *Slot[T]) Kind() SlotKind {
	return s.kind
}

// Value returns the last value set, or the slot default.
// Map and slice values are shared with the store and must not be modified.
func (s *Slot[T]) Value() T {
	return s.obs.Value()
}

// Set stores value and notifies every attached observer, even when value
// equals the current one.
func (s *Slot[T]) Set(value T) {
	if s.clone != nil {
		value = s.clone(value)
	}
	observers := 0
	if !s.obs.IsClosed() {
		observers = s.obs.ObserverCount()
	}
	s.metrics.recordUpdate(s.kind, observers)
	s.obs.Set(value)
}

// Observe attaches fn for every future Set and calls it immediately with
// the current value. Returns a function that detaches fn.
func (s *Slot[T]) Observe(fn func(T)) func() {
	if fn != nil && !s.obs.IsClosed() {
		s.metrics.recordNotification(s.kind)
	}
	return s.obs.Observe(fn)
}

// AddListener attaches fn for every future Set without an initial call.
func (s *Slot[T]) AddListener(fn func(T)) func() {
	return s.obs.AddListener(fn)
}

// ObserverCount returns the number of attached observers.
func (s *Slot[T]) ObserverCount() int {
	return s.obs.ObserverCount()
}

func (s *Slot[T]) close() {
	s.obs.Close()
}

// DataStore is the data model a native view renders from. Each view
// instance owns exactly one.
//
// Every slot supports set (Set), get (Value) and attachObserver (Observe).
// EmitEvent sends a named, string-valued application event to the host.
type DataStore interface {
	// Name returns the view name the store belongs to.
	Name() string

	Integer() *Slot[int64]
	Float() *Slot[float64]
	Bool() *Slot[bool]
	// Text is the String slot.
	Text() *Slot[string]
	Object() *Slot[map[string]any]
	Array() *Slot[[]any]

	// EmitEvent delivers (key, value) to the host's event callback.
	// There is no acknowledgement.
	EmitEvent(key, value string)
}

// ViewData is the DataStore implementation shared by every platform adapter.
type ViewData struct {
	name    string
	integer *Slot[int64]
	float   *Slot[float64]
	boolean *Slot[bool]
	str     *Slot[string]
	object  *Slot[map[string]any]
	array   *Slot[[]any]
	onEvent func(key, value string)
	metrics *Metrics
	closed  bool
}

var _ DataStore = (*ViewData)(nil)

// NewViewData creates a data store with every slot at its default value.
// onEvent receives EmitEvent calls and may be nil.
func NewViewData(name string, onEvent func(key, value string)) *ViewData {
	return newViewData(name, onEvent, nil)
}

func newViewData(name string, onEvent func(key, value string), m *Metrics) *ViewData {
	return &ViewData{
		name:    name,
		integer: newSlot[int64](SlotInteger, 0, nil, m),
		float:   newSlot[float64](SlotFloat, 0, nil, m),
		boolean: newSlot(SlotBool, false, nil, m),
		str:     newSlot(SlotString, "", nil, m),
		object:  newSlot(SlotObject, map[string]any{}, cloneMap, m),
		array:   newSlot(SlotArray, []any{}, cloneSlice, m),
		onEvent: onEvent,
		metrics: m,
	}
}

func (d *ViewData) Name() string                  { return d.name }
func (d *ViewData) Integer() *Slot[int64]         { return d.integer }
func (d *ViewData) Float() *Slot[float64]         { return d.float }
func (d *ViewData) Bool() *Slot[bool]             { return d.boolean }
func (d *ViewData) Text() *Slot[string]           { return d.str }
func (d *ViewData) Object() *Slot[map[string]any] { return d.object }
func (d *ViewData) Array() *Slot[[]any]           { return d.array }

// EmitEvent forwards an event to the host. After Close it does nothing.
func (d *ViewData) EmitEvent(key, value string) {
	if d.closed || d.onEvent == nil {
		return
	}
	d.metrics.recordEvent()
	defer errors.Recover("platform.ViewData.EmitEvent")
	d.onEvent(key, value)
}

// Close detaches every observer of every slot and silences EmitEvent.
// Slot values remain readable.
func (d *ViewData) Close() {
	if d.closed {
		return
	}
	d.closed = true
	d.integer.close()
	d.float.close()
	d.boolean.close()
	d.str.close()
	d.object.close()
	d.array.close()
}

// IsClosed reports whether Close has been called.
func (d *ViewData) IsClosed() bool {
	return d.closed
}

// observerCounts returns the observer count of each slot, in SlotKinds order.
func (d *ViewData) observerCounts() [6]int {
	return [6]int{
		d.integer.ObserverCount(),
		d.float.ObserverCount(),
		d.boolean.ObserverCount(),
		d.str.ObserverCount(),
		d.object.ObserverCount(),
		d.array.ObserverCount(),
	}
}
