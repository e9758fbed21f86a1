package platform

import (
	"sync"

	"github.com/go-drift/viewbridge/pkg/core"
)

// LifecycleState represents the current app lifecycle state.
type LifecycleState string

const (
	// LifecycleStateResumed indicates the app is visible and responding to user input.
	LifecycleStateResumed LifecycleState = "resumed"

	// LifecycleStateInactive indicates the app is transitioning (e.g., receiving a phone call).
	LifecycleStateInactive LifecycleState = "inactive"

	// LifecycleStatePaused indicates the app is not visible but still running.
	LifecycleStatePaused LifecycleState = "paused"

	// LifecycleStateDetached indicates the app is still hosted but detached from any view.
	LifecycleStateDetached LifecycleState = "detached"
)

// LifecycleHandler is called when lifecycle state changes.
type LifecycleHandler func(state LifecycleState)

// LifecycleService tracks the host app's lifecycle over the
// "drift/lifecycle" channels and exposes it as an attachment scope for
// views that should live as long as the app's view tree.
type LifecycleService struct {
	channel  *MethodChannel
	events   *Stream[LifecycleState]
	stop     func()
	state    LifecycleState
	handlers map[int]LifecycleHandler
	nextID   int
	scope    *core.Scope
	mu       sync.Mutex
}

// NewLifecycleService registers the lifecycle channels and starts
// listening for state changes.
func NewLifecycleService() *LifecycleService {
	l := &LifecycleService{
		channel:  NewMethodChannel("drift/lifecycle"),
		events:   NewStream(NewEventChannel("drift/lifecycle/events"), parseLifecycleState),
		state:    LifecycleStateResumed,
		handlers: make(map[int]LifecycleHandler),
		scope:    core.NewScope(),
	}

	l.stop = l.events.Listen(l.updateState)

	l.channel.SetHandler(func(method string, args any) (any, error) {
		switch method {
		case "didChangeState":
			state, err := parseLifecycleState(args)
			if err != nil {
				return nil, err
			}
			l.updateState(state)
			return nil, nil
		default:
			return nil, ErrMethodNotFound
		}
	})
	return l
}

func parseLifecycleState(data any) (LifecycleState, error) {
	m := parseMap(data)
	if m == nil {
		return "", invalidArgs("didChangeState", "expected map arguments")
	}
	state, ok := parseString(m["state"])
	if !ok || state == "" {
		return "", invalidArgs("didChangeState", "missing state")
	}
	return LifecycleState(state), nil
}

// State returns the current lifecycle state.
func (l *LifecycleService) State() LifecycleState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// AddHandler registers a handler to be called on lifecycle changes.
// Returns a function that can be called to remove the handler.
func (l *LifecycleService) AddHandler(handler LifecycleHandler) func() {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.handlers[id] = handler
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.handlers, id)
		l.mu.Unlock()
	}
}

// Scope returns the attachment scope of the app's current view tree. It
// ends when the app becomes detached; the next call after that returns a
// fresh scope.
func (l *LifecycleService) Scope() *core.Scope {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scope
}

// Close stops listening and ends the current scope.
func (l *LifecycleService) Close() {
	l.stop()
	l.channel.SetHandler(nil)
	l.mu.Lock()
	scope := l.scope
	l.mu.Unlock()
	scope.Dispose()
}

// updateState updates the lifecycle state and notifies handlers. Moving to
// detached disposes the current scope on the UI thread after the handlers
// run.
func (l *LifecycleService) updateState(newState LifecycleState) {
	l.mu.Lock()
	if l.state == newState {
		l.mu.Unlock()
		return
	}
	l.state = newState
	handlers := make([]LifecycleHandler, 0, len(l.handlers))
	for id := 0; id < l.nextID; id++ {
		if h, ok := l.handlers[id]; ok {
			handlers = append(handlers, h)
		}
	}
	var ended *core.Scope
	if newState == LifecycleStateDetached {
		ended = l.scope
		l.scope = core.NewScope()
	}
	l.mu.Unlock()

	for _, h := range handlers {
		h(newState)
	}
	if ended != nil {
		runOnUI(ended.Dispose)
	}
}
