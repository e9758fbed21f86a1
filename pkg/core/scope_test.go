package core

import (
	"reflect"
	"testing"

	"github.com/go-drift/viewbridge/pkg/errors"
)

func TestScope_DisposeRunsInReverseOrder(t *testing.T) {
	s := NewScope()
	var order []int
	s.OnDispose(func() { order = append(order, 1) })
	s.OnDispose(func() { order = append(order, 2) })
	s.OnDispose(func() { order = append(order, 3) })

	s.Dispose()
	s.Dispose()

	if !reflect.DeepEqual(order, []int{3, 2, 1}) {
		t.Errorf("dispose order = %v, want [3 2 1]", order)
	}
	if !s.IsDisposed() {
		t.Error("Expected scope to be disposed")
	}
}

func TestScope_Unregister(t *testing.T) {
	s := NewScope()
	called := false
	unregister := s.OnDispose(func() { called = true })
	unregister()
	s.Dispose()
	if called {
		t.Error("unregistered disposer should not run")
	}
}

func TestScope_OnDisposeAfterDisposeRunsImmediately(t *testing.T) {
	s := NewScope()
	s.Dispose()

	called := false
	s.OnDispose(func() { called = true })
	if !called {
		t.Error("cleanup registered on a disposed scope should run immediately")
	}
}

func TestScope_DisposerMayUnregisterOthers(t *testing.T) {
	s := NewScope()
	var unregister func()
	s.OnDispose(func() { unregister() })
	unregister = s.OnDispose(func() {})
	s.Dispose()
}

func TestScope_PanickingDisposerDoesNotStopOthers(t *testing.T) {
	old := errors.DefaultHandler
	var panics int
	errors.SetHandler(&recordingHandler{onPanic: func(*errors.PanicError) { panics++ }})
	defer errors.SetHandler(old)

	s := NewScope()
	ran := false
	s.OnDispose(func() { ran = true })
	s.OnDispose(func() { panic("teardown failed") })

	s.Dispose()

	if !ran {
		t.Error("disposer after a panicking one should still run")
	}
	if panics != 1 {
		t.Errorf("Expected 1 reported panic, got %d", panics)
	}
}

type recordingHandler struct {
	onPanic func(*errors.PanicError)
}

func (h *recordingHandler) HandleError(*errors.BridgeError) {}

func (h *recordingHandler) HandlePanic(err *errors.PanicError) {
	if h.onPanic != nil {
		h.onPanic(err)
	}
}
