package platform

import (
	"errors"
	"testing"
)

type streamBridge struct {
	testBridge
	started []string
	stopped []string
}

func (b *streamBridge) StartEventStream(ch string) error {
	b.started = append(b.started, ch)
	return nil
}

func (b *streamBridge) StopEventStream(ch string) error {
	b.stopped = append(b.stopped, ch)
	return nil
}

func TestEventChannel_StreamFollowsSubscriptions(t *testing.T) {
	bridge := &streamBridge{}
	SetupTestBridge(t.Cleanup)
	SetNativeBridge(bridge)

	ch := NewEventChannel("test/events")
	var got []any
	first := ch.Listen(EventHandler{OnEvent: func(d any) { got = append(got, d) }})
	second := ch.Listen(EventHandler{})

	if len(bridge.started) != 1 {
		t.Fatalf("stream started %d times, want 1", len(bridge.started))
	}
	if err := HandleEvent("test/events", []byte(`{"n":1}`)); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("received %d events, want 1", len(got))
	}

	first.Cancel()
	first.Cancel()
	if len(bridge.stopped) != 0 {
		t.Error("stream stopped while a subscription remains")
	}
	second.Cancel()
	if len(bridge.stopped) != 1 {
		t.Errorf("stream stopped %d times, want 1", len(bridge.stopped))
	}
}

func TestEventChannel_PendingStartsWithBridge(t *testing.T) {
	recordReports(t)
	SetupTestBridge(t.Cleanup)
	SetNativeBridge(nil)

	ch := NewEventChannel("test/pending")
	var errs []error
	ch.Listen(EventHandler{OnError: func(err error) { errs = append(errs, err) }})
	if len(errs) != 1 || !errors.Is(errs[0], ErrPlatformUnavailable) {
		t.Fatalf("errs = %v, want ErrPlatformUnavailable", errs)
	}

	bridge := &streamBridge{}
	SetNativeBridge(bridge)
	if len(bridge.started) != 1 || bridge.started[0] != "test/pending" {
		t.Errorf("started = %v", bridge.started)
	}
}

func TestEventChannel_ErrorAndDone(t *testing.T) {
	SetupTestBridge(t.Cleanup)
	ch := NewEventChannel("test/done")

	var gotErr error
	var done bool
	sub := ch.Listen(EventHandler{
		OnError: func(err error) { gotErr = err },
		OnDone:  func() { done = true },
	})

	HandleEventError("test/done", "E1", "broken")
	var ce *ChannelError
	if !errors.As(gotErr, &ce) || ce.Code != "E1" || ce.Error() != "E1: broken" {
		t.Errorf("error = %v", gotErr)
	}

	HandleEventDone("test/done")
	if !done || !sub.IsCanceled() {
		t.Error("done not delivered")
	}
}

func TestHandle_UnknownChannels(t *testing.T) {
	recordReports(t)
	if _, err := HandleMethodCall("nope", "m", nil); !errors.Is(err, ErrChannelNotFound) {
		t.Errorf("HandleMethodCall: err = %v", err)
	}
	if err := HandleEvent("nope", nil); !errors.Is(err, ErrChannelNotRegistered) {
		t.Errorf("HandleEvent: err = %v", err)
	}
	if err := HandleEventDone("nope"); !errors.Is(err, ErrChannelNotRegistered) {
		t.Errorf("HandleEventDone: err = %v", err)
	}
}

func TestMethodChannel_Invoke(t *testing.T) {
	bridge := setupTestBridge(t)
	ch := NewMethodChannel("test/method")

	if _, err := ch.Invoke("ping", map[string]any{"n": 1}); err != nil {
		t.Fatal(err)
	}
	calls := bridge.callsTo("ping")
	if len(calls) != 1 || calls[0].channel != "test/method" {
		t.Errorf("calls = %v", calls)
	}

	SetNativeBridge(nil)
	if _, err := ch.Invoke("ping", nil); !errors.Is(err, ErrPlatformUnavailable) {
		t.Errorf("Invoke without bridge: err = %v", err)
	}
}

func TestDispatchAndWait(t *testing.T) {
	ran := false
	DispatchAndWait(func() { ran = true })
	if !ran {
		t.Error("DispatchAndWait without dispatcher did not run inline")
	}

	queue := make(chan func(), 1)
	RegisterDispatch(func(cb func()) { queue <- cb })
	t.Cleanup(func() { RegisterDispatch(nil) })
	go func() { (<-queue)() }()

	ran = false
	DispatchAndWait(func() { ran = true })
	if !ran {
		t.Error("DispatchAndWait returned before the callback ran")
	}
	if Dispatch(nil) {
		t.Error("Dispatch(nil) reported success")
	}
}
