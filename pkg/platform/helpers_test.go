package platform

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/go-drift/viewbridge/pkg/errors"
)

// reportRecorder captures errors reported through pkg/errors.
type reportRecorder struct {
	mu     sync.Mutex
	errs   []*errors.BridgeError
	panics []*errors.PanicError
}

func (r *reportRecorder) HandleError(err *errors.BridgeError) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

func (r *reportRecorder) HandlePanic(err *errors.PanicError) {
	r.mu.Lock()
	r.panics = append(r.panics, err)
	r.mu.Unlock()
}

func (r *reportRecorder) errorsOfKind(kind errors.ErrorKind) []*errors.BridgeError {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*errors.BridgeError
	for _, e := range r.errs {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func recordReports(t *testing.T) *reportRecorder {
	t.Helper()
	rec := &reportRecorder{}
	old := errors.DefaultHandler
	errors.SetHandler(rec)
	t.Cleanup(func() { errors.SetHandler(old) })
	return rec
}

// testBridge captures native method invocations for assertions.
type testBridge struct {
	mu    sync.Mutex
	calls []testBridgeCall
}

type testBridgeCall struct {
	channel string
	method  string
	args    any // JSON-decoded
}

func (b *testBridge) InvokeMethod(channel, method string, argsData []byte) ([]byte, error) {
	var args any
	if len(argsData) > 0 {
		json.Unmarshal(argsData, &args)
	}
	b.mu.Lock()
	b.calls = append(b.calls, testBridgeCall{channel: channel, method: method, args: args})
	b.mu.Unlock()
	return DefaultCodec.Encode(nil)
}

func (b *testBridge) StartEventStream(string) error { return nil }
func (b *testBridge) StopEventStream(string) error  { return nil }

// callsTo returns the calls made with the given method.
func (b *testBridge) callsTo(method string) []testBridgeCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	var result []testBridgeCall
	for _, c := range b.calls {
		if c.method == method {
			result = append(result, c)
		}
	}
	return result
}

func (b *testBridge) reset() {
	b.mu.Lock()
	b.calls = b.calls[:0]
	b.mu.Unlock()
}

func setupTestBridge(t *testing.T) *testBridge {
	bridge := &testBridge{}
	SetupTestBridge(t.Cleanup)
	SetNativeBridge(bridge)
	return bridge
}

// hostRecorder is a Callbacks set that records everything it receives.
type hostRecorder struct {
	integers []int64
	floats   []float64
	bools    []bool
	strings  []string
	objects  []string
	arrays   []string
	events   [][2]string
}

func (h *hostRecorder) callbacks() Callbacks {
	return Callbacks{
		OnInteger: func(v int64) { h.integers = append(h.integers, v) },
		OnFloat:   func(v float64) { h.floats = append(h.floats, v) },
		OnBool:    func(v bool) { h.bools = append(h.bools, v) },
		OnString:  func(v string) { h.strings = append(h.strings, v) },
		OnObject:  func(v string) { h.objects = append(h.objects, v) },
		OnArray:   func(v string) { h.arrays = append(h.arrays, v) },
		OnEvent:   func(k, v string) { h.events = append(h.events, [2]string{k, v}) },
	}
}

// reset forgets the initial values delivered at bind time.
func (h *hostRecorder) reset() {
	*h = hostRecorder{}
}
