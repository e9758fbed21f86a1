package platform

import "sync"

var (
	dispatchMu   sync.RWMutex
	dispatchFunc func(callback func())
)

// RegisterDispatch sets the dispatch function used to schedule callbacks on
// the UI thread. The embedding platform calls this once during
// initialization; pass nil to remove it.
func RegisterDispatch(fn func(callback func())) {
	dispatchMu.Lock()
	dispatchFunc = fn
	dispatchMu.Unlock()
}

// Dispatch schedules a callback to run on the UI thread.
// Returns true if the callback was successfully scheduled, false if no dispatch function
// is registered or the callback is nil.
func Dispatch(callback func()) bool {
	dispatchMu.RLock()
	fn := dispatchFunc
	dispatchMu.RUnlock()
	if fn == nil || callback == nil {
		return false
	}
	fn(callback)
	return true
}

// DispatchAndWait runs callback on the UI thread and waits for it to
// finish. Without a registered dispatch function the caller is assumed to
// be on the UI thread already and callback runs inline.
//
// Must not be called from the UI thread while a queued dispatch function
// is registered.
func DispatchAndWait(callback func()) {
	if callback == nil {
		return
	}
	done := make(chan struct{})
	if !Dispatch(func() {
		defer close(done)
		callback()
	}) {
		callback()
		return
	}
	<-done
}

// runOnUI schedules callback on the UI thread, or runs it inline when no
// dispatch function is registered.
func runOnUI(callback func()) {
	if !Dispatch(callback) && callback != nil {
		callback()
	}
}
