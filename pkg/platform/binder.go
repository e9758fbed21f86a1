package platform

import (
	"github.com/go-drift/viewbridge/pkg/core"
	"github.com/go-drift/viewbridge/pkg/errors"
)

// bindCallbacks attaches the host's slot callbacks to data for the
// lifetime of scope. Once scope is disposed none of them fire again.
func bindCallbacks(scope core.LifecycleScope, data *ViewData, cb Callbacks) {
	if cb.OnInteger != nil {
		core.UseObservable(scope, data.Integer(), guard("Callbacks.OnInteger", cb.OnInteger))
	}
	if cb.OnFloat != nil {
		core.UseObservable(scope, data.Float(), guard("Callbacks.OnFloat", cb.OnFloat))
	}
	if cb.OnBool != nil {
		core.UseObservable(scope, data.Bool(), guard("Callbacks.OnBool", cb.OnBool))
	}
	if cb.OnString != nil {
		core.UseObservable(scope, data.Text(), guard("Callbacks.OnString", cb.OnString))
	}
	if cb.OnObject != nil {
		onObject := guard("Callbacks.OnObject", cb.OnObject)
		core.UseObservable(scope, data.Object(), func(m map[string]any) {
			text, err := EncodeObject(m)
			if err != nil {
				reportEncode(data.Name(), err)
				text = "{}"
			}
			onObject(text)
		})
	}
	if cb.OnArray != nil {
		onArray := guard("Callbacks.OnArray", cb.OnArray)
		core.UseObservable(scope, data.Array(), func(list []any) {
			text, err := EncodeArray(list)
			if err != nil {
				reportEncode(data.Name(), err)
				text = "[]"
			}
			onArray(text)
		})
	}
}

// guard keeps a panicking host callback from unwinding the UI thread.
func guard[T any](op string, fn func(T)) func(T) {
	return func(v T) {
		defer errors.Recover(op)
		fn(v)
	}
}

func reportEncode(view string, err error) {
	errors.Report(&errors.BridgeError{
		Op:   "platform.bindCallbacks",
		Kind: errors.KindEncoding,
		View: view,
		Err:  err,
	})
}
