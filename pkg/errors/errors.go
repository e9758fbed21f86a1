// Package errors provides structured error handling for the view bridge.
package errors

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindPlatform indicates a platform channel or native bridge error.
	KindPlatform
	// KindParsing indicates a payload could not be decoded.
	KindParsing
	// KindEncoding indicates a slot value could not be encoded for the host.
	KindEncoding
	// KindNotFound indicates a view name with no registered factory.
	KindNotFound
	// KindLifecycle indicates a view was used outside its lifecycle scope.
	KindLifecycle
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindPlatform:
		return "platform"
	case KindParsing:
		return "parsing"
	case KindEncoding:
		return "encoding"
	case KindNotFound:
		return "not_found"
	case KindLifecycle:
		return "lifecycle"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// Sentinel errors.
var (
	// ErrViewNotFound indicates no factory is registered for a view name.
	ErrViewNotFound = errors.New("view not registered")

	// ErrMalformedJSON indicates text that is not valid JSON.
	ErrMalformedJSON = errors.New("malformed JSON")

	// ErrTypeMismatch indicates valid JSON of the wrong shape for a slot.
	ErrTypeMismatch = errors.New("JSON type mismatch")

	// ErrUnsupportedValue indicates a value JSON cannot represent (NaN, Inf).
	ErrUnsupportedValue = errors.New("value not representable as JSON")
)

// BridgeError represents a structured error in the view bridge.
type BridgeError struct {
	// Op is the operation that failed (e.g., "platform.SetDataObject").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// View is the view name, if applicable.
	View string
	// Channel is the platform channel name, if applicable.
	Channel string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *BridgeError) Error() string {
	switch {
	case e.View != "":
		return fmt.Sprintf("%s [%s] view=%s: %v", e.Op, e.Kind, e.View, e.Err)
	case e.Channel != "":
		return fmt.Sprintf("%s [%s] channel=%s: %v", e.Op, e.Kind, e.Channel, e.Err)
	default:
		return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *BridgeError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "platform.Instantiate").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// DecodeError reports JSON text that could not become a slot value.
// Callers degrade to an empty mapping or sequence instead of propagating it.
type DecodeError struct {
	// Slot is the slot the text was meant for ("object", "array").
	Slot string
	// Input is the offending text, truncated for logging.
	Input string
	// Err is ErrMalformedJSON or ErrTypeMismatch, optionally wrapping the
	// decoder's own error.
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s slot from %q: %v", e.Slot, e.Input, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeError reports a slot value that could not be encoded as JSON.
type EncodeError struct {
	Slot string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s slot: %v", e.Slot, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a view name with no registered factory.
type NotFoundError struct {
	View string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("view %q not registered", e.View)
}

// Is reports ErrViewNotFound as equivalent.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrViewNotFound
}

// ErrorHandler receives errors reported by the view bridge.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *BridgeError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}

// Is, As and New re-export the standard helpers so callers importing this
// package under the name errors keep access to them.
var (
	Is  = errors.Is
	As  = errors.As
	New = errors.New
)

// Truncate shortens s to at most n bytes for inclusion in error messages.
// The cut never splits a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n < 0 {
		n = 0
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
