// Package platform binds named native views to per-view data stores and
// carries typed values between the host application and those views.
//
// The host pushes values with the ViewRegistry SetData* methods; views read
// and observe them through a DataStore; changes and named events flow back
// to the host through the Callbacks bound when the view was instantiated.
// The Object and Array slots travel as JSON text on the host side.
package platform

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-drift/viewbridge/pkg/errors"
)

// maxErrorInput bounds how much of a bad payload is kept in a DecodeError.
const maxErrorInput = 64

// MessageCodec encodes and decodes messages for platform channel communication.
type MessageCodec interface {
	// Encode converts a Go value to bytes for transmission to native code.
	Encode(value any) ([]byte, error)

	// Decode converts bytes received from native code to a Go value.
	Decode(data []byte) (any, error)
}

// JsonCodec implements MessageCodec using JSON encoding.
// JSON prioritizes interoperability and minimal native dependencies.
type JsonCodec struct{}

// Encode serializes the value to JSON bytes.
func (c JsonCodec) Encode(value any) ([]byte, error) {
	return marshal(value)
}

// Decode deserializes JSON bytes to a Go value.
func (c JsonCodec) Decode(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var result any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// DefaultCodec is the codec used by platform channels.
var DefaultCodec MessageCodec = JsonCodec{}

// Decode parses JSON text into a value tree: nil, bool, float64, string,
// map[string]any or []any, nested to any depth. Keys mapped to null are
// kept with a nil value.
func Decode(text string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, &errors.DecodeError{
			Slot:  "value",
			Input: errors.Truncate(text, maxErrorInput),
			Err:   fmt.Errorf("%w: %v", errors.ErrMalformedJSON, err),
		}
	}
	return v, nil
}

// DecodeObject parses text for the Object slot. Text that is valid JSON
// but not an object is a DecodeError wrapping ErrTypeMismatch.
func DecodeObject(text string) (map[string]any, error) {
	v, err := decodeSlot(SlotObject, text)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, mismatch(SlotObject, text, v)
	}
	return m, nil
}

// DecodeArray parses text for the Array slot. Elements keep whatever shape
// they have in the text: objects become maps, everything else passes
// through unchanged.
func DecodeArray(text string) ([]any, error) {
	v, err := decodeSlot(SlotArray, text)
	if err != nil {
		return nil, err
	}
	list, ok := v.([]any)
	if !ok {
		return nil, mismatch(SlotArray, text, v)
	}
	return list, nil
}

func decodeSlot(slot SlotKind, text string) (any, error) {
	v, err := Decode(text)
	if err != nil {
		var de *errors.DecodeError
		if errors.As(err, &de) {
			de.Slot = slot.String()
		}
		return nil, err
	}
	return v, nil
}

func mismatch(slot SlotKind, text string, got any) error {
	return &errors.DecodeError{
		Slot:  slot.String(),
		Input: errors.Truncate(text, maxErrorInput),
		Err:   fmt.Errorf("%w: got %s", errors.ErrTypeMismatch, jsonKind(got)),
	}
}

// ObjectOrEmpty decodes text for the Object slot and degrades any
// DecodeError to an empty map after reporting it.
func ObjectOrEmpty(op, view, text string) map[string]any {
	m, _ := degrade(op, view, text, DecodeObject, map[string]any{})
	return m
}

// ArrayOrEmpty decodes text for the Array slot and degrades any
// DecodeError to an empty slice after reporting it.
func ArrayOrEmpty(op, view, text string) []any {
	list, _ := degrade(op, view, text, DecodeArray, []any{})
	return list
}

// degrade decodes text, reporting a failure and returning empty in its
// place. ok is false when the value was degraded.
func degrade[T any](op, view, text string, decode func(string) (T, error), empty T) (v T, ok bool) {
	v, err := decode(text)
	if err != nil {
		reportDecode(op, view, err)
		return empty, false
	}
	return v, true
}

func reportDecode(op, view string, err error) {
	errors.Report(&errors.BridgeError{
		Op:   op,
		Kind: errors.KindParsing,
		View: view,
		Err:  err,
	})
}

// Encode renders a value tree as compact JSON text. Map keys are sorted.
// NaN and infinities cannot be represented and yield an EncodeError.
func Encode(v any) (string, error) {
	data, err := marshal(v)
	if err != nil {
		return "", &errors.EncodeError{Slot: "value", Err: err}
	}
	return string(data), nil
}

// EncodeObject renders the Object slot. A nil map encodes as "{}".
func EncodeObject(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := marshal(m)
	if err != nil {
		return "", &errors.EncodeError{Slot: SlotObject.String(), Err: err}
	}
	return string(data), nil
}

// EncodeArray renders the Array slot. A nil slice encodes as "[]".
func EncodeArray(list []any) (string, error) {
	if list == nil {
		return "[]", nil
	}
	data, err := marshal(list)
	if err != nil {
		return "", &errors.EncodeError{Slot: SlotArray.String(), Err: err}
	}
	return string(data), nil
}

// marshal encodes without HTML escaping so hosts receive text as written.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		var unsupportedValue *json.UnsupportedValueError
		var unsupportedType *json.UnsupportedTypeError
		if errors.As(err, &unsupportedValue) || errors.As(err, &unsupportedType) {
			return nil, fmt.Errorf("%w: %v", errors.ErrUnsupportedValue, err)
		}
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}
