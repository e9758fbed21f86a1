package devserver

import (
	"encoding/json"
	"fmt"
)

// Inbound operations.
const (
	opShow           = "show"
	opDispose        = "dispose"
	opSetDataInteger = "setDataInteger"
	opSetDataFloat   = "setDataFloat"
	opSetDataBool    = "setDataBool"
	opSetDataString  = "setDataString"
	opSetDataObject  = "setDataObject"
	opSetDataArray   = "setDataArray"
)

// Outbound message types.
const (
	typeInteger     = "integer"
	typeFloat       = "float"
	typeBool        = "bool"
	typeString      = "string"
	typeObject      = "object"
	typeArray       = "array"
	typeEvent       = "event"
	typePlaceholder = "placeholder"
	typeError       = "error"
)

// hostRequest is a message from a remote host.
//
//	{"op":"show","name":"echo"}
//	{"op":"setDataObject","name":"echo","value":"{\"a\":1}"}
type hostRequest struct {
	Op    string          `json:"op"`
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value,omitempty"`
}

// hostMessage is a message to a remote host.
type hostMessage struct {
	Type  string `json:"type"`
	Name  string `json:"name,omitempty"`
	Key   string `json:"key,omitempty"`
	Value any    `json:"value"`
}

func decodeValue[T any](raw json.RawMessage, what string) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, fmt.Errorf("missing %s value", what)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("value must be %s: %w", what, err)
	}
	return v, nil
}

// decodeNumber decodes raw as a JSON number and converts it with the same
// rules the native channel applies, so 1e3 and 2.0 are valid integers.
func decodeNumber[T any](raw json.RawMessage, what string, convert func(any) (T, bool)) (T, error) {
	var zero T
	v, err := decodeValue[any](raw, what)
	if err != nil {
		return zero, err
	}
	n, ok := convert(v)
	if !ok {
		return zero, fmt.Errorf("value must be %s", what)
	}
	return n, nil
}

// jsonText returns the JSON text a host sent for the Object or Array slot.
// Hosts may send it as a string, as the native channel does, or inline.
func jsonText(raw json.RawMessage) string {
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}
