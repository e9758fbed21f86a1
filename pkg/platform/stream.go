package platform

import "github.com/go-drift/viewbridge/pkg/errors"

// Stream is a typed view of an EventChannel. Every listener receives every
// event that parses; events that do not parse are reported and skipped.
type Stream[T any] struct {
	channel *EventChannel
	parse   func(data any) (T, error)
}

// NewStream wraps channel with parse.
func NewStream[T any](channel *EventChannel, parse func(data any) (T, error)) *Stream[T] {
	return &Stream[T]{channel: channel, parse: parse}
}

// Listen subscribes handler and returns a function that unsubscribes it.
// Stream errors are reported with errors.Report.
func (s *Stream[T]) Listen(handler func(T)) (unsubscribe func()) {
	name := s.channel.Name()
	sub := s.channel.Listen(EventHandler{
		OnEvent: func(data any) {
			v, err := s.parse(data)
			if err != nil {
				errors.Report(&errors.BridgeError{
					Op:      "platform.Stream.parse",
					Kind:    errors.KindParsing,
					Channel: name,
					Err:     err,
				})
				return
			}
			handler(v)
		},
		OnError: func(err error) {
			reportChannel("platform.Stream", name, err)
		},
	})
	return sub.Cancel
}
