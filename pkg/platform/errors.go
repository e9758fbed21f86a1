package platform

import (
	"errors"
	"fmt"

	bridgeerrors "github.com/go-drift/viewbridge/pkg/errors"
)

// Sentinel errors for platform operations.
var (
	// ErrClosed is returned when operating on a closed channel or registry.
	ErrClosed = errors.New("platform: closed")

	// ErrChannelNotFound indicates the requested platform channel does not exist.
	ErrChannelNotFound = errors.New("platform channel not found")

	// ErrMethodNotFound indicates the method is not implemented on the receiving side.
	ErrMethodNotFound = errors.New("method not implemented")

	// ErrInvalidArguments indicates the arguments passed to the method were invalid.
	ErrInvalidArguments = errors.New("invalid arguments")

	// ErrPlatformUnavailable indicates no native bridge is installed.
	ErrPlatformUnavailable = errors.New("platform feature unavailable")

	// ErrViewNotFound indicates no factory is registered for a view name.
	ErrViewNotFound = bridgeerrors.ErrViewNotFound

	// ErrScopeDisposed indicates a view was instantiated into a lifecycle
	// scope that had already ended, or was torn down while being created.
	ErrScopeDisposed = errors.New("platform: lifecycle scope already disposed")

	// ErrChannelNotRegistered is returned when an event is received for an unregistered channel.
	ErrChannelNotRegistered = errors.New("event channel not registered")
)

// ChannelError represents an error returned from native code.
type ChannelError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *ChannelError) Error() string {
	if e.Message != "" {
		return e.Code + ": " + e.Message
	}
	return e.Code
}

// NewChannelError creates a new ChannelError with the given code and message.
func NewChannelError(code, message string) *ChannelError {
	return &ChannelError{Code: code, Message: message}
}

func invalidArgs(method, detail string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidArguments, method, detail)
}
