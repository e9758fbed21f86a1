package errors

import "go.uber.org/zap"

// ZapHandler is an ErrorHandler that emits structured log entries.
type ZapHandler struct {
	Logger *zap.Logger
	// Verbose attaches stack traces to entries.
	Verbose bool
}

// NewZapHandler returns a handler writing to logger. A nil logger
// discards everything.
func NewZapHandler(logger *zap.Logger, verbose bool) *ZapHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapHandler{Logger: logger, Verbose: verbose}
}

// HandleError logs err at warn level; NotFound and parsing failures are
// degraded locally so they never rise above warn.
func (h *ZapHandler) HandleError(err *BridgeError) {
	if err == nil {
		return
	}
	fields := []zap.Field{
		zap.String("op", err.Op),
		zap.Stringer("kind", err.Kind),
		zap.Error(err.Err),
		zap.Time("at", err.Timestamp),
	}
	if err.View != "" {
		fields = append(fields, zap.String("view", err.View))
	}
	if err.Channel != "" {
		fields = append(fields, zap.String("channel", err.Channel))
	}
	if h.Verbose && err.StackTrace != "" {
		fields = append(fields, zap.String("stack", err.StackTrace))
	}
	h.Logger.Warn("viewbridge error", fields...)
}

// HandlePanic logs err at error level.
func (h *ZapHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	fields := []zap.Field{
		zap.String("op", err.Op),
		zap.Any("value", err.Value),
		zap.Time("at", err.Timestamp),
	}
	if h.Verbose && err.StackTrace != "" {
		fields = append(fields, zap.String("stack", err.StackTrace))
	}
	h.Logger.Error("viewbridge panic", fields...)
}
