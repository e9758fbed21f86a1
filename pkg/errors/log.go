package errors

import (
	"fmt"
	"io"
	"os"
)

// LogHandler is an ErrorHandler that writes reports as plain text.
type LogHandler struct {
	// Verbose enables detailed output including stack traces.
	Verbose bool
	// Out receives the output. Nil means os.Stderr.
	Out io.Writer
}

func (h *LogHandler) out() io.Writer {
	if h.Out == nil {
		return os.Stderr
	}
	return h.Out
}

// HandleError logs a BridgeError.
func (h *LogHandler) HandleError(err *BridgeError) {
	if err == nil {
		return
	}
	w := h.out()
	if !h.Verbose {
		fmt.Fprintf(w, "[viewbridge error] %s: %v\n", err.Op, err.Err)
		return
	}
	fmt.Fprintf(w, "[viewbridge error] %s [%s]", err.Op, err.Kind)
	if err.View != "" {
		fmt.Fprintf(w, " view=%s", err.View)
	}
	if err.Channel != "" {
		fmt.Fprintf(w, " channel=%s", err.Channel)
	}
	fmt.Fprintf(w, ": %v\n", err.Err)
	if err.StackTrace != "" {
		fmt.Fprintf(w, "Stack trace:\n%s\n", err.StackTrace)
	}
}

// HandlePanic logs a PanicError.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	w := h.out()
	if err.Op != "" {
		fmt.Fprintf(w, "[viewbridge panic] %s: %v\n", err.Op, err.Value)
	} else {
		fmt.Fprintf(w, "[viewbridge panic] %v\n", err.Value)
	}
	if h.Verbose && err.StackTrace != "" {
		fmt.Fprintf(w, "Stack trace:\n%s\n", err.StackTrace)
	}
}
