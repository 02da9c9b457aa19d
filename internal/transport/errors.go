package transport

import "errors"

// Sentinel errors for the transport layer (spec.md §4.1, §7). Wrapped with
// %w by callers so errors.Is still matches through the chain.
var (
	ErrTransportUnavailable = errors.New("transport: proxy unavailable")
	ErrRegistrationRejected = errors.New("transport: registration rejected")
	ErrDisconnected         = errors.New("transport: disconnected")
	ErrTimeout              = errors.New("transport: command timed out")
	ErrClosed               = errors.New("transport: session closed")
)

// ApplicationError wraps a remote status=error reply. It is a normal,
// non-fatal outcome for the session (spec.md §4.1: "Application-level
// errors... do not affect the session").
type ApplicationError struct {
	ErrorKind string
	Message   string
}

func (e *ApplicationError) Error() string {
	if e.ErrorKind != "" {
		return "transport: application error [" + e.ErrorKind + "]: " + e.Message
	}
	return "transport: application error: " + e.Message
}
