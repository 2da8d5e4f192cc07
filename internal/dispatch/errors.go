package dispatch

import "fmt"

// ErrorKind classifies a dispatch failure. Every workflow failure maps onto
// exactly one kind, and the kind name appears in the envelope's error string
// so callers can match on it.
type ErrorKind string

const (
	KindMethodNotFound       ErrorKind = "MethodNotFound"
	KindInvalidParameters    ErrorKind = "InvalidParameters"
	KindInterpretationFailed ErrorKind = "InterpretationFailed"
	KindActionFailed         ErrorKind = "ActionFailed"
	KindVerificationMismatch ErrorKind = "VerificationMismatch"
	KindStoreUnavailable     ErrorKind = "StoreUnavailable"
)

// Error is a classified dispatch failure. It never propagates past the
// Dispatcher; Dispatch converts it into a failure envelope.
type Error struct {
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func failf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
