package ledger

import "fmt"

// Kind is the stable, machine-readable error code of spec §7.
type Kind string

const (
	BadRequest            Kind = "BadRequest"
	NotFound              Kind = "NotFound"
	InactiveAccount       Kind = "InactiveAccount"
	CurrencyMismatch      Kind = "CurrencyMismatch"
	InsufficientFunds     Kind = "InsufficientFunds"
	Conflict              Kind = "Conflict"
	IllegalStateTransition Kind = "IllegalStateTransition"
	AlreadyReversed       Kind = "AlreadyReversed"
	ConcurrencyExhausted  Kind = "ConcurrencyExhausted"
	StoreUnavailable      Kind = "StoreUnavailable"
	Cancelled             Kind = "Cancelled"
	DeadlineExceeded      Kind = "DeadlineExceeded"

	// SerializationConflict is engine-internal: a store signals it when a
	// commit aborts under snapshot/serializable isolation. The engine
	// retries transparently and it never reaches a caller — after
	// ConcurrencyMaxRetries retries it is rewrapped as ConcurrencyExhausted.
	SerializationConflict Kind = "SerializationConflict"
)

// Error is the typed failure surfaced by every ledger operation (spec
// §7). It carries a stable Kind plus an optional machine-readable
// Details payload (e.g. InsufficientFunds carries {available,
// requested}).
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, ledger.New(ledger.NotFound, "")) style
// matching against a bare Kind sentinel produced by New(kind, "").
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// New constructs an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an *Error of the given kind that also chains cause via
// errors.Unwrap.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithDetails attaches a details payload and returns the same *Error for
// chaining at the call site.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// KindOf extracts the Kind from err if it is (or wraps) a *Error,
// returning ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var le *Error
	if ok := asError(err, &le); ok {
		return le.Kind, true
	}
	return "", false
}

func asError(err error, target **Error) bool {
	for err != nil {
		if le, ok := err.(*Error); ok {
			*target = le
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

// InsufficientFundsErr builds the standard InsufficientFunds error with
// its {available, requested} details payload (spec §7).
func InsufficientFundsErr(available, requested string) *Error {
	return New(InsufficientFunds, "insufficient funds").WithDetails(map[string]any{
		"available": available,
		"requested": requested,
	})
}
