// Package errors implements the kind-tagged error values used throughout
// netc. Hot decode paths panic with an *Error and every exported entry
// point recovers with Recover, keeping the success path branch-free.
package errors

import (
	"fmt"
	"runtime"
)

// Kind classifies why an operation failed. The zero Kind is never used.
type Kind uint8

const (
	_ Kind = iota

	// NoMemory reports an allocation failure.
	NoMemory
	// TooBig reports that src_size exceeds NETC_MAX_PACKET_SIZE.
	TooBig
	// Corrupted reports malformed, truncated, or out-of-range input.
	Corrupted
	// DictInvalid reports a bad dictionary magic, CRC, or frequency table.
	DictInvalid
	// BufferTooSmall reports that dst capacity is insufficient.
	BufferTooSmall
	// NilContext reports a missing context.
	NilContext
	// Unsupported reports an algorithm variant that is not implemented.
	Unsupported
	// VersionMismatch reports a model_id or format version mismatch.
	VersionMismatch
	// InvalidArgument reports a null/zero argument where disallowed.
	InvalidArgument
)

func (k Kind) String() string {
	switch k {
	case NoMemory:
		return "allocation failure"
	case TooBig:
		return "packet exceeds maximum size"
	case Corrupted:
		return "stream is corrupted"
	case DictInvalid:
		return "dictionary is invalid"
	case BufferTooSmall:
		return "destination buffer too small"
	case NilContext:
		return "context is nil"
	case Unsupported:
		return "algorithm variant is not supported"
	case VersionMismatch:
		return "model or format version mismatch"
	case InvalidArgument:
		return "invalid argument"
	default:
		return "unknown error"
	}
}

// Error is the concrete error type produced by netc. Kind is intended to be
// switched on by callers that need programmatic recovery behavior; Msg adds
// operator-facing detail.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return "netc: " + e.Kind.String()
	}
	return "netc: " + e.Kind.String() + ": " + e.Msg
}

// KindOf extracts the Kind from err, or 0 if err is nil or not an *Error.
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return 0
}

// New returns a new *Error of the given kind with a formatted message.
func New(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

// Panic panics with a *Error of the given kind.
func Panic(k Kind, format string, args ...interface{}) {
	panic(New(k, format, args...))
}

// Recover must be deferred at the top of every exported entry point that
// uses Panic internally. It converts a *Error panic into a returned error,
// re-panics on runtime errors (bugs), and re-panics on anything else.
func Recover(err *error) {
	switch ex := recover().(type) {
	case nil:
		// Do nothing.
	case runtime.Error:
		panic(ex)
	case *Error:
		*err = ex
	case error:
		*err = ex
	default:
		panic(ex)
	}
}
