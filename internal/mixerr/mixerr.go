// Package mixerr defines the error kinds shared across the packet engine,
// session protocol, and crypto layers. The kind set and policy follow the
// error-handling design: these are kinds, not distinct Go types, so a
// single *Error carries a Kind discriminant plus context.
package mixerr

import "fmt"

// Kind classifies an Error so callers can branch on category without
// string matching.
type Kind int

const (
	KindPacketDecoding Kind = iota
	KindTagMismatch
	KindReplay
	KindPathTooLong
	KindPayloadTooLong
	KindKeyDerivation
	KindInvalidSecretScalar
	KindTicketValidation
	KindParseError
	KindInvalidFrameId
	KindDataTooLong
	KindSinkTimeout
	KindChannelClosed
	// KindKeyStore is not named in the error-kind list but is needed by
	// the KeyStore capability for key-unavailability failures, which the
	// list does not otherwise cover.
	KindKeyStore
)

func (k Kind) String() string {
	switch k {
	case KindPacketDecoding:
		return "PacketDecoding"
	case KindTagMismatch:
		return "TagMismatch"
	case KindReplay:
		return "Replay"
	case KindPathTooLong:
		return "PathTooLong"
	case KindPayloadTooLong:
		return "PayloadTooLong"
	case KindKeyDerivation:
		return "KeyDerivation"
	case KindInvalidSecretScalar:
		return "InvalidSecretScalar"
	case KindTicketValidation:
		return "TicketValidation"
	case KindParseError:
		return "ParseError"
	case KindInvalidFrameId:
		return "InvalidFrameId"
	case KindDataTooLong:
		return "DataTooLong"
	case KindSinkTimeout:
		return "SinkTimeout"
	case KindChannelClosed:
		return "ChannelClosed"
	case KindKeyStore:
		return "KeyStore"
	default:
		return "Unknown"
	}
}

// Error is the common error type returned by this module's packages.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an Error of the given kind.
func New(k Kind, msg string) *Error {
	return &Error{Kind: k, Msg: msg}
}

// Wrap constructs an Error of the given kind around a cause.
func Wrap(k Kind, msg string, cause error) *Error {
	return &Error{Kind: k, Msg: msg, Cause: cause}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, k Kind) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Kind == k
}
