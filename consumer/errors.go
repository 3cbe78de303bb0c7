package consumer

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a consumer error per §7.
type ErrorKind int

const (
	ErrKindUnknown ErrorKind = iota
	ErrKindAlreadyClosed
	ErrKindNotConnected
	ErrKindTimeout
	ErrKindDecompression
	ErrKindBatchDeserialize
	ErrKindChecksumMismatch
	ErrKindUncompressedSizeCorruption
	ErrKindConnectionFailedOnSend
	ErrKindBroker
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindAlreadyClosed:
		return "already_closed"
	case ErrKindNotConnected:
		return "not_connected"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindDecompression:
		return "decompression_error"
	case ErrKindBatchDeserialize:
		return "batch_deserialize_error"
	case ErrKindChecksumMismatch:
		return "checksum_mismatch"
	case ErrKindUncompressedSizeCorruption:
		return "uncompressed_size_corruption"
	case ErrKindConnectionFailedOnSend:
		return "connection_failed_on_send"
	case ErrKindBroker:
		return "broker"
	default:
		return "unknown"
	}
}

// Error wraps a Kind alongside the underlying cause, if any, and a
// BrokerCode for ErrKindBroker (§7).
type Error struct {
	Kind       ErrorKind
	BrokerCode int32
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Message != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
		}
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func newErr(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Sentinels for errors.Is comparisons where no extra context is needed.
var (
	ErrAlreadyClosed = &Error{Kind: ErrKindAlreadyClosed, Message: "consumer already closed"}
	ErrNotConnected  = &Error{Kind: ErrKindNotConnected, Message: "not connected"}
	ErrTimeout       = &Error{Kind: ErrKindTimeout, Message: "operation timed out"}
)

func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return e.Kind == te.Kind
	}
	return false
}

// fatalBrokerCodes, read by brokerErrRetriable, classifies broker error codes into retriable vs fatal,
// per the static table referenced in §7. Codes are intentionally opaque
// small integers here: the wire codec is out of scope, but the session
// actor still needs to decide reconnect-vs-fail.
var fatalBrokerCodes = map[int32]bool{
	1: true, // consumer already exists with a different subscription type
	2: true, // topic does not exist and auto-creation is disallowed
	3: true, // unauthorized
}

func brokerErrRetriable(code int32) bool {
	return !fatalBrokerCodes[code]
}

func newBrokerErr(code int32, msg string) *Error {
	return &Error{Kind: ErrKindBroker, BrokerCode: code, Message: msg}
}
