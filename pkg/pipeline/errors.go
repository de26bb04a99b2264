package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a conversion failure.
type Kind string

const (
	KindInvalidConfig        Kind = "INVALID_CONFIG"
	KindSourceLoadFailed     Kind = "SOURCE_LOAD_FAILED"
	KindSourceLoadTimeout    Kind = "SOURCE_LOAD_TIMEOUT"
	KindInvalidDimensions    Kind = "INVALID_DIMENSIONS"
	KindSeekTimeout          Kind = "SEEK_TIMEOUT"
	KindSeekFailed           Kind = "SEEK_FAILED"
	KindCancelled            Kind = "CANCELLED"
	KindCanvasUnavailable    Kind = "CANVAS_UNAVAILABLE"
	KindEmptyBatch           Kind = "EMPTY_BATCH"
	KindDimensionMismatch    Kind = "DIMENSION_MISMATCH"
	KindInvalidEncodeRequest Kind = "INVALID_ENCODE_REQUEST"
	KindInitTimeout          Kind = "INIT_TIMEOUT"
	KindEncodeTimeout        Kind = "ENCODE_TIMEOUT"
	KindChannelBusy          Kind = "CHANNEL_BUSY"
	KindChannelClosed        Kind = "CHANNEL_CLOSED"
	KindRemoteEncodeError    Kind = "REMOTE_ENCODE_ERROR"
)

// Error is a classified pipeline failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// NewError creates an Error of the given kind.
func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Errorf creates an Error of the given kind with a formatted message.
func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	msg := "[" + string(e.Kind) + "]"
	if e.Message != "" {
		msg += " " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind. A target with a
// message only matches an error with the same message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidConfig        = &Error{Kind: KindInvalidConfig}
	ErrSourceLoadFailed     = &Error{Kind: KindSourceLoadFailed}
	ErrSourceLoadTimeout    = &Error{Kind: KindSourceLoadTimeout}
	ErrInvalidDimensions    = &Error{Kind: KindInvalidDimensions}
	ErrSeekTimeout          = &Error{Kind: KindSeekTimeout}
	ErrSeekFailed           = &Error{Kind: KindSeekFailed}
	ErrCancelled            = &Error{Kind: KindCancelled}
	ErrCanvasUnavailable    = &Error{Kind: KindCanvasUnavailable}
	ErrEmptyBatch           = &Error{Kind: KindEmptyBatch}
	ErrDimensionMismatch    = &Error{Kind: KindDimensionMismatch}
	ErrInvalidEncodeRequest = &Error{Kind: KindInvalidEncodeRequest}
	ErrInitTimeout          = &Error{Kind: KindInitTimeout}
	ErrEncodeTimeout        = &Error{Kind: KindEncodeTimeout}
	ErrChannelBusy          = &Error{Kind: KindChannelBusy}
	ErrChannelClosed        = &Error{Kind: KindChannelClosed}
	ErrRemoteEncodeError    = &Error{Kind: KindRemoteEncodeError}
)

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// Cancelled wraps a context error as a CANCELLED failure.
func Cancelled(ctx context.Context, op string) *Error {
	return NewError(KindCancelled, op+" cancelled", ctx.Err())
}
