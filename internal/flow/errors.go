package flow

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a flow failure.
type ErrorKind string

const (
	KindInvalidInput    ErrorKind = "InvalidInput"
	KindModelCallFailed ErrorKind = "ModelCallFailed"
	KindMalformedOutput ErrorKind = "MalformedModelOutput"
	KindNoAudioProduced ErrorKind = "NoAudioProduced"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrModelCallFailed = errors.New("model call failed")
	ErrMalformedOutput = errors.New("malformed model output")
	ErrNoAudioProduced = errors.New("no audio produced")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInvalidInput:
		return ErrInvalidInput
	case KindModelCallFailed:
		return ErrModelCallFailed
	case KindMalformedOutput:
		return ErrMalformedOutput
	case KindNoAudioProduced:
		return ErrNoAudioProduced
	}
	return nil
}

// Error is returned by every flow. errors.Is matches the sentinel of its
// Kind as well as anything in Err's chain.
type Error struct {
	Flow Kind
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Flow, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func fail(flow Kind, kind ErrorKind, err error) error {
	return &Error{Flow: flow, Kind: kind, Err: err}
}

func invalid(flow Kind, format string, args ...any) error {
	return fail(flow, KindInvalidInput, fmt.Errorf(format, args...))
}

func malformed(flow Kind, format string, args ...any) error {
	return fail(flow, KindMalformedOutput, fmt.Errorf(format, args...))
}

// KindOf returns the ErrorKind carried by err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}
