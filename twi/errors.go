package twi

import (
	"errors"
	"fmt"
)

var ErrBusTimeout = errors.New("bus timeout")
var ErrEmptyPayload = errors.New("empty write payload")
var ErrEmptyBuffer = errors.New("empty read buffer")

// TimeoutError reports a wait that did not see its condition before the
// deadline.
type TimeoutError struct {
	Condition Condition
	Phase     Phase
	Register  uint16
	// Cause is the context error when the wait was ended by the context.
	Cause error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("bus timeout waiting for %s during %s (register %#04x)", e.Condition, e.Phase, e.Register)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrBusTimeout
}

func (e *TimeoutError) Unwrap() error {
	return e.Cause
}
