package errors

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// StageError is a fatal failure of one pipeline stage. It carries the
// stack captured at the point the stage gave up.
type StageError struct {
	Stage string
	Cause error
	Stack string
}

func NewStageError(stage string, cause error) *StageError {
	return &StageError{
		Stage: stage,
		Cause: cause,
		Stack: string(debug.Stack()),
	}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

func (e *StageError) IsFatal() bool {
	return true
}

// StageOf returns the failing stage name, or "" when err is not a stage failure.
func StageOf(err error) string {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return ""
}

// StackOf returns the stack captured for a stage failure or a recovered panic.
func StackOf(err error) string {
	var stageErr *StageError
	if errors.As(err, &stageErr) && stageErr.Stack != "" {
		return stageErr.Stack
	}
	if v, ok := Detail(err, "stack_trace"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// RootMessage is the message of the stage cause, without the stage prefix.
func RootMessage(err error) string {
	if err == nil {
		return ""
	}
	var stageErr *StageError
	if errors.As(err, &stageErr) && stageErr.Cause != nil {
		err = stageErr.Cause
	}
	if appErr, ok := err.(*Error); ok {
		if appErr.Cause != nil {
			return fmt.Sprintf("%s: %v", appErr.Message, appErr.Cause)
		}
		return appErr.Message
	}
	return err.Error()
}

// RecoverPanic converts a recovered panic value into a fatal internal error
// carrying the goroutine stack. It returns nil for a nil value.
func RecoverPanic(r interface{}) error {
	if r == nil {
		return nil
	}
	cause, ok := r.(error)
	if ok {
		cause = fmt.Errorf("panic: %w", cause)
	} else {
		cause = fmt.Errorf("panic: %v", r)
	}
	return ErrInternal.
		WithCause(cause).
		WithDetail("panic", true).
		WithDetail("stack_trace", string(debug.Stack())).
		AsFatal()
}
