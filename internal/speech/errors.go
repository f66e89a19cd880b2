package speech

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks against *Error values.
var (
	// ErrEmptyInput is reported for text that is blank after trimming. The
	// facade logs it at debug level and otherwise ignores the call.
	ErrEmptyInput = errors.New("empty input")

	// ErrSynthesis means a backend failed to produce or play audio.
	ErrSynthesis = errors.New("synthesis failed")

	// ErrPlayback means the playback driver failed.
	ErrPlayback = errors.New("playback failed")

	// ErrWorkerFault means the worker goroutine died outside its step guards.
	ErrWorkerFault = errors.New("worker fault")

	// ErrNoBackend means no backend is configured for an operation.
	ErrNoBackend = errors.New("no backend configured")
)

// ErrorCode classifies an Error.
type ErrorCode string

const (
	CodeEmptyInput  ErrorCode = "EMPTY_INPUT"
	CodeSynthesis   ErrorCode = "SYNTHESIS"
	CodePlayback    ErrorCode = "PLAYBACK"
	CodeWorkerFault ErrorCode = "WORKER_FAULT"
)

// Error describes a failure below the facade. These are logged, never
// returned to callers of Speak or Stop.
type Error struct {
	Code      ErrorCode
	Backend   string
	Utterance string
	Cause     error
}

func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Backend != "" {
		msg += " (" + e.Backend + ")"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Cause }

// Is matches the sentinel for the error's code.
func (e *Error) Is(target error) bool {
	switch e.Code {
	case CodeEmptyInput:
		return target == ErrEmptyInput
	case CodeSynthesis:
		return target == ErrSynthesis
	case CodePlayback:
		return target == ErrPlayback
	case CodeWorkerFault:
		return target == ErrWorkerFault
	}
	return false
}

func emptyInputError() *Error {
	return &Error{Code: CodeEmptyInput}
}

func synthesisError(backend, utterance string, cause error) *Error {
	return &Error{Code: CodeSynthesis, Backend: backend, Utterance: utterance, Cause: cause}
}

func playbackError(utterance string, cause error) *Error {
	return &Error{Code: CodePlayback, Utterance: utterance, Cause: cause}
}
