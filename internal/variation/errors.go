package variation

import (
	"errors"
	"fmt"
)

// Kind classifies a failure that terminates a run.
type Kind string

const (
	// KindLoad means the source image could not be loaded.
	KindLoad Kind = "load"
	// KindConfig means the generation config was rejected before processing.
	KindConfig Kind = "config"
	// KindOutput means the output directory could not be created.
	KindOutput Kind = "output"
	// KindWrite means writing a variation, thumbnail or sidecar failed mid-run.
	KindWrite Kind = "write"
	// KindInternal means the worker failed unexpectedly.
	KindInternal Kind = "internal"
)

var (
	// ErrCancelled is returned by Sweep when the run was cancelled at a
	// checkpoint. It is not a failure.
	ErrCancelled = errors.New("variation run cancelled")

	// ErrRunActive is returned by Runner.Start when a run is already active.
	ErrRunActive = errors.New("a generation run is already active")
)

// Error is the structured failure delivered to callers of a run.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the Kind of a structured error, or "" if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
