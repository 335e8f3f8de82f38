package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("no visible element matched")
	ErrObstructed       = errors.New("blocking overlay could not be cleared")
	ErrFormatUndetected = errors.New("report format not detected")
	ErrValidationFailed = errors.New("record failed validation")
	ErrDownloadFailed   = errors.New("export download failed")
	ErrParseFailed      = errors.New("export parse failed")
	ErrStaleElement     = errors.New("element reference is stale")
)

// ActionError is returned when every fallback for a required interaction
// has been exhausted.
type ActionError struct {
	Action   string
	Strategy string
	Causes   []error
}

func (e *ActionError) Error() string {
	msgs := make([]string, 0, len(e.Causes))
	for _, c := range e.Causes {
		msgs = append(msgs, c.Error())
	}
	return fmt.Sprintf("%s on %s failed: %s", e.Action, e.Strategy, strings.Join(msgs, "; "))
}

func (e *ActionError) Unwrap() []error {
	return e.Causes
}

// FrameAccessError signals that a frame document cannot be read yet or at
// all (cross-origin, detached, still loading). It is an expected condition.
type FrameAccessError struct {
	Frame  string
	Reason string
	Err    error
}

func (e *FrameAccessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("frame %s not accessible (%s): %v", e.Frame, e.Reason, e.Err)
	}
	return fmt.Sprintf("frame %s not accessible (%s)", e.Frame, e.Reason)
}

func (e *FrameAccessError) Unwrap() error {
	return e.Err
}
