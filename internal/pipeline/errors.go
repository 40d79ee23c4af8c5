package pipeline

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure modes a caller can act on.
var (
	// ErrNoNotes means the separation and segmentation stages ran but
	// nothing playable came out. Distinct from I/O trouble so callers
	// can tell "bad audio" from "bad disk".
	ErrNoNotes = errors.New("no notes extracted from audio")
)

// StageError wraps a failure with the pipeline stage it happened in.
// Every failure surfaces exactly once; nothing is retried.
type StageError struct {
	Stage string
	Cause error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

func stageErr(stage string, cause error) *StageError {
	return &StageError{Stage: stage, Cause: cause}
}
