package services

import (
	"fmt"
	"time"

	"github.com/celestiaorg/peakinvestigator/internal/types"
)

// Session steps reported in SessionError
const (
	StepValidate    = "validate"
	StepInit        = "init"
	StepSelect      = "select"
	StepArchive     = "archive"
	StepCredentials = "credentials"
	StepUpload      = "upload"
	StepRun         = "run"
	StepPrep        = "prep"
	StepMetadata    = "metadata"
	StepStatus      = "status"
	StepDownload    = "download"
	StepDecode      = "decode"
	StepDelete      = "delete"
)

// TimeoutError means PREP was still analyzing when the polling budget ran out.
// The remote job keeps running.
type TimeoutError struct {
	File    string
	Timeout time.Duration
	Polls   int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("PREP of %s still analyzing after %s (%d polls)", e.File, e.Timeout, e.Polls)
}

// SessionError wraps the first failure of a session run with the mode and
// step it happened in. JobID is set once INIT has succeeded, so the operator
// can clean up the remote job by hand.
type SessionError struct {
	Mode  types.Mode
	Step  string
	JobID string
	Err   error
}

func (e *SessionError) Error() string {
	if e.JobID != "" {
		return fmt.Sprintf("%s failed at %s (job %s): %v", e.Mode, e.Step, e.JobID, e.Err)
	}
	return fmt.Sprintf("%s failed at %s: %v", e.Mode, e.Step, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}
