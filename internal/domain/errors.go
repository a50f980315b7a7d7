package domain

import "fmt"

type Stage string

const (
	StageValidate   Stage = "validate"
	StageWorkspace  Stage = "workspace"
	StageResolve    Stage = "resolve"
	StageTranscribe Stage = "transcribe"
)

// PipelineError is a stage-aware error. Message is safe to show to clients.
type PipelineError struct {
	Stage   Stage
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *PipelineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
