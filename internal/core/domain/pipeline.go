package domain

import "fmt"

// Stage names the step of the RAG pipeline an external failure occurred in.
// Callers use the stage to distinguish "no answer produced" from "answer
// produced but low quality".
type Stage string

// Pipeline stages, in execution order.
const (
	StageRewriting  Stage = "REWRITING"
	StageRetrieving Stage = "RETRIEVING"
	StageGenerating Stage = "GENERATING"
)

// PipelineError tags an external-service failure with the pipeline stage
// that triggered it. The pipeline never retries internally; the error
// propagates immediately and the remaining stages are skipped.
type PipelineError struct {
	// Stage is where the failure occurred.
	Stage Stage

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline stage %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError wraps err with the given stage.
func NewPipelineError(stage Stage, err error) *PipelineError {
	return &PipelineError{Stage: stage, Err: err}
}
