package pipeline

import (
	"fmt"

	"github.com/cybersaathi/cybersaathi/internal/model"
)

// Stage identifies a node of the query pipeline state machine.
type Stage string

const (
	StageSanitize Stage = "sanitize"
	StageRoute    Stage = "route"
	StageRetrieve Stage = "retrieve"
	StageGenerate Stage = "generate"
)

// PipelineError tags a fatal node failure with the stage that produced it.
// The orchestrator halts on the first PipelineError; callers distinguish the
// wrapped cause with errors.As.
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline: stage %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// RetrievalError indicates an evidence backend was unreachable. Retrieval
// failures are never converted into an empty-evidence answer.
type RetrievalError struct {
	Source model.EvidenceSource
	Err    error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("%s evidence retrieval unavailable: %v", e.Source, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// GenerationError indicates the generation call failed. Fallback carries a
// deterministic, user-safe message so callers never surface raw provider
// errors, and remains distinguishable from a genuine grounded answer.
type GenerationError struct {
	Err      error
	Fallback string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("answer generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// generationFallback is the deterministic answer substitute on generation
// failure. It names the failure class without leaking provider detail.
const generationFallback = "I'm sorry, I couldn't generate an answer right now because the language model is unavailable. Please try again in a moment."
