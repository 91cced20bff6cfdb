// Package pipeline implements the query-processing state machine:
// SANITIZE → ROUTE → RETRIEVE(LAW|WEB) → GENERATE. Each stage is a function
// from one immutable value to the next; the topology never branches except
// the two-way law/web fork. Invocations are stateless and independent.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cybersaathi/cybersaathi/internal/model"
)

// Pipeline sequences the stages of one question/answer cycle. All
// collaborators are injected at construction so the pipeline is testable
// with fakes.
type Pipeline struct {
	sanitizer *Sanitizer
	router    *Router
	law       *LawProvider
	web       *WebProvider
	composer  *Composer
	timeout   time.Duration
}

// New creates a Pipeline. timeout bounds each external call (classification,
// retrieval, generation); zero means one minute.
func New(
	sanitizer *Sanitizer,
	router *Router,
	law *LawProvider,
	web *WebProvider,
	composer *Composer,
	timeout time.Duration,
) *Pipeline {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Pipeline{
		sanitizer: sanitizer,
		router:    router,
		law:       law,
		web:       web,
		composer:  composer,
		timeout:   timeout,
	}
}

// Answer runs one query through the pipeline and assembles the result. On a
// fatal stage failure it returns a PipelineError identifying the stage; only
// the router's ambiguous-classification fallback substitutes a default. A
// cancelled ctx stops the machine before the next stage runs.
func (p *Pipeline) Answer(ctx context.Context, query, correlationID string) (*model.AnswerResult, error) {
	log := zap.L().With(zap.String("correlation_id", correlationID))
	start := time.Now()

	// SANITIZE: nothing may leave the process before this completes.
	sq := p.sanitizer.Sanitize(ctx, query, correlationID)
	if err := ctx.Err(); err != nil {
		return nil, &PipelineError{Stage: StageSanitize, Err: err}
	}

	// ROUTE
	routeCtx, cancelRoute := context.WithTimeout(ctx, p.timeout)
	source := p.router.Route(routeCtx, sq.Sanitized)
	cancelRoute()
	log.Info("pipeline: routed query", zap.String("source", string(source)))
	if err := ctx.Err(); err != nil {
		return nil, &PipelineError{Stage: StageRoute, Err: err}
	}

	// RETRIEVE
	retrieveCtx, cancelRetrieve := context.WithTimeout(ctx, p.timeout)
	var passages []model.EvidencePassage
	var err error
	switch source {
	case model.SourceWeb:
		passages, err = p.web.Retrieve(retrieveCtx, sq.Sanitized)
	default:
		passages, err = p.law.Retrieve(retrieveCtx, sq.Sanitized)
	}
	cancelRetrieve()
	if err != nil {
		return nil, &PipelineError{Stage: StageRetrieve, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &PipelineError{Stage: StageRetrieve, Err: err}
	}

	// GENERATE
	var citations []model.SourceCitation
	if source == model.SourceLaw {
		citations = model.BuildCitations(passages)
	}

	generateCtx, cancelGenerate := context.WithTimeout(ctx, p.timeout)
	answer, err := p.composer.Compose(generateCtx, sq, source, passages, citations)
	cancelGenerate()
	if err != nil {
		return nil, &PipelineError{Stage: StageGenerate, Err: err}
	}

	log.Info("pipeline: answer complete",
		zap.String("source", string(source)),
		zap.Int("citations", len(citations)),
		zap.Bool("pii_redacted", sq.Summary.Redacted),
		zap.Duration("duration", time.Since(start)),
	)

	return &model.AnswerResult{
		AnswerText:     answer,
		EvidenceSource: source,
		Citations:      citations,
		Redaction:      sq.Summary,
	}, nil
}
