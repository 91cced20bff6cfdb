package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/cybersaathi/cybersaathi/internal/audit"
	"github.com/cybersaathi/cybersaathi/internal/model"
	"github.com/cybersaathi/cybersaathi/internal/privacy"
)

// Sanitizer runs the SANITIZE stage: redact PII before anything leaves the
// process, then record the event. Only the RedactionSummary crosses into the
// auditor; raw values and the original text cannot, by type.
type Sanitizer struct {
	redactor *privacy.Redactor
	auditor  audit.Recorder
}

// NewSanitizer creates a Sanitizer.
func NewSanitizer(redactor *privacy.Redactor, auditor audit.Recorder) *Sanitizer {
	return &Sanitizer{redactor: redactor, auditor: auditor}
}

// Sanitize redacts query and audits the result. Auditing is best-effort: a
// failed audit write is logged and never blocks answer production.
func (s *Sanitizer) Sanitize(ctx context.Context, query, correlationID string) model.SanitizedQuery {
	sq := s.redactor.Redact(query)

	if sq.Summary.Redacted {
		kinds := make([]string, 0, len(sq.Summary.Types))
		for kind := range sq.Summary.Types {
			kinds = append(kinds, string(kind))
		}
		zap.L().Warn("sanitize: PII detected and redacted",
			zap.String("correlation_id", correlationID),
			zap.Int("count", sq.Summary.Count),
			zap.Strings("kinds", kinds),
		)

		if err := s.auditor.Record(ctx, sq.Summary, correlationID); err != nil {
			zap.L().Warn("sanitize: audit write failed",
				zap.String("correlation_id", correlationID),
				zap.Error(err),
			)
		}
	}

	return sq
}
