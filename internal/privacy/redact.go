package privacy

import (
	"sort"

	"github.com/cybersaathi/cybersaathi/internal/model"
)

// Redactor transforms raw text into sanitized text plus a redaction summary.
type Redactor struct {
	det *Detector
}

// NewRedactor wraps a detector.
func NewRedactor(det *Detector) *Redactor {
	return &Redactor{det: det}
}

// Redact detects PII in text and replaces each surviving span with a
// [REDACTED_<KIND>] placeholder. Overlapping spans are resolved greedily:
// spans are sorted by start offset and any span intersecting an already-kept
// span is dropped, so no character is redacted twice and placeholders never
// nest. Replacement runs right-to-left so earlier replacements cannot
// invalidate later offsets.
func (r *Redactor) Redact(text string) model.SanitizedQuery {
	kept := selectNonOverlapping(r.det.Detect(text))

	sanitized := text
	for i := len(kept) - 1; i >= 0; i-- {
		m := kept[i]
		sanitized = sanitized[:m.Start] + Placeholder(m.Kind) + sanitized[m.End:]
	}

	summary := model.RedactionSummary{
		Redacted: len(kept) > 0,
		Count:    len(kept),
	}
	if len(kept) > 0 {
		summary.Types = make(map[model.PIIKind]int, len(kept))
		for _, m := range kept {
			summary.Types[m.Kind]++
		}
	}

	return model.SanitizedQuery{
		Original:  text,
		Sanitized: sanitized,
		Summary:   summary,
	}
}

// Placeholder returns the redaction token for a kind.
func Placeholder(kind model.PIIKind) string {
	return "[REDACTED_" + string(kind) + "]"
}

// selectNonOverlapping sorts matches by start offset and keeps the
// first-starting match of every overlapping cluster. Ties on start offset
// fall back to rule declaration order via the stable sort.
func selectNonOverlapping(matches []model.PIIMatch) []model.PIIMatch {
	if len(matches) == 0 {
		return nil
	}

	sorted := make([]model.PIIMatch, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	kept := sorted[:1]
	for _, m := range sorted[1:] {
		if m.Start < kept[len(kept)-1].End {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}
