package model

// AnswerResult is the sole output of a successful pipeline invocation. It is
// constructed once, after every stage has completed, and not mutated after.
type AnswerResult struct {
	AnswerText     string           `json:"answer_text"`
	EvidenceSource EvidenceSource   `json:"evidence_source"`
	Citations      []SourceCitation `json:"citations,omitempty"`
	Redaction      RedactionSummary `json:"redaction"`
}
