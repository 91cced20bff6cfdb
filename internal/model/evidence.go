package model

import "strings"

// EvidenceSource identifies which evidence backend answered a query.
type EvidenceSource string

const (
	SourceLaw EvidenceSource = "law"
	SourceWeb EvidenceSource = "web"
)

// ParseEvidenceSource validates a free-text classification response against
// the known sources. Input is trimmed and case-folded before matching.
func ParseEvidenceSource(s string) (EvidenceSource, bool) {
	switch EvidenceSource(strings.ToLower(strings.TrimSpace(s))) {
	case SourceLaw:
		return SourceLaw, true
	case SourceWeb:
		return SourceWeb, true
	default:
		return "", false
	}
}

// EvidencePassage is one retrieved unit of supporting evidence. Rank ascends
// with decreasing relevance. Web passages carry no source metadata.
type EvidencePassage struct {
	Text       string `json:"text"`
	SourceName string `json:"source_name,omitempty"`
	SourceType string `json:"source_type,omitempty"`
	Rank       int    `json:"rank"`
}

// SourceCitation is a deduplicated projection of the documents behind a set
// of law passages.
type SourceCitation struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// BuildCitations projects passages onto a citation list, deduplicated by
// document name, preserving first-seen (rank) order. Passages without a
// source name contribute nothing.
func BuildCitations(passages []EvidencePassage) []SourceCitation {
	seen := make(map[string]bool, len(passages))
	var citations []SourceCitation
	for _, p := range passages {
		if p.SourceName == "" || seen[p.SourceName] {
			continue
		}
		seen[p.SourceName] = true
		citations = append(citations, SourceCitation{
			Name: p.SourceName,
			Type: p.SourceType,
		})
	}
	return citations
}
