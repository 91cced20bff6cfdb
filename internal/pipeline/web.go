package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cybersaathi/cybersaathi/internal/model"
	"github.com/cybersaathi/cybersaathi/pkg/tavily"
)

// WebProvider retrieves passages from a web search. Web hits never carry
// source metadata: per-result page identity is not a stable citation target,
// so web-sourced answers are served without a citation block.
type WebProvider struct {
	search      tavily.Client
	maxResults  int
	searchDepth string
}

// NewWebProvider creates a WebProvider.
func NewWebProvider(search tavily.Client, maxResults int, searchDepth string) *WebProvider {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &WebProvider{search: search, maxResults: maxResults, searchDepth: searchDepth}
}

// Retrieve searches the web for sanitized text.
func (p *WebProvider) Retrieve(ctx context.Context, sanitized string) ([]model.EvidencePassage, error) {
	resp, err := p.search.Search(ctx, tavily.SearchRequest{
		Query:         sanitized,
		MaxResults:    p.maxResults,
		SearchDepth:   p.searchDepth,
		IncludeAnswer: true,
	})
	if err != nil {
		return nil, &RetrievalError{Source: model.SourceWeb, Err: err}
	}

	var passages []model.EvidencePassage
	if resp.Answer != "" {
		passages = append(passages, model.EvidencePassage{
			Text: resp.Answer,
			Rank: 1,
		})
	}
	for _, r := range resp.Results {
		if r.Content == "" {
			continue
		}
		text := r.Content
		if r.Title != "" {
			text = fmt.Sprintf("%s\n%s", r.Title, r.Content)
		}
		if r.URL != "" {
			text = fmt.Sprintf("%s\n(%s)", text, r.URL)
		}
		passages = append(passages, model.EvidencePassage{
			Text: text,
			Rank: len(passages) + 1,
		})
	}

	zap.L().Info("retrieve: web search complete", zap.Int("passages", len(passages)))
	return passages, nil
}
