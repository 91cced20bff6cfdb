package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/cybersaathi/cybersaathi/internal/model"
	"github.com/cybersaathi/cybersaathi/pkg/chroma"
	"github.com/cybersaathi/cybersaathi/pkg/ollama"
)

// LawProvider retrieves ranked passages from the indexed legal corpus: the
// sanitized query is embedded, then similarity-searched against the Chroma
// collection. If either service is unreachable the provider fails loudly
// with a RetrievalError rather than returning an empty result.
type LawProvider struct {
	embed ollama.Client
	index chroma.Client
	topK  int
}

// NewLawProvider creates a LawProvider returning up to topK passages.
func NewLawProvider(embed ollama.Client, index chroma.Client, topK int) *LawProvider {
	if topK <= 0 {
		topK = 10
	}
	return &LawProvider{embed: embed, index: index, topK: topK}
}

// Retrieve embeds sanitized text and queries the law index.
func (p *LawProvider) Retrieve(ctx context.Context, sanitized string) ([]model.EvidencePassage, error) {
	vec, err := p.embed.Embed(ctx, sanitized)
	if err != nil {
		return nil, &RetrievalError{Source: model.SourceLaw, Err: err}
	}

	resp, err := p.index.Query(ctx, chroma.QueryRequest{
		QueryEmbeddings: [][]float32{vec},
		NResults:        p.topK,
	})
	if err != nil {
		return nil, &RetrievalError{Source: model.SourceLaw, Err: err}
	}

	passages := normalizeLawHits(resp)
	zap.L().Info("retrieve: law search complete",
		zap.Int("passages", len(passages)),
		zap.Int("top_k", p.topK),
	)
	return passages, nil
}

// normalizeLawHits flattens the first query's hits into ranked passages with
// document metadata attached.
func normalizeLawHits(resp *chroma.QueryResponse) []model.EvidencePassage {
	if resp == nil || len(resp.Documents) == 0 {
		return nil
	}

	docs := resp.Documents[0]
	var metas []map[string]any
	if len(resp.Metadatas) > 0 {
		metas = resp.Metadatas[0]
	}

	passages := make([]model.EvidencePassage, 0, len(docs))
	for i, text := range docs {
		if text == "" {
			continue
		}
		p := model.EvidencePassage{
			Text: text,
			Rank: len(passages) + 1,
		}
		if i < len(metas) {
			p.SourceName = metaString(metas[i], "document_name")
			p.SourceType = metaString(metas[i], "document_type")
		}
		passages = append(passages, p)
	}
	return passages
}

func metaString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	s, _ := meta[key].(string)
	return s
}
