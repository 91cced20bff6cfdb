package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/cybersaathi/cybersaathi/internal/model"
	"github.com/cybersaathi/cybersaathi/pkg/anthropic"
)

const routerSystemPrompt = `You are a routing assistant for a Pakistani cyber law chatbot.

Analyze the user's query and determine if it should be answered using:
- "law" - the indexed law database (questions about Pakistani cyber laws, PECA, regulations, penalties, legal definitions)
- "web" - web search (recent news, current cases, updates, or when explicitly asked to search the web)

Respond with ONLY one word: either "law" or "web".`

// Router runs the ROUTE stage: one LLM classification call on sanitized text
// deciding the evidence source. The response is untrusted free text; anything
// outside {"law","web"} — including a failed or timed-out call — falls back
// to the law corpus, which keeps borderline queries away from the public
// search engine.
type Router struct {
	ai    anthropic.Client
	model string
}

// NewRouter creates a Router using the given classification model.
func NewRouter(ai anthropic.Client, model string) *Router {
	return &Router{ai: ai, model: model}
}

// Route classifies sanitized text into an evidence source. It never fails;
// ambiguity resolves to law.
func (r *Router) Route(ctx context.Context, sanitized string) model.EvidenceSource {
	temp := 0.0
	resp, err := r.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       r.model,
		MaxTokens:   8,
		System:      anthropic.BuildCachedSystemBlocks(routerSystemPrompt),
		Messages:    []anthropic.Message{{Role: "user", Content: sanitized}},
		Temperature: &temp,
	})
	if err != nil {
		zap.L().Warn("route: classification call failed, defaulting to law", zap.Error(err))
		return model.SourceLaw
	}

	raw := anthropic.ExtractText(resp)
	source, ok := model.ParseEvidenceSource(raw)
	if !ok {
		zap.L().Warn("route: unexpected classification response, defaulting to law",
			zap.String("response", raw),
		)
		return model.SourceLaw
	}
	return source
}
