package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/cybersaathi/cybersaathi/internal/model"
	"github.com/cybersaathi/cybersaathi/pkg/anthropic"
)

const generateSystemPrompt = `You are CyberSaathi, an expert assistant on Pakistani cyber laws and cybercrime regulations.

Your role is to:
- Provide accurate, helpful information about Pakistani cyber laws
- Cite specific laws, sections, and penalties when applicable
- Explain legal concepts in clear, understandable language
- Be professional and informative
- If you don't have enough information, say so clearly

Always base your answer on the provided context. If the context doesn't contain relevant information, acknowledge this limitation.`

const generateUserPrompt = `Based on the following context, answer the user's question about Pakistani cyber law.

Context:
%s

User Question: %s

Provide a clear, accurate, and helpful answer. If the context is from law documents, cite specific sections or laws. If from web search, mention that the information is from recent sources.`

// Composer runs the GENERATE stage: build a grounded prompt from the
// sanitized query and retrieved passages, invoke the generation call once,
// then append the deterministic trailer blocks. The append order is fixed:
// answer text, citation block, privacy notice.
type Composer struct {
	ai        anthropic.Client
	model     string
	maxTokens int64
}

// NewComposer creates a Composer.
func NewComposer(ai anthropic.Client, model string, maxTokens int64) *Composer {
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &Composer{ai: ai, model: model, maxTokens: maxTokens}
}

// Compose generates the answer text. On generation failure it returns a
// GenerationError carrying a deterministic fallback message; citations
// computed from evidence that was never used for generation are not appended.
func (c *Composer) Compose(
	ctx context.Context,
	query model.SanitizedQuery,
	source model.EvidenceSource,
	passages []model.EvidencePassage,
	citations []model.SourceCitation,
) (string, error) {
	prompt := fmt.Sprintf(generateUserPrompt, formatContext(passages, source), query.Sanitized)

	resp, err := c.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    anthropic.BuildCachedSystemBlocks(generateSystemPrompt),
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", &GenerationError{Err: err, Fallback: generationFallback}
	}

	var b strings.Builder
	b.WriteString(anthropic.ExtractText(resp))

	if source == model.SourceLaw && len(citations) > 0 {
		b.WriteString(citationBlock(citations))
	}
	if query.Summary.Redacted {
		b.WriteString(privacyNotice(query.Summary))
	}

	return b.String(), nil
}

// formatContext joins passages into the prompt context. Law passages are
// labeled with their originating document so the model can cite sections.
func formatContext(passages []model.EvidencePassage, source model.EvidenceSource) string {
	if len(passages) == 0 {
		return "No relevant information was found."
	}

	parts := make([]string, 0, len(passages))
	for i, p := range passages {
		if source == model.SourceLaw {
			name := p.SourceName
			if name == "" {
				name = "Unknown"
			}
			parts = append(parts, fmt.Sprintf("[Source %d: %s]\n%s", i+1, name, p.Text))
		} else {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func citationBlock(citations []model.SourceCitation) string {
	var b strings.Builder
	b.WriteString("\n\n---\n**Sources:**\n")
	for i, c := range citations {
		docType := c.Type
		if docType == "" {
			docType = "unknown"
		}
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, c.Name, strings.ToUpper(docType))
	}
	return b.String()
}

func privacyNotice(summary model.RedactionSummary) string {
	return fmt.Sprintf(
		"\n---\n**Privacy Notice**: For your protection, sensitive personal information was automatically detected and removed from your query before processing (%d item(s) redacted). Your confidential data was never sent to external services.",
		summary.Count,
	)
}
