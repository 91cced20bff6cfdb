package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cybersaathi/cybersaathi/internal/model"
)

var askConversationID string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single cyber law question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return eris.New("question is empty")
		}

		ctx := cmd.Context()
		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		conv, err := resolveConversation(cmd, env, askConversationID, question)
		if err != nil {
			return err
		}

		correlationID := uuid.New().String()
		result, err := env.Pipeline.Answer(ctx, question, correlationID)
		if err != nil {
			return err
		}

		if err := persistExchange(ctx, env, conv.ID, question, result); err != nil {
			zap.L().Warn("persist exchange failed", zap.Error(err))
		}

		fmt.Fprintln(cmd.OutOrStdout(), result.AnswerText)
		if result.Redaction.Redacted {
			zap.L().Info("query was sanitized before processing",
				zap.Int("redactions", result.Redaction.Count),
			)
		}
		return nil
	},
}

// resolveConversation loads the requested conversation or starts a new one
// titled after the question.
func resolveConversation(cmd *cobra.Command, env *appEnv, id, question string) (*model.Conversation, error) {
	ctx := cmd.Context()
	if id != "" {
		return env.Store.GetConversation(ctx, id)
	}

	title := question
	if len(title) > 80 {
		title = title[:80]
	}
	return env.Store.CreateConversation(ctx, title)
}

// persistExchange stores the sanitized user message and the assistant
// answer. The question is redacted again before it reaches the store, so
// history never holds what the pipeline scrubbed.
func persistExchange(ctx context.Context, env *appEnv, convID, question string, result *model.AnswerResult) error {
	sq := env.Redactor.Redact(question)

	if _, err := env.Store.AppendMessage(ctx, model.ChatMessage{
		ConversationID: convID,
		Role:           model.RoleUser,
		Content:        sq.Sanitized,
		PIIRedacted:    result.Redaction.Redacted,
		RedactionCount: result.Redaction.Count,
	}); err != nil {
		return err
	}

	_, err := env.Store.AppendMessage(ctx, model.ChatMessage{
		ConversationID: convID,
		Role:           model.RoleAssistant,
		Content:        result.AnswerText,
		EvidenceSource: result.EvidenceSource,
		Citations:      result.Citations,
	})
	return err
}

func init() {
	askCmd.Flags().StringVar(&askConversationID, "conversation", "", "conversation ID to continue (default: start a new one)")
	rootCmd.AddCommand(askCmd)
}
