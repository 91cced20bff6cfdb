package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cybersaathi/cybersaathi/internal/model"
	"github.com/cybersaathi/cybersaathi/internal/pipeline"
	"github.com/cybersaathi/cybersaathi/internal/privacy"
	"github.com/cybersaathi/cybersaathi/internal/store"
)

var servePort int

// answerer is the pipeline surface the HTTP handlers depend on.
type answerer interface {
	Answer(ctx context.Context, query, correlationID string) (*model.AnswerResult, error)
}

// apiServer wires the pipeline and conversation store into HTTP handlers.
type apiServer struct {
	pipeline answerer
	store    store.Store
	redactor *privacy.Redactor
}

type chatRequest struct {
	Question       string `json:"question"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type chatResponse struct {
	ConversationID string                 `json:"conversation_id"`
	Answer         string                 `json:"answer"`
	Source         model.EvidenceSource   `json:"source"`
	Citations      []model.SourceCitation `json:"citations,omitempty"`
	Redaction      model.RedactionSummary `json:"redaction"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		api := &apiServer{pipeline: env.Pipeline, store: env.Store, redactor: env.Redactor}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           api.routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/info", s.handleInfo)
	r.Post("/chat", s.handleChat)
	r.Get("/conversations", s.handleListConversations)
	r.Get("/conversations/{id}/messages", s.handleListMessages)

	return r
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":      "CyberSaathi",
		"scope":     "Pakistani cyber law",
		"pii_kinds": model.AllPIIKinds(),
	})
}

func (s *apiServer) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	ctx := r.Context()

	convID := req.ConversationID
	if convID == "" {
		title := req.Question
		if len(title) > 80 {
			title = title[:80]
		}
		conv, err := s.store.CreateConversation(ctx, title)
		if err != nil {
			zap.L().Error("create conversation failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		convID = conv.ID
	} else if _, err := s.store.GetConversation(ctx, convID); err != nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	correlationID := middleware.GetReqID(ctx)
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	result, err := s.pipeline.Answer(ctx, req.Question, correlationID)
	if err != nil {
		s.writePipelineError(w, correlationID, err)
		return
	}

	if err := s.persist(ctx, convID, req.Question, result); err != nil {
		zap.L().Warn("persist chat exchange failed",
			zap.String("correlation_id", correlationID),
			zap.Error(err),
		)
	}

	writeJSON(w, http.StatusOK, chatResponse{
		ConversationID: convID,
		Answer:         result.AnswerText,
		Source:         result.EvidenceSource,
		Citations:      result.Citations,
		Redaction:      result.Redaction,
	})
}

// writePipelineError maps stage failures onto HTTP responses without leaking
// backend details to the client.
func (s *apiServer) writePipelineError(w http.ResponseWriter, correlationID string, err error) {
	zap.L().Error("pipeline failed",
		zap.String("correlation_id", correlationID),
		zap.Error(err),
	)

	var re *pipeline.RetrievalError
	if errors.As(err, &re) {
		writeError(w, http.StatusBadGateway, "evidence retrieval is temporarily unavailable")
		return
	}
	var ge *pipeline.GenerationError
	if errors.As(err, &ge) {
		writeError(w, http.StatusBadGateway, ge.Fallback)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}

// persist stores the exchange; the user message is re-redacted so history
// never contains raw PII.
func (s *apiServer) persist(ctx context.Context, convID, question string, result *model.AnswerResult) error {
	sq := s.redactor.Redact(question)

	if _, err := s.store.AppendMessage(ctx, model.ChatMessage{
		ConversationID: convID,
		Role:           model.RoleUser,
		Content:        sq.Sanitized,
		PIIRedacted:    result.Redaction.Redacted,
		RedactionCount: result.Redaction.Count,
	}); err != nil {
		return err
	}

	_, err := s.store.AppendMessage(ctx, model.ChatMessage{
		ConversationID: convID,
		Role:           model.RoleAssistant,
		Content:        result.AnswerText,
		EvidenceSource: result.EvidenceSource,
		Citations:      result.Citations,
	})
	return err
}

func (s *apiServer) handleListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := s.store.ListConversations(r.Context(), 100, 0)
	if err != nil {
		zap.L().Error("list conversations failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": convs})
}

func (s *apiServer) handleListMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetConversation(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	msgs, err := s.store.ListMessages(r.Context(), id)
	if err != nil {
		zap.L().Error("list messages failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
