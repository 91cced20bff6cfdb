package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cybersaathi/cybersaathi/internal/model"
	"github.com/cybersaathi/cybersaathi/internal/pipeline"
	"github.com/cybersaathi/cybersaathi/internal/privacy"
	"github.com/cybersaathi/cybersaathi/internal/store"
)

// stubAnswerer returns a canned result or error for every query.
type stubAnswerer struct {
	result *model.AnswerResult
	err    error
}

func (s *stubAnswerer) Answer(_ context.Context, _, _ string) (*model.AnswerResult, error) {
	return s.result, s.err
}

func newTestAPIServer(t *testing.T, stub *stubAnswerer) *apiServer {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })

	return &apiServer{
		pipeline: stub,
		store:    st,
		redactor: privacy.NewRedactor(privacy.NewDetector(privacy.DefaultLexicon())),
	}
}

func postChat(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoint(t *testing.T) {
	api := newTestAPIServer(t, &stubAnswerer{})
	h := api.routes()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestInfoEndpoint(t *testing.T) {
	api := newTestAPIServer(t, &stubAnswerer{})
	h := api.routes()

	req := httptest.NewRequest(http.MethodGet, "/info", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Name     string   `json:"name"`
		PIIKinds []string `json:"pii_kinds"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "CyberSaathi", body.Name)
	assert.Len(t, body.PIIKinds, 10)
}

func TestChatEndpoint_Success(t *testing.T) {
	stub := &stubAnswerer{
		result: &model.AnswerResult{
			AnswerText:     "Under Section 3 of PECA...",
			EvidenceSource: model.SourceLaw,
			Citations:      []model.SourceCitation{{Name: "PECA 2016", Type: "act"}},
			Redaction: model.RedactionSummary{
				Redacted: true,
				Count:    1,
				Types:    map[model.PIIKind]int{model.KindCNIC: 1},
			},
		},
	}
	api := newTestAPIServer(t, stub)
	h := api.routes()

	rr := postChat(t, h, `{"question":"My CNIC is 12345-1234567-1, was it leaked?"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp chatResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ConversationID)
	assert.Equal(t, "Under Section 3 of PECA...", resp.Answer)
	assert.Equal(t, model.SourceLaw, resp.Source)
	require.Len(t, resp.Citations, 1)
	assert.True(t, resp.Redaction.Redacted)

	// The user message was stored sanitized.
	msgs, err := api.store.ListMessages(context.Background(), resp.ConversationID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.NotContains(t, msgs[0].Content, "12345-1234567-1")
	assert.Contains(t, msgs[0].Content, "[REDACTED_CNIC]")
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
}

func TestChatEndpoint_ContinuesConversation(t *testing.T) {
	stub := &stubAnswerer{
		result: &model.AnswerResult{
			AnswerText:     "answer",
			EvidenceSource: model.SourceLaw,
		},
	}
	api := newTestAPIServer(t, stub)
	h := api.routes()

	conv, err := api.store.CreateConversation(context.Background(), "existing")
	require.NoError(t, err)

	rr := postChat(t, h, `{"question":"follow-up","conversation_id":"`+conv.ID+`"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp chatResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, conv.ID, resp.ConversationID)
}

func TestChatEndpoint_UnknownConversation(t *testing.T) {
	api := newTestAPIServer(t, &stubAnswerer{})
	h := api.routes()

	rr := postChat(t, h, `{"question":"q","conversation_id":"missing"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestChatEndpoint_EmptyQuestion(t *testing.T) {
	api := newTestAPIServer(t, &stubAnswerer{})
	h := api.routes()

	for _, body := range []string{`{"question":""}`, `{"question":"   "}`, `{}`} {
		rr := postChat(t, h, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "body=%s", body)
	}
}

func TestChatEndpoint_InvalidBody(t *testing.T) {
	api := newTestAPIServer(t, &stubAnswerer{})
	h := api.routes()

	rr := postChat(t, h, `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestChatEndpoint_RetrievalFailure(t *testing.T) {
	stub := &stubAnswerer{
		err: &pipeline.PipelineError{
			Stage: pipeline.StageRetrieve,
			Err:   &pipeline.RetrievalError{Source: model.SourceLaw, Err: errors.New("chroma connect refused on 10.0.0.5")},
		},
	}
	api := newTestAPIServer(t, stub)
	h := api.routes()

	rr := postChat(t, h, `{"question":"what does PECA say?"}`)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	// Backend details stay out of the response body.
	assert.NotContains(t, rr.Body.String(), "chroma")
	assert.NotContains(t, rr.Body.String(), "10.0.0.5")
	assert.Contains(t, rr.Body.String(), "temporarily unavailable")
}

func TestChatEndpoint_GenerationFailure(t *testing.T) {
	genErr := &pipeline.GenerationError{
		Err:      errors.New("model overloaded"),
		Fallback: "I'm sorry, I couldn't generate an answer right now because the language model is unavailable. Please try again in a moment.",
	}
	stub := &stubAnswerer{
		err: &pipeline.PipelineError{Stage: pipeline.StageGenerate, Err: genErr},
	}
	api := newTestAPIServer(t, stub)
	h := api.routes()

	rr := postChat(t, h, `{"question":"q"}`)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.NotContains(t, rr.Body.String(), "overloaded")
	assert.Contains(t, rr.Body.String(), "couldn't generate an answer")
}

func TestListConversationsEndpoint(t *testing.T) {
	api := newTestAPIServer(t, &stubAnswerer{})
	h := api.routes()

	_, err := api.store.CreateConversation(context.Background(), "one")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Conversations []model.Conversation `json:"conversations"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Len(t, body.Conversations, 1)
}

func TestListMessagesEndpoint_NotFound(t *testing.T) {
	api := newTestAPIServer(t, &stubAnswerer{})
	h := api.routes()

	req := httptest.NewRequest(http.MethodGet, "/conversations/missing/messages", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
