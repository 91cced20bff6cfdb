package chroma

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantErr     string
		wantResults int
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body: `{
				"ids": [["doc-1", "doc-2"]],
				"documents": [["Section 21 text", "Section 24 text"]],
				"metadatas": [[{"document_name": "PECA 2016"}, {"document_name": "PECA 2016"}]],
				"distances": [[0.12, 0.34]]
			}`,
			wantResults: 2,
		},
		{
			name:        "empty_index",
			status:      http.StatusOK,
			body:        `{"ids": [[]], "documents": [[]], "metadatas": [[]], "distances": [[]]}`,
			wantResults: 0,
		},
		{
			name:    "collection_missing",
			status:  http.StatusNotFound,
			body:    `{"error": "collection not found"}`,
			wantErr: "unexpected status 404",
		},
		{
			name:    "server_error",
			status:  http.StatusInternalServerError,
			body:    `{"error": "boom"}`,
			wantErr: "unexpected status 500",
		},
		{
			name:    "malformed_response",
			status:  http.StatusOK,
			body:    `{invalid json`,
			wantErr: "unmarshal response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/v1/collections/pakistan-law/query", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				raw, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				var req QueryRequest
				require.NoError(t, json.Unmarshal(raw, &req))
				assert.Equal(t, [][]float32{{0.5, 0.5}}, req.QueryEmbeddings)
				assert.Equal(t, 7, req.NResults)
				assert.Equal(t, []string{"documents", "metadatas", "distances"}, req.Include)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("pakistan-law", WithBaseURL(srv.URL))
			resp, err := client.Query(context.Background(), QueryRequest{
				QueryEmbeddings: [][]float32{{0.5, 0.5}},
				NResults:        7,
			})

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, resp.Documents, 1)
			assert.Len(t, resp.Documents[0], tt.wantResults)
		})
	}
}

func TestQuery_ExplicitIncludeIsKept(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var req QueryRequest
		require.NoError(t, json.Unmarshal(raw, &req))
		assert.Equal(t, []string{"documents"}, req.Include)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ids": [[]], "documents": [[]]}`))
	}))
	defer srv.Close()

	client := NewClient("pakistan-law", WithBaseURL(srv.URL))
	_, err := client.Query(context.Background(), QueryRequest{
		QueryEmbeddings: [][]float32{{1}},
		NResults:        3,
		Include:         []string{"documents"},
	})
	require.NoError(t, err)
}

func TestQuery_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ids": [[]]}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("pakistan-law", WithBaseURL(srv.URL))
	_, err := client.Query(ctx, QueryRequest{QueryEmbeddings: [][]float32{{1}}, NResults: 1})
	assert.Error(t, err)
}
