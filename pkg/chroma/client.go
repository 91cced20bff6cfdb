// Package chroma provides a client for ChromaDB's collection query endpoint,
// the vector index holding the legal document corpus.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "http://localhost:8000"

// Client performs similarity queries against a Chroma collection.
type Client interface {
	Query(ctx context.Context, req QueryRequest) (*QueryResponse, error)
}

// QueryRequest is the request body for POST /api/v1/collections/{id}/query.
type QueryRequest struct {
	QueryEmbeddings [][]float32 `json:"query_embeddings"`
	NResults        int         `json:"n_results"`
	Include         []string    `json:"include,omitempty"`
}

// QueryResponse is the response from a collection query. The outer slices
// are per query embedding; the inner slices are results ranked by distance.
type QueryResponse struct {
	IDs       [][]string         `json:"ids"`
	Documents [][]string         `json:"documents"`
	Metadatas [][]map[string]any `json:"metadatas"`
	Distances [][]float64        `json:"distances"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default Chroma base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL    string
	collection string
	http       *http.Client
}

// NewClient creates a Chroma client bound to one collection.
func NewClient(collection string, opts ...Option) Client {
	c := &httpClient{
		baseURL:    defaultBaseURL,
		collection: collection,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	if len(req.Include) == 0 {
		req.Include = []string{"documents", "metadatas", "distances"}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "chroma: marshal request")
	}

	url := c.baseURL + "/api/v1/collections/" + c.collection + "/query"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "chroma: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "chroma: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "chroma: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("chroma: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result QueryResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "chroma: unmarshal response")
	}

	return &result, nil
}
