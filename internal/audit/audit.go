// Package audit maintains an append-only log of redaction events. Records
// carry counts and kinds only; by construction the package never sees raw
// query text or matched values.
package audit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/cybersaathi/cybersaathi/internal/model"
)

// Record is one audit log entry, serialized as a JSONL line.
type Record struct {
	Timestamp     time.Time             `json:"timestamp"`
	CorrelationID string                `json:"correlation_id,omitempty"`
	Redacted      bool                  `json:"redacted"`
	Count         int                   `json:"count"`
	Types         map[model.PIIKind]int `json:"types,omitempty"`
}

// Recorder appends redaction audit records. Implementations must be safe for
// concurrent use; callers treat failures as best-effort and never let them
// block answer production.
type Recorder interface {
	Record(ctx context.Context, summary model.RedactionSummary, correlationID string) error
}

// FileRecorder appends JSONL records to a single log file. A mutex
// serializes appends so concurrent pipeline invocations cannot interleave
// partial lines.
type FileRecorder struct {
	mu   sync.Mutex
	path string
}

// NewFileRecorder creates the log's parent directory and returns a recorder
// writing to path.
func NewFileRecorder(path string) (*FileRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, eris.Wrapf(err, "audit: create log dir for %s", path)
	}
	return &FileRecorder{path: path}, nil
}

func (r *FileRecorder) Record(_ context.Context, summary model.RedactionSummary, correlationID string) error {
	rec := Record{
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Redacted:      summary.Redacted,
		Count:         summary.Count,
		Types:         summary.Types,
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "audit: marshal record")
	}
	line = append(line, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrapf(err, "audit: open %s", r.path)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return eris.Wrap(err, "audit: append record")
	}
	return nil
}

// NopRecorder discards all records. Used when auditing is disabled.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, model.RedactionSummary, string) error {
	return nil
}
