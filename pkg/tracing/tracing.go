// Package tracing records a JSON execution trace of dispatcher activity:
// which intents ran, which hook points fired, and which events were
// emitted. Follows a record → finalize → write lifecycle, one JSON file
// per run.
package tracing

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded dispatch-pipeline event.
type Entry struct {
	Kind      string    `json:"kind"` // "intent" | "hookPoint" | "event"
	Name      string    `json:"name"`
	Causation []string  `json:"causation,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Detail    string    `json:"detail,omitempty"`
}

// Trace is the JSON document written to disk by Finalize.
type Trace struct {
	RunID     string    `json:"runId"`
	StartedAt time.Time `json:"startedAt"`
	Duration  int64     `json:"durationMs"`
	Entries   []Entry   `json:"entries"`
}

// Recorder accumulates Entries and writes them to a JSON file. Safe for
// concurrent use since multiple dispatches may be in flight at once.
type Recorder struct {
	mu      sync.Mutex
	dir     string
	trace   Trace
}

// NewRecorder starts a fresh run, creating dir if it does not exist.
func NewRecorder(dir string) (*Recorder, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("tracing: create dir: %w", err)
		}
	}
	return &Recorder{
		dir: dir,
		trace: Trace{
			RunID:     uuid.NewString(),
			StartedAt: time.Now(),
		},
	}, nil
}

// RecordIntent logs a dispatched intent.
func (r *Recorder) RecordIntent(intentType string, causation []string) {
	r.record(Entry{Kind: "intent", Name: intentType, Causation: causation, Timestamp: time.Now()})
}

// RecordHookPoint logs one hook point's collect() call.
func (r *Recorder) RecordHookPoint(operationID, hookPointID string, resultCount, errorCount int) {
	r.record(Entry{
		Kind:      "hookPoint",
		Name:      operationID + "/" + hookPointID,
		Timestamp: time.Now(),
		Detail:    fmt.Sprintf("results=%d errors=%d", resultCount, errorCount),
	})
}

// RecordEvent logs a published domain event.
func (r *Recorder) RecordEvent(eventType string) {
	r.record(Entry{Kind: "event", Name: eventType, Timestamp: time.Now()})
}

func (r *Recorder) record(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trace.Entries = append(r.trace.Entries, e)
}

// Finalize serializes the accumulated trace to <dir>/<runId>.json and
// returns the path written.
func (r *Recorder) Finalize() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.trace.Duration = time.Since(r.trace.StartedAt).Milliseconds()

	data, err := json.MarshalIndent(r.trace, "", "  ")
	if err != nil {
		return "", fmt.Errorf("tracing: marshal: %w", err)
	}

	path := r.trace.RunID + ".json"
	if r.dir != "" {
		path = filepath.Join(r.dir, path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("tracing: write: %w", err)
	}
	return path, nil
}

// RunID returns the identifier of the current run.
func (r *Recorder) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.trace.RunID
}
