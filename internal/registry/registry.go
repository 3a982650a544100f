// Package registry is the process-wide table of scan records: the single
// source of truth for status queries and report downloads.
package registry

import (
	"errors"
	"sync"
	"time"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var (
	ErrNotFound     = errors.New("scan not found")
	ErrNotCompleted = errors.New("scan not completed")
)

// ScanRecord tracks one scan from admission to its terminal state. Result is
// populated only on completion and Error only on failure, never both. All
// mutation for a given id happens from the single orchestrator run that owns
// it; the registry serializes access across scans.
type ScanRecord struct {
	ID            string    `json:"scan_id"`
	Domain        string    `json:"domain"`
	Status        Status    `json:"status"`
	Progress      int       `json:"progress"`
	StatusMessage string    `json:"status_message,omitempty"`
	Result        any       `json:"result,omitempty"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	FinishedAt    time.Time `json:"finished_at,omitzero"`
}

// Registry is a concurrency-safe keyed store of scan records. Terminal
// records are retained for a configurable period and then evicted, so the
// table does not grow for the life of the process.
type Registry struct {
	mu        sync.RWMutex
	records   map[string]*ScanRecord
	retention time.Duration
	stop      chan struct{}
	stopOnce  sync.Once
}

// New creates a registry. A retention of zero disables eviction.
func New(retention time.Duration) *Registry {
	r := &Registry{
		records:   make(map[string]*ScanRecord),
		retention: retention,
		stop:      make(chan struct{}),
	}
	if retention > 0 {
		go r.evictLoop()
	}
	return r
}

// Create inserts a fresh record in the processing state.
func (r *Registry) Create(id, domain string) *ScanRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := &ScanRecord{
		ID:        id,
		Domain:    domain,
		Status:    StatusProcessing,
		Progress:  0,
		CreatedAt: time.Now(),
	}
	r.records[id] = rec
	return snapshot(rec)
}

// SetProgress advances a processing record to the given checkpoint. Progress
// is monotonically non-decreasing; stale updates are ignored. Terminal
// records are never touched.
func (r *Registry) SetProgress(id string, progress int, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	if rec.Status != StatusProcessing {
		return nil
	}
	if progress > rec.Progress {
		rec.Progress = progress
	}
	rec.StatusMessage = message
	return nil
}

// Complete moves a record to its completed terminal state with the
// aggregated result and progress pinned at 100.
func (r *Registry) Complete(id string, result any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	if rec.Status != StatusProcessing {
		return nil
	}
	rec.Status = StatusCompleted
	rec.Progress = 100
	rec.Result = result
	rec.Error = ""
	rec.StatusMessage = "Scan complete"
	rec.FinishedAt = time.Now()
	return nil
}

// Fail moves a record to its failed terminal state, preserving the
// collaborator diagnostic verbatim. Progress stays below 100.
func (r *Registry) Fail(id string, diagnostic string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	if rec.Status != StatusProcessing {
		return nil
	}
	rec.Status = StatusFailed
	rec.Result = nil
	rec.Error = diagnostic
	rec.StatusMessage = "Scan failed"
	rec.FinishedAt = time.Now()
	return nil
}

// Get returns a copy of the record so callers never observe in-flight
// mutation.
func (r *Registry) Get(id string) (*ScanRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return snapshot(rec), nil
}

// Result returns the aggregated result of a completed scan.
func (r *Registry) Result(id string) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	if rec.Status != StatusCompleted {
		return nil, ErrNotCompleted
	}
	return rec.Result, nil
}

// Len reports the number of live records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Close stops the eviction loop.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *Registry) evictLoop() {
	interval := r.retention / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.evictExpired()
		}
	}
}

func (r *Registry) evictExpired() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-r.retention)
	for id, rec := range r.records {
		if rec.Status != StatusProcessing && rec.FinishedAt.Before(cutoff) {
			delete(r.records, id)
		}
	}
}

func snapshot(rec *ScanRecord) *ScanRecord {
	cp := *rec
	return &cp
}
