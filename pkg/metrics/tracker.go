// Package metrics tracks integration run outcomes: counters, duration
// aggregates, and failure classification.
package metrics

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GontrandL/autoweave-agents/pkg/bridge"
)

// Snapshot is a point-in-time copy of the tracker's aggregates.
type Snapshot struct {
	Total         int            `json:"total"`
	Success       int            `json:"success"`
	Failed        int            `json:"failed"`
	InProgress    int            `json:"in_progress"`
	MinMs         int64          `json:"min_ms"`
	MaxMs         int64          `json:"max_ms"`
	AvgMs         float64        `json:"avg_ms"`
	ErrorsByKind  map[string]int `json:"errors_by_kind"`
	EndpointCalls map[string]int `json:"endpoint_calls"`
}

// Tracker accumulates run outcomes. Every started run is finished exactly
// once with RecordSuccess or RecordFailure; the in-progress gauge reflects
// starts minus finishes and never goes negative.
type Tracker struct {
	mu sync.Mutex

	total   int
	success int
	failed  int

	minMs     int64
	maxMs     int64
	sumMs     int64
	completed int

	errorsByKind  map[string]int
	endpointCalls map[string]int
	inFlight      map[string]struct{}

	recorder Recorder
}

// NewTracker creates an outcome tracker. A nil recorder disables export.
func NewTracker(recorder Recorder) *Tracker {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Tracker{
		errorsByKind:  make(map[string]int),
		endpointCalls: make(map[string]int),
		inFlight:      make(map[string]struct{}),
		recorder:      recorder,
	}
}

// StartRun registers a new in-progress run and returns its ID. An empty
// runID gets a generated one.
func (t *Tracker) StartRun(runID string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if runID == "" {
		runID = fmt.Sprintf("integration-%d", time.Now().UnixMilli())
	}
	for {
		if _, exists := t.inFlight[runID]; !exists {
			break
		}
		runID += "x"
	}

	t.total++
	t.inFlight[runID] = struct{}{}
	return runID
}

// RecordSuccess finishes runID as successful. Unknown or already-finished
// runs are ignored so a run can never be counted twice.
func (t *Tracker) RecordSuccess(runID string, durationMs int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.finish(runID) {
		return
	}
	t.success++
	t.observe(durationMs)
	t.recorder.ObserveRun("success", "", durationMs)
}

// RecordFailure finishes runID as failed, classifying err into an error kind.
func (t *Tracker) RecordFailure(runID string, durationMs int64, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.finish(runID) {
		return
	}
	t.failed++
	t.observe(durationMs)

	kind := Classify(err)
	t.errorsByKind[kind]++
	t.recorder.ObserveRun("failed", kind, durationMs)
}

// RecordEndpointCall counts one invocation of a facade endpoint.
func (t *Tracker) RecordEndpointCall(name string) {
	t.mu.Lock()
	t.endpointCalls[name]++
	t.mu.Unlock()
	t.recorder.IncEndpoint(name)
}

// Snapshot returns a deep copy of the current aggregates.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		Total:         t.total,
		Success:       t.success,
		Failed:        t.failed,
		InProgress:    len(t.inFlight),
		MinMs:         t.minMs,
		MaxMs:         t.maxMs,
		ErrorsByKind:  make(map[string]int, len(t.errorsByKind)),
		EndpointCalls: make(map[string]int, len(t.endpointCalls)),
	}
	if t.completed > 0 {
		snap.AvgMs = float64(t.sumMs) / float64(t.completed)
	}
	for k, v := range t.errorsByKind {
		snap.ErrorsByKind[k] = v
	}
	for k, v := range t.endpointCalls {
		snap.EndpointCalls[k] = v
	}
	return snap
}

// Reset clears all aggregates, including in-progress registrations.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total = 0
	t.success = 0
	t.failed = 0
	t.minMs = 0
	t.maxMs = 0
	t.sumMs = 0
	t.completed = 0
	t.errorsByKind = make(map[string]int)
	t.endpointCalls = make(map[string]int)
	t.inFlight = make(map[string]struct{})
}

// finish removes runID from the in-flight set, reporting whether it was
// actually in progress. Callers hold t.mu.
func (t *Tracker) finish(runID string) bool {
	if _, ok := t.inFlight[runID]; !ok {
		return false
	}
	delete(t.inFlight, runID)
	return true
}

// observe folds one completed duration into the aggregates. Callers hold t.mu.
func (t *Tracker) observe(durationMs int64) {
	if durationMs < 0 {
		durationMs = 0
	}
	if t.completed == 0 || durationMs < t.minMs {
		t.minMs = durationMs
	}
	if durationMs > t.maxMs {
		t.maxMs = durationMs
	}
	t.sumMs += durationMs
	t.completed++
}

// Classify maps an error to its metrics kind label.
func Classify(err error) string {
	if err == nil {
		return bridge.KindUnknown
	}
	var kinder interface{ ErrorKind() string }
	if errors.As(err, &kinder) {
		return kinder.ErrorKind()
	}
	return bridge.KindUnknown
}
