// Package deployreg tracks deployed agent workloads. Agent IDs are assigned
// from a monotonic counter and never reused, even after deletion.
package deployreg

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GontrandL/autoweave-agents/pkg/bridge"
	"github.com/GontrandL/autoweave-agents/pkg/logx"
)

// ErrNotFound indicates the requested agent is not registered.
var ErrNotFound = errors.New("agent not found")

// Status is the lifecycle state of a registered deployment.
type Status string

const (
	StatusGenerated Status = "generated"
	StatusValidated Status = "validated"
	StatusDeployed  Status = "deployed"
)

// rank orders statuses for monotonic advancement.
func (s Status) rank() int {
	switch s {
	case StatusGenerated:
		return 0
	case StatusValidated:
		return 1
	case StatusDeployed:
		return 2
	default:
		return -1
	}
}

// Record is one registered deployment.
type Record struct {
	AgentID   string              `json:"agent_id"`
	RunID     string              `json:"run_id"`
	Workflow  string              `json:"workflow"`
	Metadata  bridge.SpecMetadata `json:"metadata"`
	Manifests bridge.ManifestSet  `json:"manifests"`
	Status    Status              `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}

// Registry is an in-memory deployment registry with optional write-through
// persistence.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*Record
	order   []string
	nextID  int
	store   *Store
	logger  *logx.Logger
}

// NewRegistry creates an empty registry. A nil store disables persistence.
// With a store, previously persisted records are replayed and the ID counter
// resumes above the highest persisted ID.
func NewRegistry(store *Store) (*Registry, error) {
	r := &Registry{
		records: make(map[string]*Record),
		nextID:  1,
		store:   store,
		logger:  logx.NewLogger("deployreg"),
	}
	if store != nil {
		records, nextID, err := store.LoadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to load deployment registry: %w", err)
		}
		for i := range records {
			rec := records[i]
			r.records[rec.AgentID] = &rec
			r.order = append(r.order, rec.AgentID)
		}
		if nextID > r.nextID {
			r.nextID = nextID
		}
		r.logger.Info("loaded %d deployments, next agent id %d", len(records), r.nextID)
	}
	return r, nil
}

// Put registers a deployment and assigns it a fresh agent ID.
func (r *Registry) Put(record Record) *Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	record.AgentID = fmt.Sprintf("agent-%d", r.nextID)
	r.nextID++
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if record.Status == "" {
		record.Status = StatusGenerated
	}

	stored := record
	r.records[stored.AgentID] = &stored
	r.order = append(r.order, stored.AgentID)
	r.persist(&stored)
	return &stored
}

// Get returns a copy of the record for agentID.
func (r *Registry) Get(agentID string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[agentID]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, agentID)
	}
	return *rec, nil
}

// List returns copies of all records in insertion order.
func (r *Registry) List() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Record, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.records[id])
	}
	return out
}

// Delete removes the record for agentID. Its ID is never handed out again.
func (r *Registry) Delete(agentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[agentID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, agentID)
	}
	delete(r.records, agentID)
	for i, id := range r.order {
		if id == agentID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.store != nil {
		if err := r.store.Delete(agentID); err != nil {
			r.logger.Warn("failed to delete %s from store: %v", agentID, err)
		}
	}
	return nil
}

// AdvanceStatus moves the record to next if that is a forward transition.
// Backward transitions are ignored.
func (r *Registry) AdvanceStatus(agentID string, next Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[agentID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, agentID)
	}
	if next.rank() > rec.Status.rank() {
		rec.Status = next
		r.persist(rec)
	}
	return nil
}

// Len returns the number of registered deployments.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// persist writes the record through to the store. Store failures are logged,
// not fatal; the in-memory registry stays authoritative. Callers hold r.mu.
func (r *Registry) persist(rec *Record) {
	if r.store == nil {
		return
	}
	if err := r.store.Save(rec); err != nil {
		r.logger.Warn("failed to persist %s: %v", rec.AgentID, err)
	}
}
