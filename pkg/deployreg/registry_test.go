package deployreg

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GontrandL/autoweave-agents/pkg/bridge"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(nil)
	require.NoError(t, err)
	return r
}

func sampleRecord(runID string) Record {
	return Record{
		RunID:    runID,
		Workflow: "api-integration",
		Metadata: bridge.SpecMetadata{Title: "Billing API", Version: "1.0.0"},
		Manifests: bridge.ManifestSet{
			Namespace: "billing",
			Manifests: []bridge.Manifest{{Name: "billing-api", Kind: "Deployment", Content: "kind: Deployment\n"}},
		},
	}
}

func TestRegistry_PutAssignsMonotonicIDs(t *testing.T) {
	r := newTestRegistry(t)

	first := r.Put(sampleRecord("run-1"))
	second := r.Put(sampleRecord("run-2"))
	assert.Equal(t, "agent-1", first.AgentID)
	assert.Equal(t, "agent-2", second.AgentID)
	assert.Equal(t, StatusGenerated, first.Status)

	// Deleted IDs are never reused.
	require.NoError(t, r.Delete("agent-2"))
	third := r.Put(sampleRecord("run-3"))
	assert.Equal(t, "agent-3", third.AgentID)
}

func TestRegistry_GetAndDeleteNotFound(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Get("agent-99")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = r.Delete("agent-99")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRegistry_ListInsertionOrder(t *testing.T) {
	r := newTestRegistry(t)
	r.Put(sampleRecord("run-1"))
	r.Put(sampleRecord("run-2"))
	r.Put(sampleRecord("run-3"))
	require.NoError(t, r.Delete("agent-2"))

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "agent-1", list[0].AgentID)
	assert.Equal(t, "agent-3", list[1].AgentID)
}

func TestRegistry_AdvanceStatusMonotonic(t *testing.T) {
	r := newTestRegistry(t)
	rec := r.Put(sampleRecord("run-1"))

	require.NoError(t, r.AdvanceStatus(rec.AgentID, StatusDeployed))
	got, err := r.Get(rec.AgentID)
	require.NoError(t, err)
	assert.Equal(t, StatusDeployed, got.Status)

	// Backward transitions are ignored.
	require.NoError(t, r.AdvanceStatus(rec.AgentID, StatusValidated))
	got, err = r.Get(rec.AgentID)
	require.NoError(t, err)
	assert.Equal(t, StatusDeployed, got.Status)

	assert.True(t, errors.Is(r.AdvanceStatus("agent-99", StatusDeployed), ErrNotFound))
}

func TestRegistry_GetReturnsCopy(t *testing.T) {
	r := newTestRegistry(t)
	rec := r.Put(sampleRecord("run-1"))

	got, err := r.Get(rec.AgentID)
	require.NoError(t, err)
	got.Workflow = "mutated"

	again, err := r.Get(rec.AgentID)
	require.NoError(t, err)
	assert.Equal(t, "api-integration", again.Workflow)
}

func TestRegistry_PersistenceRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "registry.db")

	store, err := OpenStore(dbPath)
	require.NoError(t, err)

	r, err := NewRegistry(store)
	require.NoError(t, err)
	r.Put(sampleRecord("run-1"))
	rec2 := r.Put(sampleRecord("run-2"))
	require.NoError(t, r.AdvanceStatus(rec2.AgentID, StatusDeployed))
	require.NoError(t, r.Delete("agent-1"))
	require.NoError(t, store.Close())

	store, err = OpenStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	reloaded, err := NewRegistry(store)
	require.NoError(t, err)

	list := reloaded.List()
	require.Len(t, list, 1)
	assert.Equal(t, "agent-2", list[0].AgentID)
	assert.Equal(t, StatusDeployed, list[0].Status)
	assert.Equal(t, "billing", list[0].Manifests.Namespace)

	// The counter resumes above the highest persisted ID.
	next := reloaded.Put(sampleRecord("run-3"))
	assert.Equal(t, "agent-3", next.AgentID)
}
