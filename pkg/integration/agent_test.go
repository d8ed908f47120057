package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GontrandL/autoweave-agents/pkg/bridge"
	"github.com/GontrandL/autoweave-agents/pkg/deployreg"
	"github.com/GontrandL/autoweave-agents/pkg/metrics"
	"github.com/GontrandL/autoweave-agents/pkg/pipeline"
)

type stubParser struct{}

func (stubParser) Parse(context.Context, string) (*bridge.ParsedSpec, error) {
	return &bridge.ParsedSpec{
		Spec:     map[string]any{"openapi": "3.0.0"},
		Metadata: bridge.SpecMetadata{Title: "Orders API", Version: "1.0.0", Complexity: bridge.ComplexitySimple},
	}, nil
}

type stubModels struct{}

func (stubModels) Generate(context.Context, map[string]any) (*bridge.ModelsResult, error) {
	return &bridge.ModelsResult{ModelsInfo: bridge.ModelsInfo{TotalModels: 2}}, nil
}

type stubManifests struct{}

func (stubManifests) Generate(_ context.Context, _ *bridge.ParsedSpec, _ *bridge.ModelsResult, namespace string) (*bridge.ManifestSet, error) {
	return &bridge.ManifestSet{
		Namespace: namespace,
		Manifests: []bridge.Manifest{{Name: "orders-api", Kind: "Deployment", Content: "kind: Deployment\n"}},
	}, nil
}

type stubValidator struct{}

func (stubValidator) Validate(context.Context, *bridge.ManifestSet) *bridge.ValidationReport {
	return &bridge.ValidationReport{Passed: true}
}

type stubDeployer struct{ err error }

func (d stubDeployer) Deploy(_ context.Context, _ *bridge.ManifestSet, repoURL, _ string) (*bridge.DeployResult, error) {
	if d.err != nil {
		return nil, &bridge.DeployError{Repository: repoURL, Cause: d.err}
	}
	return &bridge.DeployResult{Committed: true, Revision: "def456", Branch: "autoweave/deploy-2"}, nil
}

func newTestAgent(t *testing.T, deployErr error) *Agent {
	t.Helper()
	tracker := metrics.NewTracker(nil)
	registry, err := deployreg.NewRegistry(nil)
	require.NoError(t, err)
	coordinator := pipeline.NewCoordinator(nil, stubParser{}, stubModels{}, stubManifests{},
		stubValidator{}, stubDeployer{err: deployErr}, tracker)
	return New(coordinator, registry, tracker)
}

func TestAgent_RunIntegrationRegistersDeployment(t *testing.T) {
	agent := newTestAgent(t, nil)

	result, err := agent.RunIntegration(context.Background(), pipeline.Options{
		SpecSource:   "spec.yaml",
		Namespace:    "orders",
		DeployTarget: "https://example.com/gitops.git",
	})
	require.NoError(t, err)
	require.Equal(t, "agent-1", result.AgentID)

	record, err := agent.GetStatus("agent-1")
	require.NoError(t, err)
	assert.Equal(t, result.RunID, record.RunID)
	assert.Equal(t, WorkflowAPIIntegration, record.Workflow)
	assert.Equal(t, "Orders API", record.Metadata.Title)
	assert.Equal(t, deployreg.StatusDeployed, record.Status)
}

func TestAgent_FailedDeployKeepsPartialRecord(t *testing.T) {
	agent := newTestAgent(t, errors.New("push rejected"))

	result, err := agent.RunIntegration(context.Background(), pipeline.Options{
		SpecSource:   "spec.yaml",
		Namespace:    "orders",
		DeployTarget: "https://example.com/gitops.git",
	})
	require.Error(t, err)
	require.NotNil(t, result)
	require.Equal(t, "agent-1", result.AgentID)

	// Manifests were generated and validated before the deploy failed.
	record, err := agent.GetStatus("agent-1")
	require.NoError(t, err)
	assert.Equal(t, deployreg.StatusValidated, record.Status)
}

func TestAgent_ListAndDelete(t *testing.T) {
	agent := newTestAgent(t, nil)

	for i := 0; i < 3; i++ {
		_, err := agent.RunIntegration(context.Background(), pipeline.Options{
			SpecSource: "spec.yaml",
			Namespace:  "orders",
		})
		require.NoError(t, err)
	}

	list := agent.ListDeployments()
	require.Len(t, list, 3)
	assert.Equal(t, "agent-1", list[0].AgentID)
	assert.Equal(t, "agent-3", list[2].AgentID)

	require.NoError(t, agent.DeleteDeployment("agent-2"))
	assert.True(t, errors.Is(agent.DeleteDeployment("agent-2"), deployreg.ErrNotFound))
	assert.Len(t, agent.ListDeployments(), 2)
}

func TestAgent_MetricsSnapshot(t *testing.T) {
	agent := newTestAgent(t, nil)

	_, err := agent.RunIntegration(context.Background(), pipeline.Options{
		SpecSource: "spec.yaml",
		Namespace:  "orders",
	})
	require.NoError(t, err)
	agent.ListDeployments()

	snap := agent.MetricsSnapshot()
	assert.Equal(t, 1, snap.Total)
	assert.Equal(t, 1, snap.Success)
	assert.Equal(t, snap.Total, snap.Success+snap.Failed)
	assert.Equal(t, 1, snap.EndpointCalls["runIntegration"])
	assert.Equal(t, 1, snap.EndpointCalls["listDeployments"])
	assert.Equal(t, 1, snap.EndpointCalls["getMetricsSnapshot"])
}
