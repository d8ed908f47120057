// Package integration exposes the facade tying the pipeline, deployment
// registry, and outcome tracker together.
package integration

import (
	"context"
	"errors"
	"fmt"

	"github.com/GontrandL/autoweave-agents/pkg/deployreg"
	"github.com/GontrandL/autoweave-agents/pkg/logx"
	"github.com/GontrandL/autoweave-agents/pkg/metrics"
	"github.com/GontrandL/autoweave-agents/pkg/pipeline"
)

// WorkflowAPIIntegration is the workflow name recorded for pipeline runs.
const WorkflowAPIIntegration = "api-integration"

// Agent is the integration facade.
type Agent struct {
	coordinator *pipeline.Coordinator
	registry    *deployreg.Registry
	tracker     *metrics.Tracker
	logger      *logx.Logger
}

// New creates the facade over its wired dependencies.
func New(coordinator *pipeline.Coordinator, registry *deployreg.Registry, tracker *metrics.Tracker) *Agent {
	return &Agent{
		coordinator: coordinator,
		registry:    registry,
		tracker:     tracker,
		logger:      logx.NewLogger("autoweave"),
	}
}

// RunIntegration executes one pipeline run and registers the resulting
// deployment. A record is registered whenever manifests were generated, even
// if a later stage failed, so partial runs stay inspectable.
func (a *Agent) RunIntegration(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error) {
	a.tracker.RecordEndpointCall("runIntegration")

	result, runErr := a.coordinator.Run(ctx, opts)
	if result.Manifests != nil {
		record := deployreg.Record{
			RunID:     result.RunID,
			Workflow:  WorkflowAPIIntegration,
			Manifests: *result.Manifests,
		}
		if result.Spec != nil {
			record.Metadata = result.Spec.Metadata
		}
		stored := a.registry.Put(record)
		result.AgentID = stored.AgentID

		if result.Validation != nil && result.Validation.Passed {
			a.advance(stored.AgentID, deployreg.StatusValidated)
		}
		if result.Deployment != nil && result.Deployment.Committed {
			a.advance(stored.AgentID, deployreg.StatusDeployed)
		}
	}

	if runErr != nil {
		return result, fmt.Errorf("integration run %s failed: %w", result.RunID, runErr)
	}
	return result, nil
}

// GetStatus returns the registered record for agentID.
func (a *Agent) GetStatus(agentID string) (deployreg.Record, error) {
	a.tracker.RecordEndpointCall("getStatus")
	return a.registry.Get(agentID)
}

// ListDeployments returns all registered deployments in insertion order.
func (a *Agent) ListDeployments() []deployreg.Record {
	a.tracker.RecordEndpointCall("listDeployments")
	return a.registry.List()
}

// DeleteDeployment removes the record for agentID.
func (a *Agent) DeleteDeployment(agentID string) error {
	a.tracker.RecordEndpointCall("deleteDeployment")
	if err := a.registry.Delete(agentID); err != nil {
		if errors.Is(err, deployreg.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete deployment %s: %w", agentID, err)
	}
	a.logger.Info("deleted deployment %s", agentID)
	return nil
}

// MetricsSnapshot returns the current outcome aggregates.
func (a *Agent) MetricsSnapshot() metrics.Snapshot {
	a.tracker.RecordEndpointCall("getMetricsSnapshot")
	return a.tracker.Snapshot()
}

func (a *Agent) advance(agentID string, status deployreg.Status) {
	if err := a.registry.AdvanceStatus(agentID, status); err != nil {
		a.logger.Warn("failed to advance %s to %s: %v", agentID, status, err)
	}
}
