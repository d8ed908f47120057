package metrics

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GontrandL/autoweave-agents/pkg/bridge"
)

func TestTracker_SuccessAndFailure(t *testing.T) {
	tr := NewTracker(nil)

	id1 := tr.StartRun("")
	require.NotEmpty(t, id1)
	tr.RecordSuccess(id1, 120)

	id2 := tr.StartRun("integration-2")
	tr.RecordFailure(id2, 80, &bridge.DeployError{Repository: "r", Cause: errors.New("push rejected")})

	snap := tr.Snapshot()
	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, 1, snap.Success)
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, snap.Total, snap.Success+snap.Failed)
	assert.Equal(t, 0, snap.InProgress)
	assert.Equal(t, int64(80), snap.MinMs)
	assert.Equal(t, int64(120), snap.MaxMs)
	assert.InDelta(t, 100.0, snap.AvgMs, 0.001)
	assert.Equal(t, 1, snap.ErrorsByKind[bridge.KindDeployError])
}

func TestTracker_InProgressGauge(t *testing.T) {
	tr := NewTracker(nil)

	id := tr.StartRun("run-a")
	assert.Equal(t, 1, tr.Snapshot().InProgress)

	tr.RecordSuccess(id, 10)
	assert.Equal(t, 0, tr.Snapshot().InProgress)

	// Finishing the same run again must not decrement below zero or
	// double-count the outcome.
	tr.RecordSuccess(id, 10)
	tr.RecordFailure(id, 10, errors.New("late"))

	snap := tr.Snapshot()
	assert.Equal(t, 0, snap.InProgress)
	assert.Equal(t, 1, snap.Total)
	assert.Equal(t, 1, snap.Success)
	assert.Equal(t, 0, snap.Failed)
}

func TestTracker_UnknownRunIgnored(t *testing.T) {
	tr := NewTracker(nil)
	tr.RecordSuccess("never-started", 5)
	tr.RecordFailure("also-never-started", 5, errors.New("x"))

	snap := tr.Snapshot()
	assert.Equal(t, 0, snap.Total)
	assert.Equal(t, 0, snap.Success)
	assert.Equal(t, 0, snap.Failed)
}

func TestTracker_Concurrent(t *testing.T) {
	tr := NewTracker(nil)

	const runs = 200
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := tr.StartRun(fmt.Sprintf("run-%d", i))
			if i%2 == 0 {
				tr.RecordSuccess(id, int64(i))
			} else {
				tr.RecordFailure(id, int64(i), &bridge.ParseError{Source: "s", Cause: errors.New("bad")})
			}
		}(i)
	}
	wg.Wait()

	snap := tr.Snapshot()
	assert.Equal(t, runs, snap.Total)
	assert.Equal(t, runs/2, snap.Success)
	assert.Equal(t, runs/2, snap.Failed)
	assert.Equal(t, snap.Total, snap.Success+snap.Failed)
	assert.Equal(t, 0, snap.InProgress)
	assert.Equal(t, runs/2, snap.ErrorsByKind[bridge.KindParseError])
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker(nil)
	id := tr.StartRun("run")
	tr.RecordFailure(id, 30, errors.New("x"))
	tr.RecordEndpointCall("runIntegration")

	tr.Reset()
	snap := tr.Snapshot()
	assert.Equal(t, 0, snap.Total)
	assert.Equal(t, 0, snap.Failed)
	assert.Equal(t, 0, snap.InProgress)
	assert.Empty(t, snap.ErrorsByKind)
	assert.Empty(t, snap.EndpointCalls)
	assert.Equal(t, float64(0), snap.AvgMs)
}

func TestTracker_EndpointCalls(t *testing.T) {
	tr := NewTracker(nil)
	tr.RecordEndpointCall("getStatus")
	tr.RecordEndpointCall("getStatus")
	tr.RecordEndpointCall("listDeployments")

	snap := tr.Snapshot()
	assert.Equal(t, 2, snap.EndpointCalls["getStatus"])
	assert.Equal(t, 1, snap.EndpointCalls["listDeployments"])
}

func TestClassify(t *testing.T) {
	assert.Equal(t, bridge.KindUnknown, Classify(nil))
	assert.Equal(t, bridge.KindUnknown, Classify(errors.New("plain")))
	assert.Equal(t, bridge.KindManifestError,
		Classify(fmt.Errorf("stage: %w", &bridge.ManifestError{Cause: errors.New("x")})))
}

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorder(reg)

	tr := NewTracker(rec)
	id := tr.StartRun("run")
	tr.RecordFailure(id, 250, &bridge.DeployError{Repository: "r", Cause: errors.New("x")})
	tr.RecordEndpointCall("runIntegration")

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["autoweave_runs_total"])
	assert.True(t, names["autoweave_run_errors_total"])
	assert.True(t, names["autoweave_run_duration_seconds"])
	assert.True(t, names["autoweave_endpoint_calls_total"])
}
