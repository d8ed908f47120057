// Package pipeline coordinates the canonical integration stages that turn an
// API specification into a deployed workload.
package pipeline

import (
	"fmt"

	"github.com/GontrandL/autoweave-agents/pkg/bridge"
	"github.com/GontrandL/autoweave-agents/pkg/tools"
)

// Stage identifies one canonical pipeline stage.
type Stage string

const (
	StageParse             Stage = "parse"
	StageGenerateModels    Stage = "generate-models"
	StageGenerateManifests Stage = "generate-manifests"
	StageValidate          Stage = "validate"
	StageDeploy            Stage = "deploy"
)

// Stages returns the canonical stage order.
func Stages() []Stage {
	return []Stage{StageParse, StageGenerateModels, StageGenerateManifests, StageValidate, StageDeploy}
}

// ToolFor maps a stage to its registered planning tool.
func ToolFor(stage Stage) string {
	switch stage {
	case StageParse:
		return tools.ToolParseSpec
	case StageGenerateModels:
		return tools.ToolGenerateModels
	case StageGenerateManifests:
		return tools.ToolGenerateManifests
	case StageValidate:
		return tools.ToolValidateManifests
	case StageDeploy:
		return tools.ToolDeployToCluster
	default:
		return ""
	}
}

// StageResult records the outcome of one executed stage.
type StageResult struct {
	Stage      Stage          `json:"stage"`
	Succeeded  bool           `json:"succeeded"`
	Output     map[string]any `json:"output,omitempty"`
	Warning    string         `json:"warning,omitempty"`
	Err        error          `json:"-"`
	DurationMs int64          `json:"duration_ms"`
}

// StageExecutionError wraps a stage failure with the stage that produced it.
type StageExecutionError struct {
	Stage Stage
	Cause error
}

func (e *StageExecutionError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Cause)
}

func (e *StageExecutionError) Unwrap() error { return e.Cause }

// validationFailedError is the fatal form of a failed validation report,
// raised only in strict mode.
type validationFailedError struct {
	report *bridge.ValidationReport
}

func (e *validationFailedError) Error() string {
	failed := 0
	for _, c := range e.report.Checks {
		if !c.Passed {
			failed++
		}
	}
	return fmt.Sprintf("manifest validation failed: %d of %d checks failed", failed, len(e.report.Checks))
}

// ErrorKind returns the metrics classification label.
func (e *validationFailedError) ErrorKind() string { return bridge.KindValidationError }
