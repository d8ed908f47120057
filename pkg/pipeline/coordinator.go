package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/GontrandL/autoweave-agents/pkg/bridge"
	"github.com/GontrandL/autoweave-agents/pkg/logx"
	"github.com/GontrandL/autoweave-agents/pkg/metrics"
	"github.com/GontrandL/autoweave-agents/pkg/reason"
)

// Planner maps free-form intent to a stage tool call. A nil Planner disables
// reasoning; the coordinator then always invokes stages directly.
type Planner interface {
	Plan(ctx context.Context, intent string, contextData map[string]any) (reason.PlanResult, error)
}

// Options configures one integration run.
type Options struct {
	// SpecSource is the URL or file path of the API specification.
	SpecSource string
	// Namespace is the target Kubernetes namespace.
	Namespace string
	// DeployTarget is the GitOps repository URL. Empty skips the deploy stage.
	DeployTarget string
	// Strict makes a failed validation report fatal instead of a warning.
	Strict bool
	// Intent is the free-form user intent handed to the planner.
	Intent string
}

// Result is the outcome of one integration run. It is populated as far as
// the run progressed, including on failure.
type Result struct {
	RunID        string                   `json:"run_id"`
	AgentID      string                   `json:"agent_id,omitempty"`
	StageResults []StageResult            `json:"stage_results"`
	Spec         *bridge.ParsedSpec       `json:"spec,omitempty"`
	Models       *bridge.ModelsResult     `json:"models,omitempty"`
	Manifests    *bridge.ManifestSet      `json:"manifests,omitempty"`
	Validation   *bridge.ValidationReport `json:"validation,omitempty"`
	Deployment   *bridge.DeployResult     `json:"deployment,omitempty"`
	Succeeded    bool                     `json:"succeeded"`
	DurationMs   int64                    `json:"duration_ms"`
	Err          error                    `json:"-"`
}

// Coordinator drives the canonical stages in order, consulting the planner
// per stage and falling back to direct invocation when reasoning cannot help.
type Coordinator struct {
	planner   Planner
	parser    bridge.SpecParser
	models    bridge.ModelGenerator
	manifests bridge.ManifestGenerator
	validator bridge.ManifestValidator
	deployer  bridge.GitOpsDeployer
	tracker   *metrics.Tracker
	logger    *logx.Logger
}

// NewCoordinator wires a coordinator. planner may be nil; tracker must not be.
func NewCoordinator(
	planner Planner,
	parser bridge.SpecParser,
	models bridge.ModelGenerator,
	manifests bridge.ManifestGenerator,
	validator bridge.ManifestValidator,
	deployer bridge.GitOpsDeployer,
	tracker *metrics.Tracker,
) *Coordinator {
	return &Coordinator{
		planner:   planner,
		parser:    parser,
		models:    models,
		manifests: manifests,
		validator: validator,
		deployer:  deployer,
		tracker:   tracker,
		logger:    logx.NewLogger("pipeline"),
	}
}

// Run executes the integration pipeline. The returned Result is always
// non-nil and reflects every stage that ran, even when err is non-nil.
func (c *Coordinator) Run(ctx context.Context, opts Options) (*Result, error) {
	runID := c.tracker.StartRun("")
	result := &Result{RunID: runID}
	start := time.Now()

	c.logger.Info("run %s started: source=%s namespace=%s deploy=%q strict=%v",
		runID, opts.SpecSource, opts.Namespace, opts.DeployTarget, opts.Strict)

	fail := func(stage Stage, cause error) (*Result, error) {
		err := &StageExecutionError{Stage: stage, Cause: cause}
		result.Err = err
		result.DurationMs = time.Since(start).Milliseconds()
		c.tracker.RecordFailure(runID, result.DurationMs, err)
		c.logger.Error("run %s failed at stage %s: %v", runID, stage, cause)
		return result, err
	}

	for _, stage := range c.activeStages(opts) {
		if err := ctx.Err(); err != nil {
			return fail(stage, err)
		}

		args := c.planStage(ctx, stage, opts, result)

		stageStart := time.Now()
		output, err := c.execute(ctx, stage, args, opts, result)
		sr := StageResult{
			Stage:      stage,
			Succeeded:  err == nil,
			Output:     output,
			Err:        err,
			DurationMs: time.Since(stageStart).Milliseconds(),
		}

		if err == nil && stage == StageValidate && !result.Validation.Passed {
			if opts.Strict {
				err = &validationFailedError{report: result.Validation}
				sr.Succeeded = false
				sr.Err = err
			} else {
				sr.Warning = (&validationFailedError{report: result.Validation}).Error()
				c.logger.Warn("run %s: %s", runID, sr.Warning)
			}
		}

		result.StageResults = append(result.StageResults, sr)
		if err != nil {
			return fail(stage, err)
		}
		c.logger.Debug("run %s stage %s completed in %dms", runID, stage, sr.DurationMs)
	}

	result.Succeeded = true
	result.DurationMs = time.Since(start).Milliseconds()
	c.tracker.RecordSuccess(runID, result.DurationMs)
	c.logger.Info("run %s succeeded in %dms", runID, result.DurationMs)
	return result, nil
}

// activeStages returns the stages this run will execute. Deploy is skipped
// when no target repository is configured.
func (c *Coordinator) activeStages(opts Options) []Stage {
	stages := Stages()
	if opts.DeployTarget == "" {
		return stages[:len(stages)-1]
	}
	return stages
}

// planStage consults the planner for one stage and returns the argument
// overrides it proposed. Any planner failure, guidance answer, or off-stage
// tool selection falls back to direct invocation with no overrides.
func (c *Coordinator) planStage(ctx context.Context, stage Stage, opts Options, result *Result) map[string]any {
	if c.planner == nil {
		return nil
	}

	intent := opts.Intent
	if intent == "" {
		intent = fmt.Sprintf("run the %s stage of the integration pipeline", stage)
	} else {
		intent = fmt.Sprintf("%s (next stage: %s)", intent, stage)
	}

	contextData := map[string]any{
		"stage":       string(stage),
		"spec_source": opts.SpecSource,
		"namespace":   opts.Namespace,
	}
	if result.Spec != nil {
		contextData["spec_title"] = result.Spec.Metadata.Title
		contextData["complexity"] = result.Spec.Metadata.Complexity
	}

	plan, err := c.planner.Plan(ctx, intent, contextData)
	if err != nil {
		c.logger.Debug("stage %s: planning unavailable, invoking directly: %v", stage, err)
		return nil
	}
	if plan.Kind != reason.PlanToolCall {
		c.logger.Debug("stage %s: planner returned guidance, invoking directly", stage)
		return nil
	}
	if plan.ToolName != ToolFor(stage) {
		c.logger.Debug("stage %s: planner selected %s, invoking directly", stage, plan.ToolName)
		return nil
	}
	return plan.Arguments
}

// execute runs one stage against its collaborator, folding planner argument
// overrides over the run options, and stores the stage's product on result.
func (c *Coordinator) execute(ctx context.Context, stage Stage, args map[string]any, opts Options, result *Result) (map[string]any, error) {
	switch stage {
	case StageParse:
		source := stringArg(args, "spec_source", opts.SpecSource)
		spec, err := c.parser.Parse(ctx, source)
		if err != nil {
			return nil, err
		}
		result.Spec = spec
		return map[string]any{
			"title":      spec.Metadata.Title,
			"endpoints":  spec.Metadata.EndpointCount,
			"schemas":    spec.Metadata.SchemaCount,
			"complexity": spec.Metadata.Complexity,
		}, nil

	case StageGenerateModels:
		models, err := c.models.Generate(ctx, result.Spec.Spec)
		if err != nil {
			return nil, err
		}
		result.Models = models
		return map[string]any{"total_models": models.ModelsInfo.TotalModels}, nil

	case StageGenerateManifests:
		namespace := stringArg(args, "namespace", opts.Namespace)
		set, err := c.manifests.Generate(ctx, result.Spec, result.Models, namespace)
		if err != nil {
			return nil, err
		}
		result.Manifests = set
		return map[string]any{"manifests": len(set.Manifests), "namespace": set.Namespace}, nil

	case StageValidate:
		report := c.validator.Validate(ctx, result.Manifests)
		result.Validation = report
		return map[string]any{"passed": report.Passed, "checks": len(report.Checks)}, nil

	case StageDeploy:
		repoURL := stringArg(args, "repo_url", opts.DeployTarget)
		deployment, err := c.deployer.Deploy(ctx, result.Manifests, repoURL, result.Manifests.Namespace)
		if err != nil {
			return nil, err
		}
		result.Deployment = deployment
		return map[string]any{"branch": deployment.Branch, "revision": deployment.Revision}, nil

	default:
		return nil, fmt.Errorf("unknown stage %q", stage)
	}
}

// stringArg returns args[key] when it is a non-empty string, else fallback.
func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
