// autoweave-agent runs one API integration: parse an OpenAPI specification,
// generate models and Kubernetes manifests, validate them, and optionally
// push them to a GitOps repository.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GontrandL/autoweave-agents/pkg/bridge"
	"github.com/GontrandL/autoweave-agents/pkg/config"
	"github.com/GontrandL/autoweave-agents/pkg/deployreg"
	"github.com/GontrandL/autoweave-agents/pkg/integration"
	"github.com/GontrandL/autoweave-agents/pkg/llm"
	llmanthropic "github.com/GontrandL/autoweave-agents/pkg/llm/anthropic"
	llmollama "github.com/GontrandL/autoweave-agents/pkg/llm/ollama"
	llmopenai "github.com/GontrandL/autoweave-agents/pkg/llm/openai"
	"github.com/GontrandL/autoweave-agents/pkg/logx"
	"github.com/GontrandL/autoweave-agents/pkg/metrics"
	"github.com/GontrandL/autoweave-agents/pkg/pipeline"
	"github.com/GontrandL/autoweave-agents/pkg/reason"
	"github.com/GontrandL/autoweave-agents/pkg/tools"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "autoweave-agent: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  = flag.String("config", "", "path to config JSON")
		specSource  = flag.String("spec", "", "URL or path of the OpenAPI specification (required)")
		namespace   = flag.String("namespace", "", "target Kubernetes namespace")
		deployRepo  = flag.String("deploy-repo", "", "GitOps repository URL; empty skips deployment")
		intent      = flag.String("intent", "", "free-form intent handed to the planner")
		strict      = flag.Bool("strict", false, "treat a failed validation report as fatal")
		metricsAddr = flag.String("metrics-addr", "", "serve Prometheus metrics on this address")
		listOnly    = flag.Bool("list", false, "list registered deployments and exit")
	)
	flag.Parse()

	// Local development convenience; absence of a .env file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *namespace == "" {
		*namespace = cfg.Pipeline.DefaultNamespace
	}
	if *strict {
		cfg.Pipeline.StrictValidation = true
	}
	if *metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = *metricsAddr
	}

	logger := logx.NewLogger("main")

	var recorder metrics.Recorder
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(registry)
		go serveMetrics(cfg.Metrics.Addr, registry, logger)
	}
	tracker := metrics.NewTracker(recorder)

	var store *deployreg.Store
	if cfg.Registry.DBPath != "" {
		store, err = deployreg.OpenStore(cfg.Registry.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
	}
	registry, err := deployreg.NewRegistry(store)
	if err != nil {
		return err
	}

	planner, err := buildPlanner(cfg.LLM)
	if err != nil {
		return err
	}

	parser, models := buildBridge(cfg.Pipeline)
	coordinator := pipeline.NewCoordinator(
		planner,
		parser,
		models,
		bridge.NewTemplateGenerator(cfg.Pipeline.WorkloadImage),
		bridge.NewChecksValidator(),
		bridge.NewGitDeployer("", ""),
		tracker,
	)
	agent := integration.New(coordinator, registry, tracker)

	if *listOnly {
		return printJSON(agent.ListDeployments())
	}

	if *specSource == "" {
		flag.Usage()
		return errors.New("-spec is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, runErr := agent.RunIntegration(ctx, pipeline.Options{
		SpecSource:   *specSource,
		Namespace:    *namespace,
		DeployTarget: *deployRepo,
		Strict:       cfg.Pipeline.StrictValidation,
		Intent:       *intent,
	})
	if err := printJSON(result); err != nil {
		return err
	}
	return runErr
}

// buildPlanner selects the reasoning backend. Provider "none" disables
// planning; the pipeline then invokes every stage directly.
func buildPlanner(cfg config.LLMConfig) (pipeline.Planner, error) {
	var client llm.Client
	switch cfg.Provider {
	case config.ProviderNone, "":
		return nil, nil
	case config.ProviderAnthropic:
		model := cfg.Model
		if model == "" {
			model = llmanthropic.DefaultModel
		}
		client = llmanthropic.NewClientWithModel(os.Getenv("ANTHROPIC_API_KEY"), model)
	case config.ProviderOpenAI:
		model := cfg.Model
		if model == "" {
			model = llmopenai.DefaultModel
		}
		client = llmopenai.NewClientWithModel(os.Getenv("OPENAI_API_KEY"), model)
	case config.ProviderOllama:
		model := cfg.Model
		if model == "" {
			model = "llama3.1"
		}
		client = llmollama.NewClientWithModel(cfg.Host, model)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	registry := tools.NewRegistry()
	if err := tools.RegisterStageTools(registry); err != nil {
		return nil, err
	}

	opts := []reason.Option{}
	if cfg.TimeoutSeconds > 0 {
		opts = append(opts, reason.WithCallTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second))
	}
	return reason.NewPlanner(client, registry, opts...), nil
}

// buildBridge selects the parse and model-generation collaborators: the
// Python helper when configured, the in-process implementations otherwise.
func buildBridge(cfg config.PipelineConfig) (bridge.SpecParser, bridge.ModelGenerator) {
	if cfg.PythonBridge != "" {
		pb := bridge.NewPythonBridge(cfg.PythonBinary, cfg.PythonBridge)
		return pb, pb
	}
	return bridge.NewOpenAPIParser(), bridge.NewSchemaModelGenerator()
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *logx.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	logger.Info("serving metrics on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server stopped: %v", err)
	}
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
