package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/GontrandL/autoweave-agents/pkg/logx"
)

// PythonBridge shells out to the companion Python helper for spec parsing and
// model generation. The helper speaks a JSON-over-stdout protocol with one
// verb per invocation: parse, generate, validate, health.
type PythonBridge struct {
	python string
	script string
	logger *logx.Logger
}

// bridgeResponse is the helper's stdout envelope.
type bridgeResponse struct {
	Success    bool           `json:"success"`
	Spec       map[string]any `json:"spec,omitempty"`
	Metadata   *SpecMetadata  `json:"metadata,omitempty"`
	ModelsInfo *ModelsInfo    `json:"models_info,omitempty"`
	Valid      bool           `json:"valid,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// NewPythonBridge creates a bridge around the helper script. An empty python
// argument defaults to "python3".
func NewPythonBridge(python, script string) *PythonBridge {
	if python == "" {
		python = "python3"
	}
	return &PythonBridge{
		python: python,
		script: script,
		logger: logx.NewLogger("python-bridge"),
	}
}

// Parse implements SpecParser via the helper's parse verb.
func (b *PythonBridge) Parse(ctx context.Context, source string) (*ParsedSpec, error) {
	resp, err := b.invoke(ctx, "parse", source)
	if err != nil {
		return nil, &ParseError{Source: source, Cause: err}
	}
	if resp.Metadata == nil {
		return nil, &ParseError{Source: source, Cause: fmt.Errorf("helper returned no metadata")}
	}
	return &ParsedSpec{Spec: resp.Spec, Metadata: *resp.Metadata}, nil
}

// Generate implements ModelGenerator via the helper's generate verb. The spec
// is handed over through a temp file to keep the argument list bounded.
func (b *PythonBridge) Generate(ctx context.Context, spec map[string]any) (*ModelsResult, error) {
	encoded, err := json.Marshal(spec)
	if err != nil {
		return nil, &GenerationError{Cause: err}
	}

	tmp, err := os.CreateTemp("", "autoweave-spec-*.json")
	if err != nil {
		return nil, &GenerationError{Cause: err}
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		return nil, &GenerationError{Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return nil, &GenerationError{Cause: err}
	}

	resp, err := b.invoke(ctx, "generate", tmp.Name())
	if err != nil {
		return nil, &GenerationError{Cause: err}
	}
	if resp.ModelsInfo == nil {
		return nil, &GenerationError{Cause: fmt.Errorf("helper returned no models_info")}
	}
	return &ModelsResult{ModelsInfo: *resp.ModelsInfo}, nil
}

// Health reports whether the helper is runnable.
func (b *PythonBridge) Health(ctx context.Context) error {
	_, err := b.invoke(ctx, "health")
	return err
}

func (b *PythonBridge) invoke(ctx context.Context, verb string, args ...string) (*bridgeResponse, error) {
	argv := append([]string{b.script, verb}, args...)
	cmd := exec.CommandContext(ctx, b.python, argv...)
	cmd.Dir = filepath.Dir(b.script)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	b.logger.Debug("invoking helper: %s %s", b.python, strings.Join(argv, " "))
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("helper %s failed: %w: %s", verb, err, msg)
		}
		return nil, fmt.Errorf("helper %s failed: %w", verb, err)
	}

	var resp bridgeResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("helper %s produced invalid output: %w", verb, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("helper %s reported failure: %s", verb, resp.Error)
	}
	return &resp, nil
}
