// Package reason implements the planning loop that maps free-form intent to
// pipeline stage tool calls via an external reasoning service. Plan only
// decides; it never executes a stage.
package reason

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GontrandL/autoweave-agents/pkg/contextmgr"
	"github.com/GontrandL/autoweave-agents/pkg/llm"
	"github.com/GontrandL/autoweave-agents/pkg/logx"
	"github.com/GontrandL/autoweave-agents/pkg/tools"
)

// ErrReasoningUnavailable indicates the external reasoning service could not
// produce a usable answer (unreachable, timed out, or invalid response).
// Recoverable: the pipeline coordinator falls back to direct stage invocation.
var ErrReasoningUnavailable = errors.New("reasoning service unavailable")

// systemFraming is the fixed framing describing the canonical stages.
const systemFraming = `You are the planning engine of an API integration pipeline.
The pipeline turns an OpenAPI specification into a deployed Kubernetes workload
through five stages, in order:
  1. parse_openapi_spec    - fetch and parse the specification
  2. generate_models       - generate typed data models from the parsed spec
  3. generate_manifests    - generate Kubernetes manifests for the workload
  4. validate_manifests    - run structural checks over the manifests
  5. deploy_to_cluster     - commit manifests to the GitOps repository

Given the user's intent, select exactly one tool for the next stage to run,
with its arguments. If no tool applies, answer with short bulleted guidance.`

// PlanKind discriminates PlanResult variants.
type PlanKind string

const (
	// PlanToolCall means the service selected a registered tool.
	PlanToolCall PlanKind = "tool_call"
	// PlanGuidance means the service returned free-form guidance.
	PlanGuidance PlanKind = "guidance"
)

// PlanResult is the tagged union returned by Plan.
type PlanResult struct {
	Kind            PlanKind
	ToolName        string
	Arguments       map[string]any
	Text            string
	Recommendations []string
}

// Planner asks the reasoning service to map intent to a stage tool call,
// maintaining a bounded rolling conversation history.
type Planner struct {
	client   llm.Client
	registry *tools.Registry
	history  *contextmgr.ContextManager
	logger   *logx.Logger
	timeout  time.Duration
}

// Option configures a Planner.
type Option func(*Planner)

// WithHistory replaces the default conversation history manager.
func WithHistory(history *contextmgr.ContextManager) Option {
	return func(p *Planner) { p.history = history }
}

// WithCallTimeout bounds each reasoning service round-trip.
func WithCallTimeout(timeout time.Duration) Option {
	return func(p *Planner) { p.timeout = timeout }
}

// NewPlanner creates a planner over client and registry. The client is
// wrapped with the default per-call timeout; use WithCallTimeout to change it.
func NewPlanner(client llm.Client, registry *tools.Registry, opts ...Option) *Planner {
	p := &Planner{
		client:   client,
		registry: registry,
		history:  contextmgr.NewContextManager(),
		logger:   logx.NewLogger("planner"),
		timeout:  llm.DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.client = llm.WithTimeout(p.client, p.timeout)
	return p
}

// History returns the planner's conversation history manager.
func (p *Planner) History() *contextmgr.ContextManager {
	return p.history
}

// Plan builds a planning request from the system framing, the recent
// conversation window, and the new intent, and asks the reasoning service to
// select one registered tool or return guidance. Every call appends exactly
// one user entry and one assistant-summary entry to the history.
func (p *Planner) Plan(ctx context.Context, intent string, contextData map[string]any) (PlanResult, error) {
	userContent := intent
	if len(contextData) > 0 {
		if encoded, err := json.Marshal(contextData); err == nil {
			userContent = fmt.Sprintf("%s\n\nContext: %s", intent, encoded)
		}
	}

	messages := make([]llm.CompletionMessage, 0, contextmgr.DefaultWindow+2)
	messages = append(messages, llm.NewSystemMessage(systemFraming))
	for _, msg := range p.history.Recent() {
		messages = append(messages, llm.CompletionMessage{
			Role:    llm.CompletionRole(msg.Role),
			Content: msg.Content,
		})
	}
	messages = append(messages, llm.NewUserMessage(userContent))

	req := llm.NewCompletionRequest(messages)
	req.Tools = p.registry.List()

	summary := ""
	defer func() {
		p.history.AddMessage(contextmgr.RoleUser, intent)
		p.history.AddMessage(contextmgr.RoleAssistant, summary)
	}()

	start := time.Now()
	resp, err := p.client.Complete(ctx, req)
	if err != nil {
		summary = fmt.Sprintf("planning failed: %v", err)
		p.logger.Warn("reasoning call failed after %.3fs: %v", time.Since(start).Seconds(), err)
		return PlanResult{}, fmt.Errorf("%w: %v", ErrReasoningUnavailable, err)
	}

	if len(resp.ToolCalls) > 0 {
		call := resp.ToolCalls[0]
		if _, err := p.registry.Describe(call.Name); err != nil {
			// Unknown tool names are not retried against the service; recovery
			// is the coordinator's fallback path.
			summary = fmt.Sprintf("selected unknown tool %q", call.Name)
			return PlanResult{}, err
		}

		summary = fmt.Sprintf("selected tool %s", call.Name)
		p.logger.Debug("plan selected tool %s in %.3fs", call.Name, time.Since(start).Seconds())
		return PlanResult{
			Kind:      PlanToolCall,
			ToolName:  call.Name,
			Arguments: call.Parameters,
		}, nil
	}

	if strings.TrimSpace(resp.Content) == "" {
		summary = "planning returned empty response"
		return PlanResult{}, fmt.Errorf("%w: empty response", ErrReasoningUnavailable)
	}

	recommendations := ExtractRecommendations(resp.Content)
	summary = summarize(resp.Content)
	p.logger.Debug("plan returned guidance with %d recommendations", len(recommendations))
	return PlanResult{
		Kind:            PlanGuidance,
		Text:            resp.Content,
		Recommendations: recommendations,
	}, nil
}

// ExtractRecommendations pulls bulleted and numbered lines out of free-form
// guidance text.
func ExtractRecommendations(text string) []string {
	var recommendations []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		switch {
		case strings.HasPrefix(trimmed, "- "):
			recommendations = append(recommendations, strings.TrimSpace(trimmed[2:]))
		case strings.HasPrefix(trimmed, "* "):
			recommendations = append(recommendations, strings.TrimSpace(trimmed[2:]))
		case strings.HasPrefix(trimmed, "• "):
			recommendations = append(recommendations, strings.TrimSpace(trimmed[len("• "):]))
		case isNumberedLine(trimmed):
			if idx := strings.IndexAny(trimmed, ".)"); idx >= 0 && idx+1 < len(trimmed) {
				recommendations = append(recommendations, strings.TrimSpace(trimmed[idx+1:]))
			}
		}
	}
	return recommendations
}

// isNumberedLine reports whether trimmed starts like "1." or "12)".
func isNumberedLine(trimmed string) bool {
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(trimmed) {
		return false
	}
	return trimmed[i] == '.' || trimmed[i] == ')'
}

// summarize shortens guidance text for the assistant history entry.
func summarize(text string) string {
	const maxLen = 200
	text = strings.TrimSpace(text)
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
