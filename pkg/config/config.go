// Package config loads the agent's configuration from a JSON file with
// environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Provider names accepted for the reasoning backend.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderNone      = "none"
)

// LLMConfig configures the reasoning backend.
type LLMConfig struct {
	Provider       string  `json:"provider"`
	Model          string  `json:"model,omitempty"`
	Host           string  `json:"host,omitempty"`
	MaxTokens      int     `json:"max_tokens,omitempty"`
	Temperature    float64 `json:"temperature,omitempty"`
	TimeoutSeconds int     `json:"timeout_seconds,omitempty"`
}

// PipelineConfig configures pipeline behavior.
type PipelineConfig struct {
	DefaultNamespace string `json:"default_namespace"`
	StrictValidation bool   `json:"strict_validation"`
	WorkloadImage    string `json:"workload_image,omitempty"`
	// PythonBridge is the path to the helper script. Empty selects the
	// in-process parser and model generator.
	PythonBridge string `json:"python_bridge,omitempty"`
	PythonBinary string `json:"python_binary,omitempty"`
}

// RegistryConfig configures deployment registry persistence.
type RegistryConfig struct {
	// DBPath is the SQLite database path. Empty keeps the registry in memory.
	DBPath string `json:"db_path,omitempty"`
}

// MetricsConfig configures the Prometheus exporter.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`
}

// Config is the root configuration.
type Config struct {
	LLM      LLMConfig      `json:"llm"`
	Pipeline PipelineConfig `json:"pipeline"`
	Registry RegistryConfig `json:"registry"`
	Metrics  MetricsConfig  `json:"metrics"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		LLM: LLMConfig{
			Provider:       ProviderNone,
			Temperature:    0.3,
			MaxTokens:      4096,
			TimeoutSeconds: 60,
		},
		Pipeline: PipelineConfig{
			DefaultNamespace: "default",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
	}
}

// Load reads the configuration from path, applies AUTOWEAVE_* environment
// overrides, and validates the result. An empty path skips the file and
// starts from defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderAnthropic, ProviderOpenAI, ProviderOllama, ProviderNone:
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature %v out of range [0, 2]", c.LLM.Temperature)
	}
	if c.LLM.MaxTokens < 0 {
		return fmt.Errorf("llm max_tokens must not be negative")
	}
	if c.Pipeline.DefaultNamespace == "" {
		return fmt.Errorf("pipeline default_namespace must not be empty")
	}
	return nil
}

// applyEnv folds AUTOWEAVE_* environment variables over the config.
func applyEnv(cfg *Config) {
	if v := os.Getenv("AUTOWEAVE_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("AUTOWEAVE_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("AUTOWEAVE_LLM_HOST"); v != "" {
		cfg.LLM.Host = v
	}
	if v := os.Getenv("AUTOWEAVE_NAMESPACE"); v != "" {
		cfg.Pipeline.DefaultNamespace = v
	}
	if v := os.Getenv("AUTOWEAVE_STRICT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Pipeline.StrictValidation = b
		}
	}
	if v := os.Getenv("AUTOWEAVE_DB_PATH"); v != "" {
		cfg.Registry.DBPath = v
	}
	if v := os.Getenv("AUTOWEAVE_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
		cfg.Metrics.Enabled = true
	}
}
