// Package bridge defines the contracts of the pipeline's external
// collaborators (spec parsing, model generation, manifest generation,
// validation, GitOps deployment) and their concrete implementations.
package bridge

import "context"

// Complexity buckets for a parsed specification.
const (
	ComplexitySimple   = "simple"
	ComplexityModerate = "moderate"
	ComplexityComplex  = "complex"
)

// SpecMetadata summarizes a parsed OpenAPI specification.
type SpecMetadata struct {
	Title          string `json:"title"`
	Version        string `json:"version"`
	Description    string `json:"description,omitempty"`
	EndpointCount  int    `json:"endpoints"`
	MethodCount    int    `json:"methods"`
	SchemaCount    int    `json:"schemas"`
	Complexity     string `json:"complexity"`
	OpenAPIVersion string `json:"openapi_version"`
}

// ParsedSpec is the result of the parse stage.
type ParsedSpec struct {
	Spec     map[string]any `json:"spec"`
	Metadata SpecMetadata   `json:"metadata"`
}

// ModelInfo describes one generated data model.
type ModelInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ModelsInfo summarizes the generated data models.
type ModelsInfo struct {
	Models      []ModelInfo `json:"models"`
	TotalModels int         `json:"total_models"`
	LinesOfCode int         `json:"lines_of_code"`
}

// ModelsResult is the result of the generate-models stage.
type ModelsResult struct {
	ModelsInfo   ModelsInfo `json:"models_info"`
	ArtifactPath string     `json:"artifact_path,omitempty"`
}

// Manifest is a single named Kubernetes manifest document.
type Manifest struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
}

// ManifestSet is the ordered set of manifests generated for one workload.
type ManifestSet struct {
	Namespace string     `json:"namespace"`
	Manifests []Manifest `json:"manifests"`
}

// CheckResult is the outcome of a single validation check.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// ValidationReport is the structured pass/fail result of manifest validation.
type ValidationReport struct {
	Passed bool          `json:"passed"`
	Checks []CheckResult `json:"checks"`
}

// DeployResult is the result of the deploy stage.
type DeployResult struct {
	Committed bool   `json:"committed"`
	Revision  string `json:"revision,omitempty"`
	Branch    string `json:"branch,omitempty"`
}

// SpecParser fetches and parses an API specification.
type SpecParser interface {
	Parse(ctx context.Context, source string) (*ParsedSpec, error)
}

// ModelGenerator generates typed data models from a parsed specification.
type ModelGenerator interface {
	Generate(ctx context.Context, spec map[string]any) (*ModelsResult, error)
}

// ManifestGenerator generates deployment manifests for the integrated API.
type ManifestGenerator interface {
	Generate(ctx context.Context, spec *ParsedSpec, models *ModelsResult, namespace string) (*ManifestSet, error)
}

// ManifestValidator checks generated manifests. It never returns an error;
// problems are reported through the structured report.
type ManifestValidator interface {
	Validate(ctx context.Context, set *ManifestSet) *ValidationReport
}

// GitOpsDeployer ships a manifest set to a GitOps repository.
type GitOpsDeployer interface {
	Deploy(ctx context.Context, set *ManifestSet, repoURL, namespace string) (*DeployResult, error)
}
