package tools

// Tool name constants - use these instead of magic strings to prevent typos.
const (
	ToolParseSpec         = "parse_openapi_spec"
	ToolGenerateModels    = "generate_models"
	ToolGenerateManifests = "generate_manifests"
	ToolValidateManifests = "validate_manifests"
	ToolDeployToCluster   = "deploy_to_cluster"
)

// StageToolNames lists the five canonical stage tools in pipeline order.
//
//nolint:gochecknoglobals // Fixed stage ordering, globally referenced
var StageToolNames = []string{
	ToolParseSpec,
	ToolGenerateModels,
	ToolGenerateManifests,
	ToolValidateManifests,
	ToolDeployToCluster,
}

// StageTools returns the canonical stage tool definitions in pipeline order.
func StageTools() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        ToolParseSpec,
			Description: "Fetch and parse an OpenAPI specification, extracting its metadata (title, version, endpoint count).",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"spec_source": {
						Type:        "string",
						Description: "URL or file path of the OpenAPI specification",
					},
				},
				Required: []string{"spec_source"},
			},
		},
		{
			Name:        ToolGenerateModels,
			Description: "Generate typed data models from a previously parsed OpenAPI specification.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"output_dir": {
						Type:        "string",
						Description: "Directory to write generated model artifacts to",
					},
				},
			},
		},
		{
			Name:        ToolGenerateManifests,
			Description: "Generate Kubernetes deployment manifests (Deployment, Service, ConfigMap) for the integrated API.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"namespace": {
						Type:        "string",
						Description: "Target Kubernetes namespace",
					},
				},
			},
		},
		{
			Name:        ToolValidateManifests,
			Description: "Run structural validation checks over the generated Kubernetes manifests.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"strict": {
						Type:        "string",
						Description: "Treat validation failures as fatal when set to 'true'",
						Enum:        []string{"true", "false"},
					},
				},
			},
		},
		{
			Name:        ToolDeployToCluster,
			Description: "Commit the generated manifests to a GitOps repository for cluster deployment.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"repo_url": {
						Type:        "string",
						Description: "Git repository URL of the GitOps deployment target",
					},
					"namespace": {
						Type:        "string",
						Description: "Target Kubernetes namespace",
					},
				},
				Required: []string{"repo_url"},
			},
		},
	}
}

// RegisterStageTools registers the canonical stage tools into r.
func RegisterStageTools(r *Registry) error {
	for _, def := range StageTools() {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}
