package bridge

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleSpec() *ParsedSpec {
	return &ParsedSpec{
		Spec: map[string]any{
			"openapi": "3.0.0",
			"components": map[string]any{
				"schemas": map[string]any{
					"Invoice": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"id":     map[string]any{"type": "string"},
							"amount": map[string]any{"type": "number"},
						},
					},
					"Customer": map[string]any{"type": "object"},
				},
			},
		},
		Metadata: SpecMetadata{
			Title:          "Billing API v2",
			Version:        "2.1.0",
			EndpointCount:  4,
			MethodCount:    6,
			SchemaCount:    2,
			Complexity:     ComplexitySimple,
			OpenAPIVersion: "3.0.0",
		},
	}
}

func TestSchemaModelGenerator(t *testing.T) {
	g := NewSchemaModelGenerator()
	result, err := g.Generate(context.Background(), sampleSpec().Spec)
	require.NoError(t, err)

	assert.Equal(t, 2, result.ModelsInfo.TotalModels)
	require.Len(t, result.ModelsInfo.Models, 2)
	// Deterministic name order.
	assert.Equal(t, "Customer", result.ModelsInfo.Models[0].Name)
	assert.Equal(t, "Invoice", result.ModelsInfo.Models[1].Name)
	assert.Greater(t, result.ModelsInfo.LinesOfCode, 0)
}

func TestSchemaModelGenerator_NilSpec(t *testing.T) {
	g := NewSchemaModelGenerator()
	_, err := g.Generate(context.Background(), nil)
	require.Error(t, err)

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, KindGenerationError, genErr.ErrorKind())
}

func TestTemplateGenerator(t *testing.T) {
	g := NewTemplateGenerator("")
	set, err := g.Generate(context.Background(), sampleSpec(), nil, "billing")
	require.NoError(t, err)

	require.Len(t, set.Manifests, 3)
	assert.Equal(t, "billing", set.Namespace)
	assert.Equal(t, "Deployment", set.Manifests[0].Kind)
	assert.Equal(t, "Service", set.Manifests[1].Kind)
	assert.Equal(t, "ConfigMap", set.Manifests[2].Kind)

	for _, m := range set.Manifests {
		var doc map[string]any
		require.NoError(t, yaml.Unmarshal([]byte(m.Content), &doc), m.Name)
		assert.Equal(t, m.Kind, doc["kind"])
	}

	// Title gets sanitized into a DNS-compatible workload name.
	assert.Equal(t, "billing-api-v2", set.Manifests[0].Name)
}

func TestTemplateGenerator_Replicas(t *testing.T) {
	spec := sampleSpec()
	spec.Metadata.Complexity = ComplexityComplex

	g := NewTemplateGenerator("example/image:1")
	set, err := g.Generate(context.Background(), spec, nil, "default")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(set.Manifests[0].Content), &doc))
	assert.Equal(t, 3, doc["spec"].(map[string]any)["replicas"])
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"Billing API v2":   "billing-api-v2",
		"  Weird__Name!! ": "weird-name",
		"":                 "",
		"---":              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeName(in), "input %q", in)
	}
}

func TestChecksValidator_Pass(t *testing.T) {
	g := NewTemplateGenerator("")
	set, err := g.Generate(context.Background(), sampleSpec(), nil, "billing")
	require.NoError(t, err)

	report := NewChecksValidator().Validate(context.Background(), set)
	assert.True(t, report.Passed)
	for _, check := range report.Checks {
		assert.True(t, check.Passed, check.Name)
	}
}

func TestChecksValidator_Failures(t *testing.T) {
	set := &ManifestSet{
		Namespace: "prod",
		Manifests: []Manifest{
			{Name: "broken", Kind: "Deployment", Content: "metadata: [unclosed\n"},
			{Name: "wrong-ns", Kind: "Service", Content: "apiVersion: v1\nkind: Service\nmetadata:\n  name: wrong-ns\n  namespace: staging\n"},
		},
	}

	report := NewChecksValidator().Validate(context.Background(), set)
	assert.False(t, report.Passed)

	byName := map[string]CheckResult{}
	for _, c := range report.Checks {
		byName[c.Name] = c
	}
	assert.False(t, byName["Deployment/broken:well-formed"].Passed)
	assert.False(t, byName["Service/wrong-ns:namespace"].Passed)
	assert.True(t, byName["Service/wrong-ns:metadata.name"].Passed)
}

func TestChecksValidator_Empty(t *testing.T) {
	report := NewChecksValidator().Validate(context.Background(), &ManifestSet{})
	assert.False(t, report.Passed)
	require.Len(t, report.Checks, 1)
	assert.Equal(t, "manifests-present", report.Checks[0].Name)
}

func TestComplexityClassification(t *testing.T) {
	cases := []struct {
		endpoints, schemas int
		want               string
	}{
		{3, 2, ComplexitySimple},
		{5, 5, ComplexitySimple},
		{6, 2, ComplexityModerate},
		{20, 20, ComplexityModerate},
		{21, 1, ComplexityComplex},
		{1, 50, ComplexityComplex},
	}
	for _, tc := range cases {
		got := classifyComplexity(tc.endpoints, tc.schemas)
		assert.Equal(t, tc.want, got, fmt.Sprintf("%d endpoints, %d schemas", tc.endpoints, tc.schemas))
	}
}

func TestErrorKindOf(t *testing.T) {
	parseErr := &ParseError{Source: "x", Cause: errors.New("boom")}
	assert.Equal(t, KindParseError, ErrorKindOf(parseErr))
	assert.Equal(t, KindParseError, ErrorKindOf(fmt.Errorf("wrapped: %w", parseErr)))
	assert.Equal(t, KindDeployError, ErrorKindOf(&DeployError{Repository: "r", Cause: errors.New("no")}))
	assert.Equal(t, KindUnknown, ErrorKindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, ErrorKindOf(nil))
}
