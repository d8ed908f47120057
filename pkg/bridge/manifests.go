package bridge

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/GontrandL/autoweave-agents/pkg/logx"
)

// TemplateGenerator renders the standard manifest set for an integrated API:
// a Deployment, a Service, and a ConfigMap carrying the spec metadata.
type TemplateGenerator struct {
	Image  string
	logger *logx.Logger
}

// DefaultImage is used when no workload image is configured.
const DefaultImage = "ghcr.io/autoweave/api-gateway:latest"

// NewTemplateGenerator creates a manifest generator rendering the given
// workload image. An empty image falls back to DefaultImage.
func NewTemplateGenerator(image string) *TemplateGenerator {
	if image == "" {
		image = DefaultImage
	}
	return &TemplateGenerator{Image: image, logger: logx.NewLogger("manifest-gen")}
}

// Generate implements ManifestGenerator.
func (g *TemplateGenerator) Generate(_ context.Context, spec *ParsedSpec, models *ModelsResult, namespace string) (*ManifestSet, error) {
	if spec == nil {
		return nil, &ManifestError{Cause: fmt.Errorf("no parsed specification")}
	}
	if namespace == "" {
		namespace = "default"
	}

	name := SanitizeName(spec.Metadata.Title)
	if name == "" {
		name = "autoweave-api"
	}

	labels := map[string]string{
		"app":                          name,
		"app.kubernetes.io/managed-by": "autoweave",
	}

	deployment := map[string]any{
		"apiVersion": "apps/v1",
		"kind":       "Deployment",
		"metadata": map[string]any{
			"name":      name,
			"namespace": namespace,
			"labels":    labels,
		},
		"spec": map[string]any{
			"replicas": replicasFor(spec.Metadata.Complexity),
			"selector": map[string]any{"matchLabels": map[string]string{"app": name}},
			"template": map[string]any{
				"metadata": map[string]any{"labels": labels},
				"spec": map[string]any{
					"containers": []map[string]any{{
						"name":  name,
						"image": g.Image,
						"ports": []map[string]any{{"containerPort": 8080}},
					}},
				},
			},
		},
	}

	service := map[string]any{
		"apiVersion": "v1",
		"kind":       "Service",
		"metadata": map[string]any{
			"name":      name,
			"namespace": namespace,
			"labels":    labels,
		},
		"spec": map[string]any{
			"selector": map[string]string{"app": name},
			"ports":    []map[string]any{{"port": 80, "targetPort": 8080}},
		},
	}

	configData := map[string]string{
		"api.title":      spec.Metadata.Title,
		"api.version":    spec.Metadata.Version,
		"api.complexity": spec.Metadata.Complexity,
	}
	if models != nil {
		configData["models.total"] = fmt.Sprintf("%d", models.ModelsInfo.TotalModels)
	}
	configMap := map[string]any{
		"apiVersion": "v1",
		"kind":       "ConfigMap",
		"metadata": map[string]any{
			"name":      name + "-config",
			"namespace": namespace,
			"labels":    labels,
		},
		"data": configData,
	}

	set := &ManifestSet{Namespace: namespace}
	for _, doc := range []struct {
		name string
		kind string
		obj  map[string]any
	}{
		{name, "Deployment", deployment},
		{name, "Service", service},
		{name + "-config", "ConfigMap", configMap},
	} {
		rendered, err := yaml.Marshal(doc.obj)
		if err != nil {
			return nil, &ManifestError{Cause: err}
		}
		set.Manifests = append(set.Manifests, Manifest{
			Name:    doc.name,
			Kind:    doc.kind,
			Content: string(rendered),
		})
	}

	g.logger.Info("generated %d manifests for %s in namespace %s", len(set.Manifests), name, namespace)
	return set, nil
}

// replicasFor sizes the workload by spec complexity.
func replicasFor(complexity string) int {
	switch complexity {
	case ComplexityComplex:
		return 3
	case ComplexityModerate:
		return 2
	default:
		return 1
	}
}

// SanitizeName converts a free-form title into a DNS-1123 compatible name.
func SanitizeName(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
