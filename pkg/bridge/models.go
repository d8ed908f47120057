package bridge

import (
	"context"
	"fmt"
	"sort"
)

// SchemaModelGenerator derives model descriptors directly from the parsed
// specification's component schemas. It is the in-process default used when
// no Python helper is configured.
type SchemaModelGenerator struct{}

// NewSchemaModelGenerator creates the in-process model generator.
func NewSchemaModelGenerator() *SchemaModelGenerator {
	return &SchemaModelGenerator{}
}

// Generate implements ModelGenerator.
func (g *SchemaModelGenerator) Generate(_ context.Context, spec map[string]any) (*ModelsResult, error) {
	if spec == nil {
		return nil, &GenerationError{Cause: fmt.Errorf("no parsed specification")}
	}

	schemas := schemaMap(spec)
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	info := ModelsInfo{Models: make([]ModelInfo, 0, len(names))}
	for _, name := range names {
		typ := "object"
		if schema, ok := schemas[name].(map[string]any); ok {
			if t, ok := schema["type"].(string); ok && t != "" {
				typ = t
			}
		}
		info.Models = append(info.Models, ModelInfo{Name: name, Type: typ})
		// Rough per-model footprint: type declaration plus one line per field.
		info.LinesOfCode += 2 + fieldCount(schemas[name])
	}
	info.TotalModels = len(info.Models)

	return &ModelsResult{ModelsInfo: info}, nil
}

func schemaMap(spec map[string]any) map[string]any {
	components, ok := spec["components"].(map[string]any)
	if !ok {
		return nil
	}
	schemas, ok := components["schemas"].(map[string]any)
	if !ok {
		return nil
	}
	return schemas
}

func fieldCount(schema any) int {
	m, ok := schema.(map[string]any)
	if !ok {
		return 0
	}
	props, ok := m["properties"].(map[string]any)
	if !ok {
		return 0
	}
	return len(props)
}
