package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/GontrandL/autoweave-agents/pkg/logx"
)

// OpenAPIParser parses OpenAPI 3.x specifications in-process. It accepts
// http(s) URLs and local file paths.
type OpenAPIParser struct {
	logger *logx.Logger
}

// NewOpenAPIParser creates an in-process specification parser.
func NewOpenAPIParser() *OpenAPIParser {
	return &OpenAPIParser{logger: logx.NewLogger("openapi-parser")}
}

// Parse implements SpecParser.
func (p *OpenAPIParser) Parse(ctx context.Context, source string) (*ParsedSpec, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = true

	var (
		doc *openapi3.T
		err error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		var u *url.URL
		u, err = url.Parse(source)
		if err == nil {
			doc, err = loader.LoadFromURI(u)
		}
	} else {
		doc, err = loader.LoadFromFile(source)
	}
	if err != nil {
		return nil, &ParseError{Source: source, Cause: err}
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, &ParseError{Source: source, Cause: fmt.Errorf("specification invalid: %w", err)}
	}

	raw, err := doc.MarshalJSON()
	if err != nil {
		return nil, &ParseError{Source: source, Cause: err}
	}
	var spec map[string]any
	if err := json.Unmarshal(raw, &spec); err != nil {
		return nil, &ParseError{Source: source, Cause: err}
	}

	meta := extractMetadata(doc)
	p.logger.Info("parsed %s: %d endpoints, %d methods, %d schemas (%s)",
		source, meta.EndpointCount, meta.MethodCount, meta.SchemaCount, meta.Complexity)

	return &ParsedSpec{Spec: spec, Metadata: meta}, nil
}

func extractMetadata(doc *openapi3.T) SpecMetadata {
	meta := SpecMetadata{OpenAPIVersion: doc.OpenAPI}
	if doc.Info != nil {
		meta.Title = doc.Info.Title
		meta.Version = doc.Info.Version
		meta.Description = doc.Info.Description
	}

	if doc.Paths != nil {
		meta.EndpointCount = doc.Paths.Len()
		for _, item := range doc.Paths.Map() {
			meta.MethodCount += len(item.Operations())
		}
	}
	if doc.Components != nil {
		meta.SchemaCount = len(doc.Components.Schemas)
	}

	meta.Complexity = classifyComplexity(meta.EndpointCount, meta.SchemaCount)
	return meta
}

// classifyComplexity buckets a specification by endpoint and schema counts.
func classifyComplexity(endpoints, schemas int) string {
	switch {
	case endpoints <= 5 && schemas <= 5:
		return ComplexitySimple
	case endpoints <= 20 && schemas <= 20:
		return ComplexityModerate
	default:
		return ComplexityComplex
	}
}
