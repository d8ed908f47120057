package bridge

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ChecksValidator runs structural checks over a manifest set. Problems are
// reported through the returned report, never as an error.
type ChecksValidator struct{}

// NewChecksValidator creates the default manifest validator.
func NewChecksValidator() *ChecksValidator {
	return &ChecksValidator{}
}

// Validate implements ManifestValidator.
func (v *ChecksValidator) Validate(_ context.Context, set *ManifestSet) *ValidationReport {
	report := &ValidationReport{Passed: true}

	check := func(name string, passed bool, detail string) {
		if !passed {
			report.Passed = false
		}
		report.Checks = append(report.Checks, CheckResult{Name: name, Passed: passed, Detail: detail})
	}

	if set == nil || len(set.Manifests) == 0 {
		check("manifests-present", false, "no manifests to validate")
		return report
	}
	check("manifests-present", true, "")

	for _, m := range set.Manifests {
		prefix := fmt.Sprintf("%s/%s", m.Kind, m.Name)

		var doc map[string]any
		if err := yaml.Unmarshal([]byte(m.Content), &doc); err != nil {
			check(prefix+":well-formed", false, err.Error())
			continue
		}
		check(prefix+":well-formed", true, "")

		apiVersion, _ := doc["apiVersion"].(string)
		check(prefix+":apiVersion", apiVersion != "", "missing apiVersion")

		kind, _ := doc["kind"].(string)
		check(prefix+":kind", kind == m.Kind,
			fmt.Sprintf("declared kind %q does not match document kind %q", m.Kind, kind))

		metadata, _ := doc["metadata"].(map[string]any)
		name, _ := metadata["name"].(string)
		check(prefix+":metadata.name", name != "", "missing metadata.name")

		namespace, _ := metadata["namespace"].(string)
		check(prefix+":namespace", namespace == set.Namespace,
			fmt.Sprintf("namespace %q does not match set namespace %q", namespace, set.Namespace))
	}

	return report
}
