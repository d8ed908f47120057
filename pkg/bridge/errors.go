package bridge

import (
	"errors"
	"fmt"
)

// Error kind labels used for failure classification in run metrics.
const (
	KindParseError      = "parse_error"
	KindGenerationError = "generation_error"
	KindManifestError   = "manifest_error"
	KindValidationError = "validation_error"
	KindDeployError     = "deploy_error"
	KindReasoningError  = "reasoning_error"
	KindUnknown         = "unknown"
)

// ParseError indicates the spec parser collaborator failed.
type ParseError struct {
	Source string
	Cause  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse specification %s: %v", e.Source, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// ErrorKind returns the metrics classification label.
func (e *ParseError) ErrorKind() string { return KindParseError }

// GenerationError indicates the model generator collaborator failed.
type GenerationError struct {
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("model generation failed: %v", e.Cause)
}

func (e *GenerationError) Unwrap() error { return e.Cause }

// ErrorKind returns the metrics classification label.
func (e *GenerationError) ErrorKind() string { return KindGenerationError }

// ManifestError indicates the manifest generator collaborator failed.
type ManifestError struct {
	Cause error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest generation failed: %v", e.Cause)
}

func (e *ManifestError) Unwrap() error { return e.Cause }

// ErrorKind returns the metrics classification label.
func (e *ManifestError) ErrorKind() string { return KindManifestError }

// DeployError indicates the GitOps deployer collaborator failed.
type DeployError struct {
	Repository string
	Cause      error
}

func (e *DeployError) Error() string {
	return fmt.Sprintf("deployment to %s failed: %v", e.Repository, e.Cause)
}

func (e *DeployError) Unwrap() error { return e.Cause }

// ErrorKind returns the metrics classification label.
func (e *DeployError) ErrorKind() string { return KindDeployError }

// ErrorKindOf walks the error chain for a classification label, returning
// KindUnknown when none is found.
func ErrorKindOf(err error) string {
	var kinder interface{ ErrorKind() string }
	if errors.As(err, &kinder) {
		return kinder.ErrorKind()
	}
	return KindUnknown
}
