package veldt

import (
	"fmt"
	"strings"
)

// Validator is the pluggable schema validation capability. What a "schema"
// is depends entirely on the vendor: a struct prototype, a tag string, a
// compiled JSON schema. Validation failures must be returned as (ideally
// [*ValidationError]) values, never panics.
type Validator interface {
	Vendor() string
	Validate(schema, value any) error
}

// ValidationIssue is one concrete problem found by a validator.
type ValidationIssue struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// ValidationError is the structured failure a validator reports.
type ValidationError struct {
	Vendor string
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		if issue.Path != "" {
			msgs[i] = issue.Path + ": " + issue.Message
		} else {
			msgs[i] = issue.Message
		}
	}

	return fmt.Sprintf("validation failed (%s): %s", e.Vendor, strings.Join(msgs, "; "))
}

// ValidationPhase says which side of the exchange failed validation.
type ValidationPhase string

const (
	ValidationPhaseRequest  ValidationPhase = "request"
	ValidationPhaseResponse ValidationPhase = "response"
)

// ValidationFailure is handed to failure handlers. It carries the vendor tag
// and the failure detail rather than being raised as a fault.
type ValidationFailure struct {
	Phase  ValidationPhase
	Vendor string
	Err    error
}

// Issues returns the structured issues when the underlying error is a
// [*ValidationError], or a single issue wrapping the message otherwise.
func (f *ValidationFailure) Issues() []ValidationIssue {
	if verr, ok := f.Err.(*ValidationError); ok {
		return verr.Issues
	}

	return []ValidationIssue{{Message: f.Err.Error()}}
}

// ValidationFailureHandler decides the response for a validation failure.
// Resolution order is route-level, then instance-level, then the default:
// a structured 400 for request failures, and log-only for response failures
// (the already-produced response is not substituted).
type ValidationFailureHandler func(c *Ctx, f *ValidationFailure) error

// defaultRequestFailureHandler renders the structured 400.
func defaultRequestFailureHandler(c *Ctx, f *ValidationFailure) error {
	c.Response().BadRequest(
		WithMessage("request validation failed"),
		WithDetails(map[string]any{
			"provider": f.Vendor,
			"issues":   f.Issues(),
		}),
	)

	return nil
}
