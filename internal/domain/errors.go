package domain

import (
	"errors"
	"fmt"
)

// ErrFormNotFound covers unknown aliases, malformed tokens and failed
// signature checks alike. Tampered and never-existed links are deliberately
// indistinguishable to callers.
var ErrFormNotFound = errors.New("form not found")

// FieldIssue is a single field-level violation in a create request.
type FieldIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError reports malformed or out-of-policy creation input.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid form input: %d issue(s)", len(e.Issues))
}

// MismatchError reports a structurally valid submission that does not match
// the resolved definition (wrong assignment count, duplicated service,
// unknown service or worker id).
type MismatchError struct {
	Reason string
}

func (e *MismatchError) Error() string {
	return e.Reason
}

// DeliveryError reports a callback relay that was attempted but did not
// succeed. StatusCode is 0 when the endpoint was unreachable.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("callback delivery failed: %s", e.Body)
	}
	return fmt.Sprintf("callback delivery failed: status %d", e.StatusCode)
}
