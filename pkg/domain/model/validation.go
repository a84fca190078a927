package model

import (
	"fmt"
	"strings"
)

// ValidationKind distinguishes unparsable payloads from schema violations
type ValidationKind string

const (
	ValidationMalformed ValidationKind = "malformed"
	ValidationInvalid   ValidationKind = "invalid"
)

// ValidationIssue points at one problem in the payload
type ValidationIssue struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ValidationError is returned by the payload decoder
type ValidationError struct {
	Kind   ValidationKind
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("%s payload", e.Kind)
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Path+": "+issue.Reason)
	}
	return fmt.Sprintf("%s payload: %s", e.Kind, strings.Join(parts, "; "))
}
