package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
	ErrBookingNotFound    = errors.New("booking not found")
)

// ValidationError lists field level problems found on one wizard step.
// Step is 0 for checks that are not tied to a screen.
type ValidationError struct {
	Step   int
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	if e.Step > 0 {
		return fmt.Sprintf("invalid step %d: %s", e.Step, strings.Join(parts, "; "))
	}
	return "invalid booking: " + strings.Join(parts, "; ")
}

type OfferingKind string

const (
	KindAccommodation OfferingKind = "accommodation"
	KindAddOn         OfferingKind = "add-on"
)

type UnknownOfferingError struct {
	Kind OfferingKind
	ID   string
}

func (e *UnknownOfferingError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.ID)
}

// SubmissionError wraps a failure reported by the submission collaborator.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return "booking submission failed: " + e.Err.Error()
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
