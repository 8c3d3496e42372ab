package model

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRequiredField marks a template whose start or end is absent
	// or unusable. Such templates are skipped entirely.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrInvalidRule marks an unparseable repeat mask, frequency or until.
	// The template falls back to a single occurrence.
	ErrInvalidRule = errors.New("invalid recurrence rule")

	// ErrUnresolvableOrdinal is returned when an "nth weekday" does not exist
	// in a target month. Callers skip that period.
	ErrUnresolvableOrdinal = errors.New("ordinal weekday does not exist in month")

	// ErrIterationCeilingExceeded is returned alongside a truncated expansion.
	ErrIterationCeilingExceeded = errors.New("iteration ceiling exceeded")
)

// InvalidRuleError describes which rule field was rejected and why.
type InvalidRuleError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidRuleError) Unwrap() error {
	return ErrInvalidRule
}
