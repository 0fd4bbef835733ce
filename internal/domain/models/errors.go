package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUntrainedModel is returned by predictions made before training.
	ErrUntrainedModel = errors.New("classifier: model not trained")

	// ErrInvalidWeights is wrapped by weight validation failures.
	ErrInvalidWeights = errors.New("scoring: invalid weights")

	// ErrProductNotFound is returned for products missing from the catalog.
	ErrProductNotFound = errors.New("catalog: product not found")
)

// SchemaError reports a required column that could not be identified.
type SchemaError struct {
	Table   string
	Wanted  []string
	Columns []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: %s: none of [%s] found in columns [%s]",
		e.Table, strings.Join(e.Wanted, ", "), strings.Join(e.Columns, ", "))
}

// InsufficientDataError reports a series or batch too small to fit.
type InsufficientDataError struct {
	Platform string
	Points   int
	Reason   string
	Cause    error
}

func (e *InsufficientDataError) Error() string {
	msg := "insufficient data"
	if e.Platform != "" {
		msg += " for " + e.Platform
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *InsufficientDataError) Unwrap() error { return e.Cause }

// EstimationDegradedWarning records a silently substituted default.
// It is reported alongside results and never returned as an error.
type EstimationDegradedWarning struct {
	Subject string `json:"subject"`
	Reason  string `json:"reason"`
}

func (w EstimationDegradedWarning) Error() string {
	return fmt.Sprintf("degraded estimate for %s: %s", w.Subject, w.Reason)
}
