package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValidationError rejects input locally, before anything reaches the backend.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewTimeEntry is the payload for logging a work session against a task.
type NewTimeEntry struct {
	HoursSpent  float64
	WorkDate    Date
	Description string
}

// RoundedHours is the value submitted on the wire, two decimal places.
func (e NewTimeEntry) RoundedHours() float64 {
	return math.Round(e.HoursSpent*100) / 100
}

// Validate checks the entry the same way for timer saves and manual logs.
// Sessions shorter than the wire precision round to zero and are rejected.
func (e NewTimeEntry) Validate() error {
	if math.IsNaN(e.HoursSpent) || math.IsInf(e.HoursSpent, 0) {
		return &ValidationError{Field: "hours_spent", Reason: "must be a finite number"}
	}
	if e.HoursSpent <= 0 {
		return &ValidationError{Field: "hours_spent", Reason: "must be greater than zero"}
	}
	if e.RoundedHours() <= 0 {
		return &ValidationError{Field: "hours_spent", Reason: "session too short to log (under 0.01h)"}
	}
	if e.WorkDate.IsZero() {
		return &ValidationError{Field: "work_date", Reason: "is required"}
	}
	return nil
}

// ParseHours parses user-entered hours such as "1.5" or "2".
func ParseHours(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ValidationError{Field: "hours_spent", Reason: "is required"}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &ValidationError{Field: "hours_spent", Reason: fmt.Sprintf("%q is not a number", s)}
	}
	return f, nil
}

// WireTimeEntry is the POST body accepted by the backend.
type WireTimeEntry struct {
	HoursSpent  string `json:"hours_spent"`
	WorkDate    string `json:"work_date"`
	Description string `json:"description"`
}

// Wire validates e and converts it to its request body.
func (e NewTimeEntry) Wire() (WireTimeEntry, error) {
	if err := e.Validate(); err != nil {
		return WireTimeEntry{}, err
	}
	return WireTimeEntry{
		HoursSpent:  strconv.FormatFloat(e.RoundedHours(), 'f', 2, 64),
		WorkDate:    e.WorkDate.Key(),
		Description: e.Description,
	}, nil
}

// NotFoundError reports a missing task, project or endpoint.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
