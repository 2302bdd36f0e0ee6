package gpa

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Sentinel errors returned by Compute. Entry-level problems are reported as
// *EntryError, which also matches ErrInvalidEntry with errors.Is.
var (
	ErrNoSubjects   = errors.New("gpa: no subjects")
	ErrZeroCredits  = errors.New("gpa: total credit hours is zero")
	ErrOutOfRange   = errors.New("gpa: totals exceed the representable range")
	ErrInvalidEntry = errors.New("gpa: invalid subject entry")
)

// Field names used in EntryError. They match the JSON keys of a subject.
const (
	FieldName        = "name"
	FieldCreditHours = "creditHours"
	FieldGPA         = "gpa"
)

// Subject is one raw row of a result sheet as entered by the user.
type Subject struct {
	Name        string `json:"name" yaml:"name"`
	CreditHours Value  `json:"creditHours" yaml:"credit_hours"`
	GPA         Value  `json:"gpa" yaml:"gpa"`
}

// Entry is a validated subject with parsed numeric fields.
type Entry struct {
	Name        string  `json:"name"`
	CreditHours float64 `json:"creditHours"`
	GPA         float64 `json:"gpa"`
}

// Summary is the result of a successful Compute.
type Summary struct {
	// Entries holds the parsed subjects in input order.
	Entries []Entry

	// TotalCredits is Σ credit_hours.
	TotalCredits float64

	// TotalPoints is Σ credit_hours × gpa.
	TotalPoints float64

	// Average is TotalPoints / TotalCredits rounded to 2 decimal places.
	Average float64
}

// EntryError reports the first subject that failed validation.
type EntryError struct {
	Index int    // zero-based position in the sheet
	Field string // FieldName, FieldCreditHours or FieldGPA
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("subject %d: %s: %v", e.Index+1, e.Field, e.Err)
}

// Unwrap exposes the underlying parse error.
func (e *EntryError) Unwrap() error { return e.Err }

// Is reports EntryError as ErrInvalidEntry.
func (e *EntryError) Is(target error) bool { return target == ErrInvalidEntry }

// Compute validates subjects and returns their credit-weighted average.
//
// Validation rules, applied to every entry before any arithmetic:
//   - name must be non-blank
//   - credit hours must parse as a finite number >= 0
//   - gpa must parse as a finite number
//
// A sheet whose credit hours sum to zero yields ErrZeroCredits. Totals or an
// average that overflow float64 yield ErrOutOfRange.
func Compute(subjects []Subject) (Summary, error) {
	if len(subjects) == 0 {
		return Summary{}, ErrNoSubjects
	}

	entries := make([]Entry, 0, len(subjects))
	for i, s := range subjects {
		e, err := parseSubject(i, s)
		if err != nil {
			return Summary{}, err
		}
		entries = append(entries, e)
	}

	var credits, points float64
	for _, e := range entries {
		credits += e.CreditHours
		points += e.CreditHours * e.GPA
	}
	if credits == 0 {
		return Summary{}, ErrZeroCredits
	}
	avg := Round2(points / credits)
	if !finite(credits) || !finite(points) || !finite(avg) {
		return Summary{}, ErrOutOfRange
	}

	return Summary{
		Entries:      entries,
		TotalCredits: credits,
		TotalPoints:  points,
		Average:      avg,
	}, nil
}

// Round2 rounds v half away from zero to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Matches reports whether a client-claimed average equals the computed one
// once both are rounded to 2 decimal places.
func Matches(claimed, computed float64) bool {
	return Round2(claimed) == Round2(computed)
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

func parseSubject(i int, s Subject) (Entry, error) {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return Entry{}, &EntryError{Index: i, Field: FieldName, Err: errors.New("is required")}
	}

	credits, err := s.CreditHours.Float()
	if err != nil {
		return Entry{}, &EntryError{Index: i, Field: FieldCreditHours, Err: err}
	}
	if credits < 0 {
		return Entry{}, &EntryError{Index: i, Field: FieldCreditHours, Err: errors.New("must not be negative")}
	}

	score, err := s.GPA.Float()
	if err != nil {
		return Entry{}, &EntryError{Index: i, Field: FieldGPA, Err: err}
	}

	return Entry{Name: name, CreditHours: credits, GPA: score}, nil
}
