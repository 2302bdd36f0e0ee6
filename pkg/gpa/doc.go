// Package gpa computes the credit-weighted grade-point average of a result
// sheet.
//
// gpa.go provides the pure Compute([]Subject) function:
//
//	average = Σ(credit_hours × gpa) / Σ credit_hours, rounded to 2 decimals
//
// Every entry is validated before anything is summed. One bad entry rejects
// the whole sheet; there is no partial result. An empty sheet or a sheet whose
// credit hours sum to zero is an error, never NaN or Inf.
//
// value.go provides Value, the numeric form field type. Browsers post form
// inputs as strings, so a Value accepts a JSON number, a numeric JSON string
// or a YAML scalar and is parsed strictly by Value.Float.
//
// The package is shared by the server (authoritative computation before a
// result is stored) and the CLI client (validation before any network call).
package gpa
