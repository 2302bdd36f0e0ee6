package gpa

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotNumber is wrapped by Value.Float when the field does not hold a
// finite number.
var ErrNotNumber = errors.New("not a number")

// Value is a numeric form field. It keeps the raw text the user typed so that
// validation can happen in one place (Compute) rather than at decode time.
type Value string

// Number returns a Value holding the canonical text of f.
func Number(f float64) Value {
	return Value(strconv.FormatFloat(f, 'f', -1, 64))
}

// Float parses v strictly. Surrounding whitespace is ignored; empty input,
// trailing garbage, NaN and ±Inf are rejected.
func (v Value) Float() (float64, error) {
	s := strings.TrimSpace(string(v))
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrNotNumber)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotNumber, s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNotNumber, s)
	}
	return f, nil
}

// UnmarshalJSON accepts a JSON number, a JSON string or null.
func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*v = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Value(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("gpa value: %w", err)
		}
		*v = Value(n.String())
		return nil
	}
}

// MarshalJSON writes a number when v parses, otherwise the raw string.
func (v Value) MarshalJSON() ([]byte, error) {
	if f, err := v.Float(); err == nil {
		return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
	}
	return json.Marshal(string(v))
}

// UnmarshalYAML accepts any scalar node.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("gpa value: line %d: expected a scalar", node.Line)
	}
	if node.Tag == "!!null" {
		*v = ""
		return nil
	}
	*v = Value(node.Value)
	return nil
}
