// Package sheet loads a result sheet, the input of the calculator, from a
// YAML file:
//
//	student_name: Ana Lima
//	university_name: State University
//	department_name: Physics
//	semester: Fall 2024
//	subjects:
//	  - name: Mechanics
//	    credit_hours: 3
//	    gpa: 3.5
//
// Unknown keys are rejected.
package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/resultcard/resultcard/pkg/gpa"
)

// Sheet is one student's semester: context fields plus the raw subjects.
type Sheet struct {
	StudentName    string        `yaml:"student_name"`
	UniversityName string        `yaml:"university_name"`
	DepartmentName string        `yaml:"department_name"`
	Semester       string        `yaml:"semester"`
	Subjects       []gpa.Subject `yaml:"subjects"`
}

// FieldError names a missing context field.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string { return e.Field + " is required" }

// Load reads and decodes the sheet at path. It does not validate; call
// Compute for that.
func Load(path string) (*Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sheet: read %q: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("sheet: %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes YAML sheet data.
func Parse(data []byte) (*Sheet, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Sheet
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty sheet")
		}
		return nil, err
	}
	return &s, nil
}

// Compute checks the context fields, then validates the subjects and
// returns their weighted average. Errors are *FieldError or come from
// gpa.Compute.
func (s *Sheet) Compute() (gpa.Summary, error) {
	for _, f := range []struct{ name, value string }{
		{"student_name", s.StudentName},
		{"university_name", s.UniversityName},
		{"department_name", s.DepartmentName},
		{"semester", s.Semester},
	} {
		if strings.TrimSpace(f.value) == "" {
			return gpa.Summary{}, &FieldError{Field: f.name}
		}
	}
	return gpa.Compute(s.Subjects)
}
