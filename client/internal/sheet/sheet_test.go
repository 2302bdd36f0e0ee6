package sheet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/resultcard/resultcard/pkg/gpa"
)

const valid = `
student_name: Ana Lima
university_name: State University
department_name: Physics
semester: Fall 2024
subjects:
  - name: Mechanics
    credit_hours: 3
    gpa: 3.5
  - name: Optics
    credit_hours: "4"
    gpa: 4.0
`

func writeSheet(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sheet.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write sheet: %v", err)
	}
	return path
}

func TestLoad_Valid(t *testing.T) {
	s, err := Load(writeSheet(t, valid))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.StudentName != "Ana Lima" || s.Semester != "Fall 2024" {
		t.Errorf("context fields: got %+v", s)
	}
	if len(s.Subjects) != 2 {
		t.Fatalf("subjects: got %d, want 2", len(s.Subjects))
	}

	sum, err := s.Compute()
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if sum.Average != 3.79 {
		t.Errorf("Average: got %v, want 3.79", sum.Average)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error: got %v, want not-exist", err)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"unknown key":   "student: Ana\n",
		"subject typo":  "subjects:\n  - name: X\n    credits: 3\n",
		"nested gpa":    "subjects:\n  - name: X\n    credit_hours: 3\n    gpa: [1]\n",
		"not a mapping": "- a\n- b\n",
	}
	for name, content := range cases {
		if _, err := Parse([]byte(content)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestCompute_ContextFieldsRequired(t *testing.T) {
	base, err := Parse([]byte(valid))
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		field string
		clear func(s *Sheet)
	}{
		{"student_name", func(s *Sheet) { s.StudentName = " " }},
		{"university_name", func(s *Sheet) { s.UniversityName = "" }},
		{"department_name", func(s *Sheet) { s.DepartmentName = "" }},
		{"semester", func(s *Sheet) { s.Semester = "" }},
	}
	for _, tc := range cases {
		s := *base
		tc.clear(&s)
		_, err := s.Compute()
		var fe *FieldError
		if !errors.As(err, &fe) || fe.Field != tc.field {
			t.Errorf("%s: got %v, want FieldError", tc.field, err)
		}
	}
}

func TestCompute_SubjectErrors(t *testing.T) {
	s, err := Parse([]byte(valid))
	if err != nil {
		t.Fatal(err)
	}
	s.Subjects[1].GPA = "A+"

	_, err = s.Compute()
	var ee *gpa.EntryError
	if !errors.As(err, &ee) {
		t.Fatalf("error: got %v, want *gpa.EntryError", err)
	}
	if ee.Index != 1 || ee.Field != gpa.FieldGPA {
		t.Errorf("EntryError: got index %d field %s", ee.Index, ee.Field)
	}

	s.Subjects = nil
	if _, err := s.Compute(); !errors.Is(err, gpa.ErrNoSubjects) {
		t.Errorf("no subjects: got %v, want ErrNoSubjects", err)
	}
}
