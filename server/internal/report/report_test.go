package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/resultcard/resultcard/server/internal/store"
)

func card() store.Result {
	return store.Result{
		ID:             "r-1",
		StudentName:    "Ana Lima",
		UniversityName: "State University of Science and Technology",
		DepartmentName: "Physics",
		Semester:       "Fall 2024",
		TotalSubjects:  2,
		Subjects: []store.Subject{
			{Name: "Mechanics", CreditHours: 3, GPA: 3.5},
			{Name: "Optics", CreditHours: 4, GPA: 4},
		},
		CGPA:      3.79,
		CreatedAt: time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestRender_ProducesPDF(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, card()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output does not start with %%PDF-: %q", buf.Bytes()[:min(16, buf.Len())])
	}
	if !bytes.Contains(buf.Bytes(), []byte("%%EOF")) {
		t.Error("output has no EOF trailer")
	}
}

func TestRender_Content(t *testing.T) {
	var buf bytes.Buffer
	if err := render(&buf, card(), false); err != nil {
		t.Fatalf("render: %v", err)
	}
	body := buf.String()

	for _, want := range []string{
		"Student Name: Ana Lima",
		"Department: Physics",
		"Semester: Fall 2024",
		"SGPA: 3.79",
		"Subject Name",
		"Credit Hours",
		"Mechanics",
		"Optics",
		Footer,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("PDF content missing %q", want)
		}
	}
}

func TestRender_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	if err := Render(&a, card()); err != nil {
		t.Fatal(err)
	}
	if err := Render(&b, card()); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("rendering the same card twice produced different bytes")
	}
}

func TestRender_ManySubjectsPaginate(t *testing.T) {
	r := card()
	r.Subjects = nil
	for i := 0; i < 60; i++ {
		r.Subjects = append(r.Subjects, store.Subject{Name: "Elective", CreditHours: 1, GPA: 3})
	}

	var buf bytes.Buffer
	if err := render(&buf, r, false); err != nil {
		t.Fatalf("render: %v", err)
	}
	if n := strings.Count(buf.String(), Footer); n < 2 {
		t.Errorf("footer printed %d times, want one per page (>= 2)", n)
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRender_WriteError(t *testing.T) {
	if err := Render(failWriter{}, card()); err == nil {
		t.Error("Render to failing writer: expected error")
	}
}

func TestFormatNumber(t *testing.T) {
	cases := map[float64]string{3: "3", 3.5: "3.5", 0: "0", 2.75: "2.75"}
	for in, want := range cases {
		if got := formatNumber(in); got != want {
			t.Errorf("formatNumber(%v): got %q, want %q", in, got, want)
		}
	}
}
