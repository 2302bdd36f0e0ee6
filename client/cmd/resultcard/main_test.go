package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

const validSheet = `
student_name: Ana Lima
university_name: State University
department_name: Physics
semester: Fall 2024
subjects:
  - {name: Mechanics, credit_hours: 3, gpa: 3.5}
  - {name: Optics, credit_hours: 4, gpa: 4}
`

// fakeAPI serves just enough of the REST API for the CLI commands.
type fakeAPI struct {
	calls   atomic.Int32
	created map[string]interface{}
}

func (f *fakeAPI) start(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/users":
			io.WriteString(w, `[{"_id":"u1","name":"Ana","email":"ana@example.com","age":30}]`) //nolint:errcheck
		case r.Method == http.MethodDelete && r.URL.Path == "/users/missing":
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":"user not found"}`) //nolint:errcheck
		case r.Method == http.MethodPut && r.URL.Path == "/users/u1":
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck
			if _, ok := body["name"]; ok {
				w.WriteHeader(http.StatusBadRequest)
				io.WriteString(w, `{"error":"unexpected name"}`) //nolint:errcheck
				return
			}
			io.WriteString(w, `{"_id":"u1","name":"Ana","email":"ana@example.com","age":31}`) //nolint:errcheck
		case r.Method == http.MethodPost && r.URL.Path == "/results":
			json.NewDecoder(r.Body).Decode(&f.created) //nolint:errcheck
			w.WriteHeader(http.StatusCreated)
			io.WriteString(w, `{"_id":"r1","cgpa":3.79,"totalSubjects":2}`) //nolint:errcheck
		case r.Method == http.MethodGet && r.URL.Path == "/results/r1/pdf":
			w.Header().Set("Content-Type", "application/pdf")
			io.WriteString(w, "%PDF-1.3 card") //nolint:errcheck
		default:
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"error":"internal error"}`) //nolint:errcheck
		}
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUsersList(t *testing.T) {
	url := (&fakeAPI{}).start(t)
	code, out, errOut := runCLI(t, "-server", url, "users", "list")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "u1") || !strings.Contains(out, "ana@example.com") {
		t.Errorf("output: %q", out)
	}
}

func TestUsersUpdate_SendsOnlyGivenFlags(t *testing.T) {
	url := (&fakeAPI{}).start(t)
	code, out, errOut := runCLI(t, "-server", url, "users", "update", "-id", "u1", "-age", "31")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "31") {
		t.Errorf("output: %q", out)
	}
}

func TestUsersUpdate_NothingToChange(t *testing.T) {
	api := &fakeAPI{}
	url := api.start(t)
	if code, _, _ := runCLI(t, "-server", url, "users", "update", "-id", "u1"); code != 2 {
		t.Errorf("exit: got %d, want 2", code)
	}
	if api.calls.Load() != 0 {
		t.Error("request sent for an empty update")
	}
}

func TestUsersDelete_NotFound(t *testing.T) {
	url := (&fakeAPI{}).start(t)
	code, _, errOut := runCLI(t, "-server", url, "users", "delete", "-id", "missing")
	if code != 1 {
		t.Errorf("exit: got %d, want 1", code)
	}
	if !strings.Contains(errOut, "user not found") {
		t.Errorf("stderr: %q", errOut)
	}
}

func TestStoreFailureIsReported(t *testing.T) {
	url := (&fakeAPI{}).start(t)
	code, _, errOut := runCLI(t, "-server", url, "results", "list")
	if code != 1 {
		t.Errorf("exit: got %d, want 1", code)
	}
	if !strings.Contains(errOut, "operation failed") {
		t.Errorf("stderr: %q", errOut)
	}
}

func TestCalc_PostsAndDownloads(t *testing.T) {
	api := &fakeAPI{}
	url := api.start(t)
	sheetPath := writeFile(t, "sheet.yaml", validSheet)
	pdfPath := filepath.Join(t.TempDir(), "card.pdf")

	code, out, errOut := runCLI(t, "-server", url, "calc", "-f", sheetPath, "-pdf", pdfPath)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "SGPA: 3.79") {
		t.Errorf("output missing SGPA: %q", out)
	}
	if api.created["sgpa"] != 3.79 || api.created["studentName"] != "Ana Lima" {
		t.Errorf("posted body: %v", api.created)
	}

	pdf, err := os.ReadFile(pdfPath)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Errorf("pdf content: %q", pdf)
	}
}

func TestCalc_InvalidSheetMakesNoRequest(t *testing.T) {
	cases := map[string]string{
		"bad credit hours": strings.Replace(validSheet, "credit_hours: 4", "credit_hours: four", 1),
		"no subjects":      "student_name: A\nuniversity_name: U\ndepartment_name: D\nsemester: S\n",
		"missing semester": strings.Replace(validSheet, "semester: Fall 2024", "", 1),
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			api := &fakeAPI{}
			url := api.start(t)
			code, _, errOut := runCLI(t, "-server", url, "calc", "-f", writeFile(t, "sheet.yaml", content))
			if code != 1 {
				t.Errorf("exit: got %d, want 1", code)
			}
			if !strings.Contains(errOut, "invalid sheet") {
				t.Errorf("stderr: %q", errOut)
			}
			if n := api.calls.Load(); n != 0 {
				t.Errorf("requests sent: %d, want 0", n)
			}
		})
	}
}

func TestUsage(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"bogus"},
		{"users"},
		{"users", "rename"},
		{"calc"},
		{"users", "create", "-name", "A"},
	} {
		if code, _, _ := runCLI(t, args...); code != 2 {
			t.Errorf("%v: exit %d, want 2", args, code)
		}
	}
}
