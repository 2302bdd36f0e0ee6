package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/resultcard/resultcard/pkg/gpa"
)

// fakeServer records the last request and replies with code and body.
type fakeServer struct {
	method, path string
	body         []byte
	code         int
	reply        string
	header       http.Header
}

func (f *fakeServer) start(t *testing.T) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.method, f.path = r.Method, r.URL.Path
		f.body, _ = io.ReadAll(r.Body)
		for k, v := range f.header {
			w.Header()[k] = v
		}
		w.WriteHeader(f.code)
		io.WriteString(w, f.reply) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", WithHTTPClient(srv.Client()))
}

func TestListUsers(t *testing.T) {
	f := &fakeServer{code: 200, reply: `[{"_id":"u1","name":"Ana","email":"ana@example.com","age":30}]`}
	c := f.start(t)

	users, err := c.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if f.method != http.MethodGet || f.path != "/users" {
		t.Errorf("request: got %s %s", f.method, f.path)
	}
	want := User{ID: "u1", Name: "Ana", Email: "ana@example.com", Age: 30}
	if len(users) != 1 || users[0] != want {
		t.Errorf("users: got %+v, want [%+v]", users, want)
	}
}

func TestUpdateUser_SendsOnlySetFields(t *testing.T) {
	f := &fakeServer{code: 200, reply: `{"_id":"u1","name":"Ana","email":"ana@example.com","age":31}`}
	c := f.start(t)

	age := 31
	if _, err := c.UpdateUser(context.Background(), "u1", UserPatch{Age: &age}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if f.method != http.MethodPut || f.path != "/users/u1" {
		t.Errorf("request: got %s %s", f.method, f.path)
	}
	if string(f.body) != `{"age":31}` {
		t.Errorf("body: got %s, want {\"age\":31}", f.body)
	}
}

func TestDeleteUser_ReturnsMessage(t *testing.T) {
	f := &fakeServer{code: 200, reply: `{"message":"User deleted successfully"}`}
	msg, err := f.start(t).DeleteUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if msg != "User deleted successfully" {
		t.Errorf("message: got %q", msg)
	}
}

func TestErrors(t *testing.T) {
	cases := []struct {
		name   string
		code   int
		reply  string
		target error
		msg    string
		field  string
	}{
		{"not found", 404, `{"error":"user not found"}`, ErrNotFound, "user not found", ""},
		{"validation", 400, `{"error":"email is required","field":"email"}`, ErrInvalid, "email is required", "email"},
		{"non-json body", 502, `bad gateway`, nil, "Bad Gateway", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeServer{code: tc.code, reply: tc.reply}
			_, err := f.start(t).CreateUser(context.Background(), NewUser{Name: "A"})

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error: got %v, want *APIError", err)
			}
			if apiErr.StatusCode != tc.code || apiErr.Message != tc.msg || apiErr.Field != tc.field {
				t.Errorf("APIError: got %+v", apiErr)
			}
			if tc.target != nil && !errors.Is(err, tc.target) {
				t.Errorf("errors.Is(%v): false", tc.target)
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).ListResults(context.Background())
	if err == nil {
		t.Fatal("expected error from closed server")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Errorf("network failure reported as APIError: %v", err)
	}
}

func TestCreateResult_Body(t *testing.T) {
	f := &fakeServer{code: 201, reply: `{"_id":"r1","cgpa":3.79,"totalSubjects":2,"createdAt":"2024-12-01T09:00:00Z"}`}
	c := f.start(t)

	res, err := c.CreateResult(context.Background(), NewResult{
		StudentName: "Ana",
		Subjects: []gpa.Subject{
			{Name: "Mechanics", CreditHours: "3", GPA: "3.5"},
			{Name: "Optics", CreditHours: gpa.Number(4), GPA: gpa.Number(4)},
		},
		SGPA: gpa.Number(3.79),
	})
	if err != nil {
		t.Fatalf("CreateResult: %v", err)
	}
	if res.ID != "r1" || res.CGPA != 3.79 || res.CreatedAt.IsZero() {
		t.Errorf("result: got %+v", res)
	}

	var sent map[string]interface{}
	if err := json.Unmarshal(f.body, &sent); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if sent["sgpa"] != 3.79 {
		t.Errorf("sgpa: got %v, want 3.79", sent["sgpa"])
	}
	subjects := sent["subjects"].([]interface{})
	first := subjects[0].(map[string]interface{})
	if first["creditHours"] != 3.0 || first["gpa"] != 3.5 {
		t.Errorf("subjects[0]: got %v, want numeric fields", first)
	}
}

func TestDownloadPDF(t *testing.T) {
	f := &fakeServer{code: 200, reply: "%PDF-1.3 fake", header: http.Header{"Content-Type": {"application/pdf"}}}
	c := f.start(t)

	var buf bytes.Buffer
	n, err := c.DownloadPDF(context.Background(), "r1", &buf)
	if err != nil {
		t.Fatalf("DownloadPDF: %v", err)
	}
	if f.path != "/results/r1/pdf" {
		t.Errorf("path: got %s", f.path)
	}
	if n != int64(buf.Len()) || buf.String() != "%PDF-1.3 fake" {
		t.Errorf("downloaded %d bytes: %q", n, buf.String())
	}
}
