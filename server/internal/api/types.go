package api

import "github.com/resultcard/resultcard/pkg/gpa"

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// messageResponse is the body of DELETE /users/{id}.
type messageResponse struct {
	Message string `json:"message"`
}

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

// userRequest is the body of POST /users and PUT /users/{id}. Absent fields
// stay nil. Age is a form value and may arrive as a number or a string.
type userRequest struct {
	Name  *string    `json:"name"`
	Email *string    `json:"email"`
	Age   *gpa.Value `json:"age"`
}

// resultRequest is the body of POST /results. CGPA and SGPA are the average
// the client computed, if any; both spellings are accepted.
type resultRequest struct {
	StudentName    string        `json:"studentName"`
	UniversityName string        `json:"universityName"`
	DepartmentName string        `json:"departmentName"`
	Semester       string        `json:"semester"`
	Subjects       []gpa.Subject `json:"subjects"`
	CGPA           *gpa.Value    `json:"cgpa"`
	SGPA           *gpa.Value    `json:"sgpa"`
}
