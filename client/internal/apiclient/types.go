package apiclient

import (
	"time"

	"github.com/resultcard/resultcard/pkg/gpa"
)

// User is a stored user.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int    `json:"age"`
}

// NewUser is the body of CreateUser.
type NewUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int    `json:"age"`
}

// UserPatch is the body of UpdateUser. Nil fields are left out and stay
// unchanged on the server.
type UserPatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Age   *int    `json:"age,omitempty"`
}

// Subject is one subject inside a stored result card.
type Subject struct {
	Name        string  `json:"name"`
	CreditHours float64 `json:"creditHours"`
	GPA         float64 `json:"gpa"`
}

// Result is a stored result card.
type Result struct {
	ID             string    `json:"_id"`
	StudentName    string    `json:"studentName"`
	UniversityName string    `json:"universityName"`
	DepartmentName string    `json:"departmentName"`
	Semester       string    `json:"semester"`
	TotalSubjects  int       `json:"totalSubjects"`
	Subjects       []Subject `json:"subjects"`
	CGPA           float64   `json:"cgpa"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewResult is the body of CreateResult. SGPA is the locally computed
// average; the server rejects the request if its own computation differs.
type NewResult struct {
	StudentName    string        `json:"studentName"`
	UniversityName string        `json:"universityName"`
	DepartmentName string        `json:"departmentName"`
	Semester       string        `json:"semester"`
	Subjects       []gpa.Subject `json:"subjects"`
	SGPA           gpa.Value     `json:"sgpa,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

type messageResponse struct {
	Message string `json:"message"`
}
