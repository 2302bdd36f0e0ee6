package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/resultcard/resultcard/server/internal/config"
)

// Sentinel errors shared by all backends.
var (
	ErrNotFound = errors.New("store: not found")
	ErrInvalid  = errors.New("store: invalid record")
)

// User is a stored user record.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int    `json:"age"`
}

// NewUser is the input to CreateUser.
type NewUser struct {
	Name  string `json:"name" validate:"required,notblank"`
	Email string `json:"email" validate:"required,notblank"`
	Age   int    `json:"age" validate:"gte=0"`
}

// UserPatch replaces the non-nil fields of a user.
type UserPatch struct {
	Name  *string `json:"name" validate:"omitnil,notblank"`
	Email *string `json:"email" validate:"omitnil,notblank"`
	Age   *int    `json:"age" validate:"omitnil,gte=0"`
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Age == nil
}

func (p UserPatch) apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Age != nil {
		u.Age = *p.Age
	}
}

// Subject is one graded subject inside a result card.
type Subject struct {
	Name        string  `json:"name" validate:"required"`
	CreditHours float64 `json:"creditHours" validate:"gte=0"`
	GPA         float64 `json:"gpa"`
}

// Result is a stored result card. Results are immutable once created.
type Result struct {
	ID             string    `json:"_id"`
	StudentName    string    `json:"studentName" validate:"required"`
	UniversityName string    `json:"universityName" validate:"required"`
	DepartmentName string    `json:"departmentName" validate:"required"`
	Semester       string    `json:"semester" validate:"required"`
	TotalSubjects  int       `json:"totalSubjects"`
	Subjects       []Subject `json:"subjects" validate:"required,min=1,dive"`
	CGPA           float64   `json:"cgpa"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Users is the user half of the record store.
type Users interface {
	CreateUser(ctx context.Context, in NewUser) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, id string, p UserPatch) (User, error)
	DeleteUser(ctx context.Context, id string) error
}

// Results is the result card half of the record store.
type Results interface {
	// CreateResult stores r with a fresh ID and CreatedAt. TotalSubjects is
	// set to len(r.Subjects).
	CreateResult(ctx context.Context, r Result) (Result, error)

	// ListResults returns all results, newest first.
	ListResults(ctx context.Context) ([]Result, error)

	GetResult(ctx context.Context, id string) (Result, error)
}

// Store is a complete record store backend.
type Store interface {
	Users
	Results

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend's connections.
	Close(ctx context.Context) error
}

// Open returns the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemory(), nil
	case config.DriverMongo:
		uri := cfg.Mongo.URI()
		if uri == "" {
			return nil, fmt.Errorf("store: environment variable %s is empty", cfg.Mongo.URIEnv)
		}
		m, err := OpenMongo(ctx, uri, cfg.Mongo.Database, cfg.Mongo.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		return m, nil
	case config.DriverSQLite:
		s, err := OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// prepareResult validates r and fills the fields the store owns.
func prepareResult(r Result, id string, now time.Time) (Result, error) {
	if err := Validate(r); err != nil {
		return Result{}, err
	}
	r.ID = id
	r.CreatedAt = now.UTC()
	r.TotalSubjects = len(r.Subjects)
	r.Subjects = append([]Subject(nil), r.Subjects...)
	return r, nil
}
