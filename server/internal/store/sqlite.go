package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLite is a Store backed by a SQLite database through GORM.
type SQLite struct {
	db  *gorm.DB
	now func() time.Time
}

type userRow struct {
	ID    string `gorm:"primaryKey;size:36"`
	Name  string `gorm:"not null"`
	Email string `gorm:"not null"`
	Age   int    `gorm:"not null"`
}

func (userRow) TableName() string { return "users" }

type resultRow struct {
	ID             string    `gorm:"primaryKey;size:36"`
	StudentName    string    `gorm:"not null"`
	UniversityName string    `gorm:"not null"`
	DepartmentName string    `gorm:"not null"`
	Semester       string    `gorm:"not null"`
	TotalSubjects  int       `gorm:"not null"`
	Subjects       []Subject `gorm:"serializer:json"`
	CGPA           float64   `gorm:"column:cgpa;not null"`
	CreatedAt      time.Time `gorm:"index;not null"`
}

func (resultRow) TableName() string { return "resultcards" }

// OpenSQLite opens (or creates) the database at path and migrates the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	// SQLite serialises writers anyway, and ":memory:" databases exist per
	// connection, so one connection keeps every caller on the same data.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&userRow{}, &resultRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &SQLite{db: db, now: time.Now}, nil
}

func (s *SQLite) CreateUser(ctx context.Context, in NewUser) (User, error) {
	if err := Validate(in); err != nil {
		return User{}, err
	}
	row := userRow{ID: uuid.NewString(), Name: in.Name, Email: in.Email, Age: in.Age}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return User{}, fmt.Errorf("sqlite: insert user: %w", err)
	}
	return row.toUser(), nil
}

func (s *SQLite) ListUsers(ctx context.Context) ([]User, error) {
	var rows []userRow
	if err := s.db.WithContext(ctx).Order("rowid").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("sqlite: list users: %w", err)
	}
	out := make([]User, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toUser())
	}
	return out, nil
}

func (s *SQLite) UpdateUser(ctx context.Context, id string, p UserPatch) (User, error) {
	if err := Validate(p); err != nil {
		return User{}, err
	}

	var row userRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			return err
		}
		if p.Empty() {
			return nil
		}
		u := row.toUser()
		p.apply(&u)
		return tx.Model(&userRow{}).Where("id = ?", id).Updates(map[string]any{
			"name":  u.Name,
			"email": u.Email,
			"age":   u.Age,
		}).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("sqlite: update user: %w", err)
	}

	u := row.toUser()
	p.apply(&u)
	return u, nil
}

func (s *SQLite) DeleteUser(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&userRow{})
	if res.Error != nil {
		return fmt.Errorf("sqlite: delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) CreateResult(ctx context.Context, r Result) (Result, error) {
	stored, err := prepareResult(r, uuid.NewString(), s.now())
	if err != nil {
		return Result{}, err
	}
	row := toResultRow(stored)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return Result{}, fmt.Errorf("sqlite: insert result: %w", err)
	}
	return stored, nil
}

func (s *SQLite) ListResults(ctx context.Context) ([]Result, error) {
	var rows []resultRow
	err := s.db.WithContext(ctx).Order("created_at DESC").Order("rowid DESC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sqlite: list results: %w", err)
	}
	out := make([]Result, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toResult())
	}
	return out, nil
}

func (s *SQLite) GetResult(ctx context.Context, id string) (Result, error) {
	var row resultRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Result{}, ErrNotFound
	}
	if err != nil {
		return Result{}, fmt.Errorf("sqlite: get result: %w", err)
	}
	return row.toResult(), nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLite) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r userRow) toUser() User {
	return User{ID: r.ID, Name: r.Name, Email: r.Email, Age: r.Age}
}

func toResultRow(r Result) resultRow {
	return resultRow{
		ID:             r.ID,
		StudentName:    r.StudentName,
		UniversityName: r.UniversityName,
		DepartmentName: r.DepartmentName,
		Semester:       r.Semester,
		TotalSubjects:  r.TotalSubjects,
		Subjects:       r.Subjects,
		CGPA:           r.CGPA,
		CreatedAt:      r.CreatedAt,
	}
}

func (r resultRow) toResult() Result {
	return Result{
		ID:             r.ID,
		StudentName:    r.StudentName,
		UniversityName: r.UniversityName,
		DepartmentName: r.DepartmentName,
		Semester:       r.Semester,
		TotalSubjects:  r.TotalSubjects,
		Subjects:       append([]Subject(nil), r.Subjects...),
		CGPA:           r.CGPA,
		CreatedAt:      r.CreatedAt.UTC(),
	}
}
