package store

import (
	"errors"
	"testing"
)

func TestValidationErrorMessages(t *testing.T) {
	cases := []struct {
		err  ValidationError
		want string
	}{
		{ValidationError{Field: "name", Rule: "required"}, "name is required"},
		{ValidationError{Field: "email", Rule: "min"}, "email must not be empty"},
		{ValidationError{Field: "name", Rule: "notblank"}, "name must not be blank"},
		{ValidationError{Field: "subjects[0].creditHours", Rule: "gte"}, "subjects[0].creditHours must not be negative"},
		{ValidationError{Field: "x", Rule: "oneof"}, `x failed "oneof" validation`},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("Error(): got %q, want %q", got, tc.want)
		}
	}
}

func TestValidate_NestedFieldPath(t *testing.T) {
	r := sampleResult("Ana")
	r.Subjects[1].Name = ""

	err := Validate(r)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate: got %v, want *ValidationError", err)
	}
	if verr.Field != "subjects[1].name" {
		t.Errorf("Field: got %q, want subjects[1].name", verr.Field)
	}
	if !errors.Is(err, ErrInvalid) {
		t.Error("errors.Is(err, ErrInvalid) = false")
	}
}

func TestValidate_PatchNilFieldsSkipped(t *testing.T) {
	if err := Validate(UserPatch{}); err != nil {
		t.Errorf("empty patch: %v", err)
	}
	empty := ""
	if err := Validate(UserPatch{Email: &empty}); err == nil {
		t.Error("empty email in patch: expected error")
	}
}

func TestValidate_BlankUserFields(t *testing.T) {
	blank := " \t "
	cases := []struct {
		name  string
		in    any
		field string
	}{
		{"create name", NewUser{Name: blank, Email: "x@example.com"}, "name"},
		{"create email", NewUser{Name: "X", Email: blank}, "email"},
		{"patch name", UserPatch{Name: &blank}, "name"},
		{"patch email", UserPatch{Email: &blank}, "email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var verr *ValidationError
			if !errors.As(Validate(tc.in), &verr) {
				t.Fatal("expected *ValidationError")
			}
			if verr.Field != tc.field || verr.Rule != "notblank" {
				t.Errorf("got %s/%s, want %s/notblank", verr.Field, verr.Rule, tc.field)
			}
		})
	}
}
