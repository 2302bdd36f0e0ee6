package api

import (
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/resultcard/resultcard/pkg/gpa"
	"github.com/resultcard/resultcard/server/internal/store"
)

// listUsers returns GET /users.
func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, "user", err)
		return
	}
	jsonResp(w, http.StatusOK, users)
}

// createUser handles POST /users. name, email and age are all required.
func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case req.Name == nil:
		fieldErr(w, "name", "name is required")
		return
	case req.Email == nil:
		fieldErr(w, "email", "email is required")
		return
	case req.Age == nil:
		fieldErr(w, "age", "age is required")
		return
	}
	age, msg := parseAge(*req.Age)
	if msg != "" {
		fieldErr(w, "age", msg)
		return
	}

	in := store.NewUser{
		Name:  strings.TrimSpace(*req.Name),
		Email: strings.TrimSpace(*req.Email),
		Age:   age,
	}
	u, err := h.store.CreateUser(r.Context(), in)
	if err != nil {
		h.fail(w, r, "user", err)
		return
	}
	jsonResp(w, http.StatusCreated, u)
}

// updateUser handles PUT /users/{id}. Only the fields present in the body
// change.
func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	patch := store.UserPatch{Name: trimmed(req.Name), Email: trimmed(req.Email)}
	if req.Age != nil {
		age, msg := parseAge(*req.Age)
		if msg != "" {
			fieldErr(w, "age", msg)
			return
		}
		patch.Age = &age
	}

	u, err := h.store.UpdateUser(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.fail(w, r, "user", err)
		return
	}
	jsonResp(w, http.StatusOK, u)
}

// deleteUser handles DELETE /users/{id}.
func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "user", err)
		return
	}
	jsonResp(w, http.StatusOK, messageResponse{Message: "User deleted successfully"})
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

// parseAge converts a form value to a whole, non-negative age. The returned
// message is empty on success.
func parseAge(v gpa.Value) (int, string) {
	f, err := v.Float()
	if err != nil {
		return 0, "age must be a number"
	}
	if f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, "age must be a whole number"
	}
	if f < 0 {
		return 0, "age must not be negative"
	}
	return int(f), ""
}
