package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/resultcard/resultcard/pkg/gpa"
	"github.com/resultcard/resultcard/server/internal/report"
	"github.com/resultcard/resultcard/server/internal/store"
)

// listResults returns GET /results, newest first.
func (h *Handler) listResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.store.ListResults(r.Context())
	if err != nil {
		h.fail(w, r, "result", err)
		return
	}
	jsonResp(w, http.StatusOK, results)
}

// createResult handles POST /results: validate the sheet, compute the
// average, check any claimed average, then store and publish the card.
func (h *Handler) createResult(w http.ResponseWriter, r *http.Request) {
	var req resultRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	sum, err := gpa.Compute(req.Subjects)
	if err != nil {
		h.fail(w, r, "result", err)
		return
	}

	for _, claim := range []struct {
		field string
		value *gpa.Value
	}{
		{"cgpa", req.CGPA},
		{"sgpa", req.SGPA},
	} {
		if claim.value == nil || strings.TrimSpace(string(*claim.value)) == "" {
			continue
		}
		claimed, err := claim.value.Float()
		if err != nil {
			fieldErr(w, claim.field, claim.field+" must be a number")
			return
		}
		if !gpa.Matches(claimed, sum.Average) {
			fieldErr(w, claim.field, fmt.Sprintf("%s %s does not match computed average %.2f",
				claim.field, strconv.FormatFloat(claimed, 'f', -1, 64), sum.Average))
			return
		}
	}

	subjects := make([]store.Subject, 0, len(sum.Entries))
	for _, e := range sum.Entries {
		subjects = append(subjects, store.Subject{Name: e.Name, CreditHours: e.CreditHours, GPA: e.GPA})
	}
	card := store.Result{
		StudentName:    strings.TrimSpace(req.StudentName),
		UniversityName: strings.TrimSpace(req.UniversityName),
		DepartmentName: strings.TrimSpace(req.DepartmentName),
		Semester:       strings.TrimSpace(req.Semester),
		Subjects:       subjects,
		CGPA:           sum.Average,
	}
	// Reject bad context fields before touching the store.
	if err := store.Validate(card); err != nil {
		h.fail(w, r, "result", err)
		return
	}

	created, err := h.store.CreateResult(r.Context(), card)
	if err != nil {
		h.fail(w, r, "result", err)
		return
	}
	if h.pub != nil {
		h.pub.Publish(created)
	}
	jsonResp(w, http.StatusCreated, created)
}

// getResult returns GET /results/{id}.
func (h *Handler) getResult(w http.ResponseWriter, r *http.Request) {
	res, err := h.store.GetResult(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "result", err)
		return
	}
	jsonResp(w, http.StatusOK, res)
}

// resultPDF returns GET /results/{id}/pdf as a download.
func (h *Handler) resultPDF(w http.ResponseWriter, r *http.Request) {
	res, err := h.store.GetResult(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "result", err)
		return
	}

	// Render fully before writing headers so a failure can still be a 500.
	var buf bytes.Buffer
	if err := report.Render(&buf, res); err != nil {
		h.fail(w, r, "result", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w) //nolint:errcheck
}
