package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/resultcard/resultcard/pkg/gpa"
	"github.com/resultcard/resultcard/server/internal/metrics"
	"github.com/resultcard/resultcard/server/internal/store"
)

// Greeting is the body of GET / when no UI is served.
const Greeting = "Hello from resultcard server!"

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Publisher receives every result card created through the API.
type Publisher interface {
	Publish(store.Result)
}

// Options configures the optional parts of the API.
type Options struct {
	// RequestTimeout bounds every REST request. Zero means no timeout.
	// /metrics and /ws/results are never subject to it.
	RequestTimeout time.Duration

	// CORSOrigins lists allowed origins. Empty allows any origin.
	CORSOrigins []string

	// UIDir, when set, serves a single-page client from disk on / and on
	// every unknown GET path.
	UIDir string

	// Publisher is notified of created results. May be nil.
	Publisher Publisher

	// Feed is mounted at GET /ws/results when non-nil.
	Feed http.Handler

	// Metrics records every request and is mounted at GET /metrics when
	// non-nil.
	Metrics *metrics.Collector
}

// Handler is the HTTP handler for the REST API.
type Handler struct {
	store  store.Store
	pub    Publisher
	router chi.Router
}

// New creates a Handler over st and registers all routes.
func New(st store.Store, opts Options) *Handler {
	h := &Handler{store: st, pub: opts.Publisher, router: chi.NewRouter()}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := h.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	if opts.Feed != nil {
		r.Method(http.MethodGet, "/ws/results", opts.Feed)
	}

	r.Group(func(r chi.Router) {
		if opts.RequestTimeout > 0 {
			r.Use(middleware.Timeout(opts.RequestTimeout))
		}

		if opts.UIDir != "" {
			ui := spaHandler(opts.UIDir)
			r.Get("/", ui)
			r.NotFound(ui)
		} else {
			r.Get("/", greeting)
		}
		r.Get("/healthz", h.healthz)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.listUsers)
			r.Post("/", h.createUser)
			r.Put("/{id}", h.updateUser)
			r.Delete("/{id}", h.deleteUser)
		})

		r.Route("/results", func(r chi.Router) {
			r.Get("/", h.listResults)
			r.Post("/", h.createResult)
			r.Get("/{id}", h.getResult)
			r.Get("/{id}/pdf", h.resultPDF)
		})
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	if opts.UIDir == "" {
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			jsonErr(w, http.StatusNotFound, "not found")
		})
	}

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// greeting returns GET / as plain text.
func greeting(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, Greeting) //nolint:errcheck
}

// healthz returns GET /healthz: 200 when the store answers a ping, 503
// otherwise.
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		slog.Warn("api: store ping failed", "err", err, "request_id", middleware.GetReqID(r.Context()))
		jsonResp(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Store: "unreachable"})
		return
	}
	jsonResp(w, http.StatusOK, healthResponse{Status: "ok", Store: "reachable"})
}

// --- helpers ----------------------------------------------------------------

// jsonResp writes v with status code. A value that fails to encode is
// answered with 500.
func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("api: encode response", "err", err)
		code = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Error: "internal error"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(append(body, '\n')) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

func fieldErr(w http.ResponseWriter, field, msg string) {
	jsonResp(w, http.StatusBadRequest, errorResponse{Error: msg, Field: field})
}

// decodeJSON reads a JSON object body into v. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid JSON body: %v", err)
	}
	return nil
}

// fail maps err onto a response. what names the record for 404 messages.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, what string, err error) {
	var verr *store.ValidationError
	var entry *gpa.EntryError
	switch {
	case errors.As(err, &verr):
		fieldErr(w, verr.Field, verr.Error())
	case errors.As(err, &entry):
		fieldErr(w, fmt.Sprintf("subjects[%d].%s", entry.Index, entry.Field), entry.Error())
	case errors.Is(err, gpa.ErrNoSubjects):
		fieldErr(w, "subjects", "at least one subject is required")
	case errors.Is(err, gpa.ErrZeroCredits):
		fieldErr(w, "subjects", "total credit hours must be greater than zero")
	case errors.Is(err, gpa.ErrOutOfRange):
		fieldErr(w, "subjects", "credit hours or gpa values are too large")
	case errors.Is(err, store.ErrNotFound):
		jsonErr(w, http.StatusNotFound, what+" not found")
	default:
		slog.Error("api: request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"err", err,
		)
		jsonErr(w, http.StatusInternalServerError, "internal error")
	}
}
