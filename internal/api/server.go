// Package api exposes the gateway over HTTP. It owns only routing,
// request decoding and error mapping; catalog semantics live in the
// service packages it delegates to.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"stacksgw/internal/availability"
	"stacksgw/internal/itemstore"
	"stacksgw/internal/search"
)

// Server wires the gateway's services behind a chi router.
type Server struct {
	search   *search.Client
	store    *itemstore.Store
	enricher *availability.Enricher
}

// NewServer creates a Server over the given services.
func NewServer(searchClient *search.Client, store *itemstore.Store, enricher *availability.Enricher) *Server {
	return &Server{
		search:   searchClient,
		store:    store,
		enricher: enricher,
	}
}

// Routes builds the gateway's route table.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestLogger)

	r.Route("/catalog", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/item/{id}", s.handleItem)
	})

	// Static stub services; see stubs.go.
	r.Get("/directory/search", s.handleDirectorySearch)
	r.Get("/directory/list", s.handleDirectoryList)
	r.Get("/directory/entry/{id}", s.handleDirectoryEntry)
	r.Get("/hours/list", s.handleHoursList)
	r.Get("/jobs/list", s.handleJobsList)

	return r
}

// requestLogger tags every request with a correlation id and logs it.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)
		slog.Debug("Request received", "request_id", requestID, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

// writeError surfaces a generic message; internal detail stays in the logs.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
