// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes a completed store over a read-only HTTP API so
// that other tools can run title lookups without opening SQLite themselves.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdiddy/bibindex/pkg/types"
)

// DefaultMaxResults applies when a search request has no max parameter.
const DefaultMaxResults = 10

// maxResultsCap bounds the max parameter of a search request.
const maxResultsCap = 1000

// Querier is the read side of a store.
type Querier interface {
	SearchPublications(ctx context.Context, title string, maxResults int) ([]types.Record, error)
	Get(ctx context.Context, key string) (*types.Record, error)
	GetBibTeX(ctx context.Context, key string) (string, bool, error)
	Status(ctx context.Context) (types.StoreStatus, error)
}

// Server serves one store.
type Server struct {
	store Querier
}

// New returns a Server answering queries and status reports from store.
func New(store Querier) *Server {
	return &Server{store: store}
}

// Routes returns the HTTP handler for the API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/status", s.handleStatus)
	r.Get("/search", s.handleSearch)
	// DBLP keys contain slashes, so key routes use a wildcard.
	r.Get("/records/*", s.handleRecord)
	r.Get("/bibtex/*", s.handleBibTeX)

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")

	maxResults := DefaultMaxResults
	if v := r.URL.Query().Get("max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "max must be a non-negative integer")
			return
		}
		maxResults = min(n, maxResultsCap)
	}

	recs, err := s.store.SearchPublications(r.Context(), title, maxResults)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	rec, err := s.store.Get(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "no record with key "+key)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleBibTeX(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	bib, ok, err := s.store.GetBibTeX(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no record with key "+key)
		return
	}
	w.Header().Set("Content-Type", "application/x-bibtex; charset=utf-8")
	w.Write([]byte(bib + "\n"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
