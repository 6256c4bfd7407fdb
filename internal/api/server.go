// Package api serves analysis results as JSON tables and browser
// charts. All endpoints are read-only: the result tables are produced
// by the batch pipeline and never mutated here.
package api

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/dwell.report/internal/db"
	"github.com/banshee-data/dwell.report/internal/httputil"
)

// ANSI escape codes for access-log colouring.
const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

type Server struct {
	db *db.DB
}

func NewServer(database *db.DB) *Server {
	return &Server{db: database}
}

// ServeMux returns the full route table, including the DB debug
// surface.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/runs", s.withLogging(s.handleRuns))
	mux.HandleFunc("/api/stations", s.withLogging(s.handleStations))
	mux.HandleFunc("/api/dwell", s.withLogging(s.handleDwell))
	mux.HandleFunc("/api/transitions", s.withLogging(s.handleTransitions))
	mux.HandleFunc("/api/production", s.withLogging(s.handleProduction))
	mux.HandleFunc("/api/visits", s.withLogging(s.handleVisits))
	mux.HandleFunc("/charts/stations", s.withLogging(s.handleStationChart))
	mux.HandleFunc("/charts/dwell", s.withLogging(s.handleDwellChart))
	mux.HandleFunc("/charts/transitions", s.withLogging(s.handleTransitionChart))
	mux.HandleFunc("/charts/trajectories", s.withLogging(s.handleTrajectoryChart))
	mux.HandleFunc("/", s.withLogging(s.handleDashboard))
	s.db.AttachAdminRoutes(mux)
	return mux
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(lrw, r)
		log.Printf("%s%s%s %s %s %s", colorCyan, r.Method, colorReset,
			r.URL.Path, statusCodeColor(lrw.statusCode), time.Since(start))
	}
}

// resolveRun picks the run to serve: an explicit ?run= id, or the
// latest run for ?scope=, or the latest run overall.
func (s *Server) resolveRun(r *http.Request) (string, error) {
	if runID := r.URL.Query().Get("run"); runID != "" {
		return runID, nil
	}
	return s.db.LatestRunID(r.Context(), r.URL.Query().Get("scope"))
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	runs, err := s.db.ListRuns(r.Context())
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSON(w, runs)
}

// tableHandler wraps the shared run-resolution and error mapping for
// the per-run table endpoints.
func (s *Server) tableHandler(w http.ResponseWriter, r *http.Request, query func(runID string) (any, error)) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	runID, err := s.resolveRun(r)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.NotFound(w, "no analysis runs recorded")
			return
		}
		httputil.InternalServerError(w, err.Error())
		return
	}
	data, err := query(runID)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSON(w, data)
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	s.tableHandler(w, r, func(runID string) (any, error) {
		return s.db.Stations(r.Context(), runID)
	})
}

func (s *Server) handleDwell(w http.ResponseWriter, r *http.Request) {
	s.tableHandler(w, r, func(runID string) (any, error) {
		return s.db.Dwell(r.Context(), runID)
	})
}

func (s *Server) handleTransitions(w http.ResponseWriter, r *http.Request) {
	s.tableHandler(w, r, func(runID string) (any, error) {
		return s.db.Transitions(r.Context(), runID)
	})
}

func (s *Server) handleProduction(w http.ResponseWriter, r *http.Request) {
	s.tableHandler(w, r, func(runID string) (any, error) {
		return s.db.Production(r.Context(), runID)
	})
}

func (s *Server) handleVisits(w http.ResponseWriter, r *http.Request) {
	s.tableHandler(w, r, func(runID string) (any, error) {
		return s.db.Visits(r.Context(), runID)
	})
}
