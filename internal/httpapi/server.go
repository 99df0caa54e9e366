// Package httpapi exposes the turn pipeline over HTTP.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/tripbrain-dev/tripbrain/internal/agent"
	"github.com/tripbrain-dev/tripbrain/internal/geocode"
	"github.com/tripbrain-dev/tripbrain/internal/metrics"
	"github.com/tripbrain-dev/tripbrain/internal/state"
	apperrors "github.com/tripbrain-dev/tripbrain/pkg/app/errors"
)

// Server wires the agent and session manager into an HTTP router.
type Server struct {
	agent  *agent.Service
	states *state.Manager
	router *mux.Router
}

// NewServer builds the router with all routes registered.
func NewServer(agentService *agent.Service, states *state.Manager) *Server {
	s := &Server{
		agent:  agentService,
		states: states,
		router: mux.NewRouter(),
	}
	s.registerRoutes()
	return s
}

// Router returns the underlying router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// HTTPServer wraps the router in an http.Server with sane timeouts.
func (s *Server) HTTPServer(host string, port int) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(timingMiddleware)
	api.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	api.HandleFunc("/weather", s.handleWeather).Methods(http.MethodPost)
	api.HandleFunc("/places", s.handlePlaces).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{sessionId}", s.handleGetSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{sessionId}", s.handleDeleteSession).Methods(http.MethodDelete)
}

func timingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		metrics.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// ChatRequest is the /api/chat request body.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.agent.HandleTurn(r.Context(), req.SessionID, req.Message)
	if err != nil {
		writeTurnError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// CoordsRequest is the body for the direct weather/places endpoints.
type CoordsRequest struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Location string  `json:"location,omitempty"`
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	var req CoordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snapshot, err := s.agent.GetWeather(r.Context(), req.Lat, req.Lon)
	if err != nil {
		writeTurnError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handlePlaces(w http.ResponseWriter, r *http.Request) {
	var req CoordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pool, err := s.agent.GetPlacePool(r.Context(), &geocode.Location{
		Name: req.Location,
		Lat:  req.Lat,
		Lon:  req.Lon,
	})
	if err != nil {
		writeTurnError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"places": pool})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	sess, err := s.states.GetOrCreate(r.Context(), sessionID)
	if err != nil {
		writeTurnError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	if err := s.states.Delete(r.Context(), sessionID); err != nil {
		writeTurnError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeTurnError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperrors.CodeOf(err) {
	case apperrors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	case apperrors.ErrCodeProviderUnavailable:
		status = http.StatusBadGateway
	case apperrors.ErrCodeStorageUnavailable:
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("component", "httpapi").Msg("request failed")
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Str("component", "httpapi").Msg("failed to encode response")
	}
}
