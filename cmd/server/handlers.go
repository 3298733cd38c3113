package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/himanishpuri/fluxline/pkg/fluxline"
	"github.com/himanishpuri/fluxline/pkg/logger"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service fluxline.Service
	config  *ServerConfig
	log     fluxline.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	ArtifactDir    string
	AllowedOrigins []string
}

// NewServer creates a new server instance
func NewServer(service fluxline.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger().With("server"),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "fluxline catalog API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":  "GET /health",
			"metrics": "GET /api/health/metrics",
			"stars":   "GET /api/stars",
			"getStar": "GET /api/stars/{name}",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Only GET is supported")
		return
	}
	stars, err := s.service.ListStars()
	if err != nil {
		s.log.Errorf("Failed to get star count: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	var lines, noise int
	for _, st := range stars {
		lines += st.Lines
		noise += st.NoiseLines
	}
	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:       "healthy",
		DatabasePath: s.config.DBPath,
		ArtifactDir:  s.config.ArtifactDir,
		StarCount:    len(stars),
		LineCount:    lines,
		NoiseCount:   noise,
	})
}

// handleStars routes /api/stars
func (s *Server) handleStars(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Only GET is supported")
		return
	}
	s.handleListStars(w, r)
}

// handleStar routes /api/stars/{name}
func (s *Server) handleStar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Only GET is supported")
		return
	}
	name := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/api/stars/"))
	if name == "" || strings.Contains(name, "/") {
		s.respondError(w, http.StatusBadRequest, "Invalid star name")
		return
	}
	s.handleGetStar(w, r, strings.ToUpper(name))
}

// handleListStars handles GET /api/stars
func (s *Server) handleListStars(w http.ResponseWriter, r *http.Request) {
	stars, err := s.service.ListStars()
	if err != nil {
		s.log.Errorf("Failed to list stars: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve stars")
		return
	}

	dtos := make([]StarDTO, len(stars))
	for i, st := range stars {
		dtos[i] = newStarDTO(st)
	}
	s.respondJSON(w, http.StatusOK, ListStarsResponse{
		Stars: dtos,
		Count: len(dtos),
	})
}

// handleGetStar handles GET /api/stars/{name}
func (s *Server) handleGetStar(w http.ResponseWriter, r *http.Request, name string) {
	detail, err := s.service.GetStar(name)
	if errors.Is(err, fluxline.ErrStarNotFound) {
		s.respondError(w, http.StatusNotFound, "Star not found: "+name)
		return
	}
	if err != nil {
		s.log.Errorf("Failed to get star %s: %v", name, err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve star")
		return
	}
	s.respondJSON(w, http.StatusOK, newStarDetailResponse(detail))
}
