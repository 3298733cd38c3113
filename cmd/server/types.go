package main

import (
	"time"

	"github.com/himanishpuri/fluxline/pkg/fluxline"
	"github.com/himanishpuri/fluxline/pkg/models"
)

// StarDTO represents a star in API responses
type StarDTO struct {
	Name       string    `json:"name"`
	Instrument string    `json:"instrument"`
	Grating    string    `json:"grating"`
	Doppler    float64   `json:"doppler_kms"`
	Lines      int       `json:"lines"`
	NoiseLines int       `json:"noise_lines"`
	Runs       int       `json:"runs"`
	LastRun    time.Time `json:"last_run"`
}

func newStarDTO(s models.StarSummary) StarDTO {
	return StarDTO{
		Name:       s.Name,
		Instrument: s.Instrument,
		Grating:    s.Grating,
		Doppler:    s.Doppler,
		Lines:      s.Lines,
		NoiseLines: s.NoiseLines,
		Runs:       s.Runs,
		LastRun:    s.LastRun,
	}
}

// ListStarsResponse is the response for GET /api/stars
type ListStarsResponse struct {
	Stars []StarDTO `json:"stars"`
	Count int       `json:"count"`
}

// StarDetailResponse is the response for GET /api/stars/{name}. Fluxes are
// grouped by ion in the order the lines were measured.
type StarDetailResponse struct {
	RunID       string              `json:"run_id"`
	Star        string              `json:"star"`
	Instrument  string              `json:"instrument"`
	Grating     string              `json:"grating"`
	Filename    string              `json:"filename"`
	ProcessedAt time.Time           `json:"processed_at"`
	Doppler     float64             `json:"doppler_kms"`
	PeakWidth   float64             `json:"peak_width"`
	WidthPixels float64             `json:"peak_width_pixels"`
	FluxRange   float64             `json:"flux_range"`
	UpperLimit  string              `json:"upper_limit"`
	Fluxes      *fluxline.FluxTable `json:"fluxes"`
}

func newStarDetailResponse(d *models.StarDetail) StarDetailResponse {
	m := d.Meta
	return StarDetailResponse{
		RunID:       d.RunID,
		Star:        m.Star,
		Instrument:  m.Instrument,
		Grating:     m.Grating,
		Filename:    m.Filename,
		ProcessedAt: m.Date,
		Doppler:     m.Doppler,
		PeakWidth:   m.PeakWidth,
		WidthPixels: m.PeakWidthPixels,
		FluxRange:   m.FluxRange,
		UpperLimit:  m.UpperLimit,
		Fluxes:      fluxline.TableFromRecords(d.Records),
	}
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// MetricsResponse provides server health and catalog metrics
type MetricsResponse struct {
	Status       string `json:"status"`
	DatabasePath string `json:"database_path"`
	ArtifactDir  string `json:"artifact_dir"`
	StarCount    int    `json:"star_count"`
	LineCount    int    `json:"line_count"`
	NoiseCount   int    `json:"noise_count"`
}
