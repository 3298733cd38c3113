package models

import "time"

// StarSummary is a catalog listing entry.
type StarSummary struct {
	Name       string
	Instrument string
	Grating    string
	Doppler    float64 // km/s
	Lines      int     // flux records of the latest run
	NoiseLines int
	Runs       int // runs recorded for the star
	LastRun    time.Time
}

// StarDetail is the latest run of a star with its flux table.
type StarDetail struct {
	RunID   string
	Meta    RunMetadata
	Records []FluxRecord
}
