package models

import "time"

// FluxRecord is one row of a star's flux table.
type FluxRecord struct {
	Ion        string  `json:"ion"`
	Wavelength float64 `json:"wavelength"` // rest wavelength in Å
	Flux       float64 `json:"flux"`       // integrated flux, or -NoiseSigma*error for noise lines
	Error      float64 `json:"error"`      // 0 for noise lines
	Blended    bool    `json:"blended"`    // entry stands for two or more merged reference lines
	Noise      bool    `json:"noise"`
}

// RunMetadata is the provenance written next to a flux table.
type RunMetadata struct {
	Date            time.Time
	Filename        string  // source spectrum
	Instrument      string  // e.g. COS, STIS
	Grating         string  // e.g. G130M, G140L
	Star            string  // target name, uppercased
	Doppler         float64 // km/s
	PeakWidth       float64 // Å
	PeakWidthPixels float64
	FluxRange       float64 // Å
	UpperLimit      string  // noise convention, e.g. "3*error"
}
