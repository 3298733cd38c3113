package fluxline

import (
	"fmt"

	"github.com/himanishpuri/fluxline/pkg/fluxline/spectral"
)

type DopplerAction int

const (
	ResolveDoppler DopplerAction = iota
	LoadDoppler
)

func (a DopplerAction) String() string {
	if a == LoadDoppler {
		return "load-doppler"
	}
	return "resolve-doppler"
}

type NoiseAction int

const (
	ReviewNoise NoiseAction = iota
	LoadNoise
)

func (a NoiseAction) String() string {
	if a == LoadNoise {
		return "load-noise"
	}
	return "review-noise"
}

type FluxAction int

const (
	ComputeFlux FluxAction = iota
	Abort
)

func (a FluxAction) String() string {
	if a == Abort {
		return "abort"
	}
	return "compute-flux"
}

// Plan is the set of decisions a run makes up front from the artifacts on
// disk. A plan that loads noise decisions always aborts before output.
type Plan struct {
	Star    string
	Grating string
	Doppler DopplerAction
	Noise   NoiseAction
	Flux    FluxAction
}

func (p Plan) String() string {
	return fmt.Sprintf("%s: %s, %s, %s", p.Star, p.Doppler, p.Noise, p.Flux)
}

// RunRequest describes one spectrum to process. Spectrum and Lines may be
// supplied directly; otherwise they are loaded from the paths.
type RunRequest struct {
	SpectrumPath string
	LineListPath string
	Spectrum     *spectral.Spectrum
	Lines        []spectral.ReferenceLine
	Instrument   string
	Grating      string
	Star         string
}

// SkippedLine is a window whose Gaussian fit failed.
type SkippedLine struct {
	Ion        string
	Wavelength float64
	Err        error
}

type Result struct {
	Plan    Plan
	RunID   string // catalog run, empty when nothing was recorded
	Doppler spectral.DopplerEstimate
	Width   spectral.PeakWidth
	Lines   []spectral.EmissionLine
	Table   *FluxTable
	Skipped []SkippedLine
	Outputs []string
}

// LineView is what a reviewer sees of one fitted line.
type LineView struct {
	Star        string
	Index       int // position in the review sequence
	Total       int
	Line        spectral.EmissionLine
	Wavelength  []float64 // window samples
	Flux        []float64
	Continuum   []float64 // trend under the fit, per sample
	Measurement spectral.Measurement
}
