package spectral

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// SpeedOfLight in km/s.
const SpeedOfLight = 299792.458

var ErrDopplerUnresolved = errors.New("doppler shift could not be resolved")

// Shift returns the observed wavelength of a rest wavelength for a radial
// velocity in km/s (optical convention).
func Shift(rest, velocity float64) float64 {
	return rest * (1 + velocity/SpeedOfLight)
}

// Velocity is the inverse of Shift.
func Velocity(rest, observed float64) float64 {
	return SpeedOfLight * (observed/rest - 1)
}

// DopplerEstimate is the outcome of a Doppler resolution.
type DopplerEstimate struct {
	Velocity float64 // km/s
	Matches  int     // reference lines paired with a detected peak
	Method   string  // "peaks" or "xcorr"
}

// DopplerOptions bounds the velocity search.
type DopplerOptions struct {
	MaxVelocity float64 // km/s, sets the per-line search radius
	LineSigma   float64 // Å, template line sigma for cross-correlation
	LowerCutoff float64 // Å, reference lines at or below this are ignored
}

// EstimateDoppler pairs each reference line with the nearest detected peak
// inside the velocity search radius and returns the median implied velocity.
// When no line can be paired it falls back to cross-correlating the spectrum
// against a synthetic template of the line list.
func EstimateDoppler(sp Spectrum, lines []ReferenceLine, peaks []Peak, opts DopplerOptions) (DopplerEstimate, error) {
	if opts.MaxVelocity <= 0 {
		return DopplerEstimate{}, fmt.Errorf("max velocity must be > 0, got %g", opts.MaxVelocity)
	}

	positions := make([]float64, len(peaks))
	for i, p := range peaks {
		positions[i] = RefinedWavelength(sp, p.Index)
	}
	sort.Float64s(positions)

	velocities := make([]float64, 0, len(lines))
	for _, line := range lines {
		if line.Wavelength <= opts.LowerCutoff {
			continue
		}
		radius := line.Wavelength * opts.MaxVelocity / SpeedOfLight
		obs, ok := nearest(positions, line.Wavelength)
		if !ok || math.Abs(obs-line.Wavelength) > radius {
			continue
		}
		velocities = append(velocities, Velocity(line.Wavelength, obs))
	}

	if len(velocities) > 0 {
		sort.Float64s(velocities)
		return DopplerEstimate{
			Velocity: stat.Quantile(0.5, stat.Empirical, velocities, nil),
			Matches:  len(velocities),
			Method:   "peaks",
		}, nil
	}

	v, err := CrossCorrelateVelocity(sp, lines, opts)
	if err != nil {
		return DopplerEstimate{}, err
	}
	return DopplerEstimate{Velocity: v, Method: "xcorr"}, nil
}

// nearest returns the element of the sorted slice closest to x.
func nearest(sorted []float64, x float64) (float64, bool) {
	if len(sorted) == 0 {
		return 0, false
	}
	i := sort.SearchFloat64s(sorted, x)
	switch {
	case i == 0:
		return sorted[0], true
	case i == len(sorted):
		return sorted[len(sorted)-1], true
	}
	if x-sorted[i-1] <= sorted[i]-x {
		return sorted[i-1], true
	}
	return sorted[i], true
}
