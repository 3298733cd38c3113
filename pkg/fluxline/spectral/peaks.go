package spectral

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidGrating = errors.New("invalid grating")

// Peak is a local maximum of a flux array that survived the detection criteria.
type Peak struct {
	Index      int
	Height     float64
	Prominence float64
	LeftBase   int
	RightBase  int
	// Width is the full width at half prominence in samples. LeftIP and RightIP
	// are the interpolated crossing positions.
	Width   float64
	LeftIP  float64
	RightIP float64
}

// PeakCriteria are absolute lower bounds applied to candidate peaks.
type PeakCriteria struct {
	Height     float64
	Threshold  float64
	Prominence float64
	Width      float64
}

// PeakRegime scales detection criteria by the mean flux of a spectrum.
type PeakRegime struct {
	Name             string
	HeightFactor     float64
	ThresholdFactor  float64
	ProminenceFactor float64
	MinWidth         float64
}

// Criteria resolves the regime against a mean flux level.
func (r PeakRegime) Criteria(meanFlux float64) PeakCriteria {
	return PeakCriteria{
		Height:     r.HeightFactor * meanFlux,
		Threshold:  r.ThresholdFactor * meanFlux,
		Prominence: r.ProminenceFactor * meanFlux,
		Width:      r.MinWidth,
	}
}

// RegimeSet holds the two grating families the pipeline knows about.
type RegimeSet struct {
	Broad  PeakRegime
	Medium PeakRegime
}

// DefaultRegimes mirrors the thresholds used for COS/STIS L and M gratings.
func DefaultRegimes() RegimeSet {
	return RegimeSet{
		Broad: PeakRegime{
			Name:         "broad",
			HeightFactor: 0.7,
		},
		Medium: PeakRegime{
			Name:             "medium",
			HeightFactor:     10,
			ThresholdFactor:  0.1,
			ProminenceFactor: 10,
		},
	}
}

// For selects the regime for a grating code. L gratings are checked first,
// so a code carrying both letters is treated as broad.
func (rs RegimeSet) For(grating string) (PeakRegime, error) {
	g := strings.ToUpper(grating)
	switch {
	case strings.Contains(g, "L"):
		return rs.Broad, nil
	case strings.Contains(g, "M"):
		return rs.Medium, nil
	default:
		return PeakRegime{}, fmt.Errorf("%w: %q", ErrInvalidGrating, grating)
	}
}

// FindPeaks returns the local maxima of x that satisfy c, in index order.
// Flat tops resolve to their middle sample.
func FindPeaks(x []float64, c PeakCriteria) []Peak {
	n := len(x)
	if n < 3 {
		return nil
	}

	peaks := make([]Peak, 0, 16)
	for _, idx := range localMaxima(x) {
		if x[idx] < c.Height {
			continue
		}
		left := x[idx] - x[idx-1]
		right := x[idx] - x[idx+1]
		if minFloat(left, right) < c.Threshold {
			continue
		}

		p := Peak{Index: idx, Height: x[idx]}
		p.Prominence, p.LeftBase, p.RightBase = prominence(x, idx)
		if p.Prominence < c.Prominence {
			continue
		}

		p.Width, p.LeftIP, p.RightIP = halfProminenceWidth(x, p)
		if p.Width < c.Width {
			continue
		}
		peaks = append(peaks, p)
	}
	return peaks
}

func localMaxima(x []float64) []int {
	n := len(x)
	out := make([]int, 0, n/8)
	i := 1
	for i < n-1 {
		if x[i-1] < x[i] {
			ahead := i + 1
			for ahead < n-1 && x[ahead] == x[i] {
				ahead++
			}
			if x[ahead] < x[i] {
				out = append(out, (i+ahead-1)/2)
				i = ahead
			}
		}
		i++
	}
	return out
}

// prominence walks outwards until a higher sample (or the array edge) is met
// and measures the peak against the higher of the two minima found.
func prominence(x []float64, peak int) (float64, int, int) {
	leftMin := x[peak]
	leftBase := peak
	for i := peak; i >= 0 && x[i] <= x[peak]; i-- {
		if x[i] < leftMin {
			leftMin = x[i]
			leftBase = i
		}
	}

	rightMin := x[peak]
	rightBase := peak
	for i := peak; i < len(x) && x[i] <= x[peak]; i++ {
		if x[i] < rightMin {
			rightMin = x[i]
			rightBase = i
		}
	}

	ref := leftMin
	if rightMin > ref {
		ref = rightMin
	}
	return x[peak] - ref, leftBase, rightBase
}

func halfProminenceWidth(x []float64, p Peak) (float64, float64, float64) {
	height := x[p.Index] - 0.5*p.Prominence

	i := p.Index
	for p.LeftBase < i && height < x[i] {
		i--
	}
	leftIP := float64(i)
	if x[i] < height {
		leftIP += (height - x[i]) / (x[i+1] - x[i])
	}

	i = p.Index
	for i < p.RightBase && height < x[i] {
		i++
	}
	rightIP := float64(i)
	if x[i] < height {
		rightIP -= (height - x[i]) / (x[i-1] - x[i])
	}

	return rightIP - leftIP, leftIP, rightIP
}

// RefinedWavelength places the peak between samples using a parabola through
// the peak and its neighbours.
func RefinedWavelength(sp Spectrum, idx int) float64 {
	w, f := sp.Wavelength, sp.Flux
	if idx <= 0 || idx >= len(w)-1 {
		return w[idx]
	}
	denom := f[idx-1] - 2*f[idx] + f[idx+1]
	if denom == 0 {
		return w[idx]
	}
	delta := 0.5 * (f[idx-1] - f[idx+1]) / denom
	if delta > 0.5 || delta < -0.5 {
		return w[idx]
	}
	if delta >= 0 {
		return w[idx] + delta*(w[idx+1]-w[idx])
	}
	return w[idx] + delta*(w[idx]-w[idx-1])
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
