package spectral

import (
	"math"
	"testing"
)

type synthLine struct {
	center, amp, sigma float64
}

// synthSpectrum builds a noise-free spectrum of Gaussian lines on a flat continuum.
func synthSpectrum(t *testing.T, lo, hi, step, continuum, sampleErr float64, lines ...synthLine) Spectrum {
	t.Helper()

	n := int(math.Round((hi-lo)/step)) + 1
	sp := Spectrum{
		Wavelength: make([]float64, n),
		Flux:       make([]float64, n),
		Error:      make([]float64, n),
	}
	for i := 0; i < n; i++ {
		w := lo + float64(i)*step
		f := continuum
		for _, l := range lines {
			d := (w - l.center) / l.sigma
			f += l.amp * math.Exp(-0.5*d*d)
		}
		sp.Wavelength[i] = w
		sp.Flux[i] = f
		sp.Error[i] = sampleErr
	}
	if err := sp.Validate(); err != nil {
		t.Fatalf("Invalid synthetic spectrum: %v", err)
	}
	return sp
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
