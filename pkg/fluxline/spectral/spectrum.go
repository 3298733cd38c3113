package spectral

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Spectrum holds parallel wavelength (Å), flux and error samples.
// Wavelength must be strictly increasing.
type Spectrum struct {
	Wavelength []float64
	Flux       []float64
	Error      []float64
}

// ReferenceLine is one entry of the laboratory line list.
type ReferenceLine struct {
	Wavelength float64 // rest wavelength in Å
	Ion        string
}

func (s Spectrum) Len() int {
	return len(s.Wavelength)
}

// Validate checks that the three arrays line up and wavelength is increasing.
func (s Spectrum) Validate() error {
	n := len(s.Wavelength)
	if n == 0 {
		return errors.New("spectrum is empty")
	}
	if len(s.Flux) != n || len(s.Error) != n {
		return fmt.Errorf("spectrum arrays differ in length: wavelength=%d flux=%d error=%d",
			n, len(s.Flux), len(s.Error))
	}
	for i := 1; i < n; i++ {
		if s.Wavelength[i] <= s.Wavelength[i-1] {
			return fmt.Errorf("wavelength not strictly increasing at index %d (%.4f <= %.4f)",
				i, s.Wavelength[i], s.Wavelength[i-1])
		}
	}
	return nil
}

// Above returns the samples with wavelength strictly greater than cutoff.
// The returned spectrum shares storage with s.
func (s Spectrum) Above(cutoff float64) Spectrum {
	start := sort.Search(len(s.Wavelength), func(i int) bool {
		return s.Wavelength[i] > cutoff
	})
	return s.Slice(start, len(s.Wavelength))
}

// Slice returns the samples in [start, end).
func (s Spectrum) Slice(start, end int) Spectrum {
	return Spectrum{
		Wavelength: s.Wavelength[start:end],
		Flux:       s.Flux[start:end],
		Error:      s.Error[start:end],
	}
}

// IndexRange maps the open interval (lo, hi) onto the half-open index range
// [start, end) of the samples it contains.
func (s Spectrum) IndexRange(lo, hi float64) (int, int) {
	n := len(s.Wavelength)
	start := sort.Search(n, func(i int) bool { return s.Wavelength[i] > lo })
	end := sort.Search(n, func(i int) bool { return s.Wavelength[i] >= hi })
	if end < start {
		end = start
	}
	return start, end
}

// MeanFlux is the arithmetic mean of the flux samples.
func (s Spectrum) MeanFlux() float64 {
	if len(s.Flux) == 0 {
		return 0
	}
	return stat.Mean(s.Flux, nil)
}

// interpolate returns the wavelength at fractional sample position pos.
func interpolate(x []float64, pos float64) float64 {
	if len(x) == 0 {
		return 0
	}
	if pos <= 0 {
		return x[0]
	}
	last := len(x) - 1
	if pos >= float64(last) {
		return x[last]
	}
	i := int(pos)
	frac := pos - float64(i)
	return x[i] + frac*(x[i+1]-x[i])
}
