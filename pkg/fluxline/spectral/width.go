package spectral

import (
	"errors"
	"fmt"
)

var ErrNoPeaks = errors.New("no peaks detected")

// PeakWidth sizes every fit window of a run.
type PeakWidth struct {
	Width       float64 // representative line half-width in Å
	WidthPixels float64 // the same half-width in samples
	FluxRange   float64 // half-window applied around each observed wavelength, in Å
	Peaks       int     // number of peaks the estimate was averaged over
}

// EstimatePeakWidth detects peaks with the grating's regime and averages their
// half-prominence widths. The returned flux range is the half-width scaled by
// windowScale.
func EstimatePeakWidth(grating string, sp Spectrum, regimes RegimeSet, windowScale float64) (PeakWidth, error) {
	regime, err := regimes.For(grating)
	if err != nil {
		return PeakWidth{}, err
	}
	if windowScale <= 0 {
		return PeakWidth{}, fmt.Errorf("window scale must be > 0, got %g", windowScale)
	}

	peaks := FindPeaks(sp.Flux, regime.Criteria(sp.MeanFlux()))
	if len(peaks) == 0 {
		return PeakWidth{}, fmt.Errorf("%w: %s regime over %d samples", ErrNoPeaks, regime.Name, sp.Len())
	}

	var sumPixels, sumAngstrom float64
	for _, p := range peaks {
		sumPixels += p.Width
		sumAngstrom += interpolate(sp.Wavelength, p.RightIP) - interpolate(sp.Wavelength, p.LeftIP)
	}
	n := float64(len(peaks))

	// widths are full widths; the estimator reports half-widths
	width := sumAngstrom / n / 2
	return PeakWidth{
		Width:       width,
		WidthPixels: sumPixels / n / 2,
		FluxRange:   width * windowScale,
		Peaks:       len(peaks),
	}, nil
}
