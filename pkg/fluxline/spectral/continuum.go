package spectral

import "math"

// Trend is the local continuum under a fitted line: the straight line through
// the first and last samples of the model curve, evaluated at every window
// wavelength.
func Trend(wavelength, modelX, modelY []float64) []float64 {
	out := make([]float64, len(wavelength))
	if len(modelX) == 0 || len(modelX) != len(modelY) {
		return out
	}

	x0, y0 := modelX[0], modelY[0]
	x1, y1 := modelX[len(modelX)-1], modelY[len(modelY)-1]
	if x1 == x0 {
		for i := range out {
			out[i] = y0
		}
		return out
	}

	slope := (y1 - y0) / (x1 - x0)
	for i, w := range wavelength {
		out[i] = y0 + slope*(w-x0)
	}
	return out
}

// BinEdges returns the lower and upper edge of every sample's wavelength bin.
// Interior edges sit halfway between samples; the outer edges mirror the
// neighbouring half step.
func BinEdges(w []float64) ([]float64, []float64) {
	n := len(w)
	lo := make([]float64, n)
	hi := make([]float64, n)
	if n == 0 {
		return lo, hi
	}
	if n == 1 {
		lo[0], hi[0] = w[0], w[0]
		return lo, hi
	}

	for i := 1; i < n; i++ {
		mid := 0.5 * (w[i-1] + w[i])
		hi[i-1] = mid
		lo[i] = mid
	}
	lo[0] = w[0] - 0.5*(w[1]-w[0])
	hi[n-1] = w[n-1] + 0.5*(w[n-1]-w[n-2])
	return lo, hi
}

// Measurement is the flux of one emission line before any noise override.
type Measurement struct {
	GaussianFlux  float64 // integral of the fit over the window
	ContinuumFlux float64 // integral of the trend over the window
	Flux          float64 // GaussianFlux - ContinuumFlux
	Error         float64 // sqrt(sum(error^2 * binwidth^2))
}

// Measure integrates a fitted line over its window.
func Measure(sp Spectrum, line EmissionLine) Measurement {
	win := sp.Slice(line.Start, line.End)
	if win.Len() == 0 {
		return Measurement{}
	}

	lo, hi := BinEdges(win.Wavelength)
	trend := Trend(win.Wavelength, line.ModelX, line.ModelY)

	var continuum, variance float64
	for i := range win.Wavelength {
		dw := hi[i] - lo[i]
		continuum += trend[i] * dw
		variance += win.Error[i] * win.Error[i] * dw * dw
	}

	xMin := win.Wavelength[0]
	xMax := win.Wavelength[win.Len()-1]
	total := GaussianIntegral(line.Fit, xMin, xMax)

	return Measurement{
		GaussianFlux:  total,
		ContinuumFlux: continuum,
		Flux:          total - continuum,
		Error:         math.Sqrt(variance),
	}
}
