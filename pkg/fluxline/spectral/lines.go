package spectral

import "fmt"

// EmissionLine is a fitted window: a single reference line or a blend.
type EmissionLine struct {
	RestWavelength float64
	Ion            string
	Observed       float64
	// Start and End delimit the window samples [Start, End) of the spectrum
	// the line was fit against.
	Start   int
	End     int
	Noise   bool
	Blended bool
	Members []ReferenceLine
	Fit     GaussianParams
	ModelX  []float64
	ModelY  []float64
}

func (l EmissionLine) String() string {
	tag := ""
	if l.Blended {
		tag = fmt.Sprintf(" (blend of %d)", len(l.Members))
	}
	return fmt.Sprintf("%s %.3f Å obs %.3f Å%s", l.Ion, l.RestWavelength, l.Observed, tag)
}

// FitWindow fits a Gaussian to the samples of w and returns the resulting
// emission line.
func FitWindow(sp Spectrum, w Window, maxEvaluations int) (EmissionLine, error) {
	start, end := sp.IndexRange(w.Lower, w.Upper)
	line := EmissionLine{
		RestWavelength: w.Line.Wavelength,
		Ion:            w.Line.Ion,
		Observed:       w.Observed,
		Start:          start,
		End:            end,
		Blended:        w.Blended,
		Members:        w.Members,
	}

	win := sp.Slice(start, end)
	fit, err := FitGaussian(win.Wavelength, win.Flux, maxEvaluations)
	if err != nil {
		return line, err
	}
	line.Fit = fit
	line.ModelX, line.ModelY = ModelCurve(fit, win.Wavelength[0], win.Wavelength[win.Len()-1], win.Len())
	return line, nil
}
