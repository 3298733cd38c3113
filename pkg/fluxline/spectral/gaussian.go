package spectral

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// DefaultMaxFitEvaluations caps objective evaluations per Gaussian fit.
const DefaultMaxFitEvaluations = 100000

var ErrFitConvergence = errors.New("gaussian fit did not converge")

// FitConvergenceError describes why a window could not be fit.
type FitConvergenceError struct {
	Reason string
}

func (e *FitConvergenceError) Error() string {
	return fmt.Sprintf("%v: %s", ErrFitConvergence, e.Reason)
}

func (e *FitConvergenceError) Unwrap() error {
	return ErrFitConvergence
}

// GaussianParams describe a*exp(-(x-mean)^2 / (2*sigma^2)).
type GaussianParams struct {
	Amplitude float64
	Mean      float64
	Sigma     float64
}

func (g GaussianParams) At(x float64) float64 {
	d := (x - g.Mean) / g.Sigma
	return g.Amplitude * math.Exp(-0.5*d*d)
}

// FitGaussian least-squares fits a Gaussian to (w, f). The search starts from
// the window's peak flux, mean wavelength and wavelength spread, and runs in
// coordinates normalised by those scales so that tiny physical flux units do
// not trip the convergence tests.
func FitGaussian(w, f []float64, maxEvaluations int) (GaussianParams, error) {
	if len(w) != len(f) {
		return GaussianParams{}, &FitConvergenceError{Reason: "wavelength and flux windows differ in length"}
	}
	if len(w) < 3 {
		return GaussianParams{}, &FitConvergenceError{Reason: fmt.Sprintf("window holds %d samples, need at least 3", len(w))}
	}
	if maxEvaluations <= 0 {
		maxEvaluations = DefaultMaxFitEvaluations
	}

	center, spread := stat.MeanStdDev(w, nil)
	if spread == 0 {
		spread = 1
	}
	scale := math.Max(math.Abs(floats.Max(f)), math.Abs(floats.Min(f)))
	if scale == 0 {
		scale = 1
	}

	xs := make([]float64, len(w))
	ys := make([]float64, len(f))
	for i := range w {
		xs[i] = (w[i] - center) / spread
		ys[i] = f[i] / scale
	}

	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			if p[2] == 0 {
				return math.Inf(1)
			}
			g := GaussianParams{Amplitude: p[0], Mean: p[1], Sigma: p[2]}
			var sse float64
			for i, x := range xs {
				r := ys[i] - g.At(x)
				sse += r * r
			}
			return sse
		},
	}
	settings := &optimize.Settings{
		FuncEvaluations: maxEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-14,
			Relative:   1e-12,
			Iterations: 200,
		},
	}
	init := []float64{floats.Max(f) / scale, 0, 1}

	result, err := optimize.Minimize(problem, init, settings, &optimize.NelderMead{})
	if err != nil {
		return GaussianParams{}, &FitConvergenceError{Reason: err.Error()}
	}
	if !converged(result.Status) {
		return GaussianParams{}, &FitConvergenceError{
			Reason: fmt.Sprintf("optimizer stopped with status %v after %d evaluations", result.Status, result.Stats.FuncEvaluations),
		}
	}

	x := result.Location.X
	g := GaussianParams{
		Amplitude: x[0] * scale,
		Mean:      center + x[1]*spread,
		Sigma:     math.Abs(x[2]) * spread,
	}
	if !finite(g.Amplitude) || !finite(g.Mean) || !finite(g.Sigma) || g.Sigma == 0 {
		return GaussianParams{}, &FitConvergenceError{Reason: fmt.Sprintf("non-finite parameters %+v", g)}
	}
	return g, nil
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success,
		optimize.FunctionConvergence,
		optimize.FunctionThreshold,
		optimize.GradientThreshold,
		optimize.StepConvergence,
		optimize.MethodConverge:
		return true
	}
	return false
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// GaussianIntegral is the definite integral of g over [x0, x1].
func GaussianIntegral(g GaussianParams, x0, x1 float64) float64 {
	s := math.Abs(g.Sigma) * math.Sqrt2
	return g.Amplitude * math.Abs(g.Sigma) * math.Sqrt(math.Pi/2) *
		(math.Erf((x1-g.Mean)/s) - math.Erf((x0-g.Mean)/s))
}

// ModelCurve samples g at n evenly spaced points over [x0, x1].
func ModelCurve(g GaussianParams, x0, x1 float64, n int) ([]float64, []float64) {
	if n <= 0 {
		return nil, nil
	}
	xs := make([]float64, n)
	if n == 1 {
		xs[0] = x0
	} else {
		floats.Span(xs, x0, x1)
	}
	ys := make([]float64, n)
	for i, x := range xs {
		ys[i] = g.At(x)
	}
	return xs, ys
}
