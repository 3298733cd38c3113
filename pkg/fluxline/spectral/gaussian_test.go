package spectral

import (
	"errors"
	"math"
	"testing"
)

func TestFitGaussianRecoversParameters(t *testing.T) {
	want := GaussianParams{Amplitude: 5, Mean: 1300.2, Sigma: 0.03}
	sp := synthSpectrum(t, 1300.05, 1300.35, 0.005, 0, 0.01,
		synthLine{want.Mean, want.Amplitude, want.Sigma})

	got, err := FitGaussian(sp.Wavelength, sp.Flux, DefaultMaxFitEvaluations)
	if err != nil {
		t.Fatalf("FitGaussian failed: %v", err)
	}

	if !approxEqual(got.Amplitude, want.Amplitude, 0.05) {
		t.Errorf("Expected amplitude %.3f, got %.3f", want.Amplitude, got.Amplitude)
	}
	if !approxEqual(got.Mean, want.Mean, 1e-3) {
		t.Errorf("Expected mean %.4f, got %.4f", want.Mean, got.Mean)
	}
	if !approxEqual(got.Sigma, want.Sigma, 1e-3) {
		t.Errorf("Expected sigma %.4f, got %.4f", want.Sigma, got.Sigma)
	}
}

func TestFitGaussianTinyFluxUnits(t *testing.T) {
	// HST fluxes sit around 1e-14 erg/s/cm^2/Å
	sp := synthSpectrum(t, 1300.05, 1300.35, 0.005, 0, 0,
		synthLine{1300.2, 4e-14, 0.03})

	got, err := FitGaussian(sp.Wavelength, sp.Flux, DefaultMaxFitEvaluations)
	if err != nil {
		t.Fatalf("FitGaussian failed: %v", err)
	}
	if math.Abs(got.Amplitude-4e-14)/4e-14 > 0.02 {
		t.Errorf("Expected amplitude ~4e-14, got %g", got.Amplitude)
	}
	if !approxEqual(got.Mean, 1300.2, 1e-3) {
		t.Errorf("Expected mean 1300.2, got %.4f", got.Mean)
	}
}

func TestFitGaussianTooFewSamples(t *testing.T) {
	_, err := FitGaussian([]float64{1, 2}, []float64{1, 1}, 0)

	var fitErr *FitConvergenceError
	if !errors.As(err, &fitErr) {
		t.Fatalf("Expected *FitConvergenceError, got %v", err)
	}
	if !errors.Is(err, ErrFitConvergence) {
		t.Error("Expected error to wrap ErrFitConvergence")
	}
}

func TestFitGaussianMismatchedWindow(t *testing.T) {
	_, err := FitGaussian([]float64{1, 2, 3}, []float64{1, 2}, 0)
	if !errors.Is(err, ErrFitConvergence) {
		t.Errorf("Expected ErrFitConvergence, got %v", err)
	}
}

func TestGaussianIntegral(t *testing.T) {
	g := GaussianParams{Amplitude: 2, Mean: 1400, Sigma: 0.1}
	full := g.Amplitude * g.Sigma * math.Sqrt(2*math.Pi)

	if got := GaussianIntegral(g, 1390, 1410); !approxEqual(got, full, 1e-9) {
		t.Errorf("Expected full integral %.6f, got %.6f", full, got)
	}
	if got := GaussianIntegral(g, 1400, 1410); !approxEqual(got, full/2, 1e-9) {
		t.Errorf("Expected half integral %.6f, got %.6f", full/2, got)
	}
	if got := GaussianIntegral(g, 1400, 1400); got != 0 {
		t.Errorf("Expected zero over an empty interval, got %f", got)
	}

	prev := 0.0
	for _, hi := range []float64{1399.9, 1400, 1400.1, 1400.3} {
		got := GaussianIntegral(g, 1399.5, hi)
		if got < prev {
			t.Errorf("Integral should grow with the upper bound: %f after %f", got, prev)
		}
		prev = got
	}
}

func TestModelCurve(t *testing.T) {
	g := GaussianParams{Amplitude: 3, Mean: 1500, Sigma: 0.05}

	xs, ys := ModelCurve(g, 1499.8, 1500.2, 41)
	if len(xs) != 41 || len(ys) != 41 {
		t.Fatalf("Expected 41 samples, got %d/%d", len(xs), len(ys))
	}
	if xs[0] != 1499.8 || xs[40] != 1500.2 {
		t.Errorf("Expected endpoints 1499.8..1500.2, got %f..%f", xs[0], xs[40])
	}
	if !approxEqual(ys[20], 3, 1e-9) {
		t.Errorf("Expected the centre sample to hit the amplitude, got %f", ys[20])
	}

	if xs, ys := ModelCurve(g, 0, 1, 0); xs != nil || ys != nil {
		t.Error("Expected nil curve for zero samples")
	}
}
