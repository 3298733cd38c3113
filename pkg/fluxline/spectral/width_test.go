package spectral

import (
	"errors"
	"math"
	"testing"
)

func TestEstimatePeakWidth(t *testing.T) {
	sigma := 0.03
	sp := synthSpectrum(t, 1200, 1210, 0.01, 0.01, 0.001,
		synthLine{1203.00, 5, sigma},
		synthLine{1207.00, 5, sigma},
	)

	pw, err := EstimatePeakWidth("G130M", sp, DefaultRegimes(), 2)
	if err != nil {
		t.Fatalf("EstimatePeakWidth failed: %v", err)
	}

	hwhm := sigma * math.Sqrt(2*math.Ln2)
	if !approxEqual(pw.Width, hwhm, 0.002) {
		t.Errorf("Expected half-width ~%.4f Å, got %.4f", hwhm, pw.Width)
	}
	if !approxEqual(pw.WidthPixels, hwhm/0.01, 0.2) {
		t.Errorf("Expected half-width ~%.2f px, got %.2f", hwhm/0.01, pw.WidthPixels)
	}
	if !approxEqual(pw.FluxRange, 2*pw.Width, 1e-12) {
		t.Errorf("Expected flux range twice the width, got %f vs %f", pw.FluxRange, pw.Width)
	}
	if pw.Peaks != 2 {
		t.Errorf("Expected 2 peaks, got %d", pw.Peaks)
	}
}

func TestEstimatePeakWidthInvalidGrating(t *testing.T) {
	sp := synthSpectrum(t, 1200, 1201, 0.01, 0.01, 0.001, synthLine{1200.5, 5, 0.03})

	for _, g := range []string{"G185", "X", ""} {
		_, err := EstimatePeakWidth(g, sp, DefaultRegimes(), 2)
		if !errors.Is(err, ErrInvalidGrating) {
			t.Errorf("Grating %q: expected ErrInvalidGrating, got %v", g, err)
		}
	}
}

func TestEstimatePeakWidthNoPeaks(t *testing.T) {
	sp := synthSpectrum(t, 1200, 1201, 0.01, 0.01, 0.001)

	_, err := EstimatePeakWidth("G140L", sp, DefaultRegimes(), 2)
	if !errors.Is(err, ErrNoPeaks) {
		t.Errorf("Expected ErrNoPeaks on a flat spectrum, got %v", err)
	}
}
