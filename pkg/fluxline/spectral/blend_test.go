package spectral

import "testing"

func windowParams() WindowParams {
	return WindowParams{FluxRange: 0.1, BlendFactor: 2, LowerCutoff: 1160}
}

func TestBuildWindowsCloseLinesMerge(t *testing.T) {
	p := windowParams()
	lines := []ReferenceLine{
		{Wavelength: 1200.00, Ion: "Si III"},
		{Wavelength: 1200.00 + 1.5*p.FluxRange, Ion: "Si III"},
	}

	windows := BuildWindows(lines, 0, p)
	if len(windows) != 1 {
		t.Fatalf("Expected 1 merged window, got %d", len(windows))
	}
	w := windows[0]
	if !w.Blended {
		t.Error("Expected merged window to be flagged as blended")
	}
	if len(w.Members) != 2 {
		t.Errorf("Expected 2 members, got %d", len(w.Members))
	}
	if !approxEqual(w.Lower, 1200.00-p.FluxRange, 1e-9) {
		t.Errorf("Expected lower bound %.3f, got %.3f", 1200.00-p.FluxRange, w.Lower)
	}
	if !approxEqual(w.Upper, lines[1].Wavelength+p.FluxRange, 1e-9) {
		t.Errorf("Expected upper bound %.3f, got %.3f", lines[1].Wavelength+p.FluxRange, w.Upper)
	}
	if w.Line != lines[1] {
		t.Errorf("Expected merged window to be named after the later line, got %+v", w.Line)
	}
}

func TestBuildWindowsDistantLinesStayApart(t *testing.T) {
	p := windowParams()
	lines := []ReferenceLine{
		{Wavelength: 1200.00, Ion: "Si III"},
		{Wavelength: 1200.00 + 5*p.FluxRange, Ion: "N V"},
	}

	windows := BuildWindows(lines, 0, p)
	if len(windows) != 2 {
		t.Fatalf("Expected 2 windows, got %d", len(windows))
	}
	for i, w := range windows {
		if w.Blended {
			t.Errorf("Window %d should not be blended", i)
		}
		if !approxEqual(w.Upper-w.Lower, 2*p.FluxRange, 1e-9) {
			t.Errorf("Window %d: expected width %.3f, got %.3f", i, 2*p.FluxRange, w.Upper-w.Lower)
		}
	}
}

func TestBuildWindowsMergeReducesCountByOne(t *testing.T) {
	p := windowParams()
	base := []ReferenceLine{
		{Wavelength: 1200, Ion: "A"},
		{Wavelength: 1210, Ion: "B"},
		{Wavelength: 1220, Ion: "C"},
	}
	withBlend := []ReferenceLine{
		base[0],
		base[1],
		{Wavelength: 1210 + p.FluxRange, Ion: "B2"},
		base[2],
	}

	unmerged := len(withBlend)
	got := len(BuildWindows(withBlend, 0, p))
	if got != unmerged-1 {
		t.Errorf("Expected %d windows, got %d", unmerged-1, got)
	}
	if n := len(BuildWindows(base, 0, p)); n != 3 {
		t.Errorf("Expected 3 windows without blends, got %d", n)
	}
}

func TestBuildWindowsChainExtendsFromFirstLeftBound(t *testing.T) {
	p := windowParams()
	lines := []ReferenceLine{
		{Wavelength: 1300.00, Ion: "O I"},
		{Wavelength: 1300.15, Ion: "O I"},
		{Wavelength: 1300.30, Ion: "O I"},
	}

	windows := BuildWindows(lines, 0, p)
	if len(windows) != 1 {
		t.Fatalf("Expected a single chained blend, got %d windows", len(windows))
	}
	w := windows[0]
	if !approxEqual(w.Lower, 1300.00-p.FluxRange, 1e-9) {
		t.Errorf("Expected chain to keep the first left bound %.3f, got %.3f", 1300.00-p.FluxRange, w.Lower)
	}
	if !approxEqual(w.Upper, 1300.30+p.FluxRange, 1e-9) {
		t.Errorf("Expected chain to extend to %.3f, got %.3f", 1300.30+p.FluxRange, w.Upper)
	}
	if len(w.Members) != 3 {
		t.Errorf("Expected 3 members, got %d", len(w.Members))
	}
}

func TestBuildWindowsNonOverlappingWindowsInvariant(t *testing.T) {
	p := windowParams()
	lines := []ReferenceLine{
		{Wavelength: 1200.00}, {Wavelength: 1200.12}, {Wavelength: 1200.50},
		{Wavelength: 1200.61}, {Wavelength: 1200.70}, {Wavelength: 1201.50},
	}

	windows := BuildWindows(lines, 25, p)
	for i := 1; i < len(windows); i++ {
		if windows[i].Lower < windows[i-1].Upper {
			t.Errorf("Windows %d and %d overlap: %.3f < %.3f", i-1, i, windows[i].Lower, windows[i-1].Upper)
		}
	}
}

func TestBuildWindowsSkipsBelowCutoff(t *testing.T) {
	p := windowParams()
	lines := []ReferenceLine{
		{Wavelength: 1150, Ion: "skip"},
		{Wavelength: 1160, Ion: "skip"},
		{Wavelength: 1160.05, Ion: "keep"},
	}

	windows := BuildWindows(lines, 0, p)
	if len(windows) != 1 {
		t.Fatalf("Expected 1 window, got %d", len(windows))
	}
	// the first qualifying line can never be a blend even though a skipped line sits close by
	if windows[0].Blended {
		t.Error("First qualifying line must not be blended")
	}
}

func TestBuildWindowsAppliesDoppler(t *testing.T) {
	p := windowParams()
	v := 60.0

	windows := BuildWindows([]ReferenceLine{{Wavelength: 1400}}, v, p)
	expected := Shift(1400, v)
	if !approxEqual(windows[0].Observed, expected, 1e-9) {
		t.Errorf("Expected observed %.4f, got %.4f", expected, windows[0].Observed)
	}
}

func TestWindowBuilderState(t *testing.T) {
	b := NewWindowBuilder(windowParams())

	b.Add(ReferenceLine{Wavelength: 1200}, 1200)
	if b.State() != Standalone {
		t.Errorf("Expected standalone after first line, got %s", b.State())
	}
	b.Add(ReferenceLine{Wavelength: 1200.1}, 1200.1)
	if b.State() != MergedOpen {
		t.Errorf("Expected merged-open after a blend, got %s", b.State())
	}
	b.Add(ReferenceLine{Wavelength: 1201}, 1201)
	if b.State() != Standalone {
		t.Errorf("Expected standalone after a distant line, got %s", b.State())
	}
	if n := len(b.Windows()); n != 2 {
		t.Errorf("Expected 2 windows, got %d", n)
	}
}
