package review

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/himanishpuri/fluxline/pkg/fluxline"
	"github.com/himanishpuri/fluxline/pkg/fluxline/spectral"
)

func testView() fluxline.LineView {
	g := spectral.GaussianParams{Amplitude: 5, Mean: 1206.6, Sigma: 0.03}
	w := make([]float64, 41)
	f := make([]float64, 41)
	for i := range w {
		w[i] = 1206.4 + float64(i)*0.01
		f[i] = g.At(w[i]) + 0.1
	}
	mx, my := spectral.ModelCurve(g, w[0], w[40], 41)
	return fluxline.LineView{
		Star:       "AU MIC",
		Index:      0,
		Total:      3,
		Wavelength: w,
		Flux:       f,
		Continuum:  spectral.Trend(w, mx, my),
		Line: spectral.EmissionLine{
			RestWavelength: 1206.5, Ion: "Si III", Observed: 1206.6,
			Fit: g, ModelX: mx, ModelY: my,
		},
	}
}

func TestReplay(t *testing.T) {
	r := NewReplay(true, false)
	ctx := context.Background()

	for i, want := range []bool{true, false} {
		got, err := r.Review(ctx, testView())
		if err != nil {
			t.Fatalf("Review %d failed: %v", i, err)
		}
		if got != want {
			t.Errorf("Review %d: expected %v, got %v", i, want, got)
		}
	}

	if _, err := r.Review(ctx, testView()); !errors.Is(err, ErrReplayExhausted) {
		t.Errorf("Expected ErrReplayExhausted, got %v", err)
	}
	if r.Calls() != 2 {
		t.Errorf("Expected 2 answered calls, got %d", r.Calls())
	}
}

func TestReplayCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewReplay(true).Review(ctx, testView()); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestTerminalAnswers(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader("maybe\nn\ny\n"), &out)
	ctx := context.Background()

	noise, err := term.Review(ctx, testView())
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if !noise {
		t.Error("Expected 'n' to mark the line as noise")
	}

	noise, err = term.Review(ctx, testView())
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if noise {
		t.Error("Expected 'y' to keep the line as signal")
	}

	if !strings.Contains(out.String(), "please answer y or n") {
		t.Error("Expected a retry prompt for an invalid answer")
	}
	if !strings.Contains(out.String(), "[1/3] AU MIC") {
		t.Errorf("Expected the line header in the output, got %q", out.String())
	}

	if _, err := term.Review(ctx, testView()); !errors.Is(err, io.EOF) {
		t.Errorf("Expected EOF once input runs out, got %v", err)
	}
}

func TestTerminalCancelledWhileWaiting(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	term := NewTerminal(pr, io.Discard)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := term.Review(ctx, testView())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}

	// a late answer must not leave the reader stuck on its send
	go pw.Write([]byte("y\n"))
	select {
	case <-term.finished:
	case <-time.After(time.Second):
		t.Fatal("Expected the input reader to stop after cancellation")
	}

	if _, err := term.Review(context.Background(), testView()); !errors.Is(err, ErrTerminalClosed) {
		t.Errorf("Expected ErrTerminalClosed after cancellation, got %v", err)
	}
}

func TestTerminalClose(t *testing.T) {
	term := NewTerminal(strings.NewReader("y\n"), io.Discard)
	term.Close()
	term.Close()

	if _, err := term.Review(context.Background(), testView()); !errors.Is(err, ErrTerminalClosed) {
		t.Errorf("Expected ErrTerminalClosed, got %v", err)
	}
}

func TestRender(t *testing.T) {
	out := Render(testView(), 20)

	for _, want := range []string{"Si III", "flux ", "fit ", "continuum ", "R", "O"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected render to contain %q\n%s", want, out)
		}
	}
	if !strings.Contains(out, "█") {
		t.Error("Expected the line peak to reach the top level")
	}
}

func TestResample(t *testing.T) {
	got := resample([]float64{1, 3, 5, 7}, 2)
	if len(got) != 2 || got[0] != 2 || got[1] != 6 {
		t.Errorf("Expected [2 6], got %v", got)
	}
}
