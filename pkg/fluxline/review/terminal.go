package review

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/himanishpuri/fluxline/pkg/fluxline"
)

const levels = " ▁▂▃▄▅▆▇█"

var ErrTerminalClosed = errors.New("terminal reviewer closed")

type lineResult struct {
	text string
	err  error
}

// Terminal prints a text profile of each line and reads a y/n answer.
// y keeps the line as signal, n marks it as noise.
type Terminal struct {
	in    io.Reader
	out   io.Writer
	width int

	once     sync.Once
	lines    chan lineResult
	stop     sync.Once
	done     chan struct{} // closed by Close; the reader stops sending
	finished chan struct{} // closed when the reader returns
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:       in,
		out:      out,
		width:    64,
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Close stops the reviewer. A reader blocked on input exits after its next
// line instead of waiting for a review that will not come.
func (t *Terminal) Close() error {
	t.stop.Do(func() { close(t.done) })
	return nil
}

// readLines feeds input lines into a channel so a blocked read can be
// abandoned when the context ends.
func (t *Terminal) readLines() {
	t.lines = make(chan lineResult)
	go func() {
		defer close(t.finished)
		send := func(r lineResult) bool {
			select {
			case t.lines <- r:
				return true
			case <-t.done:
				return false
			}
		}

		sc := bufio.NewScanner(t.in)
		for sc.Scan() {
			if !send(lineResult{text: sc.Text()}) {
				return
			}
		}
		err := sc.Err()
		if err == nil {
			err = io.EOF
		}
		if send(lineResult{err: err}) {
			close(t.lines)
		}
	}()
}

// Review asks about one line. A cancelled context closes the terminal.
func (t *Terminal) Review(ctx context.Context, view fluxline.LineView) (bool, error) {
	select {
	case <-t.done:
		return false, ErrTerminalClosed
	default:
	}
	t.once.Do(t.readLines)

	fmt.Fprint(t.out, Render(view, t.width))
	for {
		fmt.Fprint(t.out, "Signal? [y = keep, n = noise]: ")
		select {
		case <-t.done:
			return false, ErrTerminalClosed
		case <-ctx.Done():
			fmt.Fprintln(t.out)
			t.Close()
			return false, ctx.Err()
		case res, ok := <-t.lines:
			if !ok {
				return false, io.ErrUnexpectedEOF
			}
			if res.err != nil {
				return false, fmt.Errorf("reading answer: %w", res.err)
			}
			switch strings.ToLower(strings.TrimSpace(res.text)) {
			case "y", "yes":
				return false, nil
			case "n", "no":
				return true, nil
			}
			fmt.Fprintln(t.out, "please answer y or n")
		}
	}
}

// Render draws the flux, fit and continuum of a line as sparklines with the
// rest (R) and observed (O) wavelengths marked underneath.
func Render(view fluxline.LineView, width int) string {
	var b strings.Builder
	l := view.Line

	fmt.Fprintf(&b, "\n[%d/%d] %s  %s\n", view.Index+1, view.Total, view.Star, l)
	fmt.Fprintf(&b, "  fit: a=%.3g mu=%.3f sigma=%.4f  flux=%.3g ± %.3g\n",
		l.Fit.Amplitude, l.Fit.Mean, l.Fit.Sigma, view.Measurement.Flux, view.Measurement.Error)
	if len(view.Wavelength) == 0 {
		return b.String()
	}

	n := len(view.Wavelength)
	if width <= 0 || width > n {
		width = n
	}
	flux := resample(view.Flux, width)
	fit := resample(l.ModelY, width)
	cont := resample(view.Continuum, width)

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range [][]float64{flux, fit, cont} {
		for _, v := range s {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	fmt.Fprintf(&b, "  flux      %s\n", spark(flux, lo, hi))
	fmt.Fprintf(&b, "  fit       %s\n", spark(fit, lo, hi))
	fmt.Fprintf(&b, "  continuum %s\n", spark(cont, lo, hi))

	marks := []rune(strings.Repeat(" ", width))
	w0, w1 := view.Wavelength[0], view.Wavelength[n-1]
	mark := func(x float64, r rune) {
		if w1 == w0 || x < w0 || x > w1 {
			return
		}
		i := int(math.Round((x - w0) / (w1 - w0) * float64(width-1)))
		marks[i] = r
	}
	mark(l.RestWavelength, 'R')
	mark(l.Observed, 'O')
	fmt.Fprintf(&b, "            %s\n", string(marks))
	fmt.Fprintf(&b, "            %.3f%*s%.3f Å\n", w0, max(width-16, 1), "", w1)
	return b.String()
}

// resample averages x into width buckets.
func resample(x []float64, width int) []float64 {
	if len(x) == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	for i := range out {
		a := i * len(x) / width
		z := (i + 1) * len(x) / width
		if z <= a {
			z = a + 1
		}
		var sum float64
		for _, v := range x[a:z] {
			sum += v
		}
		out[i] = sum / float64(z-a)
	}
	return out
}

func spark(x []float64, lo, hi float64) string {
	steps := []rune(levels)
	var b strings.Builder
	for _, v := range x {
		k := 0
		if hi > lo {
			k = int(math.Round((v - lo) / (hi - lo) * float64(len(steps)-1)))
		}
		b.WriteRune(steps[k])
	}
	return b.String()
}
