package fluxline

import (
	"context"
	"fmt"

	"github.com/himanishpuri/fluxline/pkg/fluxline/spectral"
	"github.com/himanishpuri/fluxline/pkg/models"
)

// measuredLine pairs a fitted line with its integrated flux.
type measuredLine struct {
	line spectral.EmissionLine
	m    spectral.Measurement
}

// reviewLines asks the reviewer about every line in order and returns the
// complete decision vector. Nothing is returned unless every line was
// reviewed.
func reviewLines(ctx context.Context, r LineReviewer, star string, sp spectral.Spectrum, lines []measuredLine) ([]bool, error) {
	if r == nil {
		return nil, ErrNoReviewer
	}

	decisions := make([]bool, len(lines))
	for i, ml := range lines {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("review interrupted at line %d/%d: %w", i+1, len(lines), err)
		}

		win := sp.Slice(ml.line.Start, ml.line.End)
		view := LineView{
			Star:        star,
			Index:       i,
			Total:       len(lines),
			Line:        ml.line,
			Wavelength:  win.Wavelength,
			Flux:        win.Flux,
			Continuum:   spectral.Trend(win.Wavelength, ml.line.ModelX, ml.line.ModelY),
			Measurement: ml.m,
		}
		noise, err := r.Review(ctx, view)
		if err != nil {
			return nil, fmt.Errorf("reviewing %s: %w", ml.line, err)
		}
		decisions[i] = noise
	}
	return decisions, nil
}

// applyNoisePolicy turns a measurement into a flux record. Noise lines report
// an upper limit of -sigma times the error and no error of their own.
func applyNoisePolicy(ml measuredLine, noise bool, sigma float64) models.FluxRecord {
	rec := models.FluxRecord{
		Ion:        ml.line.Ion,
		Wavelength: ml.line.RestWavelength,
		Flux:       ml.m.Flux,
		Error:      ml.m.Error,
		Blended:    ml.line.Blended,
		Noise:      noise,
	}
	if noise {
		rec.Flux = -sigma * ml.m.Error
		rec.Error = 0
	}
	return rec
}

// buildTable applies decisions positionally and collects the flux table.
func buildTable(lines []measuredLine, decisions []bool, sigma float64) (*FluxTable, error) {
	if len(decisions) != len(lines) {
		return nil, fmt.Errorf("%w: %d decisions for %d lines", ErrNoiseVectorMismatch, len(decisions), len(lines))
	}
	table := NewFluxTable()
	for i, ml := range lines {
		table.Add(applyNoisePolicy(ml, decisions[i], sigma))
	}
	return table, nil
}
