package fluxline

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/himanishpuri/fluxline/pkg/fluxline/spectral"
	"github.com/himanishpuri/fluxline/pkg/models"
)

// Plan decides the run for star from the artifacts on disk.
func (s *fluxService) Plan(grating, star string) (Plan, error) {
	grating, star = normalize(grating), normalize(star)
	if _, err := s.config.Regimes.For(grating); err != nil {
		return Plan{}, err
	}
	if err := checkStarName(star); err != nil {
		return Plan{}, err
	}

	p := Plan{Star: star, Grating: grating, Doppler: ResolveDoppler, Noise: ReviewNoise, Flux: ComputeFlux}
	if s.store.HasDoppler(star) {
		p.Doppler = LoadDoppler
	}
	if s.store.HasNoise(star) {
		p.Noise = LoadNoise
		p.Flux = Abort
	}
	return p, nil
}

// Execute carries out plan. An aborting plan still measures every line and
// applies the stored decisions so the result can be reported, then returns
// the result together with ErrAlreadyComputed without writing anything.
func (s *fluxService) Execute(ctx context.Context, plan Plan, req RunRequest) (*Result, error) {
	cfg := s.config
	log := s.log

	if err := checkStarName(plan.Star); err != nil {
		return nil, err
	}
	if req.Spectrum == nil {
		return nil, errors.New("execute requires a loaded spectrum")
	}
	if err := req.Spectrum.Validate(); err != nil {
		return nil, fmt.Errorf("invalid spectrum: %w", err)
	}
	sp := req.Spectrum.Above(cfg.LowerCutoff)
	if sp.Len() < 3 {
		return nil, fmt.Errorf("%w (%.0f Å)", ErrEmptySpectrum, cfg.LowerCutoff)
	}

	res := &Result{Plan: plan}

	// 1. Characteristic line width for the grating
	width, err := spectral.EstimatePeakWidth(plan.Grating, sp, cfg.Regimes, cfg.WindowScale)
	if err != nil {
		return nil, fmt.Errorf("peak width estimation failed: %w", err)
	}
	res.Width = width
	log.Infof("Peak width %.4f Å (%.2f px) over %d peaks, flux range %.4f Å",
		width.Width, width.WidthPixels, width.Peaks, width.FluxRange)

	// 2. Doppler velocity, resolved once per star
	doppler, err := s.doppler(plan, sp, req.Lines, width)
	if err != nil {
		return nil, err
	}
	res.Doppler = doppler

	// 3. Fit windows
	windows := spectral.BuildWindows(req.Lines, doppler.Velocity, spectral.WindowParams{
		FluxRange:   width.FluxRange,
		BlendFactor: cfg.BlendFactor,
		LowerCutoff: cfg.LowerCutoff,
	})
	log.Debugf("Built %d windows from %d reference lines", len(windows), len(req.Lines))

	measured := make([]measuredLine, 0, len(windows))
	for _, w := range windows {
		line, err := spectral.FitWindow(sp, w, cfg.MaxFitEvaluations)
		if err != nil {
			if cfg.StrictFit {
				return nil, fmt.Errorf("fitting %s %.3f Å: %w", w.Line.Ion, w.Line.Wavelength, err)
			}
			log.Warnf("Skipping %s %.3f Å: %v", w.Line.Ion, w.Line.Wavelength, err)
			res.Skipped = append(res.Skipped, SkippedLine{Ion: w.Line.Ion, Wavelength: w.Line.Wavelength, Err: err})
			continue
		}
		measured = append(measured, measuredLine{line: line, m: spectral.Measure(sp, line)})
	}

	// 4. Noise decisions, reviewed once per star
	var decisions []bool
	switch plan.Noise {
	case LoadNoise:
		decisions, err = s.store.LoadNoise(plan.Star)
		if err != nil {
			return nil, fmt.Errorf("failed to load noise decisions: %w", err)
		}
	default:
		decisions, err = reviewLines(ctx, cfg.Reviewer, plan.Star, sp, measured)
		if err != nil {
			return nil, err
		}
	}

	table, err := buildTable(measured, decisions, cfg.NoiseSigma)
	if err != nil {
		return nil, err
	}
	res.Table = table
	res.Lines = make([]spectral.EmissionLine, len(measured))
	for i, ml := range measured {
		ml.line.Noise = decisions[i]
		res.Lines[i] = ml.line
	}

	if plan.Flux == Abort {
		return res, fmt.Errorf("%w (%s)", ErrAlreadyComputed, s.store.NoisePath(plan.Star))
	}

	if err := s.store.SaveNoise(plan.Star, decisions); err != nil {
		return nil, err
	}

	// 5. Outputs, written once per fresh run
	meta := models.RunMetadata{
		Date:            cfg.Now(),
		Filename:        req.SpectrumPath,
		Instrument:      req.Instrument,
		Grating:         plan.Grating,
		Star:            plan.Star,
		Doppler:         doppler.Velocity,
		PeakWidth:       width.Width,
		PeakWidthPixels: width.WidthPixels,
		FluxRange:       width.FluxRange,
		UpperLimit:      cfg.upperLimit(),
	}
	records := table.Records()

	paths, err := s.output.WriteFluxTable(meta, records)
	if err != nil {
		return nil, fmt.Errorf("failed to write flux table: %w", err)
	}
	res.Outputs = paths

	if s.catalog != nil {
		runID, err := s.catalog.SaveRun(meta, records)
		if err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
		res.RunID = runID
	}

	log.Infof("Computed %d fluxes across %d ions for %s (%d skipped)",
		table.Len(), len(table.Ions()), plan.Star, len(res.Skipped))
	return res, nil
}

// doppler loads the stored velocity or resolves and stores a new one.
func (s *fluxService) doppler(plan Plan, sp spectral.Spectrum, lines []spectral.ReferenceLine, width spectral.PeakWidth) (spectral.DopplerEstimate, error) {
	if plan.Doppler == LoadDoppler {
		v, err := s.store.LoadDoppler(plan.Star)
		if err != nil {
			return spectral.DopplerEstimate{}, fmt.Errorf("failed to load doppler velocity: %w", err)
		}
		s.log.Infof("Loaded doppler velocity %.3f km/s for %s", v, plan.Star)
		return spectral.DopplerEstimate{Velocity: v, Method: "stored"}, nil
	}

	regime, err := s.config.Regimes.For(plan.Grating)
	if err != nil {
		return spectral.DopplerEstimate{}, err
	}
	peaks := spectral.FindPeaks(sp.Flux, regime.Criteria(sp.MeanFlux()))

	est, err := spectral.EstimateDoppler(sp, lines, peaks, spectral.DopplerOptions{
		MaxVelocity: s.config.MaxVelocity,
		// half width at half maximum to Gaussian sigma
		LineSigma:   width.Width / math.Sqrt(2*math.Ln2),
		LowerCutoff: s.config.LowerCutoff,
	})
	if err != nil {
		return spectral.DopplerEstimate{}, fmt.Errorf("doppler resolution failed: %w", err)
	}
	if err := s.store.SaveDoppler(plan.Star, est.Velocity); err != nil {
		return spectral.DopplerEstimate{}, err
	}
	s.log.Infof("Resolved doppler velocity %.3f km/s for %s from %d matches (%s)",
		est.Velocity, plan.Star, est.Matches, est.Method)
	return est, nil
}
