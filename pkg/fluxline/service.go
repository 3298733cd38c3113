package fluxline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/himanishpuri/fluxline/pkg/fluxline/artifacts"
	"github.com/himanishpuri/fluxline/pkg/fluxline/spectrumio"
	"github.com/himanishpuri/fluxline/pkg/logger"
	"github.com/himanishpuri/fluxline/pkg/models"
)

// fluxService is the default implementation of the Service interface.
type fluxService struct {
	store   *artifacts.Store
	catalog Catalog
	output  OutputWriter
	log     Logger
	config  *Config
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	store := artifacts.NewStore(cfg.ArtifactDir)

	cat := cfg.Catalog
	if cat == nil && cfg.DBPath != "" {
		var err error
		cat, err = NewSQLiteCatalog(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog: %w", err)
		}
	}

	out := cfg.Output
	if out == nil {
		out = NewFileOutput(store)
	}

	return &fluxService{
		store:   store,
		catalog: cat,
		output:  out,
		log:     cfg.Logger,
		config:  cfg,
	}, nil
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// checkStarName rejects names that would not stay a single file name inside
// the artifact directories.
func checkStarName(star string) error {
	switch {
	case star == "":
		return fmt.Errorf("%w: star name is required", ErrInvalidStarName)
	case star == "." || star == "..":
		return fmt.Errorf("%w: %q", ErrInvalidStarName, star)
	case strings.ContainsAny(star, `/\`) || strings.ContainsRune(star, 0):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidStarName, star)
	}
	return nil
}

// Run plans and executes a run. The grating is checked before any file is
// read.
func (s *fluxService) Run(ctx context.Context, req RunRequest) (*Result, error) {
	req.Star = normalize(req.Star)
	req.Grating = normalize(req.Grating)
	req.Instrument = normalize(req.Instrument)

	plan, err := s.Plan(req.Grating, req.Star)
	if err != nil {
		return nil, err
	}
	s.log.Infof("Plan %s", plan)

	if req.Spectrum == nil {
		if req.SpectrumPath == "" {
			return nil, errors.New("run request has neither a spectrum nor a spectrum path")
		}
		sp, err := spectrumio.LoadSpectrum(req.SpectrumPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load spectrum: %w", err)
		}
		req.Spectrum = &sp
	}
	if req.Lines == nil {
		if req.LineListPath == "" {
			return nil, errors.New("run request has neither reference lines nor a line list path")
		}
		lines, err := spectrumio.LoadLineList(req.LineListPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load line list: %w", err)
		}
		req.Lines = lines
	}

	return s.Execute(ctx, plan, req)
}

func (s *fluxService) ListStars() ([]models.StarSummary, error) {
	if s.catalog == nil {
		return nil, errors.New("catalog disabled")
	}
	return s.catalog.ListStars()
}

func (s *fluxService) GetStar(name string) (*models.StarDetail, error) {
	if s.catalog == nil {
		return nil, errors.New("catalog disabled")
	}
	return s.catalog.GetStar(name)
}

func (s *fluxService) Reset(star string, doppler bool) error {
	star = normalize(star)
	if err := checkStarName(star); err != nil {
		return err
	}

	if err := s.store.RemoveNoise(star); err != nil {
		return fmt.Errorf("failed to remove noise decisions: %w", err)
	}
	if doppler {
		if err := s.store.RemoveDoppler(star); err != nil {
			return fmt.Errorf("failed to remove doppler velocity: %w", err)
		}
	}
	if s.catalog != nil {
		if err := s.catalog.DeleteStar(star); err != nil {
			return fmt.Errorf("failed to delete catalog entries: %w", err)
		}
	}
	s.log.Infof("Reset %s (doppler=%v)", star, doppler)
	return nil
}

func (s *fluxService) Close() error {
	if s.catalog == nil {
		return nil
	}
	return s.catalog.Close()
}
