package fluxline

import (
	"errors"
	"fmt"
	"time"

	"github.com/himanishpuri/fluxline/pkg/fluxline/spectral"
)

type Config struct {
	ArtifactDir string
	DBPath      string

	LowerCutoff       float64 // Å; samples and lines at or below are ignored
	BlendFactor       float64 // lines closer than BlendFactor*flux_range are merged
	WindowScale       float64 // flux_range = WindowScale * peak width
	NoiseSigma        float64 // noise lines report -NoiseSigma*error
	MaxVelocity       float64 // km/s, Doppler search radius
	MaxFitEvaluations int
	StrictFit         bool // a failed fit aborts the run instead of skipping the line
	Regimes           spectral.RegimeSet

	Logger   Logger
	Catalog  Catalog
	Reviewer LineReviewer
	Output   OutputWriter
	Now      func() time.Time
}

type Option func(*Config)

func WithArtifactDir(dir string) Option {
	return func(c *Config) {
		c.ArtifactDir = dir
	}
}

// WithDBPath sets the catalog database. An empty path disables the catalog.
func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithLowerCutoff(angstrom float64) Option {
	return func(c *Config) {
		c.LowerCutoff = angstrom
	}
}

func WithBlendFactor(f float64) Option {
	return func(c *Config) {
		c.BlendFactor = f
	}
}

func WithWindowScale(s float64) Option {
	return func(c *Config) {
		c.WindowScale = s
	}
}

func WithNoiseSigma(sigma float64) Option {
	return func(c *Config) {
		c.NoiseSigma = sigma
	}
}

func WithMaxVelocity(kms float64) Option {
	return func(c *Config) {
		c.MaxVelocity = kms
	}
}

func WithMaxFitEvaluations(n int) Option {
	return func(c *Config) {
		c.MaxFitEvaluations = n
	}
}

func WithStrictFit(strict bool) Option {
	return func(c *Config) {
		c.StrictFit = strict
	}
}

func WithRegimes(r spectral.RegimeSet) Option {
	return func(c *Config) {
		c.Regimes = r
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithCatalog(cat Catalog) Option {
	return func(c *Config) {
		c.Catalog = cat
	}
}

func WithReviewer(r LineReviewer) Option {
	return func(c *Config) {
		c.Reviewer = r
	}
}

func WithOutput(w OutputWriter) Option {
	return func(c *Config) {
		c.Output = w
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
	}
}

func defaultConfig() *Config {
	return &Config{
		ArtifactDir:       ".",
		DBPath:            "fluxline.sqlite3",
		LowerCutoff:       1160,
		BlendFactor:       2,
		WindowScale:       2,
		NoiseSigma:        3,
		MaxVelocity:       300,
		MaxFitEvaluations: spectral.DefaultMaxFitEvaluations,
		Regimes:           spectral.DefaultRegimes(),
		Now:               time.Now,
	}
}

func (c *Config) validate() error {
	var errs []error
	if c.BlendFactor <= 0 {
		errs = append(errs, fmt.Errorf("blend factor must be > 0, got %g", c.BlendFactor))
	}
	if c.WindowScale <= 0 {
		errs = append(errs, fmt.Errorf("window scale must be > 0, got %g", c.WindowScale))
	}
	if c.NoiseSigma < 0 {
		errs = append(errs, fmt.Errorf("noise sigma must be >= 0, got %g", c.NoiseSigma))
	}
	if c.MaxVelocity <= 0 {
		errs = append(errs, fmt.Errorf("max velocity must be > 0, got %g", c.MaxVelocity))
	}
	if c.MaxFitEvaluations <= 0 {
		errs = append(errs, fmt.Errorf("max fit evaluations must be > 0, got %d", c.MaxFitEvaluations))
	}
	if c.ArtifactDir == "" {
		errs = append(errs, errors.New("artifact dir must not be empty"))
	}
	return errors.Join(errs...)
}

// upperLimit is the noise convention recorded in the output metadata.
func (c *Config) upperLimit() string {
	return fmt.Sprintf("%g*error", c.NoiseSigma)
}
