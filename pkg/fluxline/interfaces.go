package fluxline

import (
	"context"

	"github.com/himanishpuri/fluxline/pkg/models"
)

type Service interface {
	// Plan inspects the stored artifacts of a star and decides what a run
	// would do, without touching the spectrum.
	Plan(grating, star string) (Plan, error)
	// Execute performs only the actions of plan. The request must carry a
	// loaded spectrum and line list.
	Execute(ctx context.Context, plan Plan, req RunRequest) (*Result, error)
	// Run loads the request's inputs, plans and executes.
	Run(ctx context.Context, req RunRequest) (*Result, error)
	ListStars() ([]models.StarSummary, error)
	GetStar(name string) (*models.StarDetail, error)
	// Reset deletes the noise decisions and catalog rows of a star, and the
	// stored Doppler velocity when doppler is set.
	Reset(star string, doppler bool) error
	Close() error
}

// Catalog records completed runs.
type Catalog interface {
	SaveRun(meta models.RunMetadata, records []models.FluxRecord) (string, error)
	ListStars() ([]models.StarSummary, error)
	GetStar(name string) (*models.StarDetail, error)
	DeleteStar(name string) error
	Close() error
}

// OutputWriter persists the flux table of a fresh run and returns the paths
// it wrote.
type OutputWriter interface {
	WriteFluxTable(meta models.RunMetadata, records []models.FluxRecord) ([]string, error)
}

// LineReviewer decides whether a fitted line is noise.
type LineReviewer interface {
	Review(ctx context.Context, view LineView) (noise bool, err error)
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
