package fluxline

import (
	"errors"

	"github.com/himanishpuri/fluxline/pkg/fluxline/spectral"
	"github.com/himanishpuri/fluxline/pkg/fluxline/storage"
)

var (
	ErrInvalidGrating    = spectral.ErrInvalidGrating
	ErrNoPeaks           = spectral.ErrNoPeaks
	ErrFitConvergence    = spectral.ErrFitConvergence
	ErrDopplerUnresolved = spectral.ErrDopplerUnresolved
	ErrStarNotFound      = storage.ErrStarNotFound

	// ErrAlreadyComputed ends a run whose noise decisions are already on disk.
	ErrAlreadyComputed = errors.New("flux already computed for this star; delete the noise file to recompute")

	ErrNoiseVectorMismatch = errors.New("stored noise decisions do not match the emission lines")
	ErrNoReviewer          = errors.New("no line reviewer configured")
	ErrEmptySpectrum       = errors.New("no spectrum samples above the lower cutoff")
	ErrInvalidStarName     = errors.New("invalid star name")
)

type FitConvergenceError = spectral.FitConvergenceError
