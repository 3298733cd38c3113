package fluxline

import (
	"fmt"

	"github.com/himanishpuri/fluxline/pkg/fluxline/artifacts"
	"github.com/himanishpuri/fluxline/pkg/fluxline/spectrumio"
	"github.com/himanishpuri/fluxline/pkg/models"
)

// fileOutput writes the flux table as ECSV and FITS under the artifact dir.
type fileOutput struct {
	store *artifacts.Store
}

func NewFileOutput(store *artifacts.Store) OutputWriter {
	return &fileOutput{store: store}
}

func (o *fileOutput) WriteFluxTable(meta models.RunMetadata, records []models.FluxRecord) ([]string, error) {
	if err := o.store.EnsureFluxDir(); err != nil {
		return nil, fmt.Errorf("creating flux dir: %w", err)
	}

	ecsvPath := o.store.FluxPath(meta.Star, ".ecsv")
	if err := spectrumio.WriteECSVFile(ecsvPath, meta, records); err != nil {
		return nil, fmt.Errorf("writing %s: %w", ecsvPath, err)
	}

	fitsPath := o.store.FluxPath(meta.Star, ".fits")
	if err := spectrumio.WriteFluxFITSFile(fitsPath, meta, records); err != nil {
		return []string{ecsvPath}, fmt.Errorf("writing %s: %w", fitsPath, err)
	}
	return []string{ecsvPath, fitsPath}, nil
}
