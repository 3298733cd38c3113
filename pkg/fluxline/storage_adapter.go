package fluxline

import (
	"github.com/himanishpuri/fluxline/pkg/fluxline/storage"
	"github.com/himanishpuri/fluxline/pkg/models"
)

// storageAdapter adapts the storage.DBClient to implement the Catalog interface.
type storageAdapter struct {
	db *storage.DBClient
}

// NewSQLiteCatalog opens (or creates) the SQLite catalog at dbPath.
func NewSQLiteCatalog(dbPath string) (Catalog, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

func (s *storageAdapter) SaveRun(meta models.RunMetadata, records []models.FluxRecord) (string, error) {
	return s.db.SaveRun(meta, records)
}

func (s *storageAdapter) ListStars() ([]models.StarSummary, error) {
	return s.db.ListStars()
}

func (s *storageAdapter) GetStar(name string) (*models.StarDetail, error) {
	return s.db.GetStar(name)
}

func (s *storageAdapter) DeleteStar(name string) error {
	return s.db.DeleteStar(name)
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}
