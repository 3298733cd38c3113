package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/himanishpuri/fluxline/pkg/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "fluxline.sqlite3"
const errDBClientNil = "db client is nil"

var ErrStarNotFound = errors.New("star not found in catalog")

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

type Star struct {
	Name       string  `gorm:"primaryKey;type:varchar(128)" json:"name"`
	Instrument string  `json:"instrument"`
	Grating    string  `json:"grating"`
	Doppler    float64 `json:"doppler"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Run struct {
	ID              string    `gorm:"primaryKey;type:varchar(36)"`
	StarName        string    `gorm:"type:varchar(128);index:idx_run_star" json:"star"`
	Filename        string    `json:"filename"`
	Instrument      string    `json:"instrument"`
	Grating         string    `json:"grating"`
	Doppler         float64   `json:"doppler"`
	PeakWidth       float64   `json:"peak_width"`
	PeakWidthPixels float64   `json:"peak_width_pixels"`
	FluxRange       float64   `json:"flux_range"`
	UpperLimit      string    `json:"upper_limit"`
	ProcessedAt     time.Time `gorm:"index:idx_run_processed" json:"processed_at"`
}

type FluxRecord struct {
	ID         uint    `gorm:"primaryKey;autoIncrement"`
	RunID      string  `gorm:"type:varchar(36);index:idx_flux_run" json:"run_id"`
	Position   int     `json:"position"`
	Ion        string  `gorm:"index:idx_flux_ion" json:"ion"`
	Wavelength float64 `json:"wavelength"`
	Flux       float64 `json:"flux"`
	Error      float64 `json:"error"`
	Blended    bool    `json:"blended"`
	Noise      bool    `json:"noise"`
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("FLUXLINE_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_pragma=foreign_keys(1)"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	// sqlite serialises writers; one connection avoids SQLITE_BUSY
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Star{}, &Run{}, &FluxRecord{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func normalizeStar(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// SaveRun stores a run and its flux table in one transaction and returns the
// new run ID. The star row is created or refreshed from the run metadata.
func (c *DBClient) SaveRun(meta models.RunMetadata, records []models.FluxRecord) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}

	name := normalizeStar(meta.Star)
	if name == "" {
		return "", errors.New("run metadata has no star name")
	}
	processed := meta.Date
	if processed.IsZero() {
		processed = time.Now()
	}

	run := Run{
		ID:              uuid.NewString(),
		StarName:        name,
		Filename:        meta.Filename,
		Instrument:      meta.Instrument,
		Grating:         meta.Grating,
		Doppler:         meta.Doppler,
		PeakWidth:       meta.PeakWidth,
		PeakWidthPixels: meta.PeakWidthPixels,
		FluxRange:       meta.FluxRange,
		UpperLimit:      meta.UpperLimit,
		ProcessedAt:     processed,
	}

	err := c.DB.Transaction(func(tx *gorm.DB) error {
		star := Star{Name: name, Instrument: meta.Instrument, Grating: meta.Grating, Doppler: meta.Doppler}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"instrument", "grating", "doppler", "updated_at"}),
		}).Create(&star).Error; err != nil {
			return fmt.Errorf("upserting star: %w", err)
		}

		if err := tx.Create(&run).Error; err != nil {
			return fmt.Errorf("creating run: %w", err)
		}

		if len(records) == 0 {
			return nil
		}
		rows := make([]FluxRecord, len(records))
		for i, r := range records {
			rows[i] = FluxRecord{
				RunID:      run.ID,
				Position:   i,
				Ion:        r.Ion,
				Wavelength: r.Wavelength,
				Flux:       r.Flux,
				Error:      r.Error,
				Blended:    r.Blended,
				Noise:      r.Noise,
			}
		}
		if err := tx.CreateInBatches(rows, 500).Error; err != nil {
			return fmt.Errorf("batch insert flux records: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

func (c *DBClient) latestRun(name string) (*Run, error) {
	var run Run
	err := c.DB.Where("star_name = ?", name).
		Order("processed_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest run: %w", err)
	}
	return &run, nil
}

// ListStars returns every catalogued star with a summary of its latest run,
// ordered by name.
func (c *DBClient) ListStars() ([]models.StarSummary, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var stars []Star
	if err := c.DB.Order("name ASC").Find(&stars).Error; err != nil {
		return nil, fmt.Errorf("listing stars: %w", err)
	}

	out := make([]models.StarSummary, 0, len(stars))
	for _, s := range stars {
		summary := models.StarSummary{
			Name:       s.Name,
			Instrument: s.Instrument,
			Grating:    s.Grating,
			Doppler:    s.Doppler,
			LastRun:    s.UpdatedAt,
		}

		run, err := c.latestRun(s.Name)
		if err != nil {
			return nil, err
		}
		if run != nil {
			summary.LastRun = run.ProcessedAt
			var total, noise int64
			if err := c.DB.Model(&FluxRecord{}).Where("run_id = ?", run.ID).Count(&total).Error; err != nil {
				return nil, fmt.Errorf("counting flux records: %w", err)
			}
			if err := c.DB.Model(&FluxRecord{}).Where("run_id = ? AND noise = ?", run.ID, true).Count(&noise).Error; err != nil {
				return nil, fmt.Errorf("counting noise records: %w", err)
			}
			summary.Lines = int(total)
			summary.NoiseLines = int(noise)
		}
		if summary.Runs, err = c.CountRuns(s.Name); err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, nil
}

// GetStar returns the latest run of a star with its flux table in line order.
func (c *DBClient) GetStar(name string) (*models.StarDetail, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	key := normalizeStar(name)
	run, err := c.latestRun(key)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("%w: %s", ErrStarNotFound, key)
	}

	var rows []FluxRecord
	if err := c.DB.Where("run_id = ?", run.ID).Order("position ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying flux records: %w", err)
	}

	detail := &models.StarDetail{
		RunID: run.ID,
		Meta: models.RunMetadata{
			Date:            run.ProcessedAt,
			Filename:        run.Filename,
			Instrument:      run.Instrument,
			Grating:         run.Grating,
			Star:            run.StarName,
			Doppler:         run.Doppler,
			PeakWidth:       run.PeakWidth,
			PeakWidthPixels: run.PeakWidthPixels,
			FluxRange:       run.FluxRange,
			UpperLimit:      run.UpperLimit,
		},
		Records: make([]models.FluxRecord, 0, len(rows)),
	}
	for _, r := range rows {
		detail.Records = append(detail.Records, models.FluxRecord{
			Ion:        r.Ion,
			Wavelength: r.Wavelength,
			Flux:       r.Flux,
			Error:      r.Error,
			Blended:    r.Blended,
			Noise:      r.Noise,
		})
	}
	return detail, nil
}

// DeleteStar removes a star with all its runs and flux records. Deleting an
// unknown star is not an error.
func (c *DBClient) DeleteStar(name string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}

	key := normalizeStar(name)
	return c.DB.Transaction(func(tx *gorm.DB) error {
		var runIDs []string
		if err := tx.Model(&Run{}).Where("star_name = ?", key).Pluck("id", &runIDs).Error; err != nil {
			return fmt.Errorf("querying runs: %w", err)
		}
		if len(runIDs) > 0 {
			if err := tx.Where("run_id IN ?", runIDs).Delete(&FluxRecord{}).Error; err != nil {
				return fmt.Errorf("deleting flux records: %w", err)
			}
		}
		if err := tx.Where("star_name = ?", key).Delete(&Run{}).Error; err != nil {
			return fmt.Errorf("deleting runs: %w", err)
		}
		if err := tx.Where("name = ?", key).Delete(&Star{}).Error; err != nil {
			return fmt.Errorf("deleting star: %w", err)
		}
		return nil
	})
}

// CountRuns returns how many runs are stored for a star.
func (c *DBClient) CountRuns(name string) (int, error) {
	if c == nil || c.DB == nil {
		return 0, errors.New(errDBClientNil)
	}
	var n int64
	if err := c.DB.Model(&Run{}).Where("star_name = ?", normalizeStar(name)).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting runs: %w", err)
	}
	return int(n), nil
}
