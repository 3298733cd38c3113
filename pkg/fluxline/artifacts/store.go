// Package artifacts manages the per-star files that make a run idempotent:
// the Doppler velocity, the noise decision vector and the flux table paths.
package artifacts

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/himanishpuri/fluxline/pkg/utils"
)

var ErrNotFound = errors.New("artifact not found")

const (
	dopplerDir = "doppler"
	noiseDir   = "noise"
	fluxDir    = "flux"
)

// Store roots all artifacts under Dir.
type Store struct {
	Dir string
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// DopplerPath is keyed by the uppercased star name.
func (s *Store) DopplerPath(star string) string {
	return filepath.Join(s.Dir, dopplerDir, strings.ToUpper(star)+"_doppler.txt")
}

// NoisePath is keyed by the uppercased star name.
func (s *Store) NoisePath(star string) string {
	return filepath.Join(s.Dir, noiseDir, strings.ToUpper(star)+"_noise.txt")
}

// FluxPath is keyed by the lowercased star name; ext includes the dot.
func (s *Store) FluxPath(star, ext string) string {
	return filepath.Join(s.Dir, fluxDir, strings.ToLower(star)+ext)
}

func (s *Store) HasDoppler(star string) bool {
	return utils.FileExists(s.DopplerPath(star))
}

func (s *Store) HasNoise(star string) bool {
	return utils.FileExists(s.NoisePath(star))
}

// LoadDoppler reads the stored velocity in km/s.
func (s *Store) LoadDoppler(star string) (float64, error) {
	path := s.DopplerPath(star)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return 0, fmt.Errorf("failed to read doppler file: %w", err)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("malformed doppler file %s: %w", path, err)
	}
	return v, nil
}

// SaveDoppler writes the velocity with full float64 precision.
func (s *Store) SaveDoppler(star string, velocity float64) error {
	line := strconv.FormatFloat(velocity, 'g', -1, 64) + "\n"
	if err := utils.WriteFileAtomic(s.DopplerPath(star), []byte(line)); err != nil {
		return fmt.Errorf("failed to save doppler for %s: %w", star, err)
	}
	return nil
}

// LoadNoise reads the decision vector, one entry per line. Entries are either
// booleans or numbers, where any non-zero number marks noise.
func (s *Store) LoadNoise(star string) ([]bool, error) {
	path := s.NoisePath(star)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open noise file: %w", err)
	}
	defer f.Close()

	var decisions []bool
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		field := strings.TrimSpace(scanner.Text())
		if field == "" {
			continue
		}
		noise, err := parseDecision(field)
		if err != nil {
			return nil, fmt.Errorf("malformed noise file %s line %d: %w", path, lineNo, err)
		}
		decisions = append(decisions, noise)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read noise file: %w", err)
	}
	return decisions, nil
}

func parseDecision(field string) (bool, error) {
	if v, err := strconv.ParseFloat(field, 64); err == nil {
		return v != 0, nil
	}
	return strconv.ParseBool(field)
}

// SaveNoise writes the complete decision vector in one atomic step.
func (s *Store) SaveNoise(star string, decisions []bool) error {
	var buf bytes.Buffer
	for _, noise := range decisions {
		if noise {
			buf.WriteString("1\n")
		} else {
			buf.WriteString("0\n")
		}
	}
	if err := utils.WriteFileAtomic(s.NoisePath(star), buf.Bytes()); err != nil {
		return fmt.Errorf("failed to save noise decisions for %s: %w", star, err)
	}
	return nil
}

// RemoveNoise deletes the decision vector so the next run reviews again.
func (s *Store) RemoveNoise(star string) error {
	return utils.DeleteFile(s.NoisePath(star))
}

// RemoveDoppler deletes the stored velocity so the next run resolves it again.
func (s *Store) RemoveDoppler(star string) error {
	return utils.DeleteFile(s.DopplerPath(star))
}

// EnsureFluxDir creates the flux output directory.
func (s *Store) EnsureFluxDir() error {
	return utils.MakeDir(filepath.Join(s.Dir, fluxDir))
}
