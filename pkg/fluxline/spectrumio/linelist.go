// Package spectrumio reads input spectra and line lists and writes flux
// tables in the formats downstream tools consume.
package spectrumio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/himanishpuri/fluxline/pkg/fluxline/spectral"
)

var ErrMissingColumn = errors.New("missing column")

// ReadLineList parses a CSV reference list with Wavelength and Ion columns.
// Header matching is case-insensitive, extra columns are ignored and the
// result is sorted by wavelength.
func ReadLineList(r io.Reader) ([]spectral.ReferenceLine, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading line list header: %w", err)
	}

	wlCol, ionCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case "wavelength":
			wlCol = i
		case "ion":
			ionCol = i
		}
	}
	if wlCol < 0 {
		return nil, fmt.Errorf("%w: Wavelength", ErrMissingColumn)
	}
	if ionCol < 0 {
		return nil, fmt.Errorf("%w: Ion", ErrMissingColumn)
	}

	var lines []spectral.ReferenceLine
	row := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("reading line list row %d: %w", row, err)
		}
		if len(rec) <= wlCol || strings.TrimSpace(rec[wlCol]) == "" {
			continue
		}

		wl, err := strconv.ParseFloat(strings.TrimSpace(rec[wlCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("line list row %d: bad wavelength %q: %w", row, rec[wlCol], err)
		}
		ion := ""
		if len(rec) > ionCol {
			ion = strings.TrimSpace(rec[ionCol])
		}
		lines = append(lines, spectral.ReferenceLine{Wavelength: wl, Ion: ion})
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Wavelength < lines[j].Wavelength
	})
	return lines, nil
}

// LoadLineList opens path and parses it with ReadLineList.
func LoadLineList(path string) ([]spectral.ReferenceLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening line list: %w", err)
	}
	defer f.Close()

	lines, err := ReadLineList(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lines, nil
}
