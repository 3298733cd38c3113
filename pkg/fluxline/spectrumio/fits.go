package spectrumio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"

	"github.com/astrogo/fitsio"
	"github.com/himanishpuri/fluxline/pkg/fluxline/spectral"
	"github.com/himanishpuri/fluxline/pkg/models"
	"github.com/himanishpuri/fluxline/pkg/utils"
)

// DataHDU is the extension holding the spectrum table in x1d products.
const DataHDU = 1

var ErrNotATable = errors.New("hdu is not a table")

// spectrumColumns are read from every row. Each may be a scalar, a
// fixed-repeat vector (nD, nE) or a variable-length array (PD, PE); fitsio
// reports the matching Go type per column.
var spectrumColumns = []string{"WAVELENGTH", "FLUX", "ERROR"}

// columnFloats flattens one cell of a numeric column.
func columnFloats(name string, v any) ([]float64, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array, reflect.Slice:
		out := make([]float64, rv.Len())
		for i := range out {
			f, ok := numeric(rv.Index(i))
			if !ok {
				return nil, fmt.Errorf("column %s holds %s, not numbers", name, rv.Type())
			}
			out[i] = f
		}
		return out, nil
	default:
		f, ok := numeric(rv)
		if !ok {
			return nil, fmt.Errorf("column %s holds %T, not numbers", name, v)
		}
		return []float64{f}, nil
	}
}

func numeric(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	}
	return 0, false
}

// ReadSpectrum reads the WAVELENGTH, FLUX and ERROR columns of the first
// extension. Rows (detector segments) are concatenated, sorted by wavelength
// and stripped of duplicate wavelengths.
func ReadSpectrum(r io.Reader) (spectral.Spectrum, error) {
	f, err := fitsio.Open(r)
	if err != nil {
		return spectral.Spectrum{}, fmt.Errorf("opening fits: %w", err)
	}
	defer f.Close()

	if len(f.HDUs()) <= DataHDU {
		return spectral.Spectrum{}, fmt.Errorf("fits file has no extension %d", DataHDU)
	}
	table, ok := f.HDU(DataHDU).(*fitsio.Table)
	if !ok {
		return spectral.Spectrum{}, fmt.Errorf("%w: extension %d", ErrNotATable, DataHDU)
	}
	for _, col := range spectrumColumns {
		if table.Index(col) < 0 {
			return spectral.Spectrum{}, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	rows, err := table.Read(0, table.NumRows())
	if err != nil {
		return spectral.Spectrum{}, fmt.Errorf("reading spectrum table: %w", err)
	}
	defer rows.Close()

	var sp spectral.Spectrum
	dst := []*[]float64{&sp.Wavelength, &sp.Flux, &sp.Error}
	for irow := 0; rows.Next(); irow++ {
		cells := make(map[string]any, len(spectrumColumns))
		for _, col := range spectrumColumns {
			cells[col] = nil
		}
		if err := rows.Scan(&cells); err != nil {
			return spectral.Spectrum{}, fmt.Errorf("reading spectrum row %d: %w", irow, err)
		}
		for i, col := range spectrumColumns {
			vals, err := columnFloats(col, cells[col])
			if err != nil {
				return spectral.Spectrum{}, fmt.Errorf("row %d: %w", irow, err)
			}
			*dst[i] = append(*dst[i], vals...)
		}
	}
	if err := rows.Err(); err != nil {
		return spectral.Spectrum{}, fmt.Errorf("reading spectrum table: %w", err)
	}

	return sortSpectrum(sp)
}

func sortSpectrum(sp spectral.Spectrum) (spectral.Spectrum, error) {
	n := len(sp.Wavelength)
	if len(sp.Flux) != n || len(sp.Error) != n {
		return spectral.Spectrum{}, fmt.Errorf("spectrum columns differ in length: %d/%d/%d",
			n, len(sp.Flux), len(sp.Error))
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return sp.Wavelength[idx[a]] < sp.Wavelength[idx[b]]
	})

	out := spectral.Spectrum{
		Wavelength: make([]float64, 0, n),
		Flux:       make([]float64, 0, n),
		Error:      make([]float64, 0, n),
	}
	for _, i := range idx {
		if k := len(out.Wavelength); k > 0 && out.Wavelength[k-1] == sp.Wavelength[i] {
			continue
		}
		out.Wavelength = append(out.Wavelength, sp.Wavelength[i])
		out.Flux = append(out.Flux, sp.Flux[i])
		out.Error = append(out.Error, sp.Error[i])
	}
	return out, out.Validate()
}

// LoadSpectrum opens a FITS file and reads it with ReadSpectrum.
func LoadSpectrum(path string) (spectral.Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return spectral.Spectrum{}, fmt.Errorf("opening spectrum: %w", err)
	}
	defer f.Close()

	sp, err := ReadSpectrum(f)
	if err != nil {
		return spectral.Spectrum{}, fmt.Errorf("%s: %w", path, err)
	}
	return sp, nil
}

type fluxRow struct {
	Ion        string  `fits:"Ion"`
	Wavelength float64 `fits:"Wavelength"`
	Flux       float64 `fits:"Flux"`
	Error      float64 `fits:"Error"`
	Blended    bool    `fits:"Blended line"`
}

// WriteFluxFITS writes an empty primary HDU carrying the provenance cards and
// a binary table extension with the flux records.
func WriteFluxFITS(w io.Writer, meta models.RunMetadata, records []models.FluxRecord) error {
	f, err := fitsio.Create(w)
	if err != nil {
		return fmt.Errorf("creating fits: %w", err)
	}
	defer f.Close()

	hc := HeaderCards(meta)
	cards := make([]fitsio.Card, len(hc))
	for i, c := range hc {
		cards[i] = fitsio.Card{Name: c.Key, Value: c.Value, Comment: c.Comment}
	}
	phdu, err := fitsio.NewPrimaryHDU(fitsio.NewHeader(cards, fitsio.IMAGE_HDU, 8, []int{}))
	if err != nil {
		return fmt.Errorf("creating primary hdu: %w", err)
	}
	if err := f.Write(phdu); err != nil {
		return fmt.Errorf("writing primary hdu: %w", err)
	}

	ionWidth := 1
	for _, r := range records {
		if len(r.Ion) > ionWidth {
			ionWidth = len(r.Ion)
		}
	}
	cols := []fitsio.Column{
		{Name: "Ion", Format: fmt.Sprintf("%dA", ionWidth)},
		{Name: "Wavelength", Format: "D", Unit: "Angstrom"},
		{Name: "Flux", Format: "D", Unit: "erg/s/cm2"},
		{Name: "Error", Format: "D", Unit: "erg/s/cm2"},
		{Name: "Blended line", Format: "L"},
	}
	table, err := fitsio.NewTable("FLUX", cols, fitsio.BINARY_TBL)
	if err != nil {
		return fmt.Errorf("creating flux table: %w", err)
	}
	defer table.Close()

	for _, r := range records {
		row := fluxRow{Ion: r.Ion, Wavelength: r.Wavelength, Flux: r.Flux, Error: r.Error, Blended: r.Blended}
		if err := table.Write(&row); err != nil {
			return fmt.Errorf("writing flux row %s %.3f: %w", r.Ion, r.Wavelength, err)
		}
	}
	if err := f.Write(table); err != nil {
		return fmt.Errorf("writing flux table: %w", err)
	}
	return nil
}

// WriteFluxFITSFile writes the FITS table to path atomically.
func WriteFluxFITSFile(path string, meta models.RunMetadata, records []models.FluxRecord) error {
	var buf bytes.Buffer
	if err := WriteFluxFITS(&buf, meta, records); err != nil {
		return err
	}
	return utils.WriteFileAtomic(path, buf.Bytes())
}
