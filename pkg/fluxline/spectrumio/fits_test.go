package spectrumio

import (
	"bytes"
	"errors"
	"testing"

	"github.com/astrogo/fitsio"
)

// vectorRow mirrors an x1d segment: fixed-repeat columns hold one array
// per row.
type vectorRow struct {
	Wavelength [3]float64 `fits:"WAVELENGTH"`
	Flux       [3]float32 `fits:"FLUX"`
	Error      [3]float32 `fits:"ERROR"`
}

type scalarRow struct {
	Wavelength float64 `fits:"WAVELENGTH"`
	Flux       float64 `fits:"FLUX"`
	Error      float64 `fits:"ERROR"`
}

// writeTable builds a file with an empty primary HDU and one binary table.
func writeTable[R any](t *testing.T, cols []fitsio.Column, rows []R) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	f, err := fitsio.Create(&buf)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	phdu, err := fitsio.NewPrimaryHDU(fitsio.NewHeader(nil, fitsio.IMAGE_HDU, 8, []int{}))
	if err != nil {
		t.Fatalf("NewPrimaryHDU failed: %v", err)
	}
	if err := f.Write(phdu); err != nil {
		t.Fatalf("Writing primary failed: %v", err)
	}

	table, err := fitsio.NewTable("SCI", cols, fitsio.BINARY_TBL)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	for i := range rows {
		if err := table.Write(&rows[i]); err != nil {
			t.Fatalf("Writing row %d failed: %v", i, err)
		}
	}
	if err := f.Write(table); err != nil {
		t.Fatalf("Writing table failed: %v", err)
	}
	table.Close()
	f.Close()
	return &buf
}

// writeX1D builds an x1d-like file with one row per detector segment.
func writeX1D(t *testing.T, rows []vectorRow) *bytes.Buffer {
	t.Helper()
	cols := []fitsio.Column{
		{Name: "WAVELENGTH", Format: "3D"},
		{Name: "FLUX", Format: "3E"},
		{Name: "ERROR", Format: "3E"},
	}
	return writeTable(t, cols, rows)
}

func TestReadSpectrumConcatenatesSegments(t *testing.T) {
	// segment B (blue) comes second in COS products
	buf := writeX1D(t, []vectorRow{
		{Wavelength: [3]float64{1300, 1301, 1302}, Flux: [3]float32{4, 5, 6}, Error: [3]float32{0.4, 0.5, 0.6}},
		{Wavelength: [3]float64{1200, 1201, 1300}, Flux: [3]float32{1, 2, 3}, Error: [3]float32{0.1, 0.2, 0.3}},
	})

	sp, err := ReadSpectrum(buf)
	if err != nil {
		t.Fatalf("ReadSpectrum failed: %v", err)
	}

	wantW := []float64{1200, 1201, 1300, 1301, 1302}
	if sp.Len() != len(wantW) {
		t.Fatalf("Expected %d samples after dropping the duplicate, got %d", len(wantW), sp.Len())
	}
	for i, w := range wantW {
		if sp.Wavelength[i] != w {
			t.Errorf("Wavelength[%d]: expected %.0f, got %.0f", i, w, sp.Wavelength[i])
		}
	}
	if sp.Flux[0] != 1 || sp.Flux[4] != 6 {
		t.Errorf("Expected flux to follow its wavelength, got %v", sp.Flux)
	}
	if !approx32(sp.Error[1], 0.2) {
		t.Errorf("Expected error 0.2 at 1201 Å, got %f", sp.Error[1])
	}
}

func TestReadSpectrumScalarColumns(t *testing.T) {
	cols := []fitsio.Column{
		{Name: "WAVELENGTH", Format: "D"},
		{Name: "FLUX", Format: "D"},
		{Name: "ERROR", Format: "D"},
	}
	buf := writeTable(t, cols, []scalarRow{
		{Wavelength: 1201, Flux: 2, Error: 0.2},
		{Wavelength: 1200, Flux: 1, Error: 0.1},
		{Wavelength: 1202, Flux: 3, Error: 0.3},
	})

	sp, err := ReadSpectrum(buf)
	if err != nil {
		t.Fatalf("ReadSpectrum failed: %v", err)
	}
	if sp.Len() != 3 {
		t.Fatalf("Expected 3 samples, got %d", sp.Len())
	}
	if sp.Wavelength[0] != 1200 || sp.Flux[0] != 1 || sp.Error[2] != 0.3 {
		t.Errorf("Expected samples sorted by wavelength, got %+v", sp)
	}
}

func TestReadSpectrumRejectsTextColumn(t *testing.T) {
	type textRow struct {
		Wavelength float64 `fits:"WAVELENGTH"`
		Flux       string  `fits:"FLUX"`
		Error      float64 `fits:"ERROR"`
	}
	cols := []fitsio.Column{
		{Name: "WAVELENGTH", Format: "D"},
		{Name: "FLUX", Format: "4A"},
		{Name: "ERROR", Format: "D"},
	}
	buf := writeTable(t, cols, []textRow{{Wavelength: 1200, Flux: "high", Error: 0.1}})

	if _, err := ReadSpectrum(buf); err == nil {
		t.Fatal("Expected an error for a text FLUX column")
	}
}

func TestColumnFloats(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []float64
	}{
		{"fixed vector", [2]float32{1.5, 2.5}, []float64{1.5, 2.5}},
		{"variable array", []float64{3, 4, 5}, []float64{3, 4, 5}},
		{"scalar", float64(7), []float64{7}},
		{"integer", int16(9), []float64{9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := columnFloats("FLUX", tt.in)
			if err != nil {
				t.Fatalf("columnFloats failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Expected %v, got %v", tt.want, got)
				}
			}
		})
	}

	if _, err := columnFloats("FLUX", "text"); err == nil {
		t.Error("Expected an error for a string cell")
	}
}

func approx32(got, want float64) bool {
	d := got - want
	return d < 1e-6 && d > -1e-6
}

func TestWriteFluxFITS(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFluxFITS(&buf, testMeta(), testRecords()); err != nil {
		t.Fatalf("WriteFluxFITS failed: %v", err)
	}

	f, err := fitsio.Open(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	hdr := f.HDU(0).Header()
	checks := map[string]any{
		"FILETYPE": "SCI",
		"TELESCP":  "HST",
		"TARGNAME": "GJ 1132",
		"DOPPLER":  "35.25 km/s",
		"WIDTH":    "+/- 0.04 Angstroms",
		"RANGE":    "+/- 0.08 Angstroms",
		"UPRLIMIT": "3*error",
	}
	for key, want := range checks {
		card := hdr.Get(key)
		if card == nil {
			t.Errorf("Missing header card %s", key)
			continue
		}
		if card.Value != want {
			t.Errorf("Card %s: expected %v, got %v", key, want, card.Value)
		}
	}

	table, ok := f.HDU(1).(*fitsio.Table)
	if !ok {
		t.Fatal("Expected a table in extension 1")
	}
	if table.NumRows() != 2 {
		t.Fatalf("Expected 2 rows, got %d", table.NumRows())
	}

	rows, err := table.Read(0, table.NumRows())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	defer rows.Close()

	var got []fluxRow
	for rows.Next() {
		var r fluxRow
		if err := rows.Scan(&r); err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		got = append(got, r)
	}
	if got[0].Ion != "Si III" || got[0].Flux != 1.5e-14 || got[0].Blended {
		t.Errorf("Unexpected first row %+v", got[0])
	}
	if !got[1].Blended || got[1].Error != 0 {
		t.Errorf("Unexpected second row %+v", got[1])
	}
}

func TestReadSpectrumRejectsNonTable(t *testing.T) {
	var buf bytes.Buffer
	f, err := fitsio.Create(&buf)
	if err != nil {
		t.Fatal(err)
	}
	phdu, err := fitsio.NewPrimaryHDU(fitsio.NewHeader(nil, fitsio.IMAGE_HDU, 8, []int{}))
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Write(phdu); err != nil {
		t.Fatal(err)
	}
	f.Close()

	_, err = ReadSpectrum(&buf)
	if err == nil {
		t.Fatal("Expected an error for a file without extensions")
	}
	if errors.Is(err, ErrMissingColumn) {
		t.Errorf("Expected a missing-extension error, got %v", err)
	}
}
