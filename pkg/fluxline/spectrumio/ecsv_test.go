package spectrumio

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/himanishpuri/fluxline/pkg/models"
	"gopkg.in/yaml.v3"
)

func testMeta() models.RunMetadata {
	return models.RunMetadata{
		Date:            time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
		Filename:        "le9d1k010_x1dsum.fits",
		Instrument:      "COS",
		Grating:         "G130M",
		Star:            "GJ 1132",
		Doppler:         35.25,
		PeakWidth:       0.04,
		PeakWidthPixels: 4.1,
		FluxRange:       0.08,
		UpperLimit:      "3*error",
	}
}

func testRecords() []models.FluxRecord {
	return []models.FluxRecord{
		{Ion: "Si III", Wavelength: 1206.51, Flux: 1.5e-14, Error: 2e-16},
		{Ion: "N V", Wavelength: 1242.804, Flux: -6e-16, Error: 0, Blended: true, Noise: true},
	}
}

func TestWriteECSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteECSV(&buf, testMeta(), testRecords()); err != nil {
		t.Fatalf("WriteECSV failed: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "# %ECSV 1.0\n# ---\n") {
		t.Errorf("Expected ECSV preamble, got %q", out[:min(len(out), 40)])
	}
	for _, want := range []string{
		"- {name: Ion, datatype: string}",
		"- {name: Blended line, datatype: bool}",
		"# schema: astropy-2.0",
		`Ion Wavelength Flux Error "Blended line"`,
		`"Si III" 1206.51 1.5e-14 2e-16 False`,
		`"N V" 1242.804 -6e-16 0 True`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q\n%s", want, out)
		}
	}
}

func TestWriteECSVHeaderIsYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteECSV(&buf, testMeta(), testRecords()); err != nil {
		t.Fatalf("WriteECSV failed: %v", err)
	}

	var header strings.Builder
	for _, line := range strings.Split(buf.String(), "\n") {
		if !strings.HasPrefix(line, "# ") || line == "# %ECSV 1.0" || line == "# ---" {
			continue
		}
		header.WriteString(strings.TrimPrefix(line, "# ") + "\n")
	}

	var parsed struct {
		Datatype []map[string]string `yaml:"datatype"`
		Meta     yaml.Node           `yaml:"meta"`
		Schema   string              `yaml:"schema"`
	}
	if err := yaml.Unmarshal([]byte(header.String()), &parsed); err != nil {
		t.Fatalf("Header is not valid YAML: %v\n%s", err, header.String())
	}
	if len(parsed.Datatype) != 5 {
		t.Errorf("Expected 5 columns, got %d", len(parsed.Datatype))
	}

	// cards stay in insertion order
	if len(parsed.Meta.Content) < 2 || parsed.Meta.Content[0].Value != "DATE" {
		t.Fatalf("Expected DATE as first meta key")
	}
	if parsed.Meta.Content[1].Value != "2024-06-02" {
		t.Errorf("Expected DATE 2024-06-02, got %s", parsed.Meta.Content[1].Value)
	}
	var doppler string
	for i := 0; i+1 < len(parsed.Meta.Content); i += 2 {
		if parsed.Meta.Content[i].Value == "DOPPLER" {
			doppler = parsed.Meta.Content[i+1].Value
		}
	}
	if doppler != "35.25 km/s" {
		t.Errorf("Expected DOPPLER '35.25 km/s', got %q", doppler)
	}
}
