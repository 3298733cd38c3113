package fluxline

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.validate(); err != nil {
		t.Fatalf("Default config should validate: %v", err)
	}
	if cfg.LowerCutoff != 1160 || cfg.BlendFactor != 2 || cfg.NoiseSigma != 3 {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
	if cfg.upperLimit() != "3*error" {
		t.Errorf("Expected upper limit '3*error', got %s", cfg.upperLimit())
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero blend factor", WithBlendFactor(0)},
		{"negative window scale", WithWindowScale(-1)},
		{"negative noise sigma", WithNoiseSigma(-3)},
		{"zero max velocity", WithMaxVelocity(0)},
		{"zero fit evaluations", WithMaxFitEvaluations(0)},
		{"empty artifact dir", WithArtifactDir("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.opt(cfg)
			if err := cfg.validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fluxline.yaml")
	content := `artifact_dir: /data/stars
db_path: ""
blend_factor: 2.5
noise_sigma: 5
strict_fit: true
line_list: DEM_goodlinelist.csv
regimes:
  medium:
    height: 8
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}
	if fc.LineList != "DEM_goodlinelist.csv" {
		t.Errorf("Expected line list, got %q", fc.LineList)
	}

	cfg := defaultConfig()
	for _, opt := range fc.Options() {
		opt(cfg)
	}
	if cfg.ArtifactDir != "/data/stars" {
		t.Errorf("Expected artifact dir /data/stars, got %s", cfg.ArtifactDir)
	}
	if cfg.DBPath != "" {
		t.Errorf("Expected catalog disabled, got %q", cfg.DBPath)
	}
	if cfg.BlendFactor != 2.5 || cfg.NoiseSigma != 5 || !cfg.StrictFit {
		t.Errorf("File values not applied: %+v", cfg)
	}
	if cfg.LowerCutoff != 1160 {
		t.Errorf("Expected untouched default cutoff, got %g", cfg.LowerCutoff)
	}
	if cfg.Regimes.Medium.HeightFactor != 8 || cfg.Regimes.Medium.ProminenceFactor != 10 {
		t.Errorf("Expected only medium height overridden, got %+v", cfg.Regimes.Medium)
	}
	if cfg.upperLimit() != "5*error" {
		t.Errorf("Expected '5*error', got %s", cfg.upperLimit())
	}
}

func TestLoadConfigFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fluxline.yaml")
	if err := os.WriteFile(path, []byte("blend_facter: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFile(path); err == nil {
		t.Error("Expected an error for a misspelt key")
	}
}
