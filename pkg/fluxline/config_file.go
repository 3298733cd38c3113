package fluxline

import (
	"fmt"
	"os"

	"github.com/himanishpuri/fluxline/pkg/fluxline/spectral"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the working directory by the CLI.
const DefaultConfigFile = "fluxline.yaml"

// FileConfig mirrors the tunable part of Config. Unset keys keep defaults.
type FileConfig struct {
	ArtifactDir       string   `yaml:"artifact_dir"`
	DBPath            *string  `yaml:"db_path"`
	LowerCutoff       *float64 `yaml:"lower_cutoff"`
	BlendFactor       *float64 `yaml:"blend_factor"`
	WindowScale       *float64 `yaml:"window_scale"`
	NoiseSigma        *float64 `yaml:"noise_sigma"`
	MaxVelocity       *float64 `yaml:"max_velocity"`
	MaxFitEvaluations *int     `yaml:"max_fit_evaluations"`
	StrictFit         *bool    `yaml:"strict_fit"`
	LineList          string   `yaml:"line_list"`
	Regimes           *struct {
		Broad  *RegimeFile `yaml:"broad"`
		Medium *RegimeFile `yaml:"medium"`
	} `yaml:"regimes"`
}

// RegimeFile overrides the mean-flux multipliers of one peak regime.
type RegimeFile struct {
	Height     *float64 `yaml:"height"`
	Threshold  *float64 `yaml:"threshold"`
	Prominence *float64 `yaml:"prominence"`
	MinWidth   *float64 `yaml:"min_width"`
}

// LoadConfigFile parses a YAML config file. Unknown keys are rejected.
func LoadConfigFile(path string) (*FileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var fc FileConfig
	if err := dec.Decode(&fc); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &fc, nil
}

// Options converts the file settings into service options.
func (fc *FileConfig) Options() []Option {
	var opts []Option
	if fc.ArtifactDir != "" {
		opts = append(opts, WithArtifactDir(fc.ArtifactDir))
	}
	if fc.DBPath != nil {
		opts = append(opts, WithDBPath(*fc.DBPath))
	}
	if fc.LowerCutoff != nil {
		opts = append(opts, WithLowerCutoff(*fc.LowerCutoff))
	}
	if fc.BlendFactor != nil {
		opts = append(opts, WithBlendFactor(*fc.BlendFactor))
	}
	if fc.WindowScale != nil {
		opts = append(opts, WithWindowScale(*fc.WindowScale))
	}
	if fc.NoiseSigma != nil {
		opts = append(opts, WithNoiseSigma(*fc.NoiseSigma))
	}
	if fc.MaxVelocity != nil {
		opts = append(opts, WithMaxVelocity(*fc.MaxVelocity))
	}
	if fc.MaxFitEvaluations != nil {
		opts = append(opts, WithMaxFitEvaluations(*fc.MaxFitEvaluations))
	}
	if fc.StrictFit != nil {
		opts = append(opts, WithStrictFit(*fc.StrictFit))
	}
	if fc.Regimes != nil {
		broad, medium := fc.Regimes.Broad, fc.Regimes.Medium
		opts = append(opts, func(c *Config) {
			broad.apply(&c.Regimes.Broad)
			medium.apply(&c.Regimes.Medium)
		})
	}
	return opts
}

func (r *RegimeFile) apply(p *spectral.PeakRegime) {
	if r == nil {
		return
	}
	if r.Height != nil {
		p.HeightFactor = *r.Height
	}
	if r.Threshold != nil {
		p.ThresholdFactor = *r.Threshold
	}
	if r.Prominence != nil {
		p.ProminenceFactor = *r.Prominence
	}
	if r.MinWidth != nil {
		p.MinWidth = *r.MinWidth
	}
}
