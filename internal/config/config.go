// Package config holds the user-facing generation settings shared by command
// line flags and config files, and turns them into a variation.Config.
//
// Config files may be JSON, YAML or TOML, chosen by extension. Keys are the
// long flag names in snake_case. Keys missing from a file keep their defaults.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/color-variations/internal/imaging"
	"github.com/ironsheep/color-variations/internal/logging"
	"github.com/ironsheep/color-variations/internal/variation"
)

// Environment variables read after .env is loaded.
const (
	EnvOutputDir = "COLORVAR_OUTPUT_DIR"
	EnvLogLevel  = logging.LevelEnvVar
	EnvLogFile   = "COLORVAR_LOG_FILE"
)

// Settings is the flat set of options accepted from flags and config files.
type Settings struct {
	InputPath string `json:"input_path" yaml:"input_path" toml:"input_path"`
	OutputDir string `json:"output_dir" yaml:"output_dir" toml:"output_dir"`

	SaturationCount int `json:"saturation_count" yaml:"saturation_count" toml:"saturation_count"`
	HueCount        int `json:"hue_count" yaml:"hue_count" toml:"hue_count"`

	RScale      float64 `json:"r_scale" yaml:"r_scale" toml:"r_scale"`
	GScale      float64 `json:"g_scale" yaml:"g_scale" toml:"g_scale"`
	BScale      float64 `json:"b_scale" yaml:"b_scale" toml:"b_scale"`
	AdjustMode  string  `json:"adjust_mode" yaml:"adjust_mode" toml:"adjust_mode"`
	AdjustBelow float64 `json:"adjust_below" yaml:"adjust_below" toml:"adjust_below"`

	SkipGray              bool `json:"skip_gray" yaml:"skip_gray" toml:"skip_gray"`
	SkipNearGrayThreshold int  `json:"skip_near_gray_threshold" yaml:"skip_near_gray_threshold" toml:"skip_near_gray_threshold"`
	TransparentOnly       bool `json:"transparent_only" yaml:"transparent_only" toml:"transparent_only"`
	OpaqueOnly            bool `json:"opaque_only" yaml:"opaque_only" toml:"opaque_only"`

	Prefix         string `json:"prefix" yaml:"prefix" toml:"prefix"`
	Overwrite      bool   `json:"overwrite" yaml:"overwrite" toml:"overwrite"`
	DryRun         bool   `json:"dry_run" yaml:"dry_run" toml:"dry_run"`
	Verbose        bool   `json:"verbose" yaml:"verbose" toml:"verbose"`
	LogFile        string `json:"log_file" yaml:"log_file" toml:"log_file"`
	LabelFilenames bool   `json:"label_filenames" yaml:"label_filenames" toml:"label_filenames"`
	SaveAdjusted   bool   `json:"save_adjusted" yaml:"save_adjusted" toml:"save_adjusted"`

	Thumbnails          bool   `json:"thumbnails" yaml:"thumbnails" toml:"thumbnails"`
	ThumbnailSize       int    `json:"thumbnail_size" yaml:"thumbnail_size" toml:"thumbnail_size"`
	ThumbnailBackground string `json:"thumbnail_background" yaml:"thumbnail_background" toml:"thumbnail_background"`
	Sidecar             bool   `json:"sidecar" yaml:"sidecar" toml:"sidecar"`
}

// Defaults returns the settings used when nothing is specified.
func Defaults() Settings {
	return Settings{
		SaturationCount:     variation.DefaultSatCount,
		HueCount:            variation.DefaultHueCount,
		RScale:              1,
		GScale:              1,
		BScale:              1,
		AdjustMode:          imaging.Multiplicative.String(),
		Prefix:              variation.DefaultPrefix,
		Thumbnails:          true,
		ThumbnailSize:       imaging.DefaultThumbnailSize,
		ThumbnailBackground: "#ffffff",
		Sidecar:             true,
	}
}

// Load reads a config file over Defaults. The format is chosen by extension:
// .json, .yaml/.yml or .toml.
func Load(path string) (Settings, error) {
	s := Defaults()

	expanded, err := homedir.Expand(path)
	if err != nil {
		return s, fmt.Errorf("failed to expand config path: %w", err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return s, fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(expanded)); ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&s)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&s)
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&s)
	default:
		return s, fmt.Errorf("unsupported config file extension %q (want .json, .yaml, .yml or .toml)", ext)
	}
	// An empty document keeps the defaults
	if errors.Is(err, io.EOF) {
		err = nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to parse config file %s: %w", filepath.Base(expanded), err)
	}
	return s, nil
}

// LoadEnv loads environment files (default ".env") if they exist. Variables
// already set in the environment win. A missing file is not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv fills settings left empty from the environment.
func (s *Settings) ApplyEnv() {
	if s.OutputDir == "" {
		s.OutputDir = os.Getenv(EnvOutputDir)
	}
}

// ExpandPaths expands a leading ~ in the input, output and log file paths.
func (s *Settings) ExpandPaths() error {
	for _, p := range []*string{&s.InputPath, &s.OutputDir, &s.LogFile} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand %s: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Build converts s into a generation config.
//
// Conflicting options are resolved with a warning: a near-gray threshold wins
// over exact gray skipping, and transparent-only wins over opaque-only.
// Returns an error for an unknown adjustment mode or an invalid background
// color. Channel strengths are validated later by variation.Config.Normalize.
func (s Settings) Build() (variation.Config, []string, error) {
	var warnings []string
	cfg := variation.DefaultConfig()

	cfg.HueCount = s.HueCount
	cfg.SatCount = s.SaturationCount
	cfg.OutputDir = s.OutputDir
	cfg.Prefix = s.Prefix
	cfg.Overwrite = s.Overwrite
	cfg.DryRun = s.DryRun
	cfg.LabelFilenames = s.LabelFilenames
	cfg.SaveAdjusted = s.SaveAdjusted
	cfg.Thumbnails = s.Thumbnails
	cfg.ThumbnailSize = s.ThumbnailSize
	cfg.Sidecar = s.Sidecar

	switch {
	case s.SkipNearGrayThreshold < 0:
		warnings = append(warnings, fmt.Sprintf("negative near-gray threshold %d ignored", s.SkipNearGrayThreshold))
		if s.SkipGray {
			cfg.Mask.Gray = imaging.GrayExact
		}
	case s.SkipNearGrayThreshold > 0:
		if s.SkipGray {
			warnings = append(warnings, "both skip_gray and skip_near_gray_threshold set, using near-gray threshold")
		}
		t := s.SkipNearGrayThreshold
		if t > 255 {
			warnings = append(warnings, fmt.Sprintf("near-gray threshold %d clamped to 255", t))
			t = 255
		}
		cfg.Mask.Gray = imaging.GrayNear
		cfg.Mask.Threshold = uint8(t)
	case s.SkipGray:
		cfg.Mask.Gray = imaging.GrayExact
	}

	switch {
	case s.TransparentOnly && s.OpaqueOnly:
		warnings = append(warnings, "both transparent_only and opaque_only set, using transparent_only")
		cfg.Mask.Transparency = imaging.TransparencyTransparentOnly
	case s.TransparentOnly:
		cfg.Mask.Transparency = imaging.TransparencyTransparentOnly
	case s.OpaqueOnly:
		cfg.Mask.Transparency = imaging.TransparencyOpaqueOnly
	}

	mode, err := imaging.ParseAdjustMode(s.AdjustMode)
	if err != nil {
		return cfg, warnings, err
	}
	cfg.Adjust = imaging.ChannelAdjustment{R: s.RScale, G: s.GScale, B: s.BScale, Mode: mode, Activation: imaging.Always}
	if s.AdjustBelow > 0 {
		cfg.Adjust.Activation = imaging.WhenSaturationBelow
		cfg.Adjust.Threshold = s.AdjustBelow
	}

	if s.ThumbnailBackground != "" {
		bg, err := imaging.ParseHexColor(s.ThumbnailBackground)
		if err != nil {
			return cfg, warnings, fmt.Errorf("invalid thumbnail background: %w", err)
		}
		cfg.ThumbnailBackground = bg
	}
	return cfg, warnings, nil
}
