package variation

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/ironsheep/color-variations/internal/imaging"
)

// Defaults substituted for invalid or missing settings.
const (
	DefaultHueCount = 10
	DefaultSatCount = 3
	DefaultPrefix   = "variation"
)

// Config holds every parameter of one generation run. It is passed by value.
type Config struct {
	// HueCount is the number of hue steps N_h. Must be >= 1.
	HueCount int

	// SatCount is the number of saturation levels N_s. Must be >= 1.
	SatCount int

	Mask   imaging.MaskPolicy
	Adjust imaging.ChannelAdjustment

	// OutputDir is the parent directory of the run folder. Empty means the
	// directory of the source image.
	OutputDir string

	// Prefix is appended to the source base name to form the run folder name.
	Prefix string

	// Overwrite reuses an existing run folder instead of picking a unique one.
	Overwrite bool

	// DryRun logs the planned work without writing anything.
	DryRun bool

	// Thumbnails enables the thumbnails/ subdirectory.
	Thumbnails bool

	// ThumbnailSize is the edge of the square thumbnail box.
	ThumbnailSize int

	// ThumbnailBackground is the color transparent variations are composited
	// over in thumbnails.
	ThumbnailBackground color.RGBA

	// Sidecar enables the processing_details.json metadata file.
	Sidecar bool

	// LabelFilenames appends sanitized hue/saturation labels to file names.
	LabelFilenames bool

	// SaveAdjusted also writes the source with only the channel adjustment
	// applied, as <base>_adjusted.png.
	SaveAdjusted bool
}

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() Config {
	return Config{
		HueCount:            DefaultHueCount,
		SatCount:            DefaultSatCount,
		Adjust:              imaging.IdentityAdjustment(),
		Prefix:              DefaultPrefix,
		Thumbnails:          true,
		ThumbnailSize:       imaging.DefaultThumbnailSize,
		ThumbnailBackground: color.RGBA{255, 255, 255, 255},
		Sidecar:             true,
	}
}

// Normalize returns a copy of c with recoverable problems replaced by defaults.
//
// Each substitution is described in the returned warnings. Non-positive counts
// and an empty prefix are recoverable. Invalid channel strengths are not: they
// are reported as a *Error of KindConfig and the run must not start.
func (c Config) Normalize() (Config, []string, error) {
	var warnings []string

	if c.HueCount <= 0 {
		warnings = append(warnings, fmt.Sprintf("hue count must be greater than 0 (got %d), using default %d", c.HueCount, DefaultHueCount))
		c.HueCount = DefaultHueCount
	}
	if c.SatCount <= 0 {
		warnings = append(warnings, fmt.Sprintf("saturation count must be greater than 0 (got %d), using default %d", c.SatCount, DefaultSatCount))
		c.SatCount = DefaultSatCount
	}
	c.Prefix = strings.TrimSpace(c.Prefix)
	if c.Prefix == "" {
		warnings = append(warnings, fmt.Sprintf("empty prefix, using default %q", DefaultPrefix))
		c.Prefix = DefaultPrefix
	}
	if c.ThumbnailSize <= 0 {
		c.ThumbnailSize = imaging.DefaultThumbnailSize
	}
	if c.ThumbnailBackground == (color.RGBA{}) {
		c.ThumbnailBackground = color.RGBA{255, 255, 255, 255}
	}

	if err := c.Adjust.Validate(); err != nil {
		return c, warnings, newError(KindConfig, err, "invalid channel adjustment")
	}
	return c, warnings, nil
}

// Total returns the number of variations the config produces.
func (c Config) Total() int {
	return c.HueCount * c.SatCount
}

// Parameters is the resolved parameter record written to the sidecar.
type Parameters struct {
	SaturationCount int `json:"saturation_count"`
	HueCount        int `json:"hue_count"`
	RGBMultipliers  struct {
		R float64 `json:"r"`
		G float64 `json:"g"`
		B float64 `json:"b"`
	} `json:"rgb_multipliers"`
	AdjustMode            string  `json:"adjust_mode"`
	AdjustBelow           float64 `json:"adjust_below,omitempty"`
	SkipGray              bool    `json:"skip_gray"`
	SkipNearGrayThreshold int     `json:"skip_near_gray_threshold"`
	TransparentOnly       bool    `json:"transparent_only"`
	OpaqueOnly            bool    `json:"opaque_only"`
	Prefix                string  `json:"prefix"`
	Overwrite             bool    `json:"overwrite"`
	LabelFilenames        bool    `json:"label_filenames"`
}

// Parameters returns the sidecar record of c.
func (c Config) Parameters() Parameters {
	var p Parameters
	p.SaturationCount = c.SatCount
	p.HueCount = c.HueCount
	p.RGBMultipliers.R = c.Adjust.R
	p.RGBMultipliers.G = c.Adjust.G
	p.RGBMultipliers.B = c.Adjust.B
	p.AdjustMode = c.Adjust.Mode.String()
	if c.Adjust.Activation == imaging.WhenSaturationBelow {
		p.AdjustBelow = c.Adjust.Threshold
	}
	p.SkipGray = c.Mask.Gray == imaging.GrayExact
	if c.Mask.Gray == imaging.GrayNear {
		p.SkipNearGrayThreshold = int(c.Mask.Threshold)
	}
	p.TransparentOnly = c.Mask.Transparency == imaging.TransparencyTransparentOnly
	p.OpaqueOnly = c.Mask.Transparency == imaging.TransparencyOpaqueOnly
	p.Prefix = c.Prefix
	p.Overwrite = c.Overwrite
	p.LabelFilenames = c.LabelFilenames
	return p
}
