package detection

import "math"

// Config holds the tunable thresholds of the spine detection pipeline.
//
// Config is a value type: functions receive copies and never modify the
// caller's value, so one Config can be shared by concurrent detections.
type Config struct {
	// MinSpineWidthPercent is the narrowest accepted spine region as a
	// percentage of the row width.
	MinSpineWidthPercent float64 `json:"minSpineWidthPercent"`

	// MaxSpineWidthPercent is the widest accepted spine region as a
	// percentage of the row width.
	MaxSpineWidthPercent float64 `json:"maxSpineWidthPercent"`

	// VerticalAngleTolerance is how many degrees a spine edge may lean away
	// from vertical.
	VerticalAngleTolerance float64 `json:"verticalAngleTolerance"`

	// MinLineLengthPercent is the shortest accepted spine edge as a
	// percentage of the row height.
	MinLineLengthPercent float64 `json:"minLineLengthPercent"`

	// CannyLowThreshold and CannyHighThreshold are the hysteresis gradient
	// thresholds (0-255 scale).
	CannyLowThreshold  float64 `json:"cannyLowThreshold"`
	CannyHighThreshold float64 `json:"cannyHighThreshold"`

	// MaxImageDimension caps the longest side of the working copy used for
	// detection. Crops are still taken from the original.
	MaxImageDimension int `json:"maxImageDimension"`

	// MergeThreshold is the largest x distance in working pixels between
	// two line detections treated as one physical edge.
	MergeThreshold float64 `json:"mergeThreshold"`

	// MinQualityWidthPercent drops final spines narrower than this
	// percentage of the original image width.
	MinQualityWidthPercent float64 `json:"minQualityWidthPercent"`

	// MinMeanBrightness drops final spines whose mean brightness (0-255)
	// is below this value.
	MinMeanBrightness float64 `json:"minMeanBrightness"`

	// JPEGQuality is the encoder quality for spine crops (1-100).
	JPEGQuality int `json:"jpegQuality"`
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		MinSpineWidthPercent:   0.8,
		MaxSpineWidthPercent:   12,
		VerticalAngleTolerance: 15,
		MinLineLengthPercent:   15,
		CannyLowThreshold:      30,
		CannyHighThreshold:     120,
		MaxImageDimension:      2000,
		MergeThreshold:         8,
		MinQualityWidthPercent: 1.5,
		MinMeanBrightness:      20,
		JPEGQuality:            90,
	}
}

// ConfigOverride is a partial Config. Nil fields keep the base value.
type ConfigOverride struct {
	MinSpineWidthPercent   *float64 `json:"minSpineWidthPercent,omitempty"`
	MaxSpineWidthPercent   *float64 `json:"maxSpineWidthPercent,omitempty"`
	VerticalAngleTolerance *float64 `json:"verticalAngleTolerance,omitempty"`
	MinLineLengthPercent   *float64 `json:"minLineLengthPercent,omitempty"`
	CannyLowThreshold      *float64 `json:"cannyLowThreshold,omitempty"`
	CannyHighThreshold     *float64 `json:"cannyHighThreshold,omitempty"`
	MaxImageDimension      *int     `json:"maxImageDimension,omitempty"`
	MergeThreshold         *float64 `json:"mergeThreshold,omitempty"`
	MinQualityWidthPercent *float64 `json:"minQualityWidthPercent,omitempty"`
	MinMeanBrightness      *float64 `json:"minMeanBrightness,omitempty"`
	JPEGQuality            *int     `json:"jpegQuality,omitempty"`
}

// Apply returns c with every non-nil field of o copied over, normalized.
// A nil override returns c normalized.
func (c Config) Apply(o *ConfigOverride) Config {
	if o != nil {
		setFloat(&c.MinSpineWidthPercent, o.MinSpineWidthPercent)
		setFloat(&c.MaxSpineWidthPercent, o.MaxSpineWidthPercent)
		setFloat(&c.VerticalAngleTolerance, o.VerticalAngleTolerance)
		setFloat(&c.MinLineLengthPercent, o.MinLineLengthPercent)
		setFloat(&c.CannyLowThreshold, o.CannyLowThreshold)
		setFloat(&c.CannyHighThreshold, o.CannyHighThreshold)
		setFloat(&c.MergeThreshold, o.MergeThreshold)
		setFloat(&c.MinQualityWidthPercent, o.MinQualityWidthPercent)
		setFloat(&c.MinMeanBrightness, o.MinMeanBrightness)
		if o.MaxImageDimension != nil {
			c.MaxImageDimension = *o.MaxImageDimension
		}
		if o.JPEGQuality != nil {
			c.JPEGQuality = *o.JPEGQuality
		}
	}
	return c.Normalize()
}

// Normalize clamps out-of-range values instead of rejecting them:
// percentages into [0,100], the angle tolerance into [0,90], negative
// thresholds to zero, inverted min/max pairs swapped, a non-positive
// MaxImageDimension reset to its default and JPEGQuality into [1,100].
// NaN values fall back to the defaults.
func (c Config) Normalize() Config {
	def := DefaultConfig()

	c.MinSpineWidthPercent = clampFloat(c.MinSpineWidthPercent, 0, 100, def.MinSpineWidthPercent)
	c.MaxSpineWidthPercent = clampFloat(c.MaxSpineWidthPercent, 0, 100, def.MaxSpineWidthPercent)
	if c.MaxSpineWidthPercent < c.MinSpineWidthPercent {
		c.MinSpineWidthPercent, c.MaxSpineWidthPercent = c.MaxSpineWidthPercent, c.MinSpineWidthPercent
	}

	c.VerticalAngleTolerance = clampFloat(c.VerticalAngleTolerance, 0, 90, def.VerticalAngleTolerance)
	c.MinLineLengthPercent = clampFloat(c.MinLineLengthPercent, 0, 100, def.MinLineLengthPercent)

	c.CannyLowThreshold = clampFloat(c.CannyLowThreshold, 0, math.MaxFloat64, def.CannyLowThreshold)
	c.CannyHighThreshold = clampFloat(c.CannyHighThreshold, 0, math.MaxFloat64, def.CannyHighThreshold)
	if c.CannyHighThreshold < c.CannyLowThreshold {
		c.CannyLowThreshold, c.CannyHighThreshold = c.CannyHighThreshold, c.CannyLowThreshold
	}

	if c.MaxImageDimension <= 0 {
		c.MaxImageDimension = def.MaxImageDimension
	}

	c.MergeThreshold = clampFloat(c.MergeThreshold, 0, math.MaxFloat64, def.MergeThreshold)
	c.MinQualityWidthPercent = clampFloat(c.MinQualityWidthPercent, 0, 100, def.MinQualityWidthPercent)
	c.MinMeanBrightness = clampFloat(c.MinMeanBrightness, 0, 255, def.MinMeanBrightness)

	if c.JPEGQuality < 1 {
		c.JPEGQuality = 1
	} else if c.JPEGQuality > 100 {
		c.JPEGQuality = 100
	}
	return c
}

// WidthBounds returns the accepted spine width range in pixels for a row of
// the given width.
func (c Config) WidthBounds(width int) (minWidth, maxWidth float64) {
	w := float64(width)
	return w * c.MinSpineWidthPercent / 100, w * c.MaxSpineWidthPercent / 100
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func clampFloat(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
