// Package config loads process settings from the environment.
//
// A .env file in the working directory (or the files passed to Load) is read
// first with godotenv; variables already set in the environment win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ironsheep/shelfscan/internal/detection"
)

// Prefix is prepended to every environment variable name.
const Prefix = "SHELFSCAN_"

// Config holds process configuration.
type Config struct {
	// Logging
	LogLevel  string
	LogFormat string

	// Vision backend name as registered with the vision package.
	Backend string

	// HTTP transport
	HTTPAddr       string
	RequestTimeout time.Duration
	MaxUploadBytes int64

	// Text recognition
	OCRLanguage    string
	TessdataPrefix string

	// Detection holds the detection parameters set through the
	// environment. Unset fields keep the detector defaults.
	Detection detection.ConfigOverride
}

// Load reads the given .env files (".env" when none are named), then builds
// the configuration from the environment. Missing files are not an error.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:      getEnvOrDefault("LOG_FORMAT", "text"),
		Backend:        getEnvOrDefault("BACKEND", "go"),
		HTTPAddr:       getEnvOrDefault("HTTP_ADDR", ":8080"),
		OCRLanguage:    getEnvOrDefault("OCR_LANGUAGE", "eng"),
		TessdataPrefix: getEnvOrDefault("TESSDATA_PREFIX", ""),
	}

	var err error
	if cfg.RequestTimeout, err = getEnvAsDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxUploadBytes, err = getEnvAsInt64OrDefault("MAX_UPLOAD_BYTES", 32<<20); err != nil {
		return nil, err
	}
	if err := cfg.loadDetection(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadDetection() error {
	floats := []struct {
		key string
		dst **float64
	}{
		{"MIN_SPINE_WIDTH_PERCENT", &c.Detection.MinSpineWidthPercent},
		{"MAX_SPINE_WIDTH_PERCENT", &c.Detection.MaxSpineWidthPercent},
		{"VERTICAL_ANGLE_TOLERANCE", &c.Detection.VerticalAngleTolerance},
		{"MIN_LINE_LENGTH_PERCENT", &c.Detection.MinLineLengthPercent},
		{"CANNY_LOW_THRESHOLD", &c.Detection.CannyLowThreshold},
		{"CANNY_HIGH_THRESHOLD", &c.Detection.CannyHighThreshold},
		{"MERGE_THRESHOLD", &c.Detection.MergeThreshold},
		{"MIN_QUALITY_WIDTH_PERCENT", &c.Detection.MinQualityWidthPercent},
		{"MIN_MEAN_BRIGHTNESS", &c.Detection.MinMeanBrightness},
	}
	for _, f := range floats {
		v, err := getEnvAsFloat(f.key)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	ints := []struct {
		key string
		dst **int
	}{
		{"MAX_IMAGE_DIMENSION", &c.Detection.MaxImageDimension},
		{"JPEG_QUALITY", &c.Detection.JPEGQuality},
	}
	for _, f := range ints {
		v, err := getEnvAsInt(f.key)
		if err != nil {
			return err
		}
		*f.dst = v
	}
	return nil
}

// Validate checks if configuration is valid.
func (c *Config) Validate() error {
	if c.Backend == "" {
		return fmt.Errorf("%sBACKEND must not be empty", Prefix)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%sREQUEST_TIMEOUT must be positive, got %v", Prefix, c.RequestTimeout)
	}
	if c.MaxUploadBytes < 1024 {
		return fmt.Errorf("%sMAX_UPLOAD_BYTES must be at least 1KB, got %d", Prefix, c.MaxUploadBytes)
	}
	return nil
}

// DetectionConfig returns the detector defaults with the environment
// overrides applied.
func (c *Config) DetectionConfig() detection.Config {
	return detection.DefaultConfig().Apply(&c.Detection)
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(Prefix + key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(Prefix + key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s%s: %w", Prefix, key, err)
	}
	return d, nil
}

func getEnvAsInt64OrDefault(key string, defaultValue int64) (int64, error) {
	raw := os.Getenv(Prefix + key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s%s: %w", Prefix, key, err)
	}
	return v, nil
}

// getEnvAsFloat returns nil when the variable is unset.
func getEnvAsFloat(key string) (*float64, error) {
	raw := os.Getenv(Prefix + key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s%s: %w", Prefix, key, err)
	}
	return &v, nil
}

// getEnvAsInt returns nil when the variable is unset.
func getEnvAsInt(key string) (*int, error) {
	raw := os.Getenv(Prefix + key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s%s: %w", Prefix, key, err)
	}
	return &v, nil
}
