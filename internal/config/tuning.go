// Package config loads optional bench tuning overrides from a JSON file.
// Every field is a pointer: fields omitted from the file keep their
// built-in defaults, so partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/photonlab/qgrid/internal/calib"
	"github.com/photonlab/qgrid/internal/decode"
)

// Tuning is the root bench tuning configuration.
type Tuning struct {
	// Calibration params
	MinContourArea *int     `json:"min_contour_area,omitempty"`
	CalibThreshold *float64 `json:"calib_threshold,omitempty"`
	Adaptive       *bool    `json:"adaptive,omitempty"`
	FireDuration   *string  `json:"fire_duration,omitempty"` // duration string like "100ms"
	SettleDelay    *string  `json:"settle_delay,omitempty"`  // duration string like "150ms"

	// Decode params
	CMax            *float64 `json:"c_max,omitempty"`
	DecodeThreshold *float64 `json:"decode_threshold,omitempty"`
	ROIRadius       *int     `json:"roi_radius,omitempty"`

	// Link params
	FrameTimeout *string `json:"frame_timeout,omitempty"` // duration string like "30s"
	BaudRate     *int    `json:"baud_rate,omitempty"`
}

// Load reads a Tuning from a JSON file. The file must have a .json
// extension and stay under the max file size.
func Load(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Tuning{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configured values are usable.
func (c *Tuning) Validate() error {
	if c.CMax != nil && *c.CMax <= 0 {
		return fmt.Errorf("c_max must be positive, got %f", *c.CMax)
	}
	if c.ROIRadius != nil && *c.ROIRadius <= 0 {
		return fmt.Errorf("roi_radius must be positive, got %d", *c.ROIRadius)
	}
	if c.MinContourArea != nil && *c.MinContourArea < 0 {
		return fmt.Errorf("min_contour_area must be non-negative, got %d", *c.MinContourArea)
	}
	if c.BaudRate != nil && *c.BaudRate <= 0 {
		return fmt.Errorf("baud_rate must be positive, got %d", *c.BaudRate)
	}
	for name, field := range map[string]*string{
		"fire_duration": c.FireDuration,
		"settle_delay":  c.SettleDelay,
		"frame_timeout": c.FrameTimeout,
	} {
		if field != nil && *field != "" {
			if _, err := time.ParseDuration(*field); err != nil {
				return fmt.Errorf("invalid %s '%s': %w", name, *field, err)
			}
		}
	}
	return nil
}

// ApplyCalib overlays the configured calibration values on opts.
func (c *Tuning) ApplyCalib(opts calib.Options) calib.Options {
	if c == nil {
		return opts
	}
	if c.MinContourArea != nil {
		opts.MinContourArea = *c.MinContourArea
	}
	if c.CalibThreshold != nil {
		opts.Threshold = *c.CalibThreshold
	}
	if c.Adaptive != nil {
		opts.Adaptive = *c.Adaptive
	}
	if d, ok := parseDuration(c.FireDuration); ok {
		opts.FireDuration = d
	}
	if d, ok := parseDuration(c.SettleDelay); ok {
		opts.SettleDelay = d
	}
	return opts
}

// ApplyDecoder overlays the configured decode values on d.
func (c *Tuning) ApplyDecoder(d *decode.Decoder) {
	if c == nil {
		return
	}
	if c.CMax != nil {
		d.CMax = *c.CMax
	}
	if c.DecodeThreshold != nil {
		d.Threshold = *c.DecodeThreshold
	}
	if c.ROIRadius != nil {
		d.ROIRadius = *c.ROIRadius
	}
}

// GetFrameTimeout returns the configured frame timeout, or zero when
// unset so the link default applies.
func (c *Tuning) GetFrameTimeout() time.Duration {
	if c == nil {
		return 0
	}
	if d, ok := parseDuration(c.FrameTimeout); ok {
		return d
	}
	return 0
}

// GetBaudRate returns the configured baud rate, or zero when unset so
// the link default applies.
func (c *Tuning) GetBaudRate() int {
	if c == nil || c.BaudRate == nil {
		return 0
	}
	return *c.BaudRate
}

func parseDuration(field *string) (time.Duration, bool) {
	if field == nil || *field == "" {
		return 0, false
	}
	d, err := time.ParseDuration(*field)
	if err != nil {
		return 0, false
	}
	return d, true
}
