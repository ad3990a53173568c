// Package camera captures grayscale frames for the tracker and holds the
// runtime-adjustable capture settings.
package camera

import "strconv"

// Config holds camera capture parameters.
// These can be modified via the camera API at runtime.
type Config struct {
	// Device is a V4L2 index ("0") or a video file / stream URL.
	Device string `json:"device"`

	// === Resolution ===
	Width     int `json:"width"`     // Frame width in pixels
	Height    int `json:"height"`    // Frame height in pixels
	Framerate int `json:"framerate"` // Target FPS

	// === Exposure ===
	// Exposure is the driver exposure value. 0 leaves auto exposure on.
	Exposure float64 `json:"exposure"`

	// Brightness is the driver brightness value. 0 leaves the default.
	Brightness float64 `json:"brightness"`
}

// Preset names for common configurations
const (
	PresetDefault = "default"
	PresetLow     = "low"
	Preset720p    = "720p"
	PresetNight   = "night"
)

// DefaultConfig returns the standard 640x480 configuration. Template
// matching cost grows with frame area, so higher resolutions slow tracking.
func DefaultConfig() Config {
	return Config{
		Device:    "0",
		Width:     640,
		Height:    480,
		Framerate: 30,
	}
}

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	low := DefaultConfig()
	low.Width, low.Height, low.Framerate = 320, 240, 15

	hd := DefaultConfig()
	hd.Width, hd.Height = 1280, 720

	night := DefaultConfig()
	night.Framerate = 15
	night.Exposure = 500
	night.Brightness = 0.6

	return map[string]Config{
		PresetDefault: DefaultConfig(),
		PresetLow:     low,
		Preset720p:    hd,
		PresetNight:   night,
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{PresetDefault, PresetLow, Preset720p, PresetNight}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	if cfg, ok := Presets()[name]; ok {
		return &cfg
	}
	return nil
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device == "" {
		errors = append(errors, "device must not be empty")
	}
	if c.Width < 160 || c.Width > 3840 {
		errors = append(errors, "width must be between 160 and 3840")
	}
	if c.Height < 120 || c.Height > 2160 {
		errors = append(errors, "height must be between 120 and 2160")
	}
	if c.Framerate < 1 || c.Framerate > 120 {
		errors = append(errors, "framerate must be between 1 and 120")
	}
	if c.Exposure < 0 {
		errors = append(errors, "exposure must be 0 (auto) or positive")
	}
	if c.Brightness < 0 || c.Brightness > 1 {
		errors = append(errors, "brightness must be between 0 and 1")
	}

	return errors
}

// DeviceID returns the device as a V4L2 index when it is numeric, otherwise
// as the path or URL string.
func (c *Config) DeviceID() any {
	if id, err := strconv.Atoi(c.Device); err == nil {
		return id
	}
	return c.Device
}
