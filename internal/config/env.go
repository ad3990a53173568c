// Package config provides environment helpers for go-eyehelper commands.
package config

import (
	"os"
	"strconv"
)

// Environment variable names read by the commands.
const (
	EnvCameraDevice = "CAMERA_DEVICE"
	EnvCueDir       = "CUE_DIR"
	EnvSensorURL    = "SENSOR_URL"
	EnvSensorSerial = "SENSOR_SERIAL"
	EnvWebPort      = "WEB_PORT"
	EnvTemplatePath = "TEMPLATE_PATH"
	EnvAudioBackend = "AUDIO_BACKEND"
)

// Default values used when neither a flag nor the environment sets a value.
const (
	DefaultWebPort      = "8181"
	DefaultCameraDevice = "0"
)

// String returns the env var value or def when unset or empty.
func String(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

// Int returns the env var parsed as an int, or def when unset or invalid.
func Int(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Bool returns the env var parsed as a bool, or def when unset or invalid.
func Bool(name string, def bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// WebPort returns the dashboard port from WEB_PORT or the default.
func WebPort() string {
	return String(EnvWebPort, DefaultWebPort)
}

// CameraDevice returns the camera device from CAMERA_DEVICE or the default.
// Numeric values select a local capture index, anything else is a path or URL.
func CameraDevice() string {
	return String(EnvCameraDevice, DefaultCameraDevice)
}
