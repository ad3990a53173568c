package camera

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrUnknownPreset is returned for a preset name not in Presets.
var ErrUnknownPreset = errors.New("camera: unknown preset")

// Update is a partial configuration change. Nil fields keep their current
// value. A preset is applied first and keeps the current device.
type Update struct {
	Preset     *string  `json:"preset,omitempty"`
	Device     *string  `json:"device,omitempty"`
	Width      *int     `json:"width,omitempty"`
	Height     *int     `json:"height,omitempty"`
	Framerate  *int     `json:"framerate,omitempty"`
	Exposure   *float64 `json:"exposure,omitempty"`
	Brightness *float64 `json:"brightness,omitempty"`
}

// ApplyTo returns cfg with the update applied.
func (u Update) ApplyTo(cfg Config) (Config, error) {
	if u.Preset != nil {
		preset := GetPreset(*u.Preset)
		if preset == nil {
			return cfg, fmt.Errorf("%w: %q", ErrUnknownPreset, *u.Preset)
		}
		device := cfg.Device
		cfg = *preset
		cfg.Device = device
	}
	set(&cfg.Device, u.Device)
	set(&cfg.Width, u.Width)
	set(&cfg.Height, u.Height)
	set(&cfg.Framerate, u.Framerate)
	set(&cfg.Exposure, u.Exposure)
	set(&cfg.Brightness, u.Brightness)
	return cfg, nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Manager holds the active capture settings. Changes are validated and
// handed to OnConfigChange before they become current.
type Manager struct {
	mu       sync.RWMutex
	config   Config
	revision int

	// OnConfigChange applies a new config to the device. Set it before the
	// manager is shared.
	OnConfigChange func(cfg Config) error
}

// NewManager creates a manager starting from cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{config: cfg}
}

// GetConfig returns the current configuration.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Revision counts accepted changes.
func (m *Manager) Revision() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.revision
}

// SetConfig validates cfg and applies it. The current config is kept if
// validation or applying fails.
func (m *Manager) SetConfig(cfg Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid camera config: %s", strings.Join(errs, "; "))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.OnConfigChange != nil {
		if err := m.OnConfigChange(cfg); err != nil {
			return fmt.Errorf("apply camera config: %w", err)
		}
	}
	m.config = cfg
	m.revision++
	return nil
}

// Apply merges u into the current configuration and sets the result.
func (m *Manager) Apply(u Update) (Config, error) {
	cfg, err := u.ApplyTo(m.GetConfig())
	if err != nil {
		return m.GetConfig(), err
	}
	if err := m.SetConfig(cfg); err != nil {
		return m.GetConfig(), err
	}
	return cfg, nil
}
