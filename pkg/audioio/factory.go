package audioio

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
)

// NewSink creates the sink for cfg.Backend, resolving auto first.
func NewSink(cfg Config, logger *slog.Logger) (Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid audio config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	backend := cfg.Backend
	if backend == BackendAuto {
		backend = platformBackend()
	}
	logger.Info("audio output", "backend", backend, "sample_rate", cfg.SampleRate, "channels", cfg.Channels)

	if backend == BackendMock {
		return NewMockSink(cfg, logger), nil
	}
	sink, err := newCommandSink(backend, cfg, logger)
	if err != nil {
		return nil, err
	}
	return sink, nil
}

// platformBackend returns the player backend for this OS if its program is
// on PATH, otherwise mock.
func platformBackend() Backend {
	var b Backend
	switch runtime.GOOS {
	case "linux":
		b = BackendALSA
	case "darwin":
		b = BackendCoreAudio
	default:
		return BackendMock
	}

	program, _, err := playerCommand(b, DefaultConfig())
	if err != nil {
		return BackendMock
	}
	if _, err := exec.LookPath(program); err != nil {
		return BackendMock
	}
	return b
}
