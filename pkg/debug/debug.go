// Package debug holds the global verbose-logging flags set from the command line.
package debug

import "log/slog"

// Enabled turns on general debug chatter.
var Enabled bool

// Cues logs every cue the playback loop starts (two lines per second).
// Use --debug-cues to enable.
var Cues bool

// Tracking logs every frame's match result. Very verbose.
// Use --debug-tracking to enable.
var Tracking bool

// Log writes msg at info level only if debug mode is enabled.
func Log(logger *slog.Logger, msg string, args ...any) {
	if Enabled {
		orDefault(logger).Info(msg, args...)
	}
}

// CueLog writes msg only if cue debugging is enabled.
func CueLog(logger *slog.Logger, msg string, args ...any) {
	if Cues || Enabled {
		orDefault(logger).Info(msg, args...)
	}
}

// TrackLog writes msg only if tracking debugging is enabled.
func TrackLog(logger *slog.Logger, msg string, args ...any) {
	if Tracking {
		orDefault(logger).Info(msg, args...)
	}
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
