package debug

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestFlagsGateOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	Enabled, Cues, Tracking = false, false, false
	t.Cleanup(func() { Enabled, Cues, Tracking = false, false, false })

	Log(logger, "general")
	CueLog(logger, "cue")
	TrackLog(logger, "frame")
	if buf.Len() != 0 {
		t.Fatalf("output with flags off: %q", buf.String())
	}

	Cues = true
	CueLog(logger, "cue", "id", "height0angle_85")
	TrackLog(logger, "frame")
	if !strings.Contains(buf.String(), "height0angle_85") || strings.Contains(buf.String(), "frame") {
		t.Errorf("Cues flag output = %q", buf.String())
	}

	buf.Reset()
	Cues, Enabled = false, true
	CueLog(logger, "cue via enabled")
	Log(logger, "general")
	if !strings.Contains(buf.String(), "cue via enabled") || !strings.Contains(buf.String(), "general") {
		t.Errorf("Enabled flag output = %q", buf.String())
	}
}
