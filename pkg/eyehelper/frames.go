package eyehelper

import (
	"context"
	"errors"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-eyehelper/pkg/debug"
	"github.com/teslashibe/go-eyehelper/pkg/position"
	"github.com/teslashibe/go-eyehelper/pkg/tracking"
	"github.com/teslashibe/go-eyehelper/pkg/web"
)

// readRetry is the pause after a failed camera read.
const readRetry = 100 * time.Millisecond

// frameLoop tracks the object in every frame until ctx is done.
func (a *App) frameLoop(ctx context.Context, session string, done chan struct{}) {
	defer close(done)

	var pace <-chan time.Time
	if a.cfg.FrameInterval > 0 {
		ticker := time.NewTicker(a.cfg.FrameInterval)
		defer ticker.Stop()
		pace = ticker.C
	}

	var lastStatus, lastPreview time.Time
	for {
		if ctx.Err() != nil {
			return
		}

		ok := a.processFrame(&lastPreview)
		if now := time.Now(); now.Sub(lastStatus) >= a.cfg.StatusInterval {
			a.publishStatus(session)
			lastStatus = now
		}

		wait := pace
		if !ok && wait == nil {
			wait = time.After(readRetry)
		}
		if wait == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-wait:
		}
	}
}

// processFrame reads, tracks and folds one frame into the position
// estimate. It returns false when no frame could be read.
func (a *App) processFrame(lastPreview *time.Time) bool {
	frame, err := a.source.Read()
	if err != nil {
		frame.Close()
		a.frameErrors.Add(1)
		debug.TrackLog(a.logger, "frame read failed", "error", err)
		return false
	}
	defer frame.Close()
	a.frames.Add(1)

	m, err := a.tracker.Track(frame)
	if err != nil {
		if !errors.Is(err, tracking.ErrNoTemplate) {
			a.logger.Warn("tracking failed", "error", err)
		}
		m = position.NotFound()
	}
	state, accepted := a.position.Update(m)
	if m.Found {
		a.found.Add(1)
	}
	a.lastFound.Store(m.Found)
	debug.TrackLog(a.logger, "frame tracked",
		"found", m.Found, "accepted", accepted,
		"distance", state.Distance, "angle", state.Angle, "height", state.Height)

	a.keepFrame(frame)
	a.sendPreview(frame, lastPreview)
	return true
}

// keepFrame stores a copy of the latest frame for dashboard re-targeting.
func (a *App) keepFrame(frame gocv.Mat) {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()
	frame.CopyTo(&a.lastFrame)
}

func (a *App) sendPreview(frame gocv.Mat, last *time.Time) {
	if a.web == nil || a.cfg.PreviewInterval <= 0 || a.web.CameraViewers() == 0 {
		return
	}
	if time.Since(*last) < a.cfg.PreviewInterval {
		return
	}
	*last = time.Now()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		a.logger.Debug("preview encode failed", "error", err)
		return
	}
	defer buf.Close()
	a.web.SendCameraFrame(buf.GetBytes())
}

// publishStatus pushes the current estimates to the dashboard.
func (a *App) publishStatus(session string) {
	if a.web == nil {
		return
	}
	pos := a.position.Current()
	sample, haveOrientation := a.orientation.Current()
	playStats := a.loop.Stats()
	sensorStats := a.sensors.Stats()
	found := a.lastFound.Load()

	a.web.UpdateStatus(func(s *web.Status) {
		s.Active = true
		s.SessionID = session
		s.Position = pos
		s.Readout = web.NewReadout(pos, sample, haveOrientation)
		s.DistanceCategory = position.DistanceCategory(pos.Distance)
		s.Orientation = nil
		if haveOrientation {
			o := sample
			s.Orientation = &o
		}
		s.Cue = playStats.CurrentCue
		s.Found = found
		s.Playback = playStats
		s.Sensors = sensorStats
	})
}
