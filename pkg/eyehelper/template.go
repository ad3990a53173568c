package eyehelper

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/teslashibe/go-eyehelper/internal/httpc"
	"github.com/teslashibe/go-eyehelper/pkg/cue"
	"github.com/teslashibe/go-eyehelper/pkg/web"
)

// maxTemplateBytes bounds a downloaded template image.
const maxTemplateBytes = 8 << 20

// ErrNoFrame is returned by Retarget before the first frame was read.
var ErrNoFrame = errors.New("eyehelper: no frame available")

// LoadTemplate sets the tracking template from a file path or an http(s) URL.
func (a *App) LoadTemplate(ctx context.Context, location string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		data, err = httpc.Fetch(ctx, location, maxTemplateBytes)
	} else {
		data, err = os.ReadFile(location)
	}
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}
	if err := a.tracker.DecodeTemplate(data); err != nil {
		return err
	}
	a.logger.Info("tracking template loaded", "location", location)
	return nil
}

// SetTemplate sets the tracking template from an encoded image.
func (a *App) SetTemplate(data []byte) error {
	return a.tracker.DecodeTemplate(data)
}

// Retarget takes the tracking template from a region of the latest frame.
func (a *App) Retarget(region web.Region) error {
	if err := region.Validate(); err != nil {
		return err
	}

	a.frameMu.Lock()
	defer a.frameMu.Unlock()

	if a.lastFrame.Empty() {
		return ErrNoFrame
	}
	w, h := float64(a.lastFrame.Cols()), float64(a.lastFrame.Rows())
	rect := image.Rect(
		int(region.X*w), int(region.Y*h),
		int((region.X+region.W)*w), int((region.Y+region.H)*h),
	)
	if rect.Dx() < 1 || rect.Dy() < 1 {
		return fmt.Errorf("%w: region smaller than a pixel", web.ErrInvalidRegion)
	}

	roi := a.lastFrame.Region(rect)
	defer roi.Close()
	if err := a.tracker.SetTemplate(roi); err != nil {
		return err
	}
	a.logger.Info("tracking template taken from frame", "x", rect.Min.X, "y", rect.Min.Y, "width", rect.Dx(), "height", rect.Dy())
	return nil
}

// Cues lists the cue table with the state of each clip.
func (a *App) Cues() []web.CueInfo {
	infos := make([]web.CueInfo, 0, len(a.table)*len(a.table[0]))
	for h := range a.table {
		for band, id := range a.table[h] {
			info := web.CueInfo{
				ID:         id,
				HeightBand: h,
				AngleBand:  band,
				Angle:      cue.BandCenter(band),
			}
			if clip, err := a.registry.Get(id); err == nil {
				info.Loaded = true
				info.DurationMS = clip.Duration().Milliseconds()
				info.Source = clip.Source
			}
			infos = append(infos, info)
		}
	}
	return infos
}
