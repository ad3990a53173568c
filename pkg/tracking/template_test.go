package tracking

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"gocv.io/x/gocv"
)

// drawTarget paints a square marker of side s with its top-left corner at o.
func drawTarget(img *gocv.Mat, o image.Point, s int) {
	white := color.RGBA{255, 255, 255, 0}
	black := color.RGBA{0, 0, 0, 0}
	gray := color.RGBA{128, 128, 128, 0}

	gocv.Rectangle(img, image.Rect(o.X+s/8, o.Y+s/8, o.X+7*s/8, o.Y+7*s/8), white, -1)
	gocv.Circle(img, image.Pt(o.X+s/2, o.Y+s/2), s/4, black, -1)
	gocv.Rectangle(img, image.Rect(o.X+s/8, o.Y+s/8, o.X+s/3, o.Y+s/3), gray, -1)
}

func near(got, want float64) bool {
	return math.Abs(got-want) < 1e-6
}

func blankFrame() gocv.Mat {
	return gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC1)
}

func newTracker(t *testing.T, cfg Config) *TemplateTracker {
	t.Helper()
	tr, err := NewTemplateTracker(cfg, nil)
	if err != nil {
		t.Fatalf("NewTemplateTracker failed: %v", err)
	}
	t.Cleanup(func() { tr.Close() })
	return tr
}

func setTemplate(t *testing.T, tr *TemplateTracker, size int) {
	t.Helper()
	src := blankFrame()
	defer src.Close()
	drawTarget(&src, image.Pt(20, 20), size)

	region := src.Region(image.Rect(20, 20, 20+size, 20+size))
	defer region.Close()
	if err := tr.SetTemplate(region); err != nil {
		t.Fatalf("SetTemplate failed: %v", err)
	}
}

func TestTemplateTracker_FindsTarget(t *testing.T) {
	cfg := FastConfig()
	cfg.Smoothing = 1
	tr := newTracker(t, cfg)
	setTemplate(t, tr, 40)

	frame := blankFrame()
	defer frame.Close()
	drawTarget(&frame, image.Pt(200, 150), 40)

	m, err := tr.Track(frame)
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if !m.Found {
		t.Fatal("target not found")
	}
	if !near(m.CenterX, 220) || !near(m.CenterY, 170) {
		t.Errorf("center = (%v, %v), want (220, 170)", m.CenterX, m.CenterY)
	}
	if !near(m.Width, 40) || !near(m.Height, 40) {
		t.Errorf("size = %vx%v, want 40x40", m.Width, m.Height)
	}
	if m.FrameWidth != 320 || m.FrameHeight != 240 {
		t.Errorf("frame = %vx%v, want 320x240", m.FrameWidth, m.FrameHeight)
	}
}

func TestTemplateTracker_MultiScale(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scales = []float64{1.0, 2.0}
	cfg.Smoothing = 1
	tr := newTracker(t, cfg)
	setTemplate(t, tr, 40)

	frame := blankFrame()
	defer frame.Close()
	drawTarget(&frame, image.Pt(150, 100), 80)

	m, err := tr.Track(frame)
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if !m.Found {
		t.Fatal("scaled target not found")
	}
	if !near(m.Height, 80) {
		t.Errorf("height = %v, want 80 (2x template)", m.Height)
	}
	if math.Abs(m.CenterX-190) > 3 || math.Abs(m.CenterY-140) > 3 {
		t.Errorf("center = (%v, %v), want ~(190, 140)", m.CenterX, m.CenterY)
	}
}

func TestTemplateTracker_NotFound(t *testing.T) {
	tr := newTracker(t, FastConfig())
	setTemplate(t, tr, 40)

	frame := blankFrame()
	defer frame.Close()

	m, err := tr.Track(frame)
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if m.Found {
		t.Errorf("found target in blank frame: %+v", m)
	}

	frames, matches := tr.Stats()
	if frames != 1 || matches != 0 {
		t.Errorf("Stats = (%d, %d), want (1, 0)", frames, matches)
	}
}

func TestTemplateTracker_Errors(t *testing.T) {
	tr := newTracker(t, DefaultConfig())

	frame := blankFrame()
	defer frame.Close()
	if _, err := tr.Track(frame); !errors.Is(err, ErrNoTemplate) {
		t.Errorf("Track without template = %v, want ErrNoTemplate", err)
	}

	empty := gocv.NewMat()
	defer empty.Close()
	if _, err := tr.Track(empty); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("Track(empty) = %v, want ErrEmptyFrame", err)
	}
	if err := tr.SetTemplate(empty); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("SetTemplate(empty) = %v, want ErrEmptyFrame", err)
	}
	if err := tr.LoadTemplate("/nonexistent/template.png"); err == nil {
		t.Error("LoadTemplate accepted a missing file")
	}
	if tr.HasTemplate() {
		t.Error("HasTemplate true after failed loads")
	}
}

func TestTemplateTracker_TemplateTooLarge(t *testing.T) {
	cfg := FastConfig()
	cfg.Scales = []float64{4.0}
	tr := newTracker(t, cfg)
	setTemplate(t, tr, 80)

	frame := blankFrame()
	defer frame.Close()
	drawTarget(&frame, image.Pt(20, 20), 80)

	m, err := tr.Track(frame)
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if m.Found {
		t.Error("matched with a template larger than the frame")
	}
}
