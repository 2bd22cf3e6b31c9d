package editor

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/AnyUserName/bambi-editor/internal/conduit"
	"github.com/AnyUserName/bambi-editor/internal/eventbus"
	"github.com/AnyUserName/bambi-editor/internal/filter"
	"github.com/AnyUserName/bambi-editor/internal/queue"
)

func newSession(t *testing.T) (*Session, *eventbus.Registry) {
	t.Helper()
	reg := eventbus.NewRegistry(nil)
	t.Cleanup(reg.Close)
	if err := reg.Announce("editor"); err != nil {
		t.Fatal(err)
	}
	if err := reg.Activate("editor"); err != nil {
		t.Fatal(err)
	}
	s, err := New(Config{Registry: reg})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	return s, reg
}

// numbered gives every pixel a distinct red value.
func numbered(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(y*w + x + 1), G: 10, B: 20, A: 255})
		}
	}
	return img
}

func wait(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestSession_FlipHorizontal(t *testing.T) {
	s, _ := newSession(t)
	src := numbered(4, 2)
	if err := s.Load(src); err != nil {
		t.Fatal(err)
	}
	if err := s.Apply(filter.FlipHorizontal); err != nil {
		t.Fatal(err)
	}
	wait(t, s)

	out, err := s.Image()
	if err != nil {
		t.Fatal(err)
	}
	if out.Bounds().Dx() != 4 || out.Bounds().Dy() != 2 {
		t.Fatalf("size: %v", out.Bounds())
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			if out.NRGBAAt(x, y) != src.NRGBAAt(3-x, y) {
				t.Errorf("(%d,%d): got %v want %v", x, y, out.NRGBAAt(x, y), src.NRGBAAt(3-x, y))
			}
		}
	}
}

func TestSession_RotateRight(t *testing.T) {
	s, _ := newSession(t)
	src := numbered(3, 2)
	s.Load(src)
	if err := s.Rotate(Right); err != nil {
		t.Fatal(err)
	}
	wait(t, s)

	out, _ := s.Image()
	if out.Bounds().Dx() != 2 || out.Bounds().Dy() != 3 {
		t.Fatalf("size: %v", out.Bounds())
	}
	// (x, y) lands on (h-1-y, x).
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			if out.NRGBAAt(1-y, x) != src.NRGBAAt(x, y) {
				t.Errorf("source (%d,%d) misplaced", x, y)
			}
		}
	}

	s.Rotate(Left)
	wait(t, s)
	back, _ := s.Image()
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			if back.NRGBAAt(x, y) != src.NRGBAAt(x, y) {
				t.Fatalf("rotate right then left changed (%d,%d)", x, y)
			}
		}
	}
}

func TestSession_AdjustSliderMapping(t *testing.T) {
	s, _ := newSession(t)
	s.Load(numbered(2, 2))

	if err := s.Adjust(filter.Red, 5); err != nil {
		t.Fatal(err)
	}
	if err := s.Adjust(filter.Contrast, 0); err != nil {
		t.Fatal(err)
	}
	if err := s.Adjust(filter.Brightness, -5); err != nil {
		t.Fatal(err)
	}
	adj := s.ColorAdjust()
	if adj.Red != 0.5 || adj.Contrast != 1 || adj.Brightness != 0.5 {
		t.Errorf("adjust: %v", adj)
	}

	if err := s.Adjust(filter.Green, 11); !errors.Is(err, ErrSliderRange) {
		t.Errorf("out of range slider: %v", err)
	}
	if err := s.Adjust(filter.Invert, 1); err == nil {
		t.Error("Adjust accepted a non-colour kind")
	}
	wait(t, s)
}

func TestSession_GroupSwitchClearsOtherGroup(t *testing.T) {
	s, _ := newSession(t)
	s.Load(numbered(2, 2))

	s.Adjust(filter.Red, 4)
	s.Adjust(filter.Hue, 3)
	adj := s.ColorAdjust()
	if adj.Red != 0 || adj.Hue != 0.3 {
		t.Errorf("after switching to HS: %v", adj)
	}
	s.Adjust(filter.Blue, -2)
	adj = s.ColorAdjust()
	if adj.Hue != 0 || adj.Blue != -0.2 {
		t.Errorf("after switching back to RGB: %v", adj)
	}
	wait(t, s)
}

func TestSession_RecolouringResetsSliders(t *testing.T) {
	s, _ := newSession(t)
	s.Load(numbered(2, 2))
	s.Adjust(filter.Saturation, -10)
	if err := s.Apply(filter.Grayscale); err != nil {
		t.Fatal(err)
	}
	if !s.ColorAdjust().IsNeutral() {
		t.Errorf("sliders not reset: %v", s.ColorAdjust())
	}
	wait(t, s)
}

func TestSession_ResetRestoresOriginal(t *testing.T) {
	s, _ := newSession(t)
	s.Load(numbered(5, 3))
	orig := s.Fingerprint()

	s.Apply(filter.Invert)
	s.Rotate(Right)
	s.Scale(50)
	wait(t, s)
	if s.Fingerprint() == orig {
		t.Fatal("operations left the image unchanged")
	}

	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	wait(t, s)
	if s.Fingerprint() != orig {
		t.Error("reset did not restore the original")
	}
}

func TestSession_History(t *testing.T) {
	s, _ := newSession(t)
	s.Load(numbered(4, 2))
	s.Rotate(Right)
	s.Apply(filter.Sepia)
	wait(t, s)

	h := s.History()
	if len(h) != 2 {
		t.Fatalf("history length %d", len(h))
	}
	if h[0].Kind != filter.Rotate90CW || h[0].Display != "+90°" || h[0].Width != 2 || h[0].Height != 4 {
		t.Errorf("first record: %+v", h[0])
	}
	if h[1].Kind != filter.Sepia || h[1].Hash != s.Fingerprint() {
		t.Errorf("second record: %+v", h[1])
	}
}

func TestSession_Errors(t *testing.T) {
	s, _ := newSession(t)
	if err := s.Apply(filter.Invert); !errors.Is(err, conduit.ErrNotLoaded) {
		t.Errorf("apply before load: %v", err)
	}
	s.Load(numbered(2, 2))
	if err := s.Apply(filter.Red); !errors.Is(err, ErrParameterized) {
		t.Errorf("apply colour kind: %v", err)
	}
	if err := s.Scale(0); !errors.Is(err, ErrScaleRange) {
		t.Errorf("scale 0: %v", err)
	}
	if err := s.Load(nil); !errors.Is(err, conduit.ErrNilImage) {
		t.Errorf("load nil: %v", err)
	}
}

func TestSession_LoadPublishesInitialized(t *testing.T) {
	s, reg := newSession(t)
	got := make(chan eventbus.ModelEvent, 1)
	reg.Subscribe(eventbus.Subscriber{Name: "panel", OnModel: func(ev eventbus.ModelEvent) {
		if ev.Phase == eventbus.Initialized {
			got <- ev
		}
	}})
	s.Load(numbered(3, 3))
	select {
	case ev := <-got:
		if ev.Image == nil || ev.Image.Bounds().Dx() != 3 {
			t.Errorf("initialized event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no initialized event")
	}
}

func TestSession_WaitHonoursContext(t *testing.T) {
	s, _ := newSession(t)
	s.Load(numbered(400, 400))
	s.Apply(filter.Emboss)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Wait(ctx); err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("wait: %v", err)
	}
	wait(t, s)
}

// hold occupies the queue with an operation that only finishes when the
// returned func is called.
func hold(t *testing.T, s *Session) func() {
	t.Helper()
	blocker := filter.New(filter.Invert)
	if err := s.Queue().Submit(blocker, queue.HandleFunc(func() {})); err != nil {
		t.Fatal(err)
	}
	bus, err := s.Queue().Bus()
	if err != nil {
		t.Fatal(err)
	}
	return func() {
		bus.Publish(eventbus.ModelEvent{Phase: eventbus.AfterChange, Op: blocker.ID()})
		wait(t, s)
	}
}

func TestSession_AbortDropsPendingSliderMoves(t *testing.T) {
	s, _ := newSession(t)
	s.Load(numbered(2, 2))
	release := hold(t, s)

	s.Adjust(filter.Red, 2)
	s.Adjust(filter.Red, 5) // replaces the queued red move
	if n := s.Queue().Len(); n != 1 {
		t.Fatalf("queue length: %d", n)
	}
	if err := s.Abort(); err != nil {
		t.Fatal(err)
	}
	if adj := s.ColorAdjust(); !adj.IsNeutral() {
		t.Errorf("sliders after abort: %v", adj)
	}
	release()

	if err := s.Adjust(filter.Green, 2); err != nil {
		t.Fatal(err)
	}
	wait(t, s)
	adj := s.ColorAdjust()
	if adj.Red != 0 || adj.Green != 0.2 {
		t.Errorf("sliders: %v", adj)
	}
	out, _ := s.Image()
	if px := out.NRGBAAt(0, 0); px.R != 1 {
		t.Errorf("aborted red move applied: %v", px)
	}
}

func TestSession_AbortEventDropsPendingSliderMoves(t *testing.T) {
	s, _ := newSession(t)
	s.Load(numbered(2, 2))
	release := hold(t, s)

	s.Adjust(filter.Hue, 3)
	bus, _ := s.Queue().Bus()
	bus.Publish(eventbus.AbortEvent{})
	bus.Sync()
	bus.Sync()

	if adj := s.ColorAdjust(); !adj.IsNeutral() {
		t.Errorf("sliders after abort event: %v", adj)
	}
	release()
}

func TestSession_AdjustAfterAbortBuildsOnSurvivingWork(t *testing.T) {
	s, _ := newSession(t)
	s.Load(numbered(2, 2))
	release := hold(t, s)

	s.Adjust(filter.Red, 3)
	s.Abort()
	s.Adjust(filter.Blue, 4)
	if adj := s.ColorAdjust(); adj.Red != 0 || adj.Blue != 0.4 {
		t.Errorf("sliders: %v", adj)
	}
	release()
	wait(t, s)
	if adj := s.ColorAdjust(); adj.Red != 0 || adj.Blue != 0.4 {
		t.Errorf("sliders after completion: %v", adj)
	}
}

func TestSession_HistoryIgnoresOtherSessions(t *testing.T) {
	s1, reg := newSession(t)
	s2, err := New(Config{Registry: reg})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s2.Close)
	s1.Load(numbered(3, 2))
	s2.Load(numbered(2, 2))

	s1.Apply(filter.Invert)
	wait(t, s1)
	if h := s2.History(); len(h) != 0 {
		t.Fatalf("other session recorded %d entries", len(h))
	}
	s2.Apply(filter.Sepia)
	wait(t, s2)

	h1, h2 := s1.History(), s2.History()
	if len(h1) != 1 || h1[0].Kind != filter.Invert {
		t.Errorf("first session history: %+v", h1)
	}
	if len(h2) != 1 || h2[0].Kind != filter.Sepia || h2[0].Width != 2 {
		t.Errorf("second session history: %+v", h2)
	}
}
