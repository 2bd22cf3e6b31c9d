// Package editor ties an image conduit, a filter queue and the event bus into
// one editing session. It is the surface a UI or the command line talks to.
package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AnyUserName/bambi-editor/internal/conduit"
	"github.com/AnyUserName/bambi-editor/internal/eventbus"
	"github.com/AnyUserName/bambi-editor/internal/filter"
	"github.com/AnyUserName/bambi-editor/internal/hasher"
	"github.com/AnyUserName/bambi-editor/internal/queue"
	"github.com/AnyUserName/bambi-editor/internal/worker"
)

var (
	ErrSliderRange   = errors.New("editor: slider value out of range")
	ErrScaleRange    = errors.New("editor: scale percent out of range")
	ErrParameterized = errors.New("editor: operation requires parameters")
)

const (
	SliderMin = -10
	SliderMax = 10

	ScaleMin = 1
	ScaleMax = 1000
)

// Direction of a quarter turn.
type Direction int

const (
	Right Direction = iota
	Left
)

// Config configures a Session.
type Config struct {
	Registry *eventbus.Registry
	Logger   logrus.FieldLogger
	Icons    func(filter.Kind) (string, bool)
}

// Record describes one completed operation.
type Record struct {
	Kind    filter.Kind
	Display string
	Elapsed time.Duration
	Width   int
	Height  int
	Hash    string
}

// sliders is the colour panel state: the cumulative adjustment and the
// group of the slider moved last.
type sliders struct {
	adjust filter.ColorAdjust
	group  filter.AdjustGroup
}

func neutralSliders() sliders {
	return sliders{adjust: filter.NeutralColorAdjust()}
}

// job is the queue handle of one submitted operation.
type job struct {
	*worker.Worker
	dropped atomic.Bool
}

// Dropped implements queue.Dropper.
func (j *job) Dropped() { j.dropped.Store(true) }

// mark is the slider state an operation leaves behind once it has run.
type mark struct {
	op  string
	job *job
	sliders
}

// Session is one open image.
type Session struct {
	reg   *eventbus.Registry
	log   logrus.FieldLogger
	img   *conduit.Conduit
	queue *queue.Queue
	sub   eventbus.SubscriptionID

	mu      sync.Mutex
	cur     sliders // what the next adjustment builds on
	settled sliders // after the last completed operation
	trail   []mark  // submitted but not completed, in execution order
	history []Record

	changed chan struct{}
}

// New creates a session bound to the registry.
func New(cfg Config) (*Session, error) {
	log := cfg.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	q, err := queue.New(queue.Config{Registry: cfg.Registry, Logger: log, Icons: cfg.Icons})
	if err != nil {
		return nil, fmt.Errorf("editor: %w", err)
	}
	s := &Session{
		reg:     cfg.Registry,
		log:     log.WithField("component", "editor"),
		img:     conduit.New(),
		queue:   q,
		cur:     neutralSliders(),
		settled: neutralSliders(),
		changed: make(chan struct{}, 1),
	}
	s.sub = cfg.Registry.Subscribe(eventbus.Subscriber{
		Name:    "editor",
		OnQueue: s.onQueue,
		OnModel: s.onModel,
	})
	return s, nil
}

// Load installs img as the session original and announces it.
func (s *Session) Load(img image.Image) error {
	bus, err := s.queue.Bus()
	if err != nil {
		return err
	}
	if err := s.img.Load(img); err != nil {
		return err
	}
	s.mu.Lock()
	s.cur, s.settled = neutralSliders(), neutralSliders()
	s.trail = nil
	s.history = nil
	s.mu.Unlock()

	mod, _ := s.img.Modified()
	s.log.WithFields(logrus.Fields{
		"width":  mod.Bounds().Dx(),
		"height": mod.Bounds().Dy(),
		"hash":   s.img.Fingerprint(),
	}).Info("image loaded")
	return bus.Publish(eventbus.ModelEvent{Phase: eventbus.Initialized, Image: mod})
}

// Apply submits a filter that takes no parameters. Colour adjustments and
// scaling go through Adjust and Scale; Refresh is routed to Reset.
func (s *Session) Apply(k filter.Kind) error {
	switch {
	case !k.Valid():
		return fmt.Errorf("editor: invalid operation %d", int(k))
	case k == filter.Refresh:
		return s.Reset()
	case k.IsColorAdjust(), k == filter.Scale:
		return fmt.Errorf("%w: %s", ErrParameterized, k.Name())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cur
	if k.ResetsColor() {
		next = neutralSliders()
	}
	return s.submitLocked(filter.New(k), next, false)
}

// Rotate turns the image a quarter in dir.
func (s *Session) Rotate(dir Direction) error {
	k := filter.Rotate90CW
	if dir == Left {
		k = filter.Rotate90CCW
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitLocked(filter.New(k), s.cur, false)
}

// Adjust moves the slider of a colour adjustment. Channel, hue and
// saturation sliders map to v/10; contrast and brightness to (v+10)/10.
func (s *Session) Adjust(k filter.Kind, slider int) error {
	if !k.IsColorAdjust() {
		return fmt.Errorf("editor: %s is not a colour adjustment", k.Name())
	}
	if slider < SliderMin || slider > SliderMax {
		return fmt.Errorf("%w: %d", ErrSliderRange, slider)
	}
	v := float64(slider) / 10
	if k == filter.Contrast || k == filter.Brightness {
		v = float64(slider+10) / 10
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cur
	var rebase bool
	group := k.Group()
	if group != filter.GroupNone && next.group != filter.GroupNone {
		if group == filter.GroupHS {
			next.adjust = next.adjust.ResetRGB()
		} else {
			next.adjust = next.adjust.ResetHS()
		}
		rebase = group != next.group
	}
	next.adjust = next.adjust.With(k, v)
	next.group = group

	s.log.WithFields(logrus.Fields{
		"op":     k.Name(),
		"slider": slider,
		"value":  v,
		"rebase": rebase,
	}).Debug("adjust")
	return s.submitLocked(filter.NewColorAdjust(k, next.adjust, rebase), next, false)
}

// Scale resamples the image to percent of its current size.
func (s *Session) Scale(percent int) error {
	if percent < ScaleMin || percent > ScaleMax {
		return fmt.Errorf("%w: %d", ErrScaleRange, percent)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitLocked(filter.NewScale(percent), s.cur, false)
}

// Reset drops queued work and reloads the original image as soon as the
// running operation finishes.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue.Len() > 0 {
		if _, err := s.queue.Abort(); err != nil {
			return err
		}
		s.rewindLocked()
	}
	return s.submitLocked(filter.New(filter.Refresh), neutralSliders(), true)
}

// Abort drops queued operations. The running one finishes. Slider moves
// that were dropped no longer count towards the next adjustment.
func (s *Session) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.queue.Abort(); err != nil {
		return err
	}
	s.rewindLocked()
	return nil
}

// Image returns the current working image.
func (s *Session) Image() (*image.NRGBA, error) {
	return s.img.Modified()
}

// Fingerprint returns the hash of the current working image.
func (s *Session) Fingerprint() string {
	return s.img.Fingerprint()
}

// ColorAdjust returns the cumulative slider state.
func (s *Session) ColorAdjust() filter.ColorAdjust {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.adjust
}

// History returns the operations completed since the last Load.
func (s *Session) History() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.history...)
}

// Queue exposes the session's scheduler.
func (s *Session) Queue() *queue.Queue { return s.queue }

// Wait blocks until no operation is running or queued. It must not be
// called from the interactive goroutine or a bus callback.
func (s *Session) Wait(ctx context.Context) error {
	for {
		if s.queue.Idle() {
			// Let listeners of the final AfterChange finish.
			if bus, err := s.queue.Bus(); err == nil {
				bus.Sync()
			}
			return nil
		}
		select {
		case <-s.changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close detaches the session from the registry.
func (s *Session) Close() {
	s.queue.Close()
	s.reg.Unsubscribe(s.sub)
}

// submitLocked hands op to the queue and, once accepted, makes next the
// slider state. s.mu must be held.
func (s *Session) submitLocked(op filter.Operation, next sliders, first bool) error {
	if !s.img.Loaded() {
		return conduit.ErrNotLoaded
	}
	bus, err := s.queue.Bus()
	if err != nil {
		return err
	}
	j := &job{Worker: worker.New(op, s.img, bus, s.log)}
	if first {
		err = s.queue.SubmitFirst(op, j)
	} else {
		err = s.queue.Submit(op, j)
	}
	if err != nil {
		return err
	}
	s.trail = append(s.trail, mark{op: op.ID(), job: j, sliders: next})
	s.cur = next
	return nil
}

// rewindLocked forgets operations the queue dropped and points the slider
// state at what the work that still runs will leave behind.
func (s *Session) rewindLocked() {
	kept := s.trail[:0]
	for _, m := range s.trail {
		if !m.job.dropped.Load() {
			kept = append(kept, m)
		}
	}
	s.trail = kept
	s.cur = s.settled
	if n := len(kept); n > 0 {
		s.cur = kept[n-1].sliders
	}
}

func (s *Session) trailIndexLocked(op string) int {
	for i, m := range s.trail {
		if m.op == op {
			return i
		}
	}
	return -1
}

func (s *Session) onQueue(ev eventbus.QueueEvent) {
	// Covers aborts published on the bus by someone other than Abort.
	if ev.Aborted {
		s.mu.Lock()
		s.rewindLocked()
		s.mu.Unlock()
	}
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// onModel settles the slider state and records history for operations this
// session submitted. Other sessions on the same context are ignored.
func (s *Session) onModel(ev eventbus.ModelEvent) {
	if ev.Phase != eventbus.AfterChange {
		return
	}
	s.mu.Lock()
	i := s.trailIndexLocked(ev.Op)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	// Anything before i was replaced in the queue and never ran.
	s.settled = s.trail[i].sliders
	s.trail = s.trail[i+1:]
	if ev.Image == nil {
		s.mu.Unlock()
		return
	}
	b := ev.Image.Bounds()
	rec := Record{
		Kind:    ev.Kind,
		Display: ev.Display,
		Elapsed: ev.Elapsed,
		Width:   b.Dx(),
		Height:  b.Dy(),
		Hash:    hasher.PixelHash(ev.Image, 16),
	}
	s.history = append(s.history, rec)
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"op":      ev.Kind.Name(),
		"elapsed": ev.Elapsed,
		"hash":    rec.Hash,
	}).Info("filter applied")
}
