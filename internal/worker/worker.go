// Package worker executes a single filter operation off the interactive
// goroutine and reports its lifecycle on the event bus.
package worker

import (
	"fmt"
	"image"
	"io"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AnyUserName/bambi-editor/internal/conduit"
	"github.com/AnyUserName/bambi-editor/internal/eventbus"
	"github.com/AnyUserName/bambi-editor/internal/filter"
)

// Publisher is the part of the event bus a worker needs.
type Publisher interface {
	Publish(ev eventbus.Event) error
}

// Worker runs one operation exactly once. Every buffer swap it makes on the
// conduit is followed by the AfterChange event the queue advances on.
type Worker struct {
	op  filter.Operation
	img *conduit.Conduit
	bus Publisher
	log logrus.FieldLogger

	started atomic.Bool
	done    chan struct{}
	err     error

	lastPct int
}

// New prepares a worker. Nothing runs until Start.
func New(op filter.Operation, img *conduit.Conduit, bus Publisher, log logrus.FieldLogger) *Worker {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Worker{
		op:      op,
		img:     img,
		bus:     bus,
		log:     log.WithField("op", op.Kind().Name()),
		done:    make(chan struct{}),
		lastPct: -1,
	}
}

// Start launches the operation in a new goroutine. A worker cannot be
// restarted; further calls are logged and ignored.
func (w *Worker) Start() {
	if !w.started.CompareAndSwap(false, true) {
		w.log.Error("worker already started")
		return
	}
	go w.run()
}

// Done is closed when the operation has finished and AfterChange has been
// published.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Err returns the failure of the operation. Only valid after Done is closed.
func (w *Worker) Err() error { return w.err }

func (w *Worker) run() {
	defer close(w.done)
	start := time.Now()
	k := w.op.Kind()

	w.publish(eventbus.ModelEvent{Phase: eventbus.BeforeChange, Op: w.op.ID(), Kind: k})
	w.progress(eventbus.PhaseStart, 0, "started")

	ev := eventbus.ModelEvent{Phase: eventbus.AfterChange, Op: w.op.ID(), Kind: k, Display: w.op.Display()}
	img, err := w.execute(&ev)
	if err != nil {
		w.err = err
		w.log.WithError(err).Error("filter failed")
		img, _ = w.img.Modified()
	}
	w.progress(eventbus.PhaseFinalize, 100, "done")

	ev.Image = img
	ev.Elapsed = time.Since(start)
	w.publish(ev)
	w.log.WithField("elapsed", ev.Elapsed).Debug("filter finished")
}

func (w *Worker) execute(ev *eventbus.ModelEvent) (img *image.NRGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker: %s panicked: %v", w.op.Kind().Name(), r)
		}
	}()

	k := w.op.Kind()
	switch {
	case k == filter.Refresh:
		img, err = w.img.ResetToOriginal()
		if err != nil {
			return nil, err
		}
		ev.ResetRGB, ev.ResetHS, ev.ResetCB = true, true, true
		w.publish(eventbus.ModelEvent{Phase: eventbus.Reset, Op: w.op.ID(), Kind: k, Image: img})
		return img, nil

	case k.IsColorAdjust():
		// Moving one slider group clears the other one's panel.
		ev.ResetRGB = k.Group() == filter.GroupHS
		ev.ResetHS = k.Group() == filter.GroupRGB
		return w.adjust()

	case k.ResetsColor():
		src, err := w.img.Modified()
		if err != nil {
			return nil, err
		}
		dst := filter.For(w.op).Apply(src, w.scaled(0, 100))
		if err := w.img.Commit(dst, dst); err != nil {
			return nil, err
		}
		ev.ResetRGB, ev.ResetHS, ev.ResetCB = true, true, true
		return dst, nil

	default:
		return w.twoPass()
	}
}

// adjust applies the composite colour pass to the reference buffer so that
// repeated slider moves do not compound. A rebasing operation first makes
// the current working image the new reference.
func (w *Worker) adjust() (*image.NRGBA, error) {
	var base *image.NRGBA
	var err error
	if w.op.Rebase() {
		base, err = w.img.Modified()
	} else {
		base, err = w.img.Reference()
	}
	if err != nil {
		return nil, err
	}

	dst := filter.For(w.op).Apply(base, w.scaled(0, 100))
	if w.op.Rebase() {
		err = w.img.Commit(dst, base)
	} else {
		err = w.img.ReplaceModified(dst)
	}
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// twoPass transforms the working image and then the reference so both stay
// geometrically aligned. Progress spans 0-50 and 50-100.
func (w *Worker) twoPass() (*image.NRGBA, error) {
	mod, err := w.img.Modified()
	if err != nil {
		return nil, err
	}
	ref, err := w.img.Reference()
	if err != nil {
		return nil, err
	}

	t := filter.For(w.op)
	dst := t.Apply(mod, w.scaled(0, 50))
	refDst := dst
	if ref != mod {
		refDst = t.Apply(ref, w.scaled(50, 100))
	}
	if err := w.img.Commit(dst, refDst); err != nil {
		return nil, err
	}
	return dst, nil
}

// scaled maps a transform's 0-100 progress into [lo, hi].
func (w *Worker) scaled(lo, hi int) filter.ProgressFunc {
	return func(pct int) {
		w.progress(eventbus.PhaseProgress, lo+pct*(hi-lo)/100, "")
	}
}

func (w *Worker) progress(phase eventbus.Phase, pct int, status string) {
	if phase == eventbus.PhaseProgress && pct <= w.lastPct {
		return
	}
	if pct > w.lastPct {
		w.lastPct = pct
	}
	if status == "" {
		status = fmt.Sprintf("%d %%", pct)
	}
	w.publish(eventbus.ProgressEvent{
		Kind:    w.op.Kind(),
		Phase:   phase,
		Percent: pct,
		Status:  status,
	})
}

func (w *Worker) publish(ev eventbus.Event) {
	if err := w.bus.Publish(ev); err != nil {
		w.log.WithError(err).Error("publish")
	}
}
