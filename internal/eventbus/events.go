package eventbus

import (
	"image"
	"strings"
	"time"

	"github.com/AnyUserName/bambi-editor/internal/filter"
)

// Event is implemented by every event the bus carries. The set is closed.
type Event interface {
	event()
}

// QueueItem is one entry of the pending-work indicator list.
type QueueItem struct {
	ID      string // operation id
	Kind    filter.Kind
	Icon    string // empty when the kind has no toolbar icon
	Display string
}

// QueueEvent lists the in-flight operation (if any) followed by every queued
// operation in execution order.
type QueueEvent struct {
	Items   []QueueItem
	Aborted bool
}

// Phase is the stage of a running filter.
type Phase int

const (
	PhaseStart Phase = iota
	PhaseProgress
	PhaseFinalize
)

func (p Phase) String() string {
	switch p {
	case PhaseStart:
		return "start"
	case PhaseProgress:
		return "progress"
	case PhaseFinalize:
		return "finalize"
	}
	return "undefined"
}

// ProgressEvent reports the progress of one running operation.
type ProgressEvent struct {
	Kind    filter.Kind
	Phase   Phase
	Percent int
	Status  string
}

// Formatted prefixes the status with the operation description.
func (e ProgressEvent) Formatted() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.Status != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Status)
	}
	return sb.String()
}

// ModelPhase is a transition of the image state.
type ModelPhase int

const (
	Initialized ModelPhase = iota
	BeforeChange
	AfterChange
	Reset
)

func (p ModelPhase) String() string {
	switch p {
	case Initialized:
		return "initialized"
	case BeforeChange:
		return "before-change"
	case AfterChange:
		return "after-change"
	case Reset:
		return "reset"
	}
	return "undefined"
}

// ModelEvent announces an image state transition. The reset flags tell
// slider panels which colour adjustments were baked into the image and must
// return to neutral.
type ModelEvent struct {
	Phase   ModelPhase
	Op      string // id of the operation that caused the change, if any
	Kind    filter.Kind
	Display string
	Image   *image.NRGBA
	Elapsed time.Duration

	ResetRGB bool
	ResetHS  bool
	ResetCB  bool
}

// AbortEvent asks the filter queue to drop pending work.
type AbortEvent struct{}

// syncEvent is delivered in order like any other event and closes done once
// every earlier event has been dispatched.
type syncEvent struct {
	done chan struct{}
}

func (QueueEvent) event()    {}
func (ProgressEvent) event() {}
func (ModelEvent) event()    {}
func (AbortEvent) event()    {}
func (syncEvent) event()     {}
