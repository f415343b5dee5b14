// Package capture keeps a continuous speech-recognition session alive.
//
// A Recognizer is the capture boundary: Start opens one session and the
// session reports finalised transcripts, errors and its own end on the Events
// channel. The Controller is the state machine on top of it. It restarts
// ended or failed sessions with backoff, suppresses duplicate transcripts and
// falls back to manual text entry once speech proves unreliable.
package capture

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrAlreadyActive is returned by Start while a session is running.
	ErrAlreadyActive = errors.New("capture: recognition already started")
	// ErrUnavailable means the host has no speech capture at all.
	ErrUnavailable = errors.New("capture: speech recognition unavailable")
)

type EventKind int

const (
	EventResult EventKind = iota
	EventError
	EventEnd
)

func (k EventKind) String() string {
	switch k {
	case EventResult:
		return "result"
	case EventError:
		return "error"
	case EventEnd:
		return "end"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one notification from a recognition session.
type Event struct {
	Kind       EventKind
	Transcript string
	Code       string
}

func Result(transcript string) Event { return Event{Kind: EventResult, Transcript: transcript} }
func Error(code string) Event        { return Event{Kind: EventError, Code: code} }
func End() Event                     { return Event{Kind: EventEnd} }

// Recognizer is a continuous, final-results-only recognition backend.
// Start must not block on I/O; connection failures arrive as Error events
// followed by End. Every session that started successfully ends with exactly
// one End event.
type Recognizer interface {
	Start(ctx context.Context) error
	Events() <-chan Event
}

// emit delivers ev unless ctx is done first.
func emit(ctx context.Context, ch chan<- Event, ev Event) {
	select {
	case ch <- ev:
	case <-ctx.Done():
	}
}
