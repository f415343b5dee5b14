package capture

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/listening-eye/metrics"
	"github.com/maastricht-university/listening-eye/sched"
)

const (
	StatusListening   = "The eye is listening. Just start speaking..."
	StatusUnsupported = "Speech not supported. Please type."

	FallbackUnsupported = "Type your message below."
	FallbackFailing     = "Speech failing — type instead."
)

type State int

const (
	Idle State = iota
	Listening
	ErrorBackoff
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case ErrorBackoff:
		return "error-backoff"
	default:
		return "unknown"
	}
}

// Sink is the presentation side of the controller.
type Sink interface {
	SetStatus(text string)
	ShowFallback(message string)
	// Accept receives every accepted transcript and every submitted text.
	Accept(text string)
}

type Config struct {
	ErrorThreshold  int
	BackoffFloor    time.Duration
	BackoffMax      time.Duration
	BackoffFactor   float64
	StartRetryDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		ErrorThreshold:  3,
		BackoffFloor:    time.Second,
		BackoffMax:      time.Second,
		BackoffFactor:   1,
		StartRetryDelay: time.Second,
	}
}

// Controller is the speech capture state machine. It is not safe for
// concurrent use: every method, including timer callbacks delivered by the
// Scheduler, must run on the session goroutine.
type Controller struct {
	rec   Recognizer
	sched sched.Scheduler
	sink  Sink
	cfg   Config
	log   *logrus.Entry
	ctx   context.Context

	state    State
	fallback bool
	errors   int
	backoff  time.Duration
	pending  sched.Timer
	last     string
	starts   int
}

// NewController wires a controller. A nil Recognizer means capture is
// unavailable on this host.
func NewController(rec Recognizer, s sched.Scheduler, sink Sink, cfg Config, log *logrus.Entry) *Controller {
	if cfg.ErrorThreshold < 1 {
		cfg.ErrorThreshold = 1
	}
	if cfg.BackoffFloor <= 0 {
		cfg.BackoffFloor = time.Second
	}
	if cfg.BackoffMax < cfg.BackoffFloor {
		cfg.BackoffMax = cfg.BackoffFloor
	}
	if cfg.BackoffFactor < 1 {
		cfg.BackoffFactor = 1
	}
	if cfg.StartRetryDelay <= 0 {
		cfg.StartRetryDelay = cfg.BackoffFloor
	}
	return &Controller{
		rec:     rec,
		sched:   s,
		sink:    sink,
		cfg:     cfg,
		log:     log.WithField("component", "capture"),
		ctx:     context.Background(),
		backoff: cfg.BackoffFloor,
	}
}

// Init performs the initial start, or switches straight to text entry when
// there is nothing to start.
func (c *Controller) Init(ctx context.Context) {
	c.ctx = ctx
	if c.rec == nil {
		c.log.Warn("speech capture unavailable, text entry only")
		c.sink.SetStatus(StatusUnsupported)
		c.showFallback(FallbackUnsupported)
		return
	}
	c.Start()
}

// Start attempts to open a recognition session. A failed attempt is retried
// after StartRetryDelay.
func (c *Controller) Start() error {
	if c.rec == nil {
		return ErrUnavailable
	}
	c.starts++
	if err := c.rec.Start(c.ctx); err != nil {
		if !errors.Is(err, ErrAlreadyActive) {
			c.state = Idle
		}
		c.log.WithError(err).Debug("start failed, retrying")
		c.scheduleRestart(c.cfg.StartRetryDelay)
		return err
	}
	// a live session makes any queued restart redundant
	c.cancelRestart()
	c.state = Listening
	c.sink.SetStatus(StatusListening)
	c.log.Debug("listening")
	return nil
}

// Apply feeds one recognizer event through the state machine.
func (c *Controller) Apply(ev Event) {
	switch ev.Kind {
	case EventResult:
		c.HandleResult(ev.Transcript)
	case EventError:
		c.HandleError(ev.Code)
	case EventEnd:
		c.HandleEnd()
	}
}

// HandleResult accepts a new, non-empty, non-duplicate transcript and
// reports whether it was accepted.
func (c *Controller) HandleResult(transcript string) bool {
	t := strings.TrimSpace(transcript)
	if t == "" || t == c.last {
		return false
	}
	c.last = t
	c.errors = 0
	c.backoff = c.cfg.BackoffFloor
	c.state = Listening
	c.log.WithField("transcript", t).Info("transcript accepted")
	c.sink.Accept(t)
	return true
}

func (c *Controller) HandleError(code string) {
	c.errors++
	c.state = ErrorBackoff
	metrics.CaptureErrors.WithLabelValues(code).Inc()
	c.log.WithFields(logrus.Fields{"code": code, "consecutive": c.errors}).Warn("speech error")

	c.cancelRestart()
	c.sink.SetStatus("Speech error: " + code + ". Retrying...")
	if c.errors >= c.cfg.ErrorThreshold {
		c.showFallback(FallbackFailing)
	}
	c.scheduleRestart(c.backoff)
	c.growBackoff()
}

// HandleEnd restarts an ended session unless a restart is already queued
// for the same stop.
func (c *Controller) HandleEnd() {
	if c.state == Listening {
		c.state = Idle
	}
	if c.pending != nil {
		return
	}
	c.log.Debug("session ended, restarting")
	c.scheduleRestart(c.backoff)
}

// PointerDown is the user-triggered recovery path.
func (c *Controller) PointerDown() {
	c.Start()
}

// SubmitText feeds manual text through the same path as a transcript. It
// does nothing until the fallback control is shown and never counts as
// evidence that speech recovered.
func (c *Controller) SubmitText(text string) bool {
	t := strings.TrimSpace(text)
	if !c.fallback || t == "" {
		return false
	}
	c.sink.Accept(t)
	return true
}

func (c *Controller) State() State           { return c.state }
func (c *Controller) FallbackActive() bool   { return c.fallback }
func (c *Controller) ConsecutiveErrors() int { return c.errors }
func (c *Controller) Backoff() time.Duration { return c.backoff }
func (c *Controller) RestartPending() bool   { return c.pending != nil }
func (c *Controller) StartAttempts() int     { return c.starts }
func (c *Controller) LastTranscript() string { return c.last }
func (c *Controller) Available() bool        { return c.rec != nil }

func (c *Controller) showFallback(msg string) {
	if c.fallback {
		return
	}
	c.fallback = true
	metrics.FallbackActive.Set(1)
	c.log.Info("text entry fallback shown")
	c.sink.ShowFallback(msg)
}

func (c *Controller) scheduleRestart(d time.Duration) {
	c.cancelRestart()
	c.pending = c.sched.AfterFunc(d, c.restartDue)
}

func (c *Controller) cancelRestart() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

func (c *Controller) restartDue() {
	c.pending = nil
	metrics.CaptureRestarts.Inc()
	c.Start()
}

func (c *Controller) growBackoff() {
	next := time.Duration(float64(c.backoff) * c.cfg.BackoffFactor)
	if next > c.cfg.BackoffMax {
		next = c.cfg.BackoffMax
	}
	if next < c.cfg.BackoffFloor {
		next = c.cfg.BackoffFloor
	}
	c.backoff = next
}
