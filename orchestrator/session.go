// Package orchestrator runs one interactive session: speech capture feeds
// text to the classifier, results update the emotion state and drive the
// transition engine, and the presenter shows the outcome.
//
// All mutable state is owned by the goroutine in Session.Run. Everything
// else, including timer expiries and classification results, reaches it as
// a message on the inbox.
package orchestrator

import (
	"context"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/listening-eye/capture"
	"github.com/maastricht-university/listening-eye/emotion"
	"github.com/maastricht-university/listening-eye/metrics"
	"github.com/maastricht-university/listening-eye/sched"
	"github.com/maastricht-university/listening-eye/transition"
)

type Deps struct {
	// Recognizer may be nil when the host has no speech capture.
	Recognizer capture.Recognizer
	Classifier Classifier
	Presenter  Presenter
	// Scheduler defaults to a sched.Loop bound to the session inbox.
	Scheduler sched.Scheduler
	Rand      *rand.Rand
	Log       *logrus.Entry
}

type Session struct {
	opts Options
	rec  capture.Recognizer
	cls  Classifier
	pres Presenter
	log  *logrus.Entry

	inbox chan func()
	done  chan struct{}
	ctx   context.Context

	clock sched.Scheduler
	state *emotion.State
	ctl   *capture.Controller
	eng   *transition.Engine

	// request ids, used when stale responses are discarded
	issued  uint64
	applied uint64
}

func New(opts Options, d Deps) *Session {
	if d.Log == nil {
		d.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Session{
		opts:  opts,
		rec:   d.Recognizer,
		cls:   d.Classifier,
		pres:  d.Presenter,
		log:   d.Log.WithField("component", "session"),
		inbox: make(chan func(), 64),
		done:  make(chan struct{}),
		ctx:   context.Background(),
		state: emotion.NewState(),
	}
	s.clock = d.Scheduler
	if s.clock == nil {
		s.clock = sched.NewLoop(s.post)
	}
	s.ctl = capture.NewController(d.Recognizer, s.clock, sink{s}, opts.Capture, d.Log)
	s.eng = transition.NewEngine(opts.Transition, s.clock, d.Rand)
	return s
}

// Run owns the session until ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	s.init(ctx)
	defer s.eng.Stop()

	var events <-chan capture.Event
	if s.rec != nil {
		events = s.rec.Events()
	}
	for {
		select {
		case <-ctx.Done():
			s.log.Debug("session stopped")
			return nil
		case f := <-s.inbox:
			f()
		case ev := <-events:
			s.ctl.Apply(ev)
		}
	}
}

func (s *Session) init(ctx context.Context) {
	s.ctx = ctx
	s.ctl.Init(ctx)
	s.eng.StartBlinking()
}

// post queues f for the session goroutine. It reports false once the
// session has stopped.
func (s *Session) post(f func()) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.inbox <- f:
		return true
	case <-s.done:
		return false
	}
}

// PointerDown restarts speech capture.
func (s *Session) PointerDown() bool {
	return s.post(s.ctl.PointerDown)
}

// SubmitText sends typed text through the fallback control.
func (s *Session) SubmitText(text string) bool {
	return s.post(func() { s.ctl.SubmitText(text) })
}

// Frame advances the animation by one frame and returns what to draw.
func (s *Session) Frame(ctx context.Context) (View, bool) {
	reply := make(chan View, 1)
	if !s.post(func() { reply <- s.tick() }) {
		return View{}, false
	}
	select {
	case v := <-reply:
		return v, true
	case <-s.done:
		return View{}, false
	case <-ctx.Done():
		return View{}, false
	}
}

func (s *Session) tick() View {
	s.eng.Tick(s.clock.Now())
	return s.view()
}

func (s *Session) view() View {
	return View{
		Vector:   s.state.Vector(),
		Frame:    s.eng.Frame(),
		Capture:  s.ctl.State(),
		Fallback: s.ctl.FallbackActive(),
	}
}

// classify sends text off the session goroutine; the outcome comes back
// through the inbox.
func (s *Session) classify(text string) {
	s.issued++
	id := s.issued
	ctx := s.ctx
	go func() {
		start := time.Now()
		res, err := s.cls.Classify(ctx, text)
		metrics.ClassificationDuration.Observe(time.Since(start).Seconds())
		s.post(func() { s.applyResult(id, text, res, err) })
	}()
}

func (s *Session) applyResult(id uint64, text string, res *emotion.Result, err error) {
	if err != nil {
		metrics.Classifications.WithLabelValues("error").Inc()
		s.log.WithError(err).WithField("text", text).Warn("classification failed")
		s.pres.SetStatus(Status{Text: StatusClassifyFailed})
		return
	}
	if s.opts.DiscardStale && id < s.applied {
		metrics.Classifications.WithLabelValues("stale").Inc()
		s.log.WithField("request", id).Debug("dropping stale classification")
		return
	}
	s.applied = id
	metrics.Classifications.WithLabelValues("ok").Inc()

	prev, to := s.state.Replace(res.Confidences)
	s.eng.Apply(to, s.clock.Now())
	s.log.WithFields(logrus.Fields{
		"label":     res.Emotion,
		"intensity": res.Intensity,
		"from":      prev,
		"to":        to,
	}).Info("emotion updated")

	st := detected(res)
	s.pres.SetStatus(st)
	s.pres.SetPanel(panel(res))
	s.pres.Flash(st.Color)
}

// sink adapts the session to the capture controller.
type sink struct{ s *Session }

func (k sink) SetStatus(text string)       { k.s.pres.SetStatus(Status{Text: text}) }
func (k sink) ShowFallback(message string) { k.s.pres.ShowFallback(message) }
func (k sink) Accept(text string)          { k.s.classify(text) }
