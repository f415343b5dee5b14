// Package transition animates the eye between emotions: iris cross-fade
// progress, image sequence cycling, particle bursts and eye openness
// (blinks and the wide-eye pulse after each result).
package transition

import (
	"math"
	"math/rand"
	"time"

	"github.com/maastricht-university/listening-eye/emotion"
	"github.com/maastricht-university/listening-eye/sched"
)

type Config struct {
	// Speed is the progress added per rendered frame.
	Speed float64
	// TimeBased derives progress from elapsed time over Duration instead.
	TimeBased bool
	Duration  time.Duration

	Animate       bool
	FrameInterval time.Duration

	BurstSize int
	Decay     float64

	PulseOpenness float64
	PulseDuration time.Duration
	BlinkOpenness float64
	BlinkDuration time.Duration
	BlinkMin      time.Duration
	BlinkMax      time.Duration

	// Sequences is the image sequence length per category. Zero means the
	// category has no sequence and the iris is drawn from colour alone.
	Sequences [emotion.NumCategories]int
}

func DefaultConfig() Config {
	return Config{
		Speed:         0.05,
		Duration:      time.Second,
		Animate:       true,
		FrameInterval: 150 * time.Millisecond,
		BurstSize:     15,
		Decay:         0.95,
		PulseOpenness: 1.5,
		PulseDuration: 300 * time.Millisecond,
		BlinkOpenness: 0.1,
		BlinkDuration: 200 * time.Millisecond,
		BlinkMin:      2 * time.Second,
		BlinkMax:      7 * time.Second,
		Sequences:     [emotion.NumCategories]int{6, 9, 9, 9, 6, 9, 1},
	}
}

// SequencesFrom converts a category-name keyed table. Unknown names are
// ignored and missing categories get no sequence.
func SequencesFrom(m map[string]int) [emotion.NumCategories]int {
	var out [emotion.NumCategories]int
	for name, n := range m {
		if c, ok := emotion.Parse(name); ok && n > 0 {
			out[c] = n
		}
	}
	return out
}

// Particle is one burst dot in eye-centred canvas units.
type Particle struct {
	X, Y, Size float64
}

type State struct {
	From       emotion.Category
	To         emotion.Category
	Progress   float64
	FrameIndex int
	FrameClock time.Time
}

// Frame is an immutable snapshot for one rendered frame.
type Frame struct {
	State
	Openness  float64
	Particles []Particle
	SeqLen    int
}

// Engine owns the animation state. Like the capture controller it must only
// be driven from the session goroutine.
type Engine struct {
	cfg   Config
	sched sched.Scheduler
	rng   *rand.Rand

	state     State
	frames    int
	appliedAt time.Time
	openness  float64
	particles []Particle

	pulse        sched.Timer
	blinkNext    sched.Timer
	blinkRestore sched.Timer
	blinking     bool
}

func NewEngine(cfg Config, s sched.Scheduler, rng *rand.Rand) *Engine {
	if cfg.Speed <= 0 || cfg.Speed > 1 {
		cfg.Speed = 0.05
	}
	if cfg.Duration <= 0 {
		cfg.Duration = time.Second
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	now := s.Now()
	return &Engine{
		cfg:   cfg,
		sched: s,
		rng:   rng,
		state: State{
			From:       emotion.Neutral,
			To:         emotion.Neutral,
			Progress:   1,
			FrameClock: now,
		},
		appliedAt: now,
		openness:  1,
	}
}

// Apply starts a transition towards to and fires the burst and the pulse.
func (e *Engine) Apply(to emotion.Category, now time.Time) {
	e.state.From = e.state.To
	e.state.To = to
	e.state.Progress = 0
	e.state.FrameIndex = 0
	e.state.FrameClock = now
	e.frames = 0
	e.appliedAt = now

	e.particles = e.particles[:0]
	for i := 0; i < e.cfg.BurstSize; i++ {
		e.particles = append(e.particles, Particle{
			X:    -200 + e.rng.Float64()*400,
			Y:    -100 + e.rng.Float64()*200,
			Size: 5 + e.rng.Float64()*15,
		})
	}

	if e.pulse != nil {
		e.pulse.Stop()
	}
	e.openness = e.cfg.PulseOpenness
	e.pulse = e.sched.AfterFunc(e.cfg.PulseDuration, func() {
		e.pulse = nil
		e.openness = 1
	})
}

// Tick advances the animation by one rendered frame.
func (e *Engine) Tick(now time.Time) {
	if e.state.Progress < 1 {
		e.frames++
		e.state.Progress = e.progress(now)
	}

	if e.cfg.Animate && now.Sub(e.state.FrameClock) > e.cfg.FrameInterval {
		n := e.SeqLen(e.state.To)
		if n < 1 {
			n = 1
		}
		e.state.FrameIndex = (e.state.FrameIndex + 1) % n
		e.state.FrameClock = now
	}

	live := e.particles[:0]
	for _, p := range e.particles {
		p.Size *= e.cfg.Decay
		if p.Size >= 1 {
			live = append(live, p)
		}
	}
	e.particles = live
}

func (e *Engine) progress(now time.Time) float64 {
	if e.cfg.TimeBased {
		return math.Min(1, float64(now.Sub(e.appliedAt))/float64(e.cfg.Duration))
	}
	// float accumulation must not leave progress a hair under 1
	if e.frames >= e.framesToFinish() {
		return 1
	}
	return math.Min(1, float64(e.frames)*e.cfg.Speed)
}

func (e *Engine) framesToFinish() int {
	return int(math.Ceil(1/e.cfg.Speed - 1e-9))
}

// StartBlinking begins the blink cycle. It runs until Stop.
func (e *Engine) StartBlinking() {
	if e.blinking {
		return
	}
	e.blinking = true
	e.scheduleBlink()
}

func (e *Engine) scheduleBlink() {
	e.blinkNext = e.sched.AfterFunc(e.blinkDelay(), e.blink)
}

func (e *Engine) blinkDelay() time.Duration {
	span := e.cfg.BlinkMax - e.cfg.BlinkMin
	if span <= 0 {
		return e.cfg.BlinkMin
	}
	return e.cfg.BlinkMin + time.Duration(e.rng.Int63n(int64(span)))
}

func (e *Engine) blink() {
	e.blinkNext = nil
	e.openness = e.cfg.BlinkOpenness
	if e.blinkRestore != nil {
		e.blinkRestore.Stop()
	}
	e.blinkRestore = e.sched.AfterFunc(e.cfg.BlinkDuration, func() {
		e.blinkRestore = nil
		e.openness = 1
	})
	e.scheduleBlink()
}

// Stop cancels every pending timer.
func (e *Engine) Stop() {
	for _, t := range []*sched.Timer{&e.pulse, &e.blinkNext, &e.blinkRestore} {
		if *t != nil {
			(*t).Stop()
			*t = nil
		}
	}
	e.blinking = false
}

func (e *Engine) SeqLen(c emotion.Category) int {
	if int(c) < 0 || int(c) >= len(e.cfg.Sequences) {
		return 0
	}
	return e.cfg.Sequences[c]
}

func (e *Engine) State() State       { return e.state }
func (e *Engine) Openness() float64  { return e.openness }
func (e *Engine) ParticleCount() int { return len(e.particles) }

func (e *Engine) Frame() Frame {
	ps := make([]Particle, len(e.particles))
	copy(ps, e.particles)
	return Frame{
		State:     e.state,
		Openness:  e.openness,
		Particles: ps,
		SeqLen:    e.SeqLen(e.state.To),
	}
}
