package orchestrator

import (
	"context"

	"github.com/maastricht-university/listening-eye/capture"
	"github.com/maastricht-university/listening-eye/emotion"
	"github.com/maastricht-university/listening-eye/transition"
)

// Status is the line above the eye. An empty Color means the default.
type Status struct {
	Text  string
	Color string
}

// Panel is the emotion read-out under the eye.
type Panel struct {
	Label string
	Fill  float64 // percent, 0..100
	Color string
}

// Presenter is what the session shows. Calls arrive on the session
// goroutine and must not block.
type Presenter interface {
	SetStatus(Status)
	SetPanel(Panel)
	ShowFallback(message string)
	Flash(color string)
}

type Classifier interface {
	Classify(ctx context.Context, text string) (*emotion.Result, error)
}

// View is everything the renderer needs for one frame.
type View struct {
	Vector   emotion.Vector
	Frame    transition.Frame
	Capture  capture.State
	Fallback bool
}
