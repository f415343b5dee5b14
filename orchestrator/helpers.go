package orchestrator

import (
	"strconv"
	"strings"

	"github.com/maastricht-university/listening-eye/capture"
	"github.com/maastricht-university/listening-eye/config"
	"github.com/maastricht-university/listening-eye/emotion"
	"github.com/maastricht-university/listening-eye/render"
	"github.com/maastricht-university/listening-eye/transition"
)

const StatusClassifyFailed = "Error analyzing."

// Options is the slice of configuration a session needs.
type Options struct {
	Capture      capture.Config
	Transition   transition.Config
	DiscardStale bool
}

func OptionsFrom(c *config.Root) Options {
	t := c.Transition
	return Options{
		Capture: capture.Config{
			ErrorThreshold:  c.Capture.ErrorThreshold,
			BackoffFloor:    c.Capture.BackoffFloor,
			BackoffMax:      c.Capture.BackoffMax,
			BackoffFactor:   c.Capture.BackoffFactor,
			StartRetryDelay: c.Capture.StartRetryDelay,
		},
		Transition: transition.Config{
			Speed:         t.Speed,
			TimeBased:     t.TimeBased,
			Duration:      t.Duration,
			Animate:       t.Animate,
			FrameInterval: t.FrameInterval,
			BurstSize:     t.BurstSize,
			Decay:         t.Decay,
			PulseOpenness: t.PulseOpenness,
			PulseDuration: t.PulseDuration,
			BlinkOpenness: t.BlinkOpenness,
			BlinkDuration: t.BlinkDuration,
			BlinkMin:      t.BlinkMin,
			BlinkMax:      t.BlinkMax,
			Sequences:     transition.SequencesFrom(t.Sequences),
		},
		DiscardStale: c.Classifier.DiscardStale,
	}
}

func DefaultOptions() Options {
	return Options{
		Capture:    capture.DefaultConfig(),
		Transition: transition.DefaultConfig(),
	}
}

// detected formats the status for a classification, e.g.
// "Detected: joy (intensity: 80)".
func detected(res *emotion.Result) Status {
	return Status{
		Text:  "Detected: " + res.Emotion + " (intensity: " + strconv.FormatFloat(res.Intensity, 'f', -1, 64) + ")",
		Color: render.LabelHex(res.Emotion),
	}
}

func panel(res *emotion.Result) Panel {
	return Panel{
		Label: strings.ToUpper(res.Emotion),
		Fill:  res.PanelFill(),
		Color: render.LabelHex(res.Emotion),
	}
}
