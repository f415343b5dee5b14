// Package classifier is the local text-emotion classifier behind
// `eye serve`. Text is labelled with one of twelve emotion labels and an
// intensity in [-100, 100], then mapped onto the seven-category confidence
// vector the eye consumes.
package classifier

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/listening-eye/emotion"
)

var ErrNoText = errors.New("no text to classify")

type Classifier interface {
	Classify(ctx context.Context, text string) (*emotion.Result, error)
}

// Chain asks Primary first and falls back on any error. A nil Primary goes
// straight to Fallback.
type Chain struct {
	Primary  Classifier
	Fallback Classifier
	Log      *logrus.Entry
}

func (c *Chain) Classify(ctx context.Context, text string) (*emotion.Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrNoText
	}
	if c.Primary != nil {
		start := time.Now()
		res, err := c.Primary.Classify(ctx, text)
		if err == nil {
			return res, nil
		}
		if c.Log != nil {
			c.Log.WithError(err).WithField("elapsed", time.Since(start)).Warn("primary classifier failed, using keyword rules")
		}
	}
	return c.Fallback.Classify(ctx, text)
}

// Result builds the response for a label and an intensity.
func Result(label string, intensity int) *emotion.Result {
	return &emotion.Result{
		Emotion:     label,
		Intensity:   float64(intensity),
		Confidences: MapConfidences(label, intensity),
	}
}
