package classifier

import (
	"math"

	"github.com/maastricht-university/listening-eye/emotion"
)

// Labels in tie-break order.
var Labels = []string{
	"Happy", "Sad", "Angry", "Anxious", "Fearful", "Excited",
	"Neutral", "Surprised", "Disgusted", "Confused", "Tired", "Hungry",
}

type weights struct {
	sad, fear, anger, anxiety, neutral, excitement, joy float64
}

func (w weights) vector() emotion.Vector {
	var v emotion.Vector
	v[emotion.Sad] = w.sad
	v[emotion.Fear] = w.fear
	v[emotion.Anger] = w.anger
	v[emotion.Anxiety] = w.anxiety
	v[emotion.Neutral] = w.neutral
	v[emotion.Excitement] = w.excitement
	v[emotion.Joy] = w.joy
	return v
}

var labelWeights = map[string]weights{
	"Happy":     {neutral: 0.2, excitement: 0.3, joy: 0.5},
	"Sad":       {sad: 0.7, fear: 0.1, anxiety: 0.2},
	"Angry":     {anger: 0.8, anxiety: 0.2},
	"Fearful":   {sad: 0.1, fear: 0.7, anxiety: 0.2},
	"Anxious":   {sad: 0.1, fear: 0.3, anxiety: 0.6},
	"Excited":   {neutral: 0.1, excitement: 0.8, joy: 0.1},
	"Neutral":   {neutral: 1},
	"Surprised": {fear: 0.2, anxiety: 0.1, neutral: 0.1, excitement: 0.6},
	"Disgusted": {sad: 0.1, fear: 0.1, anger: 0.6, anxiety: 0.2},
	"Confused":  {sad: 0.1, fear: 0.2, anger: 0.1, anxiety: 0.4, neutral: 0.2},
	"Tired":     {sad: 0.3, anger: 0.1, anxiety: 0.2, neutral: 0.4},
	"Hungry":    {sad: 0.1, anger: 0.2, anxiety: 0.3, neutral: 0.4},
}

var positive = []emotion.Category{emotion.Joy, emotion.Excitement}
var negative = []emotion.Category{emotion.Sad, emotion.Fear, emotion.Anger, emotion.Anxiety}

// MapConfidences spreads a label over the seven categories. A positive
// intensity scales the positive categories by |intensity|/100, anything else
// scales the negative ones. Unknown labels map like Neutral.
func MapConfidences(label string, intensity int) emotion.Vector {
	w, ok := labelWeights[label]
	if !ok {
		w = labelWeights["Neutral"]
	}
	v := w.vector()
	f := math.Abs(float64(intensity)) / 100
	scale := negative
	if intensity > 0 {
		scale = positive
	}
	for _, c := range scale {
		v[c] *= f
	}
	return v
}

// baseIntensity is the signed intensity of a label at full score.
var baseIntensity = map[string]float64{
	"Happy": 60, "Excited": 70, "Surprised": 40,
	"Neutral": 0,
	"Sad": -60, "Angry": -70, "Anxious": -40, "Tired": -30, "Hungry": -20,
	"Fearful": -50, "Disgusted": -60, "Confused": -20,
}
