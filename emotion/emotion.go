// Package emotion holds the emotion vocabulary shared by every part of the eye:
// the seven categories, the confidence vector the classifier returns, and the
// session's current/previous dominant emotion.
package emotion

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

type Category int

const (
	Sad Category = iota
	Fear
	Anger
	Anxiety
	Neutral
	Excitement
	Joy

	NumCategories = 7
)

var names = [NumCategories]string{"sad", "fear", "anger", "anxiety", "neutral", "excitement", "joy"}

// Categories lists every category in iteration order. Ties are broken in this order.
func Categories() []Category {
	return []Category{Sad, Fear, Anger, Anxiety, Neutral, Excitement, Joy}
}

func (c Category) String() string {
	if c < 0 || int(c) >= NumCategories {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return names[c]
}

// Parse maps a lower- or mixed-case category name onto its Category.
func Parse(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return Category(i), true
		}
	}
	return Neutral, false
}

// Vector is a confidence per category. Values are scored independently and
// need not sum to one.
type Vector [NumCategories]float64

// Initial is the vector a session starts with: fully neutral.
func Initial() Vector {
	var v Vector
	v[Neutral] = 1
	return v
}

// FromMap builds a Vector from a label->confidence map. Missing categories are
// zero and unknown labels are ignored.
func FromMap(m map[string]float64) Vector {
	var v Vector
	for k, val := range m {
		if c, ok := Parse(k); ok {
			v[c] = val
		}
	}
	return v
}

func (v Vector) Get(c Category) float64 { return v[c] }

func (v Vector) Map() map[string]float64 {
	m := make(map[string]float64, NumCategories)
	for i, n := range names {
		m[n] = v[i]
	}
	return m
}

func (v Vector) MarshalJSON() ([]byte, error) { return json.Marshal(v.Map()) }

func (v *Vector) UnmarshalJSON(b []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*v = FromMap(m)
	return nil
}

// Dominant returns the category with the highest confidence; the first
// category in iteration order wins a tie.
func Dominant(v Vector) Category {
	best := Category(0)
	for _, c := range Categories()[1:] {
		if v[c] > v[best] {
			best = c
		}
	}
	return best
}

// Result is one classifier answer.
type Result struct {
	Emotion     string  `json:"emotion"`
	Intensity   float64 `json:"intensity"`
	Confidences Vector  `json:"confidences"`
}

// PanelFill is the intensity-bar width in percent. Intensity is externally
// scaled (the classifier reports -100..100) so only its magnitude is shown.
func (r Result) PanelFill() float64 {
	return math.Min(100, math.Max(0, math.Abs(r.Intensity)))
}
