package orchestrator

import (
	"context"
	"encoding/json"
	"image"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/maastricht-university/listening-eye/emotion"
	"github.com/maastricht-university/listening-eye/sched"
	"github.com/maastricht-university/listening-eye/transition"
)

// Snapshot classifies text headlessly and advances the animation by frames
// ticks at fps. Timers run on a manual clock, so the result only depends on
// the inputs and the seed.
func Snapshot(ctx context.Context, opts Options, cls Classifier, text string, frames, fps int, seed int64) (View, *emotion.Result, error) {
	if fps <= 0 {
		fps = 60
	}
	clock := sched.NewManual(time.Now())
	s := New(opts, Deps{
		Classifier: cls,
		Presenter:  nopPresenter{},
		Scheduler:  clock,
		Rand:       rand.New(rand.NewSource(seed)),
	})

	res, err := cls.Classify(ctx, text)
	if err != nil {
		return View{}, nil, err
	}
	s.applyResult(1, text, res, nil)

	step := time.Second / time.Duration(fps)
	for i := 0; i < frames; i++ {
		clock.Advance(step)
		s.tick()
	}
	return s.view(), res, nil
}

type SnapshotBundle struct {
	Text        string            `json:"text"`
	Emotion     string            `json:"emotion"`
	Intensity   float64           `json:"intensity"`
	Confidences emotion.Vector    `json:"confidences"`
	Transition  transition.State  `json:"transition"`
	Openness    float64           `json:"openness"`
	Particles   int               `json:"particles"`
	GeneratedAt time.Time         `json:"generated_at"`
	Files       map[string]string `json:"files"`
}

func mkSnapshotDir(outputsRoot string) (string, error) {
	dir := filepath.Join(outputsRoot, "snapshot_"+time.Now().Format("20060102-150405"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// Persist writes frame.png and snapshot.json into a fresh directory under
// outputsRoot and returns that directory.
func Persist(outputsRoot, text string, v View, res *emotion.Result, img image.Image) (string, error) {
	dir, err := mkSnapshotDir(outputsRoot)
	if err != nil {
		return "", err
	}
	pngPath := filepath.Join(dir, "frame.png")
	if err := writePNG(pngPath, img); err != nil {
		return "", err
	}
	bundle := SnapshotBundle{
		Text:        text,
		Emotion:     res.Emotion,
		Intensity:   res.Intensity,
		Confidences: v.Vector,
		Transition:  v.Frame.State,
		Openness:    v.Frame.Openness,
		Particles:   len(v.Frame.Particles),
		GeneratedAt: time.Now(),
		Files:       map[string]string{"frame": "frame.png"},
	}
	if err := writeJSON(filepath.Join(dir, "snapshot.json"), bundle); err != nil {
		return "", err
	}
	return dir, nil
}

type nopPresenter struct{}

func (nopPresenter) SetStatus(Status)    {}
func (nopPresenter) SetPanel(Panel)      {}
func (nopPresenter) ShowFallback(string) {}
func (nopPresenter) Flash(string)        {}
