package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/listening-eye/clients"
)

// Transcriber turns one finished audio clip into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// ASRTranscriber sends clips to the transcription service.
type ASRTranscriber struct {
	HTTP     *clients.HTTP
	URL      string
	Language string
}

func (a ASRTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	out, err := a.HTTP.ASR(ctx, a.URL, path, a.Language)
	if err != nil {
		return "", err
	}
	return out.Text(), nil
}

var audioExt = map[string]bool{".wav": true, ".mp3": true, ".m4a": true, ".ogg": true, ".flac": true}

type clipStamp struct {
	size int64
	mod  time.Time
}

// DirRecognizer treats every audio clip dropped into a directory as one
// utterance. A clip is transcribed once it has been quiet for the settle
// delay.
type DirRecognizer struct {
	dir    string
	settle time.Duration
	tr     Transcriber
	log    *logrus.Entry
	events chan Event

	mu     sync.Mutex
	active bool
	seen   map[string]clipStamp
}

func NewDirRecognizer(dir string, settle time.Duration, tr Transcriber, log *logrus.Entry) *DirRecognizer {
	if settle <= 0 {
		settle = 500 * time.Millisecond
	}
	return &DirRecognizer{
		dir:    dir,
		settle: settle,
		tr:     tr,
		log:    log.WithField("backend", "directory"),
		events: make(chan Event, 16),
		seen:   map[string]clipStamp{},
	}
}

func (r *DirRecognizer) Events() <-chan Event { return r.events }

func (r *DirRecognizer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return ErrAlreadyActive
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", r.dir, err)
	}
	if err := w.Add(r.dir); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", r.dir, err)
	}
	r.active = true
	go r.run(ctx, w)
	return nil
}

func (r *DirRecognizer) run(ctx context.Context, w *fsnotify.Watcher) {
	defer r.finish(ctx, w)

	ready := make(chan string, 16)
	timers := map[string]*time.Timer{}
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !audioExt[strings.ToLower(filepath.Ext(ev.Name))] {
				continue
			}
			name := ev.Name
			if t, ok := timers[name]; ok {
				t.Reset(r.settle)
				continue
			}
			timers[name] = time.AfterFunc(r.settle, func() {
				select {
				case ready <- name:
				case <-ctx.Done():
				}
			})
		case path := <-ready:
			delete(timers, path)
			if !r.changed(path) {
				continue
			}
			text, err := r.tr.Transcribe(ctx, path)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				r.log.WithError(err).WithField("clip", filepath.Base(path)).Warn("transcription failed")
				emit(ctx, r.events, Error("network"))
				return
			}
			if strings.TrimSpace(text) == "" {
				r.log.WithField("clip", filepath.Base(path)).Debug("empty transcript")
				continue
			}
			emit(ctx, r.events, Result(text))
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			r.log.WithError(err).Warn("watcher error")
			emit(ctx, r.events, Error("audio-capture"))
			return
		}
	}
}

// changed records the clip's size and mtime and reports whether they differ
// from the last transcription of the same path.
func (r *DirRecognizer) changed(path string) bool {
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	st := clipStamp{size: fi.Size(), mod: fi.ModTime()}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.seen[path]; ok && prev.size == st.size && prev.mod.Equal(st.mod) {
		return false
	}
	r.seen[path] = st
	return true
}

func (r *DirRecognizer) finish(ctx context.Context, w *fsnotify.Watcher) {
	w.Close()
	r.mu.Lock()
	r.active = false
	r.mu.Unlock()
	emit(ctx, r.events, End())
}
