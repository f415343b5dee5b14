package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maastricht-university/listening-eye/emotion"
	"github.com/maastricht-university/listening-eye/orchestrator"
	"github.com/maastricht-university/listening-eye/transition"
)

type fakeSession struct {
	mu       sync.Mutex
	frames   int
	pointers int
	texts    []string
	stopped  bool
}

func (f *fakeSession) Frame(context.Context) (orchestrator.View, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return orchestrator.View{}, false
	}
	f.frames++
	return orchestrator.View{
		Vector: emotion.Initial(),
		Frame:  transition.Frame{State: transition.State{From: emotion.Neutral, To: emotion.Neutral, Progress: 1}, Openness: 1},
	}, true
}

func (f *fakeSession) PointerDown() bool {
	f.mu.Lock()
	f.pointers++
	f.mu.Unlock()
	return true
}

func (f *fakeSession) SubmitText(text string) bool {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	return true
}

func ready(t *testing.T, sess Session) *Model {
	t.Helper()
	m := New(context.Background(), sess, Options{FPS: 30, DrawnEyes: true})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	_, cmd := m.Update(frameMsg(time.Unix(10, 0)))
	require.NotNil(t, cmd)
	m.Update(cmd())
	return m
}

func run(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestFrameTickFetchesView(t *testing.T) {
	sess := &fakeSession{}
	m := ready(t, sess)
	assert.True(t, m.hasView)
	assert.Equal(t, 1, sess.frames)
	assert.Equal(t, time.Unix(10, 0), m.now)

	out := m.View()
	assert.Equal(t, 30-chromeRows+3, strings.Count(out, "\n")+1, "status, eye rows, panel and hint")
}

func TestStoppedSessionQuits(t *testing.T) {
	sess := &fakeSession{stopped: true}
	m := New(context.Background(), sess, Options{})
	_, cmd := m.Update(frameMsg(time.Now()))
	assert.IsType(t, tea.QuitMsg{}, run(cmd))
}

func TestViewBeforeFirstFrame(t *testing.T) {
	m := New(context.Background(), &fakeSession{}, Options{})
	assert.Equal(t, "Opening the eye...", m.View())
}

func TestPresenterMessages(t *testing.T) {
	m := ready(t, &fakeSession{})
	var got []tea.Msg
	p := NewPresenter()
	p.SetStatus(orchestrator.Status{Text: "dropped"})
	p.Bind(func(msg tea.Msg) { got = append(got, msg) })

	p.SetStatus(orchestrator.Status{Text: "Detected: joy (intensity: 80)", Color: "#00ff00"})
	p.SetPanel(orchestrator.Panel{Label: "JOY", Fill: 80, Color: "#00ff00"})
	p.Flash("#00ff00")
	require.Len(t, got, 3)
	for _, msg := range got {
		m.Update(msg)
	}

	assert.Equal(t, "Detected: joy (intensity: 80)", m.status.Text)
	require.NotNil(t, m.panel)
	assert.Equal(t, "JOY", m.panel.Label)
	assert.Equal(t, uint8(0xff), m.flashColor.G)

	out := m.View()
	assert.Contains(t, out, "Detected: joy (intensity: 80)")
	assert.Contains(t, out, "JOY")
	assert.Contains(t, out, strings.Repeat("█", 16))
	assert.Contains(t, out, " 80%")
}

func TestFlashHoldsThenFades(t *testing.T) {
	m := New(context.Background(), &fakeSession{}, Options{})
	assert.Zero(t, m.flash(time.Now()))

	start := time.Unix(100, 0)
	m.now = start
	m.Update(flashMsg("#ff0000"))
	assert.Equal(t, 1.0, m.flash(start))
	assert.Equal(t, 1.0, m.flash(start.Add(99*time.Millisecond)))
	assert.InDelta(t, 0.5, m.flash(start.Add(flashHold+flashFade/2)), 1e-9)
	assert.Zero(t, m.flash(start.Add(time.Second)))
}

func TestPointerDown(t *testing.T) {
	sess := &fakeSession{}
	m := ready(t, sess)

	_, cmd := m.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	run(cmd)
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	run(cmd)
	_, cmd = m.Update(tea.MouseMsg{Action: tea.MouseActionMotion})
	run(cmd)
	assert.Equal(t, 2, sess.pointers)
}

func TestQuitKeys(t *testing.T) {
	m := ready(t, &fakeSession{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.IsType(t, tea.QuitMsg{}, run(cmd))
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.IsType(t, tea.QuitMsg{}, run(cmd))
}

func TestFallbackInput(t *testing.T) {
	sess := &fakeSession{}
	m := ready(t, sess)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(cmd)
	assert.Empty(t, sess.texts, "no text entry before the fallback")

	m.Update(fallbackMsg("Type your message below."))
	assert.True(t, m.input.Focused())
	assert.Contains(t, m.View(), "Type your message below.")

	// q is text now, not quit
	for _, r := range "quite sad" {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	assert.Equal(t, "quite sad", m.input.Value())
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(cmd)
	assert.Equal(t, []string{"quite sad"}, sess.texts)
	assert.Empty(t, m.input.Value())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(cmd)
	assert.Len(t, sess.texts, 1)
}
