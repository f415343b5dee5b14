// Package tui is the terminal front end of the eye. It implements
// tea.Model: the eye is redrawn on a frame tick, a mouse press restarts
// listening, and a text field appears once typing is the fallback.
//
// Usage:
//
//	pres := tui.NewPresenter()
//	m := tui.New(ctx, sess, tui.Options{FPS: 60, DrawnEyes: true})
//	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
//	pres.Bind(p.Send)
package tui

import (
	"context"
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/maastricht-university/listening-eye/orchestrator"
	"github.com/maastricht-university/listening-eye/render"
)

const (
	flashHold = 100 * time.Millisecond
	flashFade = 300 * time.Millisecond
	barWidth  = 20
	// status, panel, input and a spacer
	chromeRows = 4
)

// Session is the part of orchestrator.Session the UI drives.
type Session interface {
	Frame(ctx context.Context) (orchestrator.View, bool)
	PointerDown() bool
	SubmitText(text string) bool
}

type Options struct {
	FPS       int
	DrawnEyes bool
}

type frameMsg time.Time

type viewMsg struct {
	view orchestrator.View
	at   time.Time
}

type Model struct {
	ctx  context.Context
	sess Session
	opts Options

	width  int
	height int

	view    orchestrator.View
	hasView bool
	now     time.Time

	status   orchestrator.Status
	panel    *orchestrator.Panel
	fallback string
	input    textinput.Model

	flashColor color.RGBA
	flashAt    time.Time

	styles styles
}

type styles struct {
	status lipgloss.Style
	panel  lipgloss.Style
	empty  lipgloss.Style
	hint   lipgloss.Style
	prompt lipgloss.Style
}

func buildStyles() styles {
	return styles{
		status: lipgloss.NewStyle().Foreground(lipgloss.Color("#dddddd")),
		panel:  lipgloss.NewStyle().Bold(true),
		empty:  lipgloss.NewStyle().Foreground(lipgloss.Color("#444444")),
		hint:   lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true),
		prompt: lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaff")),
	}
}

func New(ctx context.Context, sess Session, opts Options) *Model {
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	ti := textinput.New()
	ti.Placeholder = "How are you feeling?"
	ti.CharLimit = 500
	ti.Width = 60
	return &Model{
		ctx:    ctx,
		sess:   sess,
		opts:   opts,
		input:  ti,
		styles: buildStyles(),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.FPS), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// fetch asks the session for the next frame off the UI goroutine.
func (m *Model) fetch(at time.Time) tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		v, ok := sess.Frame(ctx)
		if !ok {
			return tea.QuitMsg{}
		}
		return viewMsg{view: v, at: at}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(10, msg.Width-4)
		return m, nil

	case frameMsg:
		return m, m.fetch(time.Time(msg))

	case viewMsg:
		m.view, m.hasView, m.now = msg.view, true, msg.at
		return m, m.tick()

	case statusMsg:
		m.status = orchestrator.Status(msg)
		return m, nil

	case panelMsg:
		p := orchestrator.Panel(msg)
		m.panel = &p
		return m, nil

	case fallbackMsg:
		m.fallback = string(msg)
		return m, m.input.Focus()

	case flashMsg:
		m.flashColor = render.ParseHex(string(msg))
		m.flashAt = m.now
		if m.flashAt.IsZero() {
			m.flashAt = time.Now()
		}
		return m, nil

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress {
			return m, m.pointerDown()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.fallback != "" {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+r":
		return m, m.pointerDown()
	}

	if m.fallback == "" {
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case " ", "enter":
			return m, m.pointerDown()
		}
		return m, nil
	}

	if msg.String() == "enter" {
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.SetValue("")
		sess := m.sess
		return m, func() tea.Msg {
			sess.SubmitText(text)
			return nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) pointerDown() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		sess.PointerDown()
		return nil
	}
}

// flash returns the strength of the result tint at now: full for
// flashHold, then a linear fade.
func (m *Model) flash(now time.Time) float64 {
	if m.flashAt.IsZero() {
		return 0
	}
	d := now.Sub(m.flashAt)
	switch {
	case d < 0:
		return 0
	case d < flashHold:
		return 1
	case d < flashHold+flashFade:
		return 1 - float64(d-flashHold)/float64(flashFade)
	}
	return 0
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 || !m.hasView {
		return "Opening the eye..."
	}
	sections := []string{m.renderStatus()}

	eyeRows := m.height - chromeRows
	if eyeRows > 2 {
		sections = append(sections, render.Terminal(render.Input{
			Vector:     m.view.Vector,
			Frame:      m.view.Frame,
			DrawnEyes:  m.opts.DrawnEyes,
			Flash:      m.flash(m.now),
			FlashColor: m.flashColor,
		}, m.width, eyeRows))
	}

	sections = append(sections, m.renderPanel())
	if m.fallback != "" {
		sections = append(sections, m.styles.hint.Render(m.fallback)+" "+m.styles.prompt.Render("> ")+m.input.View())
	} else {
		sections = append(sections, m.styles.hint.Render("click or press space to listen again, q to quit"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderStatus() string {
	st := m.styles.status
	if m.status.Color != "" {
		st = st.Foreground(lipgloss.Color(m.status.Color))
	}
	return st.Width(m.width).Align(lipgloss.Center).Render(m.status.Text)
}

func (m *Model) renderPanel() string {
	if m.panel == nil {
		return ""
	}
	filled := int(m.panel.Fill/100*barWidth + 0.5)
	filled = min(barWidth, max(0, filled))
	c := lipgloss.Color(m.panel.Color)
	bar := lipgloss.NewStyle().Foreground(c).Render(strings.Repeat("█", filled)) +
		m.styles.empty.Render(strings.Repeat("░", barWidth-filled))
	label := m.styles.panel.Foreground(c).Render(m.panel.Label)
	return fmt.Sprintf("%s %s %3.0f%%", label, bar, m.panel.Fill)
}
