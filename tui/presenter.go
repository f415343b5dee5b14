package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/maastricht-university/listening-eye/orchestrator"
)

type statusMsg orchestrator.Status
type panelMsg orchestrator.Panel
type fallbackMsg string
type flashMsg string

// Presenter forwards session output to the running program as messages.
// Anything sent before Bind is dropped.
type Presenter struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func NewPresenter() *Presenter { return &Presenter{} }

// Bind attaches the sink, normally (*tea.Program).Send.
func (p *Presenter) Bind(send func(tea.Msg)) {
	p.mu.Lock()
	p.send = send
	p.mu.Unlock()
}

func (p *Presenter) emit(msg tea.Msg) {
	p.mu.Lock()
	send := p.send
	p.mu.Unlock()
	if send != nil {
		send(msg)
	}
}

func (p *Presenter) SetStatus(s orchestrator.Status) { p.emit(statusMsg(s)) }
func (p *Presenter) SetPanel(pn orchestrator.Panel)  { p.emit(panelMsg(pn)) }
func (p *Presenter) ShowFallback(message string)     { p.emit(fallbackMsg(message)) }
func (p *Presenter) Flash(color string)              { p.emit(flashMsg(color)) }
