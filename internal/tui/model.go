// Package tui is a terminal front end for the controller. Its tick
// message drives the simulation through the gate, so the host keeps
// running only while the UI does.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/xtding233/burst-helper/internal/burst"
	"github.com/xtding233/burst-helper/internal/controller"
	"github.com/xtding233/burst-helper/internal/gate"
	"github.com/xtding233/burst-helper/internal/host"
	"github.com/xtding233/burst-helper/internal/settings"
)

// Controller is the part of the controller the UI drives.
type Controller interface {
	Tick() error
	HandleKey(key string) bool
	Burst(ctx context.Context) (burst.Result, error)
	Bursting() bool
	OpenConfig()
	Paused() bool
	Settings() settings.Config
	Units() []host.Unit
	Stats() gate.Stats
	Buttons() []controller.Button
}

// NotifyMsg carries a host notification into the program.
type NotifyMsg host.Notification

// PromptMsg carries a host modal into the program. Any key closes it.
type PromptMsg struct {
	Markup  string
	Buttons []string
}

type tickMsg time.Time

type burstDoneMsg struct {
	res burst.Result
	err error
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Model is the bubbletea model.
type Model struct {
	ctx      context.Context
	c        Controller
	interval time.Duration
	keys     KeyMap

	width   int
	last    *host.Notification
	prompt  *PromptMsg
	result  *burst.Result
	lastErr error
}

// New returns a model ticking the controller every interval. ctx bounds
// bursts started from the keyboard.
func New(ctx context.Context, c Controller, interval time.Duration) Model {
	return Model{ctx: ctx, c: c, interval: interval, keys: DefaultKeyMap}
}

func (m Model) Init() tea.Cmd { return tickCmd(m.interval) }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if err := m.c.Tick(); err != nil {
			m.lastErr = err
		}
		return m, tickCmd(m.interval)

	case NotifyMsg:
		n := host.Notification(msg)
		m.last = &n
		return m, nil

	case PromptMsg:
		m.prompt = &msg
		return m, nil

	case burstDoneMsg:
		m.result = &msg.res
		m.lastErr = msg.err
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.prompt != nil {
		m.prompt = nil
		return m, nil
	}
	if m.c.HandleKey(msg.String()) {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Burst):
		return m, m.burstCmd()
	case key.Matches(msg, m.keys.Config):
		m.c.OpenConfig()
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) burstCmd() tea.Cmd {
	ctx, c := m.ctx, m.c
	return func() tea.Msg {
		res, err := c.Burst(ctx)
		return burstDoneMsg{res: res, err: err}
	}
}
