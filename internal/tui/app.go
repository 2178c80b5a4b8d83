package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/monitors/internal/ipc"
	"github.com/1broseidon/monitors/internal/monitor"
)

type pane int

const (
	paneMonitors pane = iota
	paneModes
)

// monitorsMsg carries a fresh detection.
type monitorsMsg struct {
	infos []monitor.Info
	err   error
}

// setModeMsg carries the outcome of a mode switch.
type setModeMsg struct {
	req  ipc.SetModePayload
	data ipc.SetModeData
	err  error
}

// model is the root bubbletea model: monitors on the left, the selected
// monitor's modes on the right.
type model struct {
	engine  ipc.Engine
	backend string
	infos   []monitor.Info

	focus    pane
	monitors list.Model
	modes    list.Model

	status    string
	lastError string

	width  int
	height int
}

func newModel(engine ipc.Engine) model {
	m := model{
		engine:   engine,
		backend:  engine.Status().Backend,
		monitors: newList("Monitors"),
		modes:    newList("Modes"),
	}
	m.setMonitors(engine.Monitors())
	return m
}

func (m *model) setMonitors(infos []monitor.Info) {
	selected := m.monitors.Index()
	m.infos = infos
	m.monitors.SetItems(monitorItems(infos))
	if selected >= len(infos) {
		selected = len(infos) - 1
	}
	if selected >= 0 {
		m.monitors.Select(selected)
	}
	m.syncModes()
}

// syncModes shows the modes of the highlighted monitor, with the cursor on
// its current mode.
func (m *model) syncModes() {
	info, ok := m.selectedMonitor()
	if !ok {
		m.modes.SetItems(nil)
		return
	}
	m.modes.SetItems(modeItems(info))
	m.modes.Title = "Modes of " + info.Name
	for i, mode := range info.Modes {
		if mode.Current {
			m.modes.Select(i)
			return
		}
	}
	m.modes.Select(0)
}

func (m model) selectedMonitor() (monitor.Info, bool) {
	i := m.monitors.Index()
	if i < 0 || i >= len(m.infos) {
		return monitor.Info{}, false
	}
	return m.infos[i], true
}

func (m *model) resize() {
	paneWidth := m.width/2 - 2
	if paneWidth < 20 {
		paneWidth = 20
	}
	h := m.height - 4
	if h < 3 {
		h = 3
	}
	m.monitors.SetSize(paneWidth, h)
	m.modes.SetSize(paneWidth, h)
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return nil
}

func (m model) redetect() tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		infos, err := engine.Redetect()
		return monitorsMsg{infos: infos, err: err}
	}
}

func (m model) apply() tea.Cmd {
	info, ok := m.selectedMonitor()
	if !ok {
		return nil
	}
	item, ok := m.modes.SelectedItem().(modeItem)
	if !ok {
		return nil
	}
	req := ipc.SetModePayload{
		Monitor: info.Name,
		Width:   item.mode.Width,
		Height:  item.mode.Height,
		Refresh: item.mode.Refresh,
	}
	engine := m.engine
	return func() tea.Msg {
		data, err := engine.SetMode(req)
		return setModeMsg{req: req, data: data, err: err}
	}
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case monitorsMsg:
		if msg.err != nil {
			m.lastError = msg.err.Error()
			return m, nil
		}
		m.lastError = ""
		m.status = fmt.Sprintf("detected %d monitors", len(msg.infos))
		m.setMonitors(msg.infos)
		return m, nil

	case setModeMsg:
		if msg.err != nil {
			m.lastError = msg.err.Error()
			return m, nil
		}
		m.lastError = ""
		if msg.data.Changed {
			m.status = fmt.Sprintf("%s set to %s", msg.req.Monitor, monitor.ModeSpec{Width: msg.req.Width, Height: msg.req.Height, Refresh: msg.req.Refresh})
		} else {
			m.status = msg.req.Monitor + " already uses that mode"
		}
		m.setMonitors(m.engine.Monitors())
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.status = "detecting..."
			return m, m.redetect()
		case "tab":
			if m.focus == paneMonitors {
				m.focus = paneModes
			} else {
				m.focus = paneMonitors
			}
			return m, nil
		case "esc", "left", "h":
			m.focus = paneMonitors
			return m, nil
		case "enter", "right", "l":
			if m.focus == paneMonitors {
				if _, ok := m.selectedMonitor(); ok {
					m.focus = paneModes
				}
				return m, nil
			}
			if msg.String() == "enter" {
				return m, m.apply()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.focus == paneMonitors {
		before := m.monitors.Index()
		m.monitors, cmd = m.monitors.Update(msg)
		if m.monitors.Index() != before {
			m.syncModes()
		}
	} else {
		m.modes, cmd = m.modes.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	left, right := paneStyle, paneStyle
	m.monitors.Styles.Title, m.modes.Styles.Title = dimTitleStyle, dimTitleStyle
	if m.focus == paneMonitors {
		left = focusedPaneStyle
		m.monitors.Styles.Title = titleStyle
	} else {
		right = focusedPaneStyle
		m.modes.Styles.Title = titleStyle
	}

	var body string
	if len(m.infos) == 0 {
		body = paneStyle.Width(m.width - 2).Render("No monitors detected. Press r to detect again.")
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			left.Render(m.monitors.View()),
			right.Render(m.modes.View()),
		)
	}

	status := statusBarStyle.Width(m.width).Render(fmt.Sprintf("backend: %s  monitors: %d", m.backend, len(m.infos)))
	var msgLine string
	switch {
	case m.lastError != "":
		msgLine = errStyle.Render("Error: " + m.lastError)
	case m.status != "":
		msgLine = okStyle.Render(m.status)
	}
	help := helpStyle.Render("↑/↓ move  enter select/apply  tab switch pane  esc back  r redetect  q quit")

	return lipgloss.JoinVertical(lipgloss.Left, status, body, msgLine, help)
}
