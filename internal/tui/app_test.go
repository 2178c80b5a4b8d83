package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/monitors/internal/ipc"
	"github.com/1broseidon/monitors/internal/monitor"
)

type fakeEngine struct {
	infos   []monitor.Info
	setErr  error
	lastSet ipc.SetModePayload
}

func (e *fakeEngine) Status() ipc.StatusData { return ipc.StatusData{Backend: "fake"} }

func (e *fakeEngine) Monitors() []monitor.Info { return e.infos }

func (e *fakeEngine) SetMode(req ipc.SetModePayload) (ipc.SetModeData, error) {
	e.lastSet = req
	if e.setErr != nil {
		return ipc.SetModeData{}, e.setErr
	}
	for i := range e.infos {
		if e.infos[i].Name != req.Monitor {
			continue
		}
		for j := range e.infos[i].Modes {
			mode := &e.infos[i].Modes[j]
			mode.Current = mode.Width == req.Width && mode.Height == req.Height && mode.Refresh == req.Refresh
		}
		return ipc.SetModeData{Monitor: e.infos[i], Changed: true}, nil
	}
	return ipc.SetModeData{}, errors.New("no monitor")
}

func (e *fakeEngine) Redetect() ([]monitor.Info, error) { return e.infos, nil }

func testEngine() *fakeEngine {
	return &fakeEngine{infos: []monitor.Info{
		{
			Name:    "DP-1",
			Primary: true,
			Modes: []monitor.ModeInfo{
				{Width: 1920, Height: 1080, Refresh: 60},
				{Width: 1280, Height: 720, Refresh: 60, Current: true},
			},
		},
		{
			Name:  "HDMI-1",
			Modes: []monitor.ModeInfo{{Width: 1024, Height: 768, Refresh: -1, Current: true}},
		},
	}}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

func TestModel_ModesFollowMonitorSelection(t *testing.T) {
	m := newModel(testEngine())
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	if got := len(m.modes.Items()); got != 2 {
		t.Fatalf("modes for DP-1 = %d, want 2", got)
	}
	if m.modes.Index() != 1 {
		t.Fatalf("mode cursor = %d, want the current mode at 1", m.modes.Index())
	}

	m, _ = update(t, m, key("down"))
	if m.monitors.Index() != 1 || len(m.modes.Items()) != 1 {
		t.Fatalf("after down: monitor %d, %d modes", m.monitors.Index(), len(m.modes.Items()))
	}
	if !strings.Contains(m.modes.Title, "HDMI-1") {
		t.Fatalf("modes title = %q", m.modes.Title)
	}
}

func TestModel_ApplyMode(t *testing.T) {
	e := testEngine()
	m := newModel(e)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m, _ = update(t, m, key("enter"))
	if m.focus != paneModes {
		t.Fatalf("focus = %v, want modes pane", m.focus)
	}
	m, _ = update(t, m, key("up"))
	m, cmd := update(t, m, key("enter"))
	if cmd == nil {
		t.Fatal("enter on a mode should return a command")
	}
	m, _ = update(t, m, cmd())

	want := ipc.SetModePayload{Monitor: "DP-1", Width: 1920, Height: 1080, Refresh: 60}
	if e.lastSet != want {
		t.Fatalf("SetMode(%+v), want %+v", e.lastSet, want)
	}
	if m.lastError != "" || !strings.Contains(m.status, "1920x1080@60") {
		t.Fatalf("status = %q, error = %q", m.status, m.lastError)
	}
	if m.modes.Index() != 0 {
		t.Fatalf("mode cursor = %d, want new current mode at 0", m.modes.Index())
	}
}

func TestModel_ApplyUnknownRefreshIsExact(t *testing.T) {
	e := &fakeEngine{infos: []monitor.Info{{
		Name: "DP-1",
		Modes: []monitor.ModeInfo{
			{Width: 1920, Height: 1080, Refresh: 60, Current: true},
			{Width: 1920, Height: 1080, Refresh: monitor.RefreshUnknown},
		},
	}}}
	m := newModel(e)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = update(t, m, key("enter"))
	m, _ = update(t, m, key("down"))
	m, cmd := update(t, m, key("enter"))
	if cmd == nil {
		t.Fatal("enter on a mode should return a command")
	}
	m, _ = update(t, m, cmd())

	if e.lastSet.Refresh != monitor.RefreshUnknown {
		t.Fatalf("refresh = %d, want %d so the second entry is chosen", e.lastSet.Refresh, monitor.RefreshUnknown)
	}
	if m.modes.Index() != 1 {
		t.Fatalf("mode cursor = %d, want the unknown-rate entry at 1", m.modes.Index())
	}
}

func TestModel_ApplyError(t *testing.T) {
	e := testEngine()
	e.setErr = errors.New("mode switch rejected")
	m := newModel(e)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = update(t, m, key("enter"))
	m, cmd := update(t, m, key("enter"))
	m, _ = update(t, m, cmd())

	if m.lastError != "mode switch rejected" {
		t.Fatalf("lastError = %q", m.lastError)
	}
	if !strings.Contains(m.View(), "Error: mode switch rejected") {
		t.Fatal("view should show the error")
	}
}

func TestModel_EscReturnsToMonitors(t *testing.T) {
	m := newModel(testEngine())
	m, _ = update(t, m, key("enter"))
	m, _ = update(t, m, key("esc"))
	if m.focus != paneMonitors {
		t.Fatalf("focus = %v, want monitors pane", m.focus)
	}
	if _, cmd := update(t, m, key("q")); cmd == nil {
		t.Fatal("q should quit")
	}
}

func TestModel_EmptyView(t *testing.T) {
	m := newModel(&fakeEngine{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	if !strings.Contains(m.View(), "No monitors detected") {
		t.Fatalf("view = %q", m.View())
	}
	if m.focus != paneMonitors {
		t.Fatal("focus should stay on monitors without any")
	}
}
