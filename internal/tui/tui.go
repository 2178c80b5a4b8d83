// Package tui is an interactive monitor and mode picker.
package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/monitors/internal/ipc"
)

// Run starts the picker over engine and blocks until the user quits.
func Run(engine ipc.Engine) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	p := tea.NewProgram(newModel(engine), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
