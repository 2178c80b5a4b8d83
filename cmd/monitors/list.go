package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/monitors/internal/config"
	"github.com/1broseidon/monitors/internal/ipc"
	"github.com/1broseidon/monitors/internal/monitor"
	"github.com/1broseidon/monitors/internal/platform"
)

func runList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/monitors/config.yaml)")
	asJSON := fs.Bool("json", false, "Print JSON")
	asYAML := fs.Bool("yaml", false, "Print YAML")
	all := fs.Bool("modes", false, "List every mode, not just the current one")
	useDaemon := fs.Bool("daemon", false, "Ask the running daemon instead of opening a display session")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: monitors list [--json|--yaml] [--modes] [--daemon] [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List attached monitors with their physical size and current mode.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "list takes no arguments")
		fs.Usage()
		return 2
	}
	if *asJSON && *asYAML {
		fmt.Fprintln(os.Stderr, "--json and --yaml are mutually exclusive")
		return 2
	}

	cfg, logger, closer, err := setup(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closer.Close()

	engine, release, err := openEngine(cfg, logger, *useDaemon)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer release()

	format := cfg.OutputFormat()
	switch {
	case *asJSON:
		format = config.FormatJSON
	case *asYAML:
		format = config.FormatYAML
	}
	if err := printMonitors(os.Stdout, format, engine.Monitors(), *all); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func printMonitors(w io.Writer, format string, infos []monitor.Info, all bool) error {
	if infos == nil {
		infos = []monitor.Info{}
	}
	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(infos); err != nil {
			return err
		}
		return enc.Close()
	default:
		if len(infos) == 0 {
			_, err := fmt.Fprintln(w, "no monitors detected")
			return err
		}
		_, err := fmt.Fprintln(w, monitorTable(infos, all))
		return err
	}
}

func monitorTable(infos []monitor.Info, all bool) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("238"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("#", "NAME", "PRIMARY", "SIZE", "CURRENT", "MODES")

	for _, info := range infos {
		current := "?"
		if info.Current != nil {
			current = info.Current.String()
		}
		primary := ""
		if info.Primary {
			primary = "yes"
		}
		size := fmt.Sprintf("%dx%d", info.PhysicalWidth, info.PhysicalHeight)
		if info.Unit != monitor.UnitUnknown {
			size += " " + string(info.Unit)
		}
		modes := strconv.Itoa(len(info.Modes))
		if all {
			names := make([]string, 0, len(info.Modes))
			for _, m := range info.Modes {
				names = append(names, m.String())
			}
			modes = strings.Join(names, "\n")
		}
		t.Row(strconv.Itoa(info.Index), info.Name, primary, size, current, modes)
	}
	return t.String()
}

func runSet(args []string) int {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/monitors/config.yaml)")
	useDaemon := fs.Bool("daemon", false, "Switch through the running daemon")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: monitors set [--daemon] [--config PATH] <monitor> <WxH[@Hz]>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Switch a monitor (name or index from 'monitors list') to one of its modes.")
		fmt.Fprintln(os.Stderr, "Without @Hz the first listed refresh rate for WxH is used.")
		fmt.Fprintf(os.Stderr, "Exits %d when the display system rejects the mode.\n", exitRejected)
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}
	spec, err := monitor.ParseModeSpec(fs.Arg(1))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, logger, closer, err := setup(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closer.Close()

	engine, release, err := openEngine(cfg, logger, *useDaemon)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer release()

	data, err := engine.SetMode(ipc.SetModePayload{
		Monitor: fs.Arg(0),
		Width:   spec.Width,
		Height:  spec.Height,
		Refresh: spec.Refresh,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return setExitCode(err)
	}
	if !data.Changed {
		fmt.Printf("%s already at %s\n", data.Monitor.Name, data.Monitor.Current)
		return 0
	}
	fmt.Printf("%s set to %s\n", data.Monitor.Name, data.Monitor.Current)
	return 0
}

// setExitCode maps a switch error to the process exit code. Errors relayed
// by the daemon arrive as text.
func setExitCode(err error) int {
	if errors.Is(err, platform.ErrModeRejected) || strings.Contains(err.Error(), platform.ErrModeRejected.Error()) {
		return exitRejected
	}
	return 1
}
