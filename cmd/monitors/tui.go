package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/1broseidon/monitors/internal/logging"
	"github.com/1broseidon/monitors/internal/tui"
)

func runTUI(args []string) int {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/monitors/config.yaml)")
	useDaemon := fs.Bool("daemon", false, "Work through the running daemon")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: monitors tui [--daemon] [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Pick a monitor, then a mode to apply.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "tui takes no arguments")
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	// Log records on stderr would tear the screen; only a log file is kept.
	logger := logging.Discard()
	if logCfg := cfg.GetLoggingConfig(); logCfg.File != "" {
		l, closer, err := logging.New(logCfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer closer.Close()
		logger = l
	}

	engine, release, err := openEngine(cfg, logger, *useDaemon)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer release()

	if err := tui.Run(engine); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
