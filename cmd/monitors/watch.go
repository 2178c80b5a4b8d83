package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/1broseidon/monitors/internal/daemon"
	"github.com/1broseidon/monitors/internal/monitor"
	"github.com/1broseidon/monitors/internal/platform"
)

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/monitors/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: monitors watch [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Print one line per monitor each time the display configuration changes.")
		fmt.Fprintln(os.Stderr, "Requires a backend with change notifications (X11 RandR).")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "watch takes no arguments")
		fs.Usage()
		return 2
	}

	cfg, logger, closer, err := setup(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closer.Close()

	svc := daemon.NewService(newDiscovery(cfg, logger), logger)
	if err := svc.Start(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer svc.Close()

	ctx, stop := signalContext()
	defer stop()

	changes, err := svc.Changes(ctx)
	if errors.Is(err, platform.ErrWatchUnsupported) {
		fmt.Fprintf(os.Stderr, "%s backend: %v\n", svc.Status().Backend, err)
		return 1
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	printSnapshot(os.Stdout, time.Now(), svc.Monitors())
	for {
		select {
		case <-ctx.Done():
			return 0
		case _, ok := <-changes:
			if !ok {
				fmt.Fprintln(os.Stderr, "display change notifications stopped")
				return 1
			}
			infos, err := svc.Redetect()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			printSnapshot(os.Stdout, time.Now(), infos)
		}
	}
}

func printSnapshot(w io.Writer, at time.Time, infos []monitor.Info) {
	stamp := at.Format(time.RFC3339)
	if len(infos) == 0 {
		fmt.Fprintf(w, "%s no monitors\n", stamp)
		return
	}
	for _, info := range infos {
		current := "?"
		if info.Current != nil {
			current = info.Current.String()
		}
		primary := ""
		if info.Primary {
			primary = " primary"
		}
		fmt.Fprintf(w, "%s %d %s %s%s\n", stamp, info.Index, info.Name, current, primary)
	}
}
