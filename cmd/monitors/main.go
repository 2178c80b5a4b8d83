package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/monitors/internal/config"
	"github.com/1broseidon/monitors/internal/daemon"
	"github.com/1broseidon/monitors/internal/ipc"
	"github.com/1broseidon/monitors/internal/logging"
	"github.com/1broseidon/monitors/internal/metrics"
	"github.com/1broseidon/monitors/internal/platform"
)

// exitRejected is returned when the display system refuses a mode switch.
const exitRejected = 3

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "list":
		os.Exit(runList(os.Args[2:]))
	case "set":
		os.Exit(runSet(os.Args[2:]))
	case "watch":
		os.Exit(runWatch(os.Args[2:]))
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: monitors <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  list                List monitors and their modes")
	fmt.Fprintln(w, "  set                 Switch a monitor to another mode")
	fmt.Fprintln(w, "  watch               Print the monitor list whenever it changes")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  daemon              Start the monitors daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tui                 Open interactive mode picker")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'monitors <command> --help' for command-specific options.")
}

// loadConfig loads path, or the default location when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// setup loads the config and builds the logger every command shares.
func setup(path string) (*config.Config, *slog.Logger, io.Closer, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, closer, err := logging.New(cfg.GetLoggingConfig())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return cfg, logger, closer, nil
}

func newDiscovery(cfg *config.Config, logger *slog.Logger, options ...platform.Option) *platform.Discovery {
	return platform.New(platform.Options{Display: cfg.Display, Logger: logger}, options...)
}

// openEngine returns a daemon-backed engine when useDaemon is set, otherwise
// a local display session. The returned func releases it.
func openEngine(cfg *config.Config, logger *slog.Logger, useDaemon bool) (ipc.Engine, func(), error) {
	if useDaemon {
		client := ipc.NewClient(cfg.Daemon.Socket)
		if _, err := client.GetStatus(); err != nil {
			return nil, nil, err
		}
		return ipc.NewRemoteEngine(client), func() {}, nil
	}

	svc := daemon.NewService(newDiscovery(cfg, logger), logger)
	if err := svc.Start(); err != nil {
		return nil, nil, err
	}
	return svc, svc.Close, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func parseFlags(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/monitors/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: monitors status [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	status, err := ipc.NewClient(cfg.Daemon.Socket).GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("backend:        %s\n", status.Backend)
	fmt.Printf("monitor_count:  %d\n", status.MonitorCount)
	fmt.Printf("watching:       %v\n", status.Watching)
	fmt.Printf("detections:     %d\n", status.Detections)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/monitors/config.yaml)")
	socket := fs.String("socket", "", "IPC socket path (overrides daemon.socket)")
	metricsAddr := fs.String("metrics", "", "Prometheus listen address (overrides daemon.metrics_addr)")
	interval := fs.Duration("interval", 0, "Periodic re-detection interval (default 10s)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: monitors daemon [--config PATH] [--socket PATH] [--metrics ADDR] [--interval D]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Hold a display session, keep the monitor list current and serve it over IPC.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	cfg, logger, closer, err := setup(*configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer closer.Close()

	if *socket != "" {
		cfg.Daemon.Socket = *socket
	}
	if *metricsAddr != "" {
		cfg.Daemon.MetricsAddr = *metricsAddr
	}

	recorder := metrics.NewRecorder()
	svc := daemon.NewService(newDiscovery(cfg, logger, platform.WithObserver(recorder)), logger)

	ctx, stop := signalContext()
	defer stop()

	err = daemon.Run(ctx, svc, daemon.Config{
		Socket:      cfg.Daemon.Socket,
		MetricsAddr: cfg.Daemon.MetricsAddr,
		Reconciler:  daemon.ReconcilerConfig{Interval: *interval},
		Recorder:    recorder,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("daemon failed", "error", err)
		return 1
	}
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  monitors config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  monitors config print [--path PATH] [--defaults]")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/monitors/config.yaml)")
		if code, ok := parseFlags(fs, args[1:]); !ok {
			return code
		}

		if _, err := loadConfig(*path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/monitors/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if code, ok := parseFlags(fs, args[1:]); !ok {
			return code
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			var err error
			if cfg, err = loadConfig(*path); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
		}
		data, err := cfg.Marshal()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config command: %s\n", args[0])
		return 2
	}
}
