package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/1broseidon/monitors/internal/mcp"
)

func printMCPUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: monitors mcp <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve    Start the MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'monitors mcp <command> --help' for command-specific options.")
}

func runMCP(args []string) int {
	if len(args) == 0 {
		printMCPUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "serve":
		return runMCPServe(args[1:])
	case "help", "-h", "--help":
		printMCPUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown mcp command: %s\n\n", args[0])
		printMCPUsage(os.Stderr)
		return 2
	}
}

func runMCPServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/monitors/config.yaml)")
	useDaemon := fs.Bool("daemon", false, "Work through the running daemon")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: monitors mcp serve [--daemon] [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Start the MCP server on stdio with the list_monitors and set_mode tools.")
		fmt.Fprintln(os.Stderr, "Designed to be invoked by MCP clients.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	cfg, logger, closer, err := setup(*configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer closer.Close()

	engine, release, err := openEngine(cfg, logger, *useDaemon)
	if err != nil {
		log.Fatalf("Failed to open display session: %v", err)
	}
	defer release()

	ctx, stop := signalContext()
	defer stop()

	if err := mcp.NewServer(engine, logger).Run(ctx); err != nil {
		logger.Error("MCP server error", "error", err)
		return 1
	}
	return 0
}
