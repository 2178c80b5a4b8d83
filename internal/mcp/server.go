// Package mcp exposes monitor discovery and mode switching as MCP tools over
// stdio.
package mcp

import (
	"context"
	"fmt"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/monitors/internal/ipc"
	"github.com/1broseidon/monitors/internal/monitor"
)

const (
	ServerName    = "monitors"
	ServerVersion = "0.1.0"
)

// Server is the MCP server. Tool calls go through engine, either a local
// session or a daemon.
type Server struct {
	mcpServer *mcpsdk.Server
	engine    ipc.Engine
	logger    *slog.Logger
}

// NewServer creates a new MCP server over engine.
func NewServer(engine ipc.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{engine: engine, logger: logger}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_monitors",
		Description: "List attached monitors with their physical size, primary flag, current mode and every supported mode (width, height, refresh in Hz; refresh -1 means unknown).",
	}, s.handleListMonitors)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_mode",
		Description: "Switch a monitor to one of its listed modes. The mode must appear in list_monitors output. Fails without changing anything when the display system rejects the mode.",
	}, s.handleSetMode)
}

func (s *Server) handleListMonitors(_ context.Context, _ *mcpsdk.CallToolRequest, args ListMonitorsInput) (*mcpsdk.CallToolResult, ListMonitorsOutput, error) {
	infos := s.engine.Monitors()
	if args.Redetect {
		var err error
		if infos, err = s.engine.Redetect(); err != nil {
			return nil, ListMonitorsOutput{}, fmt.Errorf("detect monitors: %w", err)
		}
	}
	if infos == nil {
		infos = []monitor.Info{}
	}
	s.logger.Debug("mcp list_monitors", "count", len(infos), "redetect", args.Redetect)
	return nil, ListMonitorsOutput{Backend: s.engine.Status().Backend, Monitors: infos}, nil
}

func (s *Server) handleSetMode(_ context.Context, _ *mcpsdk.CallToolRequest, args SetModeInput) (*mcpsdk.CallToolResult, SetModeOutput, error) {
	if args.Monitor == "" {
		return nil, SetModeOutput{}, fmt.Errorf("monitor is required")
	}
	spec, err := monitor.ParseModeSpec(args.Mode)
	if err != nil {
		return nil, SetModeOutput{}, err
	}

	data, err := s.engine.SetMode(ipc.SetModePayload{
		Monitor: args.Monitor,
		Width:   spec.Width,
		Height:  spec.Height,
		Refresh: spec.Refresh,
	})
	if err != nil {
		s.logger.Warn("mcp set_mode failed", "monitor", args.Monitor, "mode", spec.String(), "error", err)
		return nil, SetModeOutput{}, err
	}
	s.logger.Info("mcp set_mode", "monitor", args.Monitor, "mode", spec.String(), "changed", data.Changed)
	return nil, SetModeOutput{Monitor: data.Monitor, Changed: data.Changed}, nil
}
