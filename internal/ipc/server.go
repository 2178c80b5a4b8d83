package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/1broseidon/monitors/internal/monitor"
	"github.com/1broseidon/monitors/internal/packet"
	"github.com/1broseidon/monitors/internal/runtimepath"
)

// Engine is the daemon state the server exposes.
type Engine interface {
	Status() StatusData
	Monitors() []monitor.Info
	SetMode(req SetModePayload) (SetModeData, error)
	Redetect() ([]monitor.Info, error)
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	engine       Engine
	logger       *slog.Logger
	wg           sync.WaitGroup
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server. An empty socketPath uses the runtime
// directory default.
func NewServer(socketPath string, engine Engine, logger *slog.Logger) (*Server, error) {
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		engine:     engine,
		logger:     logger,
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection serves framed requests until the client hangs up.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := packet.NewReader(conn)
	for {
		pkt, err := reader.Read()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Debug("IPC read error", "error", err)
				s.send(conn, NewErrorResponse(fmt.Sprintf("Invalid frame: %v", err)))
			}
			return
		}

		var resp *Response
		if req, err := ParseRequest(pkt.Payload); err != nil {
			resp = NewErrorResponse(fmt.Sprintf("Invalid request: %v", err))
		} else {
			resp = s.handleCommand(req)
		}

		if err := s.send(conn, resp); err != nil {
			s.logger.Debug("failed to send response", "error", err)
			return
		}
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandGetMonitors:
		return s.handleGetMonitors()
	case CommandSetMode:
		return s.handleSetMode(req.Payload)
	case CommandRedetect:
		return s.handleRedetect()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleGetStatus() *Response {
	resp, err := NewOKResponse(s.engine.Status())
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleGetMonitors() *Response {
	resp, err := NewOKResponse(MonitorsData{Monitors: s.engine.Monitors()})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleSetMode(payload json.RawMessage) *Response {
	var req SetModePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	if req.Monitor == "" || req.Width <= 0 || req.Height <= 0 {
		return NewErrorResponse("monitor, width and height are required")
	}

	data, err := s.engine.SetMode(req)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to set mode: %v", err))
	}
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleRedetect() *Response {
	infos, err := s.engine.Redetect()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to detect monitors: %v", err))
	}
	resp, err := NewOKResponse(MonitorsData{Monitors: infos})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

// send writes resp as one JSON packet.
func (s *Server) send(conn net.Conn, resp *Response) error {
	data, err := resp.Marshal()
	if err != nil {
		return err
	}
	return packet.Write(conn, packet.New(packet.ContentTypeJSON, data))
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}
