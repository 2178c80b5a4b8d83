package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

// errConnectionClosed is returned by WaitForChange once the connection is gone.
var errConnectionClosed = errors.New("x11 connection closed")

// ScreenGeometry is the size of the default screen in pixels and millimeters.
type ScreenGeometry struct {
	WidthPx  int
	HeightPx int
	WidthMM  int
	HeightMM int
}

// Server is the subset of the X server the adapter talks to. The production
// implementation issues RandR requests over xgb.
type Server interface {
	// RandrVersion initializes the RandR extension and reports its version.
	RandrVersion() (major, minor uint32, err error)
	Resources() (*randr.GetScreenResourcesCurrentReply, error)
	CrtcInfo(crtc randr.Crtc, configTimestamp xproto.Timestamp) (*randr.GetCrtcInfoReply, error)
	OutputInfo(output randr.Output, configTimestamp xproto.Timestamp) (*randr.GetOutputInfoReply, error)
	PrimaryOutput() (randr.Output, error)
	SetCrtcConfig(crtc randr.Crtc, configTimestamp xproto.Timestamp, x, y int16, mode randr.Mode, rotation uint16, outputs []randr.Output) (byte, error)
	Screen() ScreenGeometry

	// SelectChanges subscribes to screen, CRTC and output change events.
	SelectChanges() error
	// WaitForChange blocks until a RandR change event arrives.
	WaitForChange() error

	Close()
}

// Dialer opens a Server on the named display.
type Dialer func(display string) (Server, error)

// DialServer is the Dialer used outside tests.
func DialServer(display string) (Server, error) {
	conn, err := NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &xgbServer{conn: conn}, nil
}

type xgbServer struct {
	conn *Connection
}

var _ Server = (*xgbServer)(nil)

func (s *xgbServer) RandrVersion() (uint32, uint32, error) {
	if err := randr.Init(s.conn.Conn()); err != nil {
		return 0, 0, fmt.Errorf("randr init failed: %w", err)
	}
	reply, err := randr.QueryVersion(s.conn.Conn(), 1, 3).Reply()
	if err != nil {
		return 0, 0, fmt.Errorf("randr query version failed: %w", err)
	}
	return reply.MajorVersion, reply.MinorVersion, nil
}

func (s *xgbServer) Resources() (*randr.GetScreenResourcesCurrentReply, error) {
	reply, err := randr.GetScreenResourcesCurrent(s.conn.Conn(), s.conn.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}
	return reply, nil
}

func (s *xgbServer) CrtcInfo(crtc randr.Crtc, ts xproto.Timestamp) (*randr.GetCrtcInfoReply, error) {
	return randr.GetCrtcInfo(s.conn.Conn(), crtc, ts).Reply()
}

func (s *xgbServer) OutputInfo(output randr.Output, ts xproto.Timestamp) (*randr.GetOutputInfoReply, error) {
	return randr.GetOutputInfo(s.conn.Conn(), output, ts).Reply()
}

func (s *xgbServer) PrimaryOutput() (randr.Output, error) {
	reply, err := randr.GetOutputPrimary(s.conn.Conn(), s.conn.Root).Reply()
	if err != nil {
		return 0, err
	}
	return reply.Output, nil
}

func (s *xgbServer) SetCrtcConfig(crtc randr.Crtc, ts xproto.Timestamp, x, y int16, mode randr.Mode, rotation uint16, outputs []randr.Output) (byte, error) {
	reply, err := randr.SetCrtcConfig(s.conn.Conn(), crtc, xproto.TimeCurrentTime, ts, x, y, mode, rotation, outputs).Reply()
	if err != nil {
		return 0, err
	}
	return reply.Status, nil
}

func (s *xgbServer) Screen() ScreenGeometry {
	screen := s.conn.Screen()
	return ScreenGeometry{
		WidthPx:  int(screen.WidthInPixels),
		HeightPx: int(screen.HeightInPixels),
		WidthMM:  int(screen.WidthInMillimeters),
		HeightMM: int(screen.HeightInMillimeters),
	}
}

func (s *xgbServer) SelectChanges() error {
	mask := uint16(randr.NotifyMaskScreenChange | randr.NotifyMaskCrtcChange | randr.NotifyMaskOutputChange)
	return randr.SelectInputChecked(s.conn.Conn(), s.conn.Root, mask).Check()
}

func (s *xgbServer) WaitForChange() error {
	for {
		ev, xerr := s.conn.Conn().WaitForEvent()
		if ev == nil && xerr == nil {
			return errConnectionClosed
		}
		if xerr != nil {
			continue
		}
		switch ev.(type) {
		case randr.ScreenChangeNotifyEvent, randr.NotifyEvent:
			return nil
		}
	}
}

func (s *xgbServer) Close() {
	s.conn.Close()
}
