package x11

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/monitors/internal/monitor"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

type setCall struct {
	crtc     randr.Crtc
	x, y     int16
	mode     randr.Mode
	rotation uint16
	outputs  []randr.Output
}

type fakeServer struct {
	major, minor uint32
	versionErr   error

	resources *randr.GetScreenResourcesCurrentReply
	crtcs     map[randr.Crtc]*randr.GetCrtcInfoReply
	outputs   map[randr.Output]*randr.GetOutputInfoReply
	primary   randr.Output
	screen    ScreenGeometry

	setStatus byte
	setErr    error
	sets      []setCall

	changes chan struct{}
	closed  bool

	closeOnce sync.Once
	done      chan struct{}
}

func (f *fakeServer) RandrVersion() (uint32, uint32, error) {
	return f.major, f.minor, f.versionErr
}

func (f *fakeServer) Resources() (*randr.GetScreenResourcesCurrentReply, error) {
	return f.resources, nil
}

func (f *fakeServer) CrtcInfo(crtc randr.Crtc, _ xproto.Timestamp) (*randr.GetCrtcInfoReply, error) {
	ci, ok := f.crtcs[crtc]
	if !ok {
		return nil, errors.New("bad crtc")
	}
	return ci, nil
}

func (f *fakeServer) OutputInfo(out randr.Output, _ xproto.Timestamp) (*randr.GetOutputInfoReply, error) {
	oi, ok := f.outputs[out]
	if !ok {
		return nil, errors.New("bad output")
	}
	return oi, nil
}

func (f *fakeServer) PrimaryOutput() (randr.Output, error) { return f.primary, nil }

func (f *fakeServer) SetCrtcConfig(crtc randr.Crtc, _ xproto.Timestamp, x, y int16, mode randr.Mode, rotation uint16, outputs []randr.Output) (byte, error) {
	f.sets = append(f.sets, setCall{crtc: crtc, x: x, y: y, mode: mode, rotation: rotation, outputs: outputs})
	return f.setStatus, f.setErr
}

func (f *fakeServer) Screen() ScreenGeometry { return f.screen }

func (f *fakeServer) SelectChanges() error { return nil }

func (f *fakeServer) WaitForChange() error {
	if _, ok := <-f.changes; !ok {
		return errConnectionClosed
	}
	return nil
}

func (f *fakeServer) Close() {
	f.closed = true
	if f.done != nil {
		f.closeOnce.Do(func() { close(f.done) })
	}
}

func modeInfo(id uint32, w, h uint16, dotClock uint32, htotal, vtotal uint16) randr.ModeInfo {
	return randr.ModeInfo{Id: id, Width: w, Height: h, DotClock: dotClock, Htotal: htotal, Vtotal: vtotal}
}

// newFakeServer models two CRTCs: DP-1 (primary, 1080p60 active) and HDMI-1
// rotated 90 degrees. A disconnected output hangs off the second CRTC.
func newFakeServer() *fakeServer {
	return &fakeServer{
		major: 1, minor: 6,
		resources: &randr.GetScreenResourcesCurrentReply{
			Crtcs: []randr.Crtc{10, 11},
			Modes: []randr.ModeInfo{
				modeInfo(100, 1920, 1080, 148500000, 2200, 1125), // 60 Hz
				modeInfo(101, 1280, 720, 74250000, 1650, 750),    // 60 Hz
				modeInfo(102, 1920, 1080, 148500000, 2200, 1125), // duplicate of 100
				{Id: 103, Width: 1920, Height: 1080, ModeFlags: randr.ModeFlagInterlace, DotClock: 74250000, Htotal: 2200, Vtotal: 1125},
				modeInfo(104, 1024, 768, 0, 0, 0),
			},
		},
		crtcs: map[randr.Crtc]*randr.GetCrtcInfoReply{
			10: {X: 0, Y: 0, Mode: 100, Rotation: randr.RotationRotate0, Outputs: []randr.Output{20}},
			11: {X: 1920, Y: 0, Mode: 101, Rotation: randr.RotationRotate90, Outputs: []randr.Output{21, 22}},
		},
		outputs: map[randr.Output]*randr.GetOutputInfoReply{
			20: {Crtc: 10, Name: []byte("DP-1"), MmWidth: 600, MmHeight: 340, Connection: randr.ConnectionConnected, Modes: []randr.Mode{100, 101, 102, 103}},
			21: {Crtc: 11, Name: []byte("HDMI-1"), MmWidth: 520, MmHeight: 290, Connection: randr.ConnectionConnected, Modes: []randr.Mode{101, 104, 999}},
			22: {Crtc: 11, Name: []byte("VGA-1"), Connection: randr.ConnectionDisconnected},
		},
		primary: 20,
		screen:  ScreenGeometry{WidthPx: 3200, HeightPx: 1800, WidthMM: 677, HeightMM: 381},
	}
}

func newTestAdapter(t *testing.T, srv *fakeServer) *Adapter {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := NewAdapterWithDialer("", func(string) (Server, error) { return srv, nil }, logger)
	if err := a.Init(); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	return a
}

func TestDetect_ConnectedOutputsOnly(t *testing.T) {
	a := newTestAdapter(t, newFakeServer())
	monitors, err := a.Detect()
	if err != nil {
		t.Fatalf("Detect() error: %v", err)
	}
	if len(monitors) != 2 {
		t.Fatalf("Detect() returned %d monitors, want 2", len(monitors))
	}
	if monitors[0].Name != "DP-1" || monitors[1].Name != "HDMI-1" {
		t.Fatalf("names = %q, %q", monitors[0].Name, monitors[1].Name)
	}
	if !monitors[0].Primary || monitors[1].Primary {
		t.Fatalf("primary flags = %v, %v", monitors[0].Primary, monitors[1].Primary)
	}
	if monitors[0].Unit != monitor.UnitMillimeters {
		t.Fatalf("Unit = %q, want mm", monitors[0].Unit)
	}
}

func TestDetect_NoConnectedOutputs(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeServer)
	}{
		{"no crtcs", func(f *fakeServer) { f.resources.Crtcs = nil }},
		{"all disconnected", func(f *fakeServer) {
			for _, oi := range f.outputs {
				oi.Connection = randr.ConnectionDisconnected
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFakeServer()
			tt.setup(srv)
			a := newTestAdapter(t, srv)

			monitors, err := a.Detect()
			if err != nil {
				t.Fatalf("Detect() error: %v", err)
			}
			if monitors == nil || len(monitors) != 0 {
				t.Fatalf("Detect() = %#v, want an empty non-nil list", monitors)
			}
		})
	}
}

func TestDetect_FiltersInterlacedAndDeduplicates(t *testing.T) {
	a := newTestAdapter(t, newFakeServer())
	monitors, _ := a.Detect()
	dp := monitors[0]

	if dp.ModeCount() != 2 {
		t.Fatalf("DP-1 ModeCount() = %d, want 2", dp.ModeCount())
	}
	first := dp.Modes()[0]
	if first.Width != 1920 || first.Height != 1080 || first.Refresh != 60 {
		t.Fatalf("first mode = %dx%d@%d, want 1920x1080@60", first.Width, first.Height, first.Refresh)
	}
	if first.Handle != (modeHandle{mode: 100}) {
		t.Fatalf("first occurrence should be kept, got handle %v", first.Handle)
	}
	if dp.CurrentMode() != first {
		t.Fatalf("CurrentMode() = %v, want 1920x1080", dp.CurrentMode())
	}
}

func TestDetect_RotationSwapsGeometry(t *testing.T) {
	a := newTestAdapter(t, newFakeServer())
	monitors, _ := a.Detect()
	hdmi := monitors[1]

	if hdmi.Width != 290 || hdmi.Height != 520 {
		t.Fatalf("physical size = %dx%d, want 290x520", hdmi.Width, hdmi.Height)
	}
	if hdmi.ModeCount() != 2 {
		t.Fatalf("HDMI-1 ModeCount() = %d, want 2", hdmi.ModeCount())
	}
	cur := hdmi.CurrentMode()
	if cur == nil || cur.Width != 720 || cur.Height != 1280 {
		t.Fatalf("CurrentMode() = %+v, want 720x1280", cur)
	}
	if hdmi.Modes()[1].Refresh != monitor.RefreshUnknown {
		t.Fatalf("mode without timings refresh = %d, want %d", hdmi.Modes()[1].Refresh, monitor.RefreshUnknown)
	}
}

func TestDetect_NoCurrentWhenCrtcModeUnmatched(t *testing.T) {
	srv := newFakeServer()
	srv.crtcs[10].Mode = 103
	a := newTestAdapter(t, srv)
	monitors, _ := a.Detect()
	if monitors[0].CurrentMode() != nil {
		t.Fatalf("CurrentMode() = %v, want nil for interlaced active mode", monitors[0].CurrentMode())
	}
}

func TestDetect_FallbackWithoutRandr(t *testing.T) {
	for _, srv := range []*fakeServer{
		{major: 1, minor: 2},
		{versionErr: errors.New("no extension")},
	} {
		srv.screen = ScreenGeometry{WidthPx: 1600, HeightPx: 900, WidthMM: 350, HeightMM: 200}
		a := newTestAdapter(t, srv)
		monitors, err := a.Detect()
		if err != nil {
			t.Fatalf("Detect() error: %v", err)
		}
		if len(monitors) != 1 {
			t.Fatalf("Detect() returned %d monitors, want 1", len(monitors))
		}
		m := monitors[0]
		if m.Name != FallbackName || !m.Primary {
			t.Fatalf("fallback monitor = %q primary=%v", m.Name, m.Primary)
		}
		if m.Width != 350 || m.Height != 200 {
			t.Fatalf("fallback size = %dx%d, want 350x200", m.Width, m.Height)
		}
		cur := m.CurrentMode()
		if m.ModeCount() != 1 || cur == nil || cur.Width != 1600 || cur.Height != 900 || cur.Refresh != monitor.RefreshUnknown {
			t.Fatalf("fallback mode = %+v", cur)
		}
		if err := a.MakeModeCurrent(cur); !errors.Is(err, monitor.ErrModeRejected) {
			t.Fatalf("MakeModeCurrent() error = %v, want ErrModeRejected", err)
		}
	}
}

func TestDetect_RequiresInit(t *testing.T) {
	a := NewAdapterWithDialer("", func(string) (Server, error) { return newFakeServer(), nil }, nil)
	if _, err := a.Detect(); !errors.Is(err, monitor.ErrNotInitialized) {
		t.Fatalf("Detect() error = %v, want ErrNotInitialized", err)
	}
}

func TestMakeModeCurrent_KeepsCrtcLayout(t *testing.T) {
	srv := newFakeServer()
	a := newTestAdapter(t, srv)
	monitors, _ := a.Detect()
	hdmi := monitors[1]
	target := hdmi.Modes()[1]

	if err := a.MakeModeCurrent(target); err != nil {
		t.Fatalf("MakeModeCurrent() error: %v", err)
	}
	if len(srv.sets) != 1 {
		t.Fatalf("SetCrtcConfig calls = %d, want 1", len(srv.sets))
	}
	call := srv.sets[0]
	if call.crtc != 11 || call.mode != 104 || call.x != 1920 || call.rotation != randr.RotationRotate90 || len(call.outputs) != 2 {
		t.Fatalf("SetCrtcConfig call = %+v", call)
	}
}

func TestMakeModeCurrent_FailureStatus(t *testing.T) {
	srv := newFakeServer()
	srv.setStatus = randr.SetConfigFailed
	a := newTestAdapter(t, srv)
	monitors, _ := a.Detect()

	err := a.MakeModeCurrent(monitors[0].Modes()[1])
	if !errors.Is(err, monitor.ErrModeRejected) {
		t.Fatalf("MakeModeCurrent() error = %v, want ErrModeRejected", err)
	}
}

func TestMakeModeCurrent_ModeNoLongerOffered(t *testing.T) {
	srv := newFakeServer()
	a := newTestAdapter(t, srv)
	monitors, _ := a.Detect()
	srv.outputs[20].Modes = []randr.Mode{100}

	err := a.MakeModeCurrent(monitors[0].Modes()[1])
	if !errors.Is(err, monitor.ErrModeNotFound) {
		t.Fatalf("MakeModeCurrent() error = %v, want ErrModeNotFound", err)
	}
	if len(srv.sets) != 0 {
		t.Fatalf("SetCrtcConfig should not be called for a vanished mode")
	}
}

func TestRefreshRate(t *testing.T) {
	tests := []struct {
		mi   randr.ModeInfo
		want int
	}{
		{modeInfo(1, 1920, 1080, 148500000, 2200, 1125), 60},
		{modeInfo(2, 2560, 1440, 241500000, 2720, 1481), 59},
		{modeInfo(3, 800, 600, 40000000, 0, 628), monitor.RefreshUnknown},
	}
	for _, tt := range tests {
		if got := refreshRate(tt.mi); got != tt.want {
			t.Errorf("refreshRate(%d) = %d, want %d", tt.mi.Id, got, tt.want)
		}
	}
}

func TestChanges_SignalsAndStops(t *testing.T) {
	srv := newFakeServer()
	srv.changes = make(chan struct{})
	a := newTestAdapter(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := a.Changes(ctx)
	if err != nil {
		t.Fatalf("Changes() error: %v", err)
	}

	srv.changes <- struct{}{}
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a change signal")
	}

	close(srv.changes)
	select {
	case _, ok := <-ch:
		if ok {
			// A coalesced signal may still be buffered.
			if _, ok := <-ch; ok {
				t.Fatal("channel should close after the watcher stops")
			}
		}
	case <-time.After(time.Second):
		t.Fatal("channel did not close")
	}
}

func TestChanges_ClosesWatcherWhenServerGoesAway(t *testing.T) {
	srv := newFakeServer()
	watcher := newFakeServer()
	watcher.changes = make(chan struct{})
	watcher.done = make(chan struct{})

	dials := 0
	dial := func(string) (Server, error) {
		dials++
		if dials == 1 {
			return srv, nil
		}
		return watcher, nil
	}
	a := NewAdapterWithDialer("", dial, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := a.Init(); err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := a.Changes(ctx)
	if err != nil {
		t.Fatalf("Changes() error: %v", err)
	}

	close(watcher.changes)
	select {
	case <-watcher.done:
	case <-time.After(time.Second):
		t.Fatal("watcher connection not closed after the server went away")
	}
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed")
	}
}

func TestDeinit_ClosesServer(t *testing.T) {
	srv := newFakeServer()
	a := newTestAdapter(t, srv)
	a.Deinit()
	if !srv.closed {
		t.Fatal("Deinit() did not close the server")
	}
	if _, err := a.Detect(); !errors.Is(err, monitor.ErrNotInitialized) {
		t.Fatalf("Detect() after Deinit error = %v", err)
	}
}
