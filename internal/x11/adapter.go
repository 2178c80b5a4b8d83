package x11

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/1broseidon/monitors/internal/monitor"
	"github.com/BurntSushi/xgb/randr"
)

const backendName = "x11"

// FallbackName names the single monitor reported when RandR is unavailable.
const FallbackName = "Display"

// ErrRandrUnavailable is returned by operations that require RandR 1.3.
var ErrRandrUnavailable = errors.New("randr 1.3 not available")

type outputHandle struct {
	crtc   randr.Crtc
	output randr.Output
}

func (outputHandle) Backend() string { return backendName }

type modeHandle struct {
	mode randr.Mode
}

func (modeHandle) Backend() string { return backendName }

type screenHandle struct{}

func (screenHandle) Backend() string { return backendName }

// Adapter detects monitors and switches modes through the RandR extension.
// Without RandR 1.3 it reports the whole screen as one monitor.
type Adapter struct {
	display string
	dial    Dialer
	logger  *slog.Logger

	server Server
	randr  bool
}

// NewAdapter returns an adapter for the named X display.
func NewAdapter(display string, logger *slog.Logger) *Adapter {
	return NewAdapterWithDialer(display, DialServer, logger)
}

// NewAdapterWithDialer returns an adapter that opens servers through dial.
func NewAdapterWithDialer(display string, dial Dialer, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{display: display, dial: dial, logger: logger}
}

func (a *Adapter) Name() string { return backendName }

// Init opens the display connection and probes RandR.
func (a *Adapter) Init() error {
	if a.server != nil {
		return nil
	}
	server, err := a.dial(a.display)
	if err != nil {
		return err
	}
	a.server = server
	a.randr = a.probeRandr()
	return nil
}

func (a *Adapter) probeRandr() bool {
	major, minor, err := a.server.RandrVersion()
	if err != nil {
		a.logger.Debug("randr unavailable", "error", err)
		return false
	}
	if major > 1 || minor >= 3 {
		return true
	}
	a.logger.Debug("randr too old", "major", major, "minor", minor)
	return false
}

// Deinit closes the display connection.
func (a *Adapter) Deinit() {
	if a.server == nil {
		return
	}
	a.server.Close()
	a.server = nil
	a.randr = false
}

type outputEntry struct {
	crtc   randr.Crtc
	ci     *randr.GetCrtcInfoReply
	output randr.Output
	oi     *randr.GetOutputInfoReply
}

// Detect walks every CRTC and every output driven by it, reporting each
// connected output as a monitor.
func (a *Adapter) Detect() ([]*monitor.Monitor, error) {
	if a.server == nil {
		return nil, monitor.ErrNotInitialized
	}
	if !a.randr {
		return []*monitor.Monitor{a.screenMonitor()}, nil
	}

	res, err := a.server.Resources()
	if err != nil {
		return nil, err
	}
	primary, err := a.server.PrimaryOutput()
	if err != nil {
		a.logger.Debug("primary output query failed", "error", err)
		primary = 0
	}

	modeInfos := make(map[randr.Mode]randr.ModeInfo, len(res.Modes))
	for _, mi := range res.Modes {
		modeInfos[randr.Mode(mi.Id)] = mi
	}

	walk := monitor.Walker[outputEntry](func(visit func(outputEntry)) error {
		for _, crtc := range res.Crtcs {
			ci, err := a.server.CrtcInfo(crtc, res.ConfigTimestamp)
			if err != nil {
				a.logger.Debug("crtc info failed", "crtc", crtc, "error", err)
				continue
			}
			for _, out := range ci.Outputs {
				oi, err := a.server.OutputInfo(out, res.ConfigTimestamp)
				if err != nil {
					a.logger.Debug("output info failed", "output", out, "error", err)
					continue
				}
				if oi.Connection != randr.ConnectionConnected {
					continue
				}
				visit(outputEntry{crtc: crtc, ci: ci, output: out, oi: oi})
			}
		}
		return nil
	})

	monitors, overflow, err := monitor.Collect(walk, func(e outputEntry) (*monitor.Monitor, bool) {
		m := buildMonitor(e, modeInfos)
		m.Primary = primary != 0 && e.output == primary
		return m, true
	})
	if overflow > 0 {
		a.logger.Warn("outputs appeared during detection", "dropped", overflow)
	}
	return monitors, err
}

func buildMonitor(e outputEntry, modeInfos map[randr.Mode]randr.ModeInfo) *monitor.Monitor {
	m := monitor.New(monitor.SanitizeName(string(e.oi.Name)))
	m.Handle = outputHandle{crtc: e.crtc, output: e.output}
	m.Unit = monitor.UnitMillimeters
	m.Width, m.Height = int(e.oi.MmWidth), int(e.oi.MmHeight)

	rotated := isRotated(e.ci.Rotation)
	if rotated {
		m.Width, m.Height = m.Height, m.Width
	}

	modes := monitor.Walker[randr.ModeInfo](func(visit func(randr.ModeInfo)) error {
		for _, id := range e.oi.Modes {
			mi, ok := modeInfos[id]
			if !ok || mi.ModeFlags&randr.ModeFlagInterlace != 0 {
				continue
			}
			visit(mi)
		}
		return nil
	})

	n, _ := monitor.Count(modes)
	m.AllocModes(n)
	_ = modes(func(mi randr.ModeInfo) {
		mode := &monitor.Mode{
			Width:   int(mi.Width),
			Height:  int(mi.Height),
			Refresh: refreshRate(mi),
			Handle:  modeHandle{mode: randr.Mode(mi.Id)},
		}
		if rotated {
			mode.Width, mode.Height = mode.Height, mode.Width
		}
		m.AddMode(mode, e.ci.Mode == randr.Mode(mi.Id))
	})
	return m
}

func isRotated(rotation uint16) bool {
	return rotation&(randr.RotationRotate90|randr.RotationRotate270) != 0
}

// refreshRate derives the vertical refresh in whole Hz from the mode timings.
func refreshRate(mi randr.ModeInfo) int {
	if mi.Htotal == 0 || mi.Vtotal == 0 {
		return monitor.RefreshUnknown
	}
	return int(float64(mi.DotClock) / (float64(mi.Htotal) * float64(mi.Vtotal)))
}

func (a *Adapter) screenMonitor() *monitor.Monitor {
	geom := a.server.Screen()
	m := monitor.New(FallbackName)
	m.Primary = true
	m.Handle = screenHandle{}
	m.Unit = monitor.UnitMillimeters
	m.Width, m.Height = geom.WidthMM, geom.HeightMM
	m.AllocModes(1)
	m.AddMode(&monitor.Mode{
		Width:   geom.WidthPx,
		Height:  geom.HeightPx,
		Refresh: monitor.RefreshUnknown,
		Handle:  screenHandle{},
	}, true)
	return m
}

// MakeModeCurrent reprograms the monitor's CRTC with the mode, keeping its
// position, rotation and output set.
func (a *Adapter) MakeModeCurrent(mode *monitor.Mode) error {
	if a.server == nil {
		return monitor.ErrNotInitialized
	}
	if !a.randr {
		return fmt.Errorf("%w: %w", monitor.ErrModeRejected, ErrRandrUnavailable)
	}
	oh, ok := mode.Monitor().Handle.(outputHandle)
	if !ok {
		return fmt.Errorf("%w: monitor was not detected through randr", monitor.ErrModeRejected)
	}
	mh, ok := mode.Handle.(modeHandle)
	if !ok {
		return fmt.Errorf("%w: mode was not detected through randr", monitor.ErrModeRejected)
	}

	res, err := a.server.Resources()
	if err != nil {
		return err
	}
	oi, err := a.server.OutputInfo(oh.output, res.ConfigTimestamp)
	if err != nil {
		return fmt.Errorf("output info failed: %w", err)
	}
	if !slices.Contains(oi.Modes, mh.mode) {
		return fmt.Errorf("output %s mode %d: %w", oi.Name, mh.mode, monitor.ErrModeNotFound)
	}
	ci, err := a.server.CrtcInfo(oh.crtc, res.ConfigTimestamp)
	if err != nil {
		return fmt.Errorf("crtc info failed: %w", err)
	}

	status, err := a.server.SetCrtcConfig(oh.crtc, res.ConfigTimestamp, ci.X, ci.Y, mh.mode, ci.Rotation, ci.Outputs)
	if err != nil {
		return fmt.Errorf("set crtc config failed: %w", err)
	}
	if status != randr.SetConfigSuccess {
		return fmt.Errorf("%w: set crtc config status %d", monitor.ErrModeRejected, status)
	}
	return nil
}

// Changes opens a second connection and signals on every RandR screen, CRTC
// or output change until ctx is done. Bursts of events coalesce into one
// signal.
func (a *Adapter) Changes(ctx context.Context) (<-chan struct{}, error) {
	if a.server == nil {
		return nil, monitor.ErrNotInitialized
	}
	if !a.randr {
		return nil, ErrRandrUnavailable
	}

	watcher, err := a.dial(a.display)
	if err != nil {
		return nil, err
	}
	if _, _, err := watcher.RandrVersion(); err != nil {
		watcher.Close()
		return nil, err
	}
	if err := watcher.SelectChanges(); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("randr select input failed: %w", err)
	}

	var closeOnce sync.Once
	stopped := make(chan struct{})
	changes := make(chan struct{}, 1)
	go func() {
		select {
		case <-ctx.Done():
		case <-stopped:
		}
		closeOnce.Do(watcher.Close)
	}()
	go func() {
		defer close(changes)
		defer close(stopped)
		for {
			if err := watcher.WaitForChange(); err != nil {
				a.logger.Debug("randr watch stopped", "error", err)
				return
			}
			select {
			case changes <- struct{}{}:
			default:
			}
		}
	}()
	return changes, nil
}
