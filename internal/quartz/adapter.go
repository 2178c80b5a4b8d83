package quartz

import (
	"fmt"
	"log/slog"

	"github.com/1broseidon/monitors/internal/monitor"
)

const backendName = "quartz"

type displayHandle struct {
	id DisplayID
}

func (displayHandle) Backend() string { return backendName }

type modeHandle struct {
	id int32
}

func (modeHandle) Backend() string { return backendName }

// Adapter reports every online, awake display.
type Adapter struct {
	api    API
	logger *slog.Logger
	open   bool
}

// NewAdapter returns an adapter over api.
func NewAdapter(api API, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{api: api, logger: logger}
}

func (a *Adapter) Name() string { return backendName }

func (a *Adapter) Init() error {
	a.open = true
	return nil
}

func (a *Adapter) Deinit() {
	a.open = false
}

// Detect lists the online displays and builds a monitor for each one that is
// not asleep.
func (a *Adapter) Detect() ([]*monitor.Monitor, error) {
	if !a.open {
		return nil, monitor.ErrNotInitialized
	}

	n, err := a.api.OnlineDisplayCount()
	if err != nil {
		return nil, fmt.Errorf("online display count: %w", err)
	}
	ids, err := a.api.OnlineDisplays(n)
	if err != nil {
		return nil, fmt.Errorf("online display list: %w", err)
	}
	if len(ids) > n {
		a.logger.Warn("displays appeared during detection", "dropped", len(ids)-n)
		ids = ids[:n]
	}

	walk := monitor.Walker[DisplayID](func(visit func(DisplayID)) error {
		for _, id := range ids {
			if a.api.IsAsleep(id) {
				continue
			}
			visit(id)
		}
		return nil
	})

	monitors, overflow, err := monitor.Collect(walk, func(id DisplayID) (*monitor.Monitor, bool) {
		return a.buildMonitor(id), true
	})
	if overflow > 0 {
		a.logger.Warn("displays woke during detection", "dropped", overflow)
	}
	return monitors, err
}

func (a *Adapter) buildMonitor(id DisplayID) *monitor.Monitor {
	name := monitor.UnknownName
	if product := a.api.ProductName(id); len(product) > 0 {
		if s := monitor.SanitizeUTF16(product); s != "" {
			name = s
		}
	}

	m := monitor.New(name)
	m.Primary = a.api.IsMain(id)
	m.Handle = displayHandle{id: id}
	m.Unit = monitor.UnitMillimeters
	w, h := a.api.ScreenSize(id)
	m.Width, m.Height = int(w), int(h)

	a.detectModes(m, id)
	return m
}

// usable reports whether a mode is valid, safe, progressive, unstretched and
// uses a 16 or 32 bit direct pixel encoding.
func usable(desc ModeDesc) bool {
	if desc.IOFlags&IOFlagValid == 0 || desc.IOFlags&IOFlagSafe == 0 {
		return false
	}
	if desc.IOFlags&(IOFlagInterlaced|IOFlagStretched) != 0 {
		return false
	}
	return desc.Encoding == Encoding16Bit || desc.Encoding == Encoding32Bit
}

// periodRefresh converts a display link's nominal refresh period to Hz.
func periodRefresh(period CVTime) (int, bool) {
	if period.Flags&CVTimeIsIndefinite != 0 || period.Value == 0 {
		return 0, false
	}
	return int(float64(period.Scale) / float64(period.Value)), true
}

func (a *Adapter) detectModes(m *monitor.Monitor, id DisplayID) {
	descs := a.api.Modes(id)
	currentID, haveCurrent := a.api.CurrentModeID(id)

	fallback := monitor.RefreshUnknown
	if period, ok := a.api.NominalRefreshPeriod(id); ok {
		if hz, ok := periodRefresh(period); ok {
			fallback = hz
		}
	}

	walk := monitor.Walker[ModeDesc](func(visit func(ModeDesc)) error {
		for _, desc := range descs {
			if usable(desc) {
				visit(desc)
			}
		}
		return nil
	})

	n, _ := monitor.Count(walk)
	m.AllocModes(n)
	_ = walk(func(desc ModeDesc) {
		refresh := int(desc.Refresh)
		if refresh == 0 {
			refresh = fallback
		}
		mode := &monitor.Mode{
			Width:   desc.Width,
			Height:  desc.Height,
			Refresh: refresh,
			Handle:  modeHandle{id: desc.ID},
		}
		m.AddMode(mode, haveCurrent && desc.ID == currentID)
	})
}

// MakeModeCurrent looks the mode's identifier up among the display's live
// modes and switches to it.
func (a *Adapter) MakeModeCurrent(mode *monitor.Mode) error {
	if !a.open {
		return monitor.ErrNotInitialized
	}
	dh, ok := mode.Monitor().Handle.(displayHandle)
	if !ok {
		return fmt.Errorf("%w: monitor was not detected through quartz", monitor.ErrModeRejected)
	}
	mh, ok := mode.Handle.(modeHandle)
	if !ok {
		return fmt.Errorf("%w: mode was not detected through quartz", monitor.ErrModeRejected)
	}

	cgErr, found := a.api.SetDisplayMode(dh.id, mh.id)
	if !found {
		return fmt.Errorf("display %d mode %d: %w", dh.id, mh.id, monitor.ErrModeNotFound)
	}
	if cgErr != CGErrorSuccess {
		return fmt.Errorf("%w: CGDisplaySetDisplayMode error %d", monitor.ErrModeRejected, cgErr)
	}
	return nil
}
