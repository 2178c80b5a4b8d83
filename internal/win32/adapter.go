package win32

import (
	"fmt"
	"log/slog"

	"github.com/1broseidon/monitors/internal/monitor"
)

const backendName = "win32"

type deviceHandle struct {
	adapter string
	display string
	pruned  bool
}

func (deviceHandle) Backend() string { return backendName }

type settingsHandle struct {
	index uint32
}

func (settingsHandle) Backend() string { return backendName }

// Adapter enumerates active display adapters and the displays attached to
// them.
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

// Init needs no native session; it only marks the adapter usable.
func (a *Adapter) Init() error {
	a.open = true
	return nil
}

func (a *Adapter) Deinit() {
	a.open = false
}

type deviceEntry struct {
	adapter DisplayDevice
	display *DisplayDevice
}

func (a *Adapter) devices(parent string, visit func(uint32, DisplayDevice)) {
	for i := uint32(0); ; i++ {
		dev, ok := a.api.EnumDisplayDevices(parent, i)
		if !ok {
			return
		}
		visit(i, dev)
	}
}

// hasDisplays reports whether any active adapter exposes a display device.
// Some drivers expose none, in which case each adapter is reported as a
// monitor on its own.
func (a *Adapter) hasDisplays() bool {
	found := false
	a.devices("", func(_ uint32, adapter DisplayDevice) {
		if found || adapter.StateFlags&DisplayDeviceActive == 0 {
			return
		}
		if _, ok := a.api.EnumDisplayDevices(utf16String(adapter.DeviceName[:]), 0); ok {
			found = true
		}
	})
	return found
}

// Detect reports one monitor per display of every active adapter.
func (a *Adapter) Detect() ([]*monitor.Monitor, error) {
	if !a.open {
		return nil, monitor.ErrNotInitialized
	}

	withDisplays := a.hasDisplays()
	walk := monitor.Walker[deviceEntry](func(visit func(deviceEntry)) error {
		a.devices("", func(_ uint32, adapter DisplayDevice) {
			if adapter.StateFlags&DisplayDeviceActive == 0 {
				return
			}
			if !withDisplays {
				visit(deviceEntry{adapter: adapter})
				return
			}
			a.devices(utf16String(adapter.DeviceName[:]), func(_ uint32, display DisplayDevice) {
				visit(deviceEntry{adapter: adapter, display: &display})
			})
		})
		return nil
	})

	monitors, overflow, err := monitor.Collect(walk, func(e deviceEntry) (*monitor.Monitor, bool) {
		return a.buildMonitor(e), true
	})
	if overflow > 0 {
		a.logger.Warn("display devices appeared during detection", "dropped", overflow)
	}
	return monitors, err
}

func (a *Adapter) buildMonitor(e deviceEntry) *monitor.Monitor {
	name := e.adapter.DeviceString[:]
	if e.display != nil {
		name = e.display.DeviceString[:]
	}

	handle := deviceHandle{
		adapter: utf16String(e.adapter.DeviceName[:]),
		pruned:  e.adapter.StateFlags&DisplayDeviceModesPruned != 0,
	}
	if e.display != nil {
		handle.display = utf16String(e.display.DeviceName[:])
	}

	m := monitor.New(monitor.SanitizeUTF16(name))
	m.Primary = e.adapter.StateFlags&DisplayDevicePrimaryDevice != 0
	m.Handle = handle
	m.Unit = monitor.UnitDeviceCaps
	m.Width, m.Height = a.api.PhysicalSize(handle.adapter)

	a.detectModes(m, handle)
	return m
}

func (a *Adapter) acceptable(handle deviceHandle, dm *DevMode) bool {
	if dm.BitsPerPel < MinBitsPerPixel {
		return false
	}
	if handle.pruned {
		return a.api.ChangeDisplaySettings(handle.adapter, dm, CDSTest) == DispChangeSuccessful
	}
	return true
}

type settingsEntry struct {
	index uint32
	dm    DevMode
}

func (a *Adapter) detectModes(m *monitor.Monitor, handle deviceHandle) {
	current, haveCurrent := a.api.EnumDisplaySettings(handle.adapter, EnumCurrentSettings)

	walk := monitor.Walker[settingsEntry](func(visit func(settingsEntry)) error {
		for i := uint32(0); ; i++ {
			dm, ok := a.api.EnumDisplaySettings(handle.adapter, i)
			if !ok {
				return nil
			}
			if a.acceptable(handle, &dm) {
				visit(settingsEntry{index: i, dm: dm})
			}
		}
	})

	n, _ := monitor.Count(walk)
	m.AllocModes(n)
	_ = walk(func(e settingsEntry) {
		mode := &monitor.Mode{
			Width:   int(e.dm.PelsWidth),
			Height:  int(e.dm.PelsHeight),
			Refresh: int(e.dm.DisplayFrequency),
			Handle:  settingsHandle{index: e.index},
		}
		m.AddMode(mode, haveCurrent && sameSettings(&e.dm, &current))
	})
}

func sameSettings(a, b *DevMode) bool {
	return a.PelsWidth == b.PelsWidth &&
		a.PelsHeight == b.PelsHeight &&
		a.DisplayFrequency == b.DisplayFrequency
}

// MakeModeCurrent test-applies the mode on the monitor's adapter and then
// applies it for real.
func (a *Adapter) MakeModeCurrent(mode *monitor.Mode) error {
	if !a.open {
		return monitor.ErrNotInitialized
	}
	handle, ok := mode.Monitor().Handle.(deviceHandle)
	if !ok {
		return fmt.Errorf("%w: monitor was not detected through win32", monitor.ErrModeRejected)
	}

	dm := DevMode{
		Size:             DevModeSize,
		Fields:           DMPelsWidth | DMPelsHeight | DMDisplayFrequency,
		PelsWidth:        uint32(mode.Width),
		PelsHeight:       uint32(mode.Height),
		DisplayFrequency: uint32(mode.Refresh),
	}

	if code := a.api.ChangeDisplaySettings(handle.adapter, &dm, CDSTest); code != DispChangeSuccessful {
		return fmt.Errorf("%w: %s test apply: %s (%d)", monitor.ErrModeRejected, handle.adapter, changeResultString(code), code)
	}
	if code := a.api.ChangeDisplaySettings(handle.adapter, &dm, CDSFullscreen); code != DispChangeSuccessful {
		return fmt.Errorf("%w: %s: %s (%d)", monitor.ErrModeRejected, handle.adapter, changeResultString(code), code)
	}
	return nil
}
