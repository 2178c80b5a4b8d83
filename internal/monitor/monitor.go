// Package monitor holds the platform-neutral display model shared by every
// backend: monitors, their video modes, and the helpers backends use to build
// them.
package monitor

// RefreshUnknown marks a mode whose refresh rate the platform could not report.
const RefreshUnknown = -1

// Handle is an opaque, backend-specific token identifying a native display
// resource. Backends store comparable values behind it; callers may only
// compare handles for equality.
type Handle interface {
	Backend() string
}

// SizeUnit tags the unit of a monitor's physical size. Units are not
// normalized across backends.
type SizeUnit string

const (
	UnitUnknown     SizeUnit = ""
	UnitMillimeters SizeUnit = "mm"
	// UnitDeviceCaps is the unit reported by the Windows GetDeviceCaps
	// HORZSIZE/VERTSIZE query.
	UnitDeviceCaps SizeUnit = "devicecaps"
)

// Mode is one display timing configuration of a monitor.
type Mode struct {
	Width   int
	Height  int
	Refresh int

	// Handle re-selects this mode on a later switch. It is not stable across
	// process restarts if the native subsystem renumbers its modes.
	Handle Handle

	monitor *Monitor
}

// Monitor returns the monitor owning the mode, or nil for a detached mode.
func (m *Mode) Monitor() *Monitor {
	if m == nil {
		return nil
	}
	return m.monitor
}

// Equal reports whether two modes describe the same observable configuration.
func (m *Mode) Equal(other *Mode) bool {
	if m == nil || other == nil {
		return false
	}
	return m.Width == other.Width && m.Height == other.Height && m.Refresh == other.Refresh
}

// Monitor is one display output and the modes it supports.
type Monitor struct {
	Name    string
	Primary bool

	// Width and Height are the physical screen size in Unit.
	Width  int
	Height int
	Unit   SizeUnit

	Handle Handle

	modes    []*Mode
	current  int
	released bool
}

// New returns an empty monitor with no current mode.
func New(name string) *Monitor {
	return &Monitor{Name: name, current: -1}
}

// Modes returns the accepted modes in enumeration order.
func (m *Monitor) Modes() []*Mode {
	return m.modes
}

// ModeCount returns the number of accepted modes.
func (m *Monitor) ModeCount() int {
	return len(m.modes)
}

// CurrentMode returns the active mode, or nil when it could not be matched.
func (m *Monitor) CurrentMode() *Mode {
	if m.current < 0 || m.current >= len(m.modes) {
		return nil
	}
	return m.modes[m.current]
}

// Owns reports whether mode is an element of this monitor's mode list.
func (m *Monitor) Owns(mode *Mode) bool {
	return m.indexOf(mode) >= 0
}

// SetCurrent marks mode as the active mode. It refuses modes owned by another
// monitor and leaves the current mode untouched in that case.
func (m *Monitor) SetCurrent(mode *Mode) bool {
	i := m.indexOf(mode)
	if i < 0 {
		return false
	}
	m.current = i
	return true
}

// Released reports whether Release has been called.
func (m *Monitor) Released() bool {
	return m.released
}

// Release detaches all modes and native state from the monitor. Modes that
// callers still hold lose their back-reference.
func (m *Monitor) Release() {
	if m == nil || m.released {
		return
	}
	for _, mode := range m.modes {
		mode.monitor = nil
		mode.Handle = nil
	}
	m.modes = nil
	m.current = -1
	m.Handle = nil
	m.Name = ""
	m.released = true
}

// ReleaseAll releases every monitor in the list.
func ReleaseAll(monitors []*Monitor) {
	for _, m := range monitors {
		m.Release()
	}
}

func (m *Monitor) indexOf(mode *Mode) int {
	if mode == nil || mode.monitor != m {
		return -1
	}
	for i, candidate := range m.modes {
		if candidate == mode {
			return i
		}
	}
	return -1
}

// FindMode returns the first accepted mode with the given geometry. A refresh
// of zero matches any refresh rate.
func (m *Monitor) FindMode(width, height, refresh int) *Mode {
	for _, mode := range m.modes {
		if mode.Width != width || mode.Height != height {
			continue
		}
		if refresh != 0 && mode.Refresh != refresh {
			continue
		}
		return mode
	}
	return nil
}
