package monitor

import "fmt"

// ModeInfo is a serializable snapshot of a mode.
type ModeInfo struct {
	Width   int  `json:"width" yaml:"width"`
	Height  int  `json:"height" yaml:"height"`
	Refresh int  `json:"refresh" yaml:"refresh"`
	Current bool `json:"current,omitempty" yaml:"current,omitempty"`
}

// String formats the mode as WxH@Hz, or WxH when the refresh is unknown.
func (m ModeInfo) String() string {
	if m.Refresh <= 0 {
		return fmt.Sprintf("%dx%d", m.Width, m.Height)
	}
	return fmt.Sprintf("%dx%d@%d", m.Width, m.Height, m.Refresh)
}

// Info is a serializable snapshot of a monitor, used by the CLI, the daemon
// protocol and the MCP tools.
type Info struct {
	Index          int        `json:"index" yaml:"index"`
	Name           string     `json:"name" yaml:"name"`
	Primary        bool       `json:"primary" yaml:"primary"`
	PhysicalWidth  int        `json:"physical_width" yaml:"physical_width"`
	PhysicalHeight int        `json:"physical_height" yaml:"physical_height"`
	Unit           SizeUnit   `json:"unit,omitempty" yaml:"unit,omitempty"`
	Current        *ModeInfo  `json:"current,omitempty" yaml:"current,omitempty"`
	Modes          []ModeInfo `json:"modes" yaml:"modes"`
}

// Describe snapshots a detected monitor list.
func Describe(monitors []*Monitor) []Info {
	infos := make([]Info, 0, len(monitors))
	for i, m := range monitors {
		info := Info{
			Index:          i,
			Name:           m.Name,
			Primary:        m.Primary,
			PhysicalWidth:  m.Width,
			PhysicalHeight: m.Height,
			Unit:           m.Unit,
			Modes:          make([]ModeInfo, 0, len(m.modes)),
		}
		current := m.CurrentMode()
		for _, mode := range m.modes {
			mi := ModeInfo{
				Width:   mode.Width,
				Height:  mode.Height,
				Refresh: mode.Refresh,
				Current: mode == current,
			}
			info.Modes = append(info.Modes, mi)
			if mi.Current {
				c := mi
				info.Current = &c
			}
		}
		infos = append(infos, info)
	}
	return infos
}
