package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/1broseidon/monitors/internal/monitor"
)

// monitorItem is a list item for one detected monitor.
type monitorItem struct {
	info monitor.Info
}

func (i monitorItem) Title() string {
	if i.info.Primary {
		return i.info.Name + " " + primaryTag
	}
	return i.info.Name
}

func (i monitorItem) Description() string {
	current := "unknown mode"
	if i.info.Current != nil {
		current = i.info.Current.String()
	}
	size := fmt.Sprintf("%dx%d", i.info.PhysicalWidth, i.info.PhysicalHeight)
	if i.info.Unit != monitor.UnitUnknown {
		size += " " + string(i.info.Unit)
	}
	return fmt.Sprintf("%s, %s, %d modes", current, size, len(i.info.Modes))
}

func (i monitorItem) FilterValue() string { return i.info.Name }

// modeItem is a list item for one mode of the selected monitor.
type modeItem struct {
	mode monitor.ModeInfo
}

func (i modeItem) Title() string {
	if i.mode.Current {
		return markStyle.Render("●") + " " + i.mode.String()
	}
	return "  " + i.mode.String()
}

func (i modeItem) Description() string {
	if i.mode.Refresh < 0 {
		return "refresh unknown"
	}
	if i.mode.Current {
		return "current"
	}
	return ""
}

func (i modeItem) FilterValue() string { return i.mode.String() }

func monitorItems(infos []monitor.Info) []list.Item {
	items := make([]list.Item, 0, len(infos))
	for _, info := range infos {
		items = append(items, monitorItem{info: info})
	}
	return items
}

func modeItems(info monitor.Info) []list.Item {
	items := make([]list.Item, 0, len(info.Modes))
	for _, mode := range info.Modes {
		items = append(items, modeItem{mode: mode})
	}
	return items
}
