package monitor

import (
	"fmt"
	"strconv"
	"strings"
)

// Lookup finds a monitor by exact name, then by its index in the list.
func Lookup(monitors []*Monitor, key string) (*Monitor, int) {
	for i, m := range monitors {
		if m.Name == key {
			return m, i
		}
	}
	if i, err := strconv.Atoi(key); err == nil && i >= 0 && i < len(monitors) {
		return monitors[i], i
	}
	return nil, -1
}

// ModeSpec is a requested mode; a zero Refresh matches any refresh rate.
type ModeSpec struct {
	Width   int
	Height  int
	Refresh int
}

func (s ModeSpec) String() string {
	return ModeInfo{Width: s.Width, Height: s.Height, Refresh: s.Refresh}.String()
}

// ParseModeSpec parses "WxH" or "WxH@Hz".
func ParseModeSpec(s string) (ModeSpec, error) {
	var spec ModeSpec
	geom, rate, hasRate := strings.Cut(strings.TrimSpace(s), "@")
	w, h, ok := strings.Cut(strings.ToLower(geom), "x")
	if !ok {
		return spec, fmt.Errorf("invalid mode %q: want WxH or WxH@Hz", s)
	}
	var err error
	if spec.Width, err = strconv.Atoi(w); err != nil || spec.Width <= 0 {
		return spec, fmt.Errorf("invalid width in mode %q", s)
	}
	if spec.Height, err = strconv.Atoi(h); err != nil || spec.Height <= 0 {
		return spec, fmt.Errorf("invalid height in mode %q", s)
	}
	if hasRate {
		if spec.Refresh, err = strconv.Atoi(strings.TrimSuffix(strings.ToLower(rate), "hz")); err != nil || spec.Refresh <= 0 {
			return spec, fmt.Errorf("invalid refresh in mode %q", s)
		}
	}
	return spec, nil
}
