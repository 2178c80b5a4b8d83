package monitor

// IsDuplicate reports whether accepted already holds a mode with the same
// width, height and refresh as candidate. The candidate itself is skipped.
func IsDuplicate(candidate *Mode, accepted []*Mode) bool {
	return findDuplicate(candidate, accepted) != nil
}

func findDuplicate(candidate *Mode, accepted []*Mode) *Mode {
	for _, mode := range accepted {
		if mode != candidate && mode.Equal(candidate) {
			return mode
		}
	}
	return nil
}

// AllocModes reserves room for exactly n modes, discarding any previous list.
// It is the allocation step between a backend's counting and filling passes.
func (m *Monitor) AllocModes(n int) {
	if n < 0 {
		n = 0
	}
	m.modes = make([]*Mode, 0, n)
	m.current = -1
}

// AddMode appends mode unless an equal mode was accepted earlier, in which
// case the earlier entry is kept. When active is set the surviving entry
// becomes the current mode, so a dropped duplicate that the platform reports
// as active resolves to its representative.
//
// AddMode reports whether mode was appended. It never grows the list past the
// capacity reserved by AllocModes.
func (m *Monitor) AddMode(mode *Mode, active bool) bool {
	if dup := findDuplicate(mode, m.modes); dup != nil {
		if active {
			m.current = m.indexOf(dup)
		}
		return false
	}
	if len(m.modes) == cap(m.modes) {
		return false
	}
	mode.monitor = m
	m.modes = append(m.modes, mode)
	if active {
		m.current = len(m.modes) - 1
	}
	return true
}
