package monitor

import (
	"errors"
	"testing"
)

type testHandle struct{ id int }

func (testHandle) Backend() string { return "test" }

func buildMonitor(t *testing.T, modes []*Mode, active int) *Monitor {
	t.Helper()
	m := New("TEST-1")
	m.AllocModes(len(modes))
	for i, mode := range modes {
		m.AddMode(mode, i == active)
	}
	return m
}

func TestIsDuplicate_SkipsSelf(t *testing.T) {
	a := &Mode{Width: 1920, Height: 1080, Refresh: 60}
	b := &Mode{Width: 1920, Height: 1080, Refresh: 60}
	c := &Mode{Width: 1280, Height: 720, Refresh: 60}

	if IsDuplicate(a, []*Mode{a}) {
		t.Fatalf("mode must not be a duplicate of itself")
	}
	if !IsDuplicate(b, []*Mode{a, c}) {
		t.Fatalf("expected b to duplicate a")
	}
	if IsDuplicate(c, []*Mode{a}) {
		t.Fatalf("expected c to be distinct")
	}
	if IsDuplicate(&Mode{Width: 1920, Height: 1080, Refresh: 75}, []*Mode{a}) {
		t.Fatalf("refresh must take part in equality")
	}
}

func TestAddMode_KeepsFirstOccurrence(t *testing.T) {
	first := &Mode{Width: 1920, Height: 1080, Refresh: 60, Handle: testHandle{1}}
	second := &Mode{Width: 1920, Height: 1080, Refresh: 60, Handle: testHandle{2}}
	other := &Mode{Width: 1024, Height: 768, Refresh: 60, Handle: testHandle{3}}

	m := buildMonitor(t, []*Mode{first, second, other}, -1)
	if m.ModeCount() != 2 {
		t.Fatalf("ModeCount() = %d, want 2", m.ModeCount())
	}
	if m.Modes()[0] != first {
		t.Fatalf("expected first occurrence to survive")
	}
	if second.Monitor() != nil {
		t.Fatalf("dropped duplicate must not reference the monitor")
	}
	if m.CurrentMode() != nil {
		t.Fatalf("CurrentMode() = %v, want nil", m.CurrentMode())
	}
}

func TestAddMode_ActiveDuplicateResolvesToSurvivor(t *testing.T) {
	for _, active := range []int{0, 1} {
		first := &Mode{Width: 2560, Height: 1440, Refresh: 144, Handle: testHandle{10}}
		second := &Mode{Width: 2560, Height: 1440, Refresh: 144, Handle: testHandle{11}}

		m := buildMonitor(t, []*Mode{first, second}, active)
		if m.ModeCount() != 1 {
			t.Fatalf("active=%d: ModeCount() = %d, want 1", active, m.ModeCount())
		}
		if m.CurrentMode() != first {
			t.Fatalf("active=%d: CurrentMode() = %p, want surviving %p", active, m.CurrentMode(), first)
		}
	}
}

func TestAddMode_NeverExceedsAllocation(t *testing.T) {
	m := New("cap")
	m.AllocModes(1)
	if !m.AddMode(&Mode{Width: 800, Height: 600}, false) {
		t.Fatalf("first AddMode should succeed")
	}
	if m.AddMode(&Mode{Width: 640, Height: 480}, true) {
		t.Fatalf("AddMode past capacity should be refused")
	}
	if m.ModeCount() != 1 || m.CurrentMode() != nil {
		t.Fatalf("unexpected state after overflow: count=%d current=%v", m.ModeCount(), m.CurrentMode())
	}
}

func TestSetCurrent_RejectsForeignMode(t *testing.T) {
	a := buildMonitor(t, []*Mode{{Width: 800, Height: 600}}, 0)
	b := buildMonitor(t, []*Mode{{Width: 800, Height: 600}}, -1)

	foreign := a.Modes()[0]
	if b.SetCurrent(foreign) {
		t.Fatalf("SetCurrent accepted a mode owned by another monitor")
	}
	if b.CurrentMode() != nil {
		t.Fatalf("foreign SetCurrent changed state")
	}
	if b.SetCurrent(&Mode{Width: 800, Height: 600}) {
		t.Fatalf("SetCurrent accepted a detached mode")
	}
	if !b.SetCurrent(b.Modes()[0]) || b.CurrentMode() != b.Modes()[0] {
		t.Fatalf("SetCurrent rejected an owned mode")
	}
}

func TestCurrentModeIsOwned(t *testing.T) {
	m := buildMonitor(t, []*Mode{
		{Width: 1920, Height: 1080, Refresh: 60},
		{Width: 1920, Height: 1080, Refresh: 60},
		{Width: 1600, Height: 900, Refresh: 60},
	}, 2)
	cur := m.CurrentMode()
	if cur == nil || !m.Owns(cur) || cur.Monitor() != m {
		t.Fatalf("current mode must be an element of the owning monitor")
	}
}

func TestRelease(t *testing.T) {
	m := buildMonitor(t, []*Mode{{Width: 800, Height: 600, Handle: testHandle{1}}}, 0)
	m.Handle = testHandle{99}
	mode := m.Modes()[0]

	ReleaseAll([]*Monitor{m})
	if !m.Released() {
		t.Fatalf("expected monitor to be released")
	}
	if m.ModeCount() != 0 || m.CurrentMode() != nil || m.Handle != nil {
		t.Fatalf("release left state behind")
	}
	if mode.Monitor() != nil || mode.Handle != nil {
		t.Fatalf("release left the mode attached")
	}
	m.Release()
}

func TestFindMode(t *testing.T) {
	m := buildMonitor(t, []*Mode{
		{Width: 1920, Height: 1080, Refresh: 60},
		{Width: 1920, Height: 1080, Refresh: 144},
	}, -1)

	if got := m.FindMode(1920, 1080, 0); got != m.Modes()[0] {
		t.Fatalf("FindMode(any refresh) = %v, want first", got)
	}
	if got := m.FindMode(1920, 1080, 144); got != m.Modes()[1] {
		t.Fatalf("FindMode(144) = %v, want second", got)
	}
	if got := m.FindMode(800, 600, 0); got != nil {
		t.Fatalf("FindMode(800x600) = %v, want nil", got)
	}
}

func TestCountIsDeterministic(t *testing.T) {
	entries := []int{1, 2, 3, 4, 5, 6}
	walk := Walker[int](func(visit func(int)) error {
		for _, e := range entries {
			if e%2 == 0 {
				visit(e)
			}
		}
		return nil
	})

	first, err := Count(walk)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	second, _ := Count(walk)
	if first != second || first != 3 {
		t.Fatalf("Count() = %d then %d, want 3 both times", first, second)
	}
}

func TestFill_DropsEntriesPastCount(t *testing.T) {
	grow := 0
	walk := Walker[int](func(visit func(int)) error {
		for i := 0; i < 2+grow; i++ {
			visit(i)
		}
		return nil
	})

	n, _ := Count(walk)
	grow = 3
	out, overflow, err := Fill(n, walk, func(i int) (int, bool) { return i * 10, true })
	if err != nil {
		t.Fatalf("Fill() error: %v", err)
	}
	if len(out) != 2 || cap(out) != 2 {
		t.Fatalf("Fill() len=%d cap=%d, want 2/2", len(out), cap(out))
	}
	if overflow != 3 {
		t.Fatalf("overflow = %d, want 3", overflow)
	}
}

func TestCollect_PropagatesWalkError(t *testing.T) {
	boom := errors.New("boom")
	walk := Walker[int](func(visit func(int)) error { return boom })
	if _, _, err := Collect(walk, func(i int) (int, bool) { return i, true }); !errors.Is(err, boom) {
		t.Fatalf("Collect() error = %v, want %v", err, boom)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"DP-1", "DP-1"},
		{"Dell U2720Q", "Dell U2720Q"},
		{"caf\xe9", "caf?"},
		{"Ü", "??"},
		{"HDMI\x00junk", "HDMI"},
	}
	for _, tt := range tests {
		got := SanitizeName(tt.in)
		if got != tt.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := make([]byte, MaxNameLength+20)
	for i := range long {
		long[i] = 'a'
	}
	if got := SanitizeName(string(long)); len(got) != MaxNameLength {
		t.Errorf("SanitizeName(long) length = %d, want %d", len(got), MaxNameLength)
	}
}

func TestSanitizeUTF16_PreservesLength(t *testing.T) {
	in := []uint16{'L', 'G', ' ', 0x00dc, 'l', 't', 'r', 'a', 0, 'x'}
	got := SanitizeUTF16(in)
	if got != "LG ?ltra" {
		t.Fatalf("SanitizeUTF16() = %q, want %q", got, "LG ?ltra")
	}
}

func TestDescribe(t *testing.T) {
	m := buildMonitor(t, []*Mode{
		{Width: 1920, Height: 1080, Refresh: 60},
		{Width: 1280, Height: 720, Refresh: RefreshUnknown},
	}, 1)
	m.Primary = true
	m.Width, m.Height, m.Unit = 600, 340, UnitMillimeters

	infos := Describe([]*Monitor{m})
	if len(infos) != 1 {
		t.Fatalf("Describe() returned %d entries, want 1", len(infos))
	}
	info := infos[0]
	if info.Current == nil || info.Current.String() != "1280x720" {
		t.Fatalf("Current = %v, want 1280x720", info.Current)
	}
	if info.Modes[0].String() != "1920x1080@60" || info.Modes[0].Current {
		t.Fatalf("Modes[0] = %+v", info.Modes[0])
	}
}
