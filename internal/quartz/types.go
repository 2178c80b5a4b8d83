// Package quartz detects monitors and switches modes through Quartz Display
// Services. The detection logic is portable; the CoreGraphics binding lives
// in api_darwin.go.
package quartz

// IOKit display mode flags.
const (
	IOFlagValid      = 0x00000001
	IOFlagSafe       = 0x00000002
	IOFlagInterlaced = 0x00000040
	IOFlagStretched  = 0x00000800
)

// Accepted pixel encodings.
const (
	Encoding16Bit = "-RRRRRGGGGGBBBBB"
	Encoding32Bit = "--------RRRRRRRRGGGGGGGGBBBBBBBB"
)

// CVTimeIsIndefinite marks a display link period the system could not
// determine.
const CVTimeIsIndefinite = 1 << 0

// CGErrorSuccess is kCGErrorSuccess.
const CGErrorSuccess = 0

// DisplayID is a CGDirectDisplayID.
type DisplayID uint32

// ModeDesc describes one CGDisplayMode.
type ModeDesc struct {
	ID       int32
	Width    int
	Height   int
	Refresh  float64
	IOFlags  uint32
	Encoding string
}

// CVTime mirrors the CoreVideo CVTime struct.
type CVTime struct {
	Value int64
	Scale int32
	Flags int32
}

// API is the slice of CoreGraphics, CoreVideo and IOKit the adapter needs.
type API interface {
	OnlineDisplayCount() (int, error)
	OnlineDisplays(limit int) ([]DisplayID, error)

	IsAsleep(id DisplayID) bool
	IsMain(id DisplayID) bool
	// ScreenSize reports the physical size in millimeters.
	ScreenSize(id DisplayID) (width, height float64)
	// ProductName returns the en_US product name, or nil when unknown.
	ProductName(id DisplayID) []uint16

	Modes(id DisplayID) []ModeDesc
	CurrentModeID(id DisplayID) (int32, bool)
	NominalRefreshPeriod(id DisplayID) (CVTime, bool)

	// SetDisplayMode switches to the live mode with the given ID. found is
	// false when no such mode exists any more.
	SetDisplayMode(id DisplayID, modeID int32) (cgErr int32, found bool)
}
