// Package win32 detects monitors and switches modes through the Windows GDI
// display-settings API. The detection logic is portable; only the API binding
// in api_windows.go is Windows-specific.
package win32

import "unicode/utf16"

// Display device state flags.
const (
	DisplayDeviceActive        = 0x00000001
	DisplayDevicePrimaryDevice = 0x00000004
	DisplayDeviceModesPruned   = 0x08000000
)

// EnumCurrentSettings selects the active settings in EnumDisplaySettings.
const EnumCurrentSettings = 0xFFFFFFFF

// ChangeDisplaySettingsEx flags.
const (
	CDSTest       = 0x00000002
	CDSFullscreen = 0x00000004
)

// ChangeDisplaySettingsEx results.
const (
	DispChangeSuccessful  = 0
	DispChangeRestart     = 1
	DispChangeFailed      = -1
	DispChangeBadMode     = -2
	DispChangeNotUpdated  = -3
	DispChangeBadFlags    = -4
	DispChangeBadParam    = -5
	DispChangeBadDualView = -6
)

// DevMode field mask bits.
const (
	DMPelsWidth        = 0x00080000
	DMPelsHeight       = 0x00100000
	DMDisplayFrequency = 0x00400000
)

// MinBitsPerPixel is the lowest colour depth accepted as a usable mode.
const MinBitsPerPixel = 15

// DisplayDevice mirrors DISPLAY_DEVICEW.
type DisplayDevice struct {
	Cb           uint32
	DeviceName   [32]uint16
	DeviceString [128]uint16
	StateFlags   uint32
	DeviceID     [128]uint16
	DeviceKey    [128]uint16
}

// DevMode mirrors the display variant of DEVMODEW.
type DevMode struct {
	DeviceName         [32]uint16
	SpecVersion        uint16
	DriverVersion      uint16
	Size               uint16
	DriverExtra        uint16
	Fields             uint32
	PositionX          int32
	PositionY          int32
	DisplayOrientation uint32
	DisplayFixedOutput uint32
	Color              int16
	Duplex             int16
	YResolution        int16
	TTOption           int16
	Collate            int16
	FormName           [32]uint16
	LogPixels          uint16
	BitsPerPel         uint32
	PelsWidth          uint32
	PelsHeight         uint32
	DisplayFlags       uint32
	DisplayFrequency   uint32
	ICMMethod          uint32
	ICMIntent          uint32
	MediaType          uint32
	DitherType         uint32
	Reserved1          uint32
	Reserved2          uint32
	PanningWidth       uint32
	PanningHeight      uint32
}

// DevModeSize is sizeof(DEVMODEW).
const DevModeSize = 220

// API is the slice of user32/gdi32 the adapter needs. Device names are plain
// strings; an empty parent enumerates adapters.
type API interface {
	EnumDisplayDevices(parent string, index uint32) (DisplayDevice, bool)
	EnumDisplaySettings(device string, index uint32) (DevMode, bool)
	ChangeDisplaySettings(device string, mode *DevMode, flags uint32) int32
	// PhysicalSize reports GetDeviceCaps HORZSIZE and VERTSIZE for the device.
	PhysicalSize(device string) (width, height int)
}

func changeResultString(code int32) string {
	switch code {
	case DispChangeSuccessful:
		return "successful"
	case DispChangeRestart:
		return "restart required"
	case DispChangeFailed:
		return "failed"
	case DispChangeBadMode:
		return "bad mode"
	case DispChangeNotUpdated:
		return "registry not updated"
	case DispChangeBadFlags:
		return "bad flags"
	case DispChangeBadParam:
		return "bad parameter"
	case DispChangeBadDualView:
		return "bad dual view"
	default:
		return "unknown"
	}
}

func utf16String(s []uint16) string {
	for i, c := range s {
		if c == 0 {
			s = s[:i]
			break
		}
	}
	return string(utf16.Decode(s))
}
