//go:build windows

package win32

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	moduser32 = windows.NewLazySystemDLL("user32.dll")
	modgdi32  = windows.NewLazySystemDLL("gdi32.dll")

	procEnumDisplayDevicesW      = moduser32.NewProc("EnumDisplayDevicesW")
	procEnumDisplaySettingsW     = moduser32.NewProc("EnumDisplaySettingsW")
	procChangeDisplaySettingsExW = moduser32.NewProc("ChangeDisplaySettingsExW")

	procCreateDCW     = modgdi32.NewProc("CreateDCW")
	procGetDeviceCaps = modgdi32.NewProc("GetDeviceCaps")
	procDeleteDC      = modgdi32.NewProc("DeleteDC")
)

// GetDeviceCaps indices.
const (
	horzSize = 4
	vertSize = 6
)

type nativeAPI struct{}

var _ API = nativeAPI{}

// NativeAPI returns the user32/gdi32 binding.
func NativeAPI() API {
	return nativeAPI{}
}

func optionalString(s string) *uint16 {
	if s == "" {
		return nil
	}
	p, err := windows.UTF16PtrFromString(s)
	if err != nil {
		return nil
	}
	return p
}

func (nativeAPI) EnumDisplayDevices(parent string, index uint32) (DisplayDevice, bool) {
	var dev DisplayDevice
	dev.Cb = uint32(unsafe.Sizeof(dev))
	r, _, _ := procEnumDisplayDevicesW.Call(
		uintptr(unsafe.Pointer(optionalString(parent))),
		uintptr(index),
		uintptr(unsafe.Pointer(&dev)),
		0,
	)
	return dev, r != 0
}

func (nativeAPI) EnumDisplaySettings(device string, index uint32) (DevMode, bool) {
	var dm DevMode
	dm.Size = uint16(unsafe.Sizeof(dm))
	r, _, _ := procEnumDisplaySettingsW.Call(
		uintptr(unsafe.Pointer(optionalString(device))),
		uintptr(index),
		uintptr(unsafe.Pointer(&dm)),
	)
	return dm, r != 0
}

func (nativeAPI) ChangeDisplaySettings(device string, mode *DevMode, flags uint32) int32 {
	mode.Size = uint16(unsafe.Sizeof(*mode))
	r, _, _ := procChangeDisplaySettingsExW.Call(
		uintptr(unsafe.Pointer(optionalString(device))),
		uintptr(unsafe.Pointer(mode)),
		0,
		uintptr(flags),
		0,
	)
	return int32(r)
}

func (nativeAPI) PhysicalSize(device string) (int, int) {
	driver, err := windows.UTF16PtrFromString("DISPLAY")
	if err != nil {
		return 0, 0
	}
	hdc, _, _ := procCreateDCW.Call(
		uintptr(unsafe.Pointer(driver)),
		uintptr(unsafe.Pointer(optionalString(device))),
		0,
		0,
	)
	if hdc == 0 {
		return 0, 0
	}
	defer procDeleteDC.Call(hdc)

	w, _, _ := procGetDeviceCaps.Call(hdc, horzSize)
	h, _, _ := procGetDeviceCaps.Call(hdc, vertSize)
	return int(int32(w)), int(int32(h))
}
