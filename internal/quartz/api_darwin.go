//go:build darwin

package quartz

import (
	"fmt"
	"sync"

	"github.com/ebitengine/purego"
)

const (
	coreGraphicsPath   = "/System/Library/Frameworks/CoreGraphics.framework/CoreGraphics"
	coreFoundationPath = "/System/Library/Frameworks/CoreFoundation.framework/CoreFoundation"
	coreVideoPath      = "/System/Library/Frameworks/CoreVideo.framework/CoreVideo"
	ioKitPath          = "/System/Library/Frameworks/IOKit.framework/IOKit"

	cfStringEncodingUTF8       = 0x08000100
	ioDisplayOnlyPreferredName = 0x00000200
)

type cgSize struct {
	Width  float64
	Height float64
}

var (
	loadOnce sync.Once
	loadErr  error

	cgGetOnlineDisplayList          func(max uint32, ids *uint32, count *uint32) int32
	cgDisplayIsAsleep               func(id uint32) bool
	cgDisplayIsMain                 func(id uint32) bool
	cgDisplayScreenSize             func(id uint32) cgSize
	cgDisplayIOServicePort          func(id uint32) uint32
	cgDisplayCopyDisplayMode        func(id uint32) uintptr
	cgDisplayCopyAllDisplayModes    func(id uint32, options uintptr) uintptr
	cgDisplaySetDisplayMode         func(id uint32, mode uintptr, options uintptr) int32
	cgDisplayModeGetIODisplayModeID func(mode uintptr) int32
	cgDisplayModeGetIOFlags         func(mode uintptr) uint32
	cgDisplayModeGetWidth           func(mode uintptr) uint
	cgDisplayModeGetHeight          func(mode uintptr) uint
	cgDisplayModeGetRefreshRate     func(mode uintptr) float64
	cgDisplayModeCopyPixelEncoding  func(mode uintptr) uintptr
	cgDisplayModeRelease            func(mode uintptr)

	cfRelease                   func(ref uintptr)
	cfArrayGetCount             func(array uintptr) int
	cfArrayGetValueAtIndex      func(array uintptr, index int) uintptr
	cfDictionaryGetValue        func(dict uintptr, key uintptr) uintptr
	cfStringCreateWithCString   func(alloc uintptr, s string, encoding uint32) uintptr
	cfStringGetLength           func(s uintptr) int
	cfStringGetCharacterAtIndex func(s uintptr, index int) uint16

	cvDisplayLinkCreateWithCGDisplay                func(id uint32, link *uintptr) int32
	cvDisplayLinkGetNominalOutputVideoRefreshPeriod func(link uintptr) CVTime
	cvDisplayLinkRelease                            func(link uintptr)

	ioDisplayCreateInfoDictionary func(service uint32, options uint32) uintptr
)

func load() error {
	loadOnce.Do(func() {
		libs := map[string]uintptr{}
		for _, path := range []string{coreGraphicsPath, coreFoundationPath, coreVideoPath, ioKitPath} {
			lib, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
			if err != nil {
				loadErr = fmt.Errorf("dlopen %s: %w", path, err)
				return
			}
			libs[path] = lib
		}

		cg := libs[coreGraphicsPath]
		purego.RegisterLibFunc(&cgGetOnlineDisplayList, cg, "CGGetOnlineDisplayList")
		purego.RegisterLibFunc(&cgDisplayIsAsleep, cg, "CGDisplayIsAsleep")
		purego.RegisterLibFunc(&cgDisplayIsMain, cg, "CGDisplayIsMain")
		purego.RegisterLibFunc(&cgDisplayScreenSize, cg, "CGDisplayScreenSize")
		purego.RegisterLibFunc(&cgDisplayIOServicePort, cg, "CGDisplayIOServicePort")
		purego.RegisterLibFunc(&cgDisplayCopyDisplayMode, cg, "CGDisplayCopyDisplayMode")
		purego.RegisterLibFunc(&cgDisplayCopyAllDisplayModes, cg, "CGDisplayCopyAllDisplayModes")
		purego.RegisterLibFunc(&cgDisplaySetDisplayMode, cg, "CGDisplaySetDisplayMode")
		purego.RegisterLibFunc(&cgDisplayModeGetIODisplayModeID, cg, "CGDisplayModeGetIODisplayModeID")
		purego.RegisterLibFunc(&cgDisplayModeGetIOFlags, cg, "CGDisplayModeGetIOFlags")
		purego.RegisterLibFunc(&cgDisplayModeGetWidth, cg, "CGDisplayModeGetWidth")
		purego.RegisterLibFunc(&cgDisplayModeGetHeight, cg, "CGDisplayModeGetHeight")
		purego.RegisterLibFunc(&cgDisplayModeGetRefreshRate, cg, "CGDisplayModeGetRefreshRate")
		purego.RegisterLibFunc(&cgDisplayModeCopyPixelEncoding, cg, "CGDisplayModeCopyPixelEncoding")
		purego.RegisterLibFunc(&cgDisplayModeRelease, cg, "CGDisplayModeRelease")

		cf := libs[coreFoundationPath]
		purego.RegisterLibFunc(&cfRelease, cf, "CFRelease")
		purego.RegisterLibFunc(&cfArrayGetCount, cf, "CFArrayGetCount")
		purego.RegisterLibFunc(&cfArrayGetValueAtIndex, cf, "CFArrayGetValueAtIndex")
		purego.RegisterLibFunc(&cfDictionaryGetValue, cf, "CFDictionaryGetValue")
		purego.RegisterLibFunc(&cfStringCreateWithCString, cf, "CFStringCreateWithCString")
		purego.RegisterLibFunc(&cfStringGetLength, cf, "CFStringGetLength")
		purego.RegisterLibFunc(&cfStringGetCharacterAtIndex, cf, "CFStringGetCharacterAtIndex")

		cv := libs[coreVideoPath]
		purego.RegisterLibFunc(&cvDisplayLinkCreateWithCGDisplay, cv, "CVDisplayLinkCreateWithCGDisplay")
		purego.RegisterLibFunc(&cvDisplayLinkGetNominalOutputVideoRefreshPeriod, cv, "CVDisplayLinkGetNominalOutputVideoRefreshPeriod")
		purego.RegisterLibFunc(&cvDisplayLinkRelease, cv, "CVDisplayLinkRelease")

		purego.RegisterLibFunc(&ioDisplayCreateInfoDictionary, libs[ioKitPath], "IODisplayCreateInfoDictionary")
	})
	return loadErr
}

type nativeAPI struct{}

var _ API = nativeAPI{}

// NativeAPI loads the system frameworks and returns their binding.
func NativeAPI() (API, error) {
	if err := load(); err != nil {
		return nil, err
	}
	return nativeAPI{}, nil
}

func cfString(s string) uintptr {
	return cfStringCreateWithCString(0, s, cfStringEncodingUTF8)
}

func cfStringUTF16(ref uintptr) []uint16 {
	if ref == 0 {
		return nil
	}
	n := cfStringGetLength(ref)
	out := make([]uint16, n)
	for i := range out {
		out[i] = cfStringGetCharacterAtIndex(ref, i)
	}
	return out
}

func (nativeAPI) OnlineDisplayCount() (int, error) {
	var count uint32
	if rc := cgGetOnlineDisplayList(0, nil, &count); rc != CGErrorSuccess {
		return 0, fmt.Errorf("CGGetOnlineDisplayList error %d", rc)
	}
	return int(count), nil
}

func (nativeAPI) OnlineDisplays(limit int) ([]DisplayID, error) {
	if limit <= 0 {
		return nil, nil
	}
	raw := make([]uint32, limit)
	var count uint32
	if rc := cgGetOnlineDisplayList(uint32(limit), &raw[0], &count); rc != CGErrorSuccess {
		return nil, fmt.Errorf("CGGetOnlineDisplayList error %d", rc)
	}
	ids := make([]DisplayID, 0, count)
	for _, id := range raw[:count] {
		ids = append(ids, DisplayID(id))
	}
	return ids, nil
}

func (nativeAPI) IsAsleep(id DisplayID) bool { return cgDisplayIsAsleep(uint32(id)) }

func (nativeAPI) IsMain(id DisplayID) bool { return cgDisplayIsMain(uint32(id)) }

func (nativeAPI) ScreenSize(id DisplayID) (float64, float64) {
	size := cgDisplayScreenSize(uint32(id))
	return size.Width, size.Height
}

func (nativeAPI) ProductName(id DisplayID) []uint16 {
	port := cgDisplayIOServicePort(uint32(id))
	if port == 0 {
		return nil
	}
	info := ioDisplayCreateInfoDictionary(port, ioDisplayOnlyPreferredName)
	if info == 0 {
		return nil
	}
	defer cfRelease(info)

	key := cfString("DisplayProductName")
	defer cfRelease(key)
	names := cfDictionaryGetValue(info, key)
	if names == 0 {
		return nil
	}

	locale := cfString("en_US")
	defer cfRelease(locale)
	return cfStringUTF16(cfDictionaryGetValue(names, locale))
}

func pixelEncoding(mode uintptr) string {
	ref := cgDisplayModeCopyPixelEncoding(mode)
	if ref == 0 {
		return ""
	}
	defer cfRelease(ref)
	units := cfStringUTF16(ref)
	b := make([]byte, len(units))
	for i, u := range units {
		b[i] = byte(u)
	}
	return string(b)
}

func (nativeAPI) Modes(id DisplayID) []ModeDesc {
	array := cgDisplayCopyAllDisplayModes(uint32(id), 0)
	if array == 0 {
		return nil
	}
	defer cfRelease(array)

	n := cfArrayGetCount(array)
	descs := make([]ModeDesc, 0, n)
	for i := 0; i < n; i++ {
		mode := cfArrayGetValueAtIndex(array, i)
		descs = append(descs, ModeDesc{
			ID:       cgDisplayModeGetIODisplayModeID(mode),
			Width:    int(cgDisplayModeGetWidth(mode)),
			Height:   int(cgDisplayModeGetHeight(mode)),
			Refresh:  cgDisplayModeGetRefreshRate(mode),
			IOFlags:  cgDisplayModeGetIOFlags(mode),
			Encoding: pixelEncoding(mode),
		})
	}
	return descs
}

func (nativeAPI) CurrentModeID(id DisplayID) (int32, bool) {
	mode := cgDisplayCopyDisplayMode(uint32(id))
	if mode == 0 {
		return 0, false
	}
	defer cgDisplayModeRelease(mode)
	return cgDisplayModeGetIODisplayModeID(mode), true
}

func (nativeAPI) NominalRefreshPeriod(id DisplayID) (CVTime, bool) {
	var link uintptr
	if rc := cvDisplayLinkCreateWithCGDisplay(uint32(id), &link); rc != 0 || link == 0 {
		return CVTime{}, false
	}
	defer cvDisplayLinkRelease(link)
	return cvDisplayLinkGetNominalOutputVideoRefreshPeriod(link), true
}

func (nativeAPI) SetDisplayMode(id DisplayID, modeID int32) (int32, bool) {
	array := cgDisplayCopyAllDisplayModes(uint32(id), 0)
	if array == 0 {
		return 0, false
	}
	defer cfRelease(array)

	n := cfArrayGetCount(array)
	for i := 0; i < n; i++ {
		mode := cfArrayGetValueAtIndex(array, i)
		if cgDisplayModeGetIODisplayModeID(mode) == modeID {
			return cgDisplaySetDisplayMode(uint32(id), mode, 0), true
		}
	}
	return 0, false
}
