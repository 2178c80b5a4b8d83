//go:build windows

package platform

import "github.com/1broseidon/monitors/internal/win32"

func newNativeBackend(opts Options) Backend {
	return win32.NewAdapter(win32.NativeAPI(), opts.Logger)
}
