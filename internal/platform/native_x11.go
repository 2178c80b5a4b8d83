//go:build !windows && !darwin

package platform

import "github.com/1broseidon/monitors/internal/x11"

func newNativeBackend(opts Options) Backend {
	return x11.NewAdapter(opts.Display, opts.Logger)
}
