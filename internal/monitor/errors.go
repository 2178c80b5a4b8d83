package monitor

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned when no display session is open.
	ErrNotInitialized = errors.New("display session not initialized")

	// ErrModeRejected is returned when the display subsystem refuses a mode
	// switch. The monitor's current mode is unchanged.
	ErrModeRejected = errors.New("mode switch rejected")

	// ErrModeNotFound is returned when a mode's handle is no longer reported
	// by the live display subsystem.
	ErrModeNotFound = fmt.Errorf("%w: mode no longer reported by the display subsystem", ErrModeRejected)
)
