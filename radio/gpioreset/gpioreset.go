// Package gpioreset optionally pulses a GPIO line to hard-reset a
// RileyLink-compatible adapter that has stopped responding, for
// embedded deployments (e.g. a Raspberry Pi) that wire the adapter's
// reset pin to a header line instead of relying on USB re-enumeration.
package gpioreset

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// Line drives one GPIO output used as a reset control.
type Line struct {
	line *gpiocdev.Line
}

// Open requests offset on chip as a low-default output.
func Open(chip string, offset int) (*Line, error) {
	l, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("gpioreset: request line %s:%d: %w", chip, offset, err)
	}
	return &Line{line: l}, nil
}

// Pulse drives the line high for hold, then returns it low. The line
// is not configured as active-low, so this suits an active-high reset
// input.
func (l *Line) Pulse(hold time.Duration) error {
	if err := l.line.SetValue(1); err != nil {
		return fmt.Errorf("gpioreset: assert: %w", err)
	}
	time.Sleep(hold)
	if err := l.line.SetValue(0); err != nil {
		return fmt.Errorf("gpioreset: release: %w", err)
	}
	return nil
}

// Close releases the line request.
func (l *Line) Close() error {
	return l.line.Close()
}
