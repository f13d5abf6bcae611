//go:build !linux && !tinygo

package hal

import "fmt"

// ModemLine selects a tty modem control line.
type ModemLine uint8

const (
	ModemLineDTR ModemLine = iota
	ModemLineRTS
)

// NewModemLinePin is only available on linux.
func NewModemLinePin(name, path string, line ModemLine) (GPIOPin, error) {
	return nil, fmt.Errorf("gpio: pin %s: modem line pins: %w", name, ErrNotImplemented)
}
