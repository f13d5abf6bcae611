//go:build linux && !tinygo

package hal

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// ModemLine selects a tty modem control line.
type ModemLine uint8

const (
	ModemLineDTR ModemLine = iota
	ModemLineRTS
)

func (l ModemLine) bit() int {
	if l == ModemLineRTS {
		return unix.TIOCM_RTS
	}
	return unix.TIOCM_DTR
}

// modemLinePin drives a modem control line of a serial adapter as an output pin.
//
// USB serial adapters commonly wire DTR or RTS to a target's reset input.
type modemLinePin struct {
	mu   sync.Mutex
	name string
	path string
	line ModemLine
	fd   int
}

// NewModemLinePin opens the tty at path. Modem lines are always outputs.
func NewModemLinePin(name, path string, line ModemLine) (GPIOPin, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("gpio: pin %s: open %s: %w", name, path, err)
	}
	return &modemLinePin{name: name, path: path, line: line, fd: fd}, nil
}

func (p *modemLinePin) Name() string      { return p.name }
func (p *modemLinePin) MakeOutput() error { return nil }

func (p *modemLinePin) Read() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	bits, err := unix.IoctlGetInt(p.fd, unix.TIOCMGET)
	if err != nil {
		return false, fmt.Errorf("gpio: pin %s: TIOCMGET: %w", p.name, err)
	}
	return bits&p.line.bit() == 0, nil
}

// Write sets the line level. An asserted modem line is electrically low, so a low
// level sets the bit.
func (p *modemLinePin) Write(level bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	req := uint(unix.TIOCMBIS)
	if level {
		req = unix.TIOCMBIC
	}
	if err := unix.IoctlSetPointerInt(p.fd, req, p.line.bit()); err != nil {
		return fmt.Errorf("gpio: pin %s: modem ioctl: %w", p.name, err)
	}
	return nil
}

func (p *modemLinePin) Close() error {
	return unix.Close(p.fd)
}
