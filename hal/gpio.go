package hal

import (
	"fmt"
	"sync"
)

// GPIOPin is a named digital output line: a reset, sleep or indicator pin.
type GPIOPin interface {
	Name() string
	// MakeOutput switches the pin to a driven output. Write fails until it has.
	MakeOutput() error
	Read() (level bool, err error)
	Write(level bool) error
}

// GPIO is the board's set of named pins. Pin returns nil for an unknown name.
type GPIO interface {
	Pin(name string) GPIOPin
}

type pinBank []GPIOPin

// NewPinBank returns a GPIO over pins. Nil entries are skipped.
func NewPinBank(pins ...GPIOPin) GPIO {
	return newPinBank(pins)
}

func newPinBank(pins []GPIOPin) pinBank {
	b := make(pinBank, 0, len(pins))
	for _, p := range pins {
		if p != nil {
			b = append(b, p)
		}
	}
	return b
}

func (b pinBank) Pin(name string) GPIOPin {
	for _, p := range b {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// PinByName returns g's pin called name, or nil when g is nil or has none.
func PinByName(g GPIO, name string) GPIOPin {
	if g == nil {
		return nil
	}
	return g.Pin(name)
}

// virtualPin latches the last level written.
type virtualPin struct {
	mu     sync.Mutex
	name   string
	output bool
	level  bool
}

// NewVirtualPin returns an in-memory pin.
func NewVirtualPin(name string) GPIOPin {
	return newVirtualPin(name)
}

func newVirtualPin(name string) *virtualPin {
	return &virtualPin{name: name}
}

func (p *virtualPin) Name() string { return p.name }

func (p *virtualPin) MakeOutput() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.output = true
	return nil
}

func (p *virtualPin) Read() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level, nil
}

func (p *virtualPin) Write(level bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.output {
		return fmt.Errorf("gpio: pin %s: not an output", p.name)
	}
	p.level = level
	return nil
}

// ledPin exposes the board LED as a pin.
type ledPin struct {
	mu    sync.Mutex
	led   LED
	name  string
	level bool
}

func newLEDPin(name string, led LED) GPIOPin {
	if led == nil {
		return nil
	}
	return &ledPin{led: led, name: name}
}

func (p *ledPin) Name() string      { return p.name }
func (p *ledPin) MakeOutput() error { return nil }

func (p *ledPin) Read() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level, nil
}

func (p *ledPin) Write(level bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = level
	if level {
		p.led.High()
	} else {
		p.led.Low()
	}
	return nil
}
