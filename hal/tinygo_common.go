//go:build tinygo && baremetal

package hal

import (
	"fmt"
	"io"
	"machine"
)

type uartLogger struct {
	uart *machine.UART
}

func (l *uartLogger) WriteLineString(s string) {
	for i := 0; i < len(s); i++ {
		l.uart.WriteByte(s[i])
	}
	l.uart.WriteByte('\r')
	l.uart.WriteByte('\n')
}

func (l *uartLogger) WriteLineBytes(b []byte) {
	for i := 0; i < len(b); i++ {
		l.uart.WriteByte(b[i])
	}
	l.uart.WriteByte('\r')
	l.uart.WriteByte('\n')
}

type pinLED struct {
	pin machine.Pin
}

func (l *pinLED) High() { l.pin.High() }
func (l *pinLED) Low()  { l.pin.Low() }

// machinePin exposes a board pin as a GPIOPin.
type machinePin struct {
	name   string
	pin    machine.Pin
	output bool
}

func newMachinePin(name string, pin machine.Pin) *machinePin {
	return &machinePin{name: name, pin: pin}
}

func (p *machinePin) Name() string { return p.name }

func (p *machinePin) MakeOutput() error {
	p.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.output = true
	return nil
}

func (p *machinePin) Read() (bool, error) { return p.pin.Get(), nil }

func (p *machinePin) Write(level bool) error {
	if !p.output {
		return fmt.Errorf("gpio: pin %s: not an output", p.name)
	}
	p.pin.Set(level)
	return nil
}

// newMachineUART adapts a machine UART. Its Read never blocks, so the receive loop
// times the idle gap itself. rts and cts may be machine.NoPin when the board has no
// flow-control wiring; configuring flow control then fails.
func newMachineUART(uart *machine.UART, tx, rx, rts, cts machine.Pin, irq Interrupts) UART {
	u := newStreamUART(uart, uart, irq)
	u.measureIdle = true
	u.open = func(p UARTParameters) (io.ReadWriteCloser, error) {
		cfg := machine.UARTConfig{BaudRate: p.BaudRate, TX: tx, RX: rx}
		if p.HWFlowControl {
			if rts == machine.NoPin || cts == machine.NoPin {
				return nil, fmt.Errorf("uart: flow control: %w", ErrNotImplemented)
			}
			cfg.RTS, cfg.CTS = rts, cts
		}
		if err := uart.Configure(cfg); err != nil {
			return nil, err
		}
		dataBits, stopBits := p.Frame()
		if err := uart.SetFormat(dataBits, stopBits, machineParity(p.Parity)); err != nil {
			return nil, fmt.Errorf("uart: format %d/%s/%d: %w", dataBits, p.Parity, stopBits, err)
		}
		return machineUARTPort{uart}, nil
	}
	return u
}

func machineParity(p UARTParity) machine.UARTParity {
	switch p {
	case UARTParityOdd:
		return machine.ParityOdd
	case UARTParityEven:
		return machine.ParityEven
	default:
		return machine.ParityNone
	}
}

type machineUARTPort struct {
	*machine.UART
}

func (machineUARTPort) Close() error { return nil }
