//go:build !tinygo

package hal

import (
	"errors"
	"io"

	"github.com/goburrow/serial"
)

// OpenSerialPort returns a UART backed by the serial device at address.
//
// The port is opened by Configure. goburrow/serial has no RTS/CTS control, so
// HWFlowControl is left to the adapter's own settings.
func OpenSerialPort(address string, irq Interrupts) UART {
	u := newStreamUART(nil, nil, irq)
	u.open = func(p UARTParameters) (io.ReadWriteCloser, error) {
		dataBits, stopBits := p.Frame()
		return serial.Open(&serial.Config{
			Address:  address,
			BaudRate: int(p.BaudRate),
			DataBits: int(dataBits),
			StopBits: int(stopBits),
			Parity:   serialParity(p.Parity),
			// Short reads let the receive loop measure the idle gap itself.
			Timeout: IdleDuration(p.BaudRate, 10),
		})
	}
	u.isTimeout = func(err error) bool { return errors.Is(err, serial.ErrTimeout) }
	u.measureIdle = true
	return u
}

func serialParity(p UARTParity) string {
	switch p {
	case UARTParityOdd:
		return "O"
	case UARTParityEven:
		return "E"
	default:
		return "N"
	}
}
