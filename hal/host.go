//go:build !tinygo

package hal

import (
	"fmt"
	"io"
	"os"
	"sync"

	"tinygo.org/x/drivers"
)

// HostConfig selects the host backends.
type HostConfig struct {
	// SerialPort is a serial device path. Empty uses Stdin/Stdout as the UART.
	SerialPort string
	// ResetLine is a tty whose DTR line is exposed as pin "NRF_RESET". When empty,
	// "NRF_RESET" is a virtual pin.
	ResetLine string
	// SPIBus is the blocking bus behind the SPI device. Nil leaves SPI unavailable.
	SPIBus drivers.SPI

	Stdin  io.Reader
	Stdout io.Writer
	Log    io.Writer
}

type hostHAL struct {
	logger *hostLogger
	led    *hostLED
	gpio   GPIO
	uart   UART
	spi    SPIMasterDevice
}

// New returns a host HAL implementation.
func New(cfg HostConfig, irq Interrupts) (HAL, error) {
	if cfg.Log == nil {
		cfg.Log = os.Stderr
	}
	if cfg.Stdin == nil {
		cfg.Stdin = os.Stdin
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}

	logger := &hostLogger{w: cfg.Log}
	led := &hostLED{logger: logger}
	pins := []GPIOPin{
		newLEDPin("LED", led),
		newVirtualPin("RF_RESET"),
		newVirtualPin("RF_SLEEP"),
	}
	if cfg.ResetLine != "" {
		p, err := NewModemLinePin("NRF_RESET", cfg.ResetLine, ModemLineDTR)
		if err != nil {
			return nil, err
		}
		pins = append(pins, p)
	} else {
		pins = append(pins, newVirtualPin("NRF_RESET"))
	}

	var uart UART
	if cfg.SerialPort != "" {
		uart = OpenSerialPort(cfg.SerialPort, irq)
	} else {
		uart = NewStreamUART(cfg.Stdin, cfg.Stdout, irq)
	}

	var spi SPIMasterDevice
	if cfg.SPIBus != nil {
		spi = NewSPIDevice(cfg.SPIBus, irq, nil)
	}

	return &hostHAL{
		logger: logger,
		led:    led,
		gpio:   newPinBank(pins),
		uart:   uart,
		spi:    spi,
	}, nil
}

func (h *hostHAL) Logger() Logger       { return h.logger }
func (h *hostHAL) LED() LED             { return h.led }
func (h *hostHAL) GPIO() GPIO           { return h.gpio }
func (h *hostHAL) UART() UART           { return h.uart }
func (h *hostHAL) SPI() SPIMasterDevice { return h.spi }

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

type hostLED struct {
	mu     sync.Mutex
	on     bool
	logger *hostLogger
}

func (l *hostLED) High() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.on = true
	l.logger.WriteLineString("led: HIGH")
}

func (l *hostLED) Low() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.on = false
	l.logger.WriteLineString("led: LOW")
}
