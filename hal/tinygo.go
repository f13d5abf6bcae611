//go:build tinygo && baremetal

package hal

import (
	"machine"
)

type tinyGoHAL struct {
	logger *uartLogger
	led    *pinLED
	gpio   GPIO
	uart   UART
	spi    SPIMasterDevice
}

// New returns a Pico (RP2040/RP2350) HAL implementation.
//
// Log: UART0 on GP0 (TX) / GP1 (RX), 115200 8N1.
// Co-processor link: UART1 on GP4 (TX) / GP5 (RX), CTS GP6, RTS GP7. Reset line on GP20.
// Radio: SPI0 (GP18 SCK, GP19 SDO, GP16 SDI), reset GP21, sleep GP22.
func New(irq Interrupts) HAL {
	logUART := machine.UART0
	logUART.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})

	ledPin := machine.LED
	ledPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	led := &pinLED{pin: ledPin}

	spi := machine.SPI0
	return &tinyGoHAL{
		logger: &uartLogger{uart: logUART},
		led:    led,
		gpio: newPinBank([]GPIOPin{
			newLEDPin("LED", led),
			newMachinePin("NRF_RESET", machine.GP20),
			newMachinePin("RF_RESET", machine.GP21),
			newMachinePin("RF_SLEEP", machine.GP22),
		}),
		uart: newMachineUART(machine.UART1, machine.GP4, machine.GP5, machine.GP7, machine.GP6, irq),
		spi: NewSPIDevice(spi, irq, func(cfg SPIConfig) error {
			return spi.Configure(machine.SPIConfig{
				Frequency: cfg.RateHz,
				Mode:      cfg.Mode(),
				SCK:       machine.GP18,
				SDO:       machine.GP19,
				SDI:       machine.GP16,
			})
		}),
	}
}

func (h *tinyGoHAL) Logger() Logger       { return h.logger }
func (h *tinyGoHAL) LED() LED             { return h.led }
func (h *tinyGoHAL) GPIO() GPIO           { return h.gpio }
func (h *tinyGoHAL) UART() UART           { return h.uart }
func (h *tinyGoHAL) SPI() SPIMasterDevice { return h.spi }
