package hal

import (
	"fmt"
	"sync"

	"tinygo.org/x/drivers"
)

// ClockPolarity is the SPI clock idle level.
type ClockPolarity uint8

const (
	ClockIdleLow ClockPolarity = iota
	ClockIdleHigh
)

// ClockPhase selects the sampling edge.
type ClockPhase uint8

const (
	SampleLeading ClockPhase = iota
	SampleTrailing
)

// SPIConfig is the bus configuration of one chip-select device.
type SPIConfig struct {
	Polarity ClockPolarity
	Phase    ClockPhase
	RateHz   uint32
}

// Mode returns the SPI mode number (0-3).
func (c SPIConfig) Mode() uint8 {
	return uint8(c.Polarity)<<1 | uint8(c.Phase)
}

// SPIMasterClient receives transaction completions. Ownership of write and read
// returns to the client with the call; read is nil if none was supplied.
type SPIMasterClient interface {
	ReadWriteDone(write, read []byte, n int, err error)
}

// SPIMasterDevice is an asynchronous SPI master bound to one device.
//
// At most one transaction is outstanding. ReadWriteBytes takes ownership of both
// buffers on success and hands them back on failure.
type SPIMasterDevice interface {
	Configure(cfg SPIConfig) error
	ReadWriteBytes(write, read []byte, n int) ([]byte, []byte, error)
	SetClient(c SPIMasterClient)
}

// spiDevice drives a blocking drivers.SPI bus and reports completion through the
// kernel interrupt queue. The exchange itself runs inside the posted completion, so
// it always lands after the call that issued it has returned.
type spiDevice struct {
	bus       drivers.SPI
	irq       Interrupts
	configure func(SPIConfig) error

	mu     sync.Mutex
	cfg    SPIConfig
	busy   bool
	client SPIMasterClient
}

// NewSPIDevice wraps a blocking bus. configure may be nil when the bus has no
// runtime configuration (for example a simulated device).
func NewSPIDevice(bus drivers.SPI, irq Interrupts, configure func(SPIConfig) error) SPIMasterDevice {
	return &spiDevice{bus: bus, irq: irq, configure: configure}
}

func (d *spiDevice) SetClient(c SPIMasterClient) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.client = c
}

func (d *spiDevice) Configure(cfg SPIConfig) error {
	if cfg.RateHz == 0 {
		return fmt.Errorf("spi: rate 0: %w", ErrInvalidParameters)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.busy {
		return ErrBusy
	}
	if d.configure != nil {
		if err := d.configure(cfg); err != nil {
			return fmt.Errorf("spi: configure: %w", err)
		}
	}
	d.cfg = cfg
	return nil
}

func (d *spiDevice) ReadWriteBytes(write, read []byte, n int) ([]byte, []byte, error) {
	if n <= 0 || n > len(write) || (read != nil && n > len(read)) {
		return write, read, ErrInvalidParameters
	}
	if d.bus == nil {
		return write, read, ErrOff
	}
	d.mu.Lock()
	if d.busy {
		d.mu.Unlock()
		return write, read, ErrBusy
	}
	d.busy = true
	d.mu.Unlock()

	ok := d.irq.Post(func() {
		var r []byte
		if read != nil {
			r = read[:n]
		}
		err := d.bus.Tx(write[:n], r)

		d.mu.Lock()
		d.busy = false
		c := d.client
		d.mu.Unlock()
		if c != nil {
			c.ReadWriteDone(write, read, n, err)
		}
	})
	if !ok {
		d.mu.Lock()
		d.busy = false
		d.mu.Unlock()
		return write, read, ErrBusy
	}
	return nil, nil, nil
}
