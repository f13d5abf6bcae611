package app

import (
	"context"
	"fmt"

	"ember/capsules/rf233"
	"ember/capsules/serialization"
	"ember/hal"
	"ember/internal/buildinfo"
	"ember/internal/config"
	"ember/kernel"
	"ember/proto"
	"ember/tasks/radioinit"
	"ember/tasks/serialecho"
)

// Pin names the board looks up on the HAL.
const (
	PinRadioReset = "RF_RESET"
	PinRadioSleep = "RF_SLEEP"
)

// Board is a wired kernel: capsules registered, processes loaded.
type Board struct {
	Kernel *kernel.Kernel

	Serial *serialization.Capsule
	Radio  *rf233.Radio

	Echo      *serialecho.Task
	RadioInit *radioinit.Task

	log hal.Logger
}

// New wires the capsules and processes named by cfg onto h. cfg must have passed
// config.Validate.
func New(k *kernel.Kernel, h hal.HAL, cfg *config.Config) (*Board, error) {
	if k == nil || h == nil || cfg == nil {
		return nil, fmt.Errorf("app: nil kernel, hal or config")
	}
	b := &Board{Kernel: k, log: h.Logger()}
	bootDiagStart(h)
	installFaultHandler(k, b.log)
	b.logf("ember %s booting", buildinfo.Short())

	bootDiagSetStep("serialization")
	if err := b.wireSerial(h, cfg.Serial); err != nil {
		return nil, err
	}

	if cfg.Radio.Enabled {
		bootDiagSetStep("rf233")
		if err := b.wireRadio(h, cfg.Radio); err != nil {
			return nil, err
		}
	}

	bootDiagSetStep("processes")
	for _, name := range cfg.Processes {
		if err := b.load(name); err != nil {
			return nil, err
		}
	}

	bootDiagSetStep("running")
	return b, nil
}

func (b *Board) logf(format string, args ...any) {
	if b.log == nil {
		return
	}
	b.log.WriteLineString(fmt.Sprintf(format, args...))
}

func (b *Board) wireSerial(h hal.HAL, cfg config.SerialConfig) error {
	uart := h.UART()
	if uart == nil {
		b.logf("serialization: no uart, bridge disabled")
		return nil
	}
	reset := hal.PinByName(h.GPIO(), cfg.ResetPin)
	if reset == nil {
		b.logf("serialization: no pin %q, co-processor reset disabled", cfg.ResetPin)
	}
	c, err := serialization.New(b.Kernel, uart, reset, b.log)
	if err != nil {
		return err
	}
	if err := c.Initialize(); err != nil {
		return err
	}
	if err := b.Kernel.RegisterDriver(proto.DriverSerialization, c); err != nil {
		return fmt.Errorf("app: serialization: %w", err)
	}
	b.Serial = c
	return nil
}

func (b *Board) wireRadio(h hal.HAL, cfg config.RadioConfig) error {
	spi := h.SPI()
	if spi == nil {
		b.logf("rf233: no spi device, radio disabled")
		return nil
	}
	rcfg, err := RadioConfig(cfg)
	if err != nil {
		return err
	}
	gpio := h.GPIO()
	r, err := rf233.New(spi, hal.PinByName(gpio, PinRadioReset), hal.PinByName(gpio, PinRadioSleep), rcfg, b.log)
	if err != nil {
		return err
	}
	if err := r.Initialize(); err != nil {
		return err
	}
	d, err := rf233.NewDriver(b.Kernel, r)
	if err != nil {
		return err
	}
	if err := b.Kernel.RegisterDriver(proto.DriverRadio, d); err != nil {
		return fmt.Errorf("app: rf233: %w", err)
	}
	b.Radio = r
	return nil
}

func (b *Board) load(name string) error {
	var app kernel.App
	switch name {
	case config.ProcessSerialEcho:
		b.Echo = serialecho.New()
		app = b.Echo
	case config.ProcessRadioInit:
		b.RadioInit = radioinit.New()
		b.RadioInit.OnReady = func(part uint8) {
			b.logf("radioinit: radio ready, part %#04x", part)
		}
		app = b.RadioInit
	default:
		return fmt.Errorf("app: unknown process %q", name)
	}
	if _, err := b.Kernel.Load(name, app); err != nil {
		return fmt.Errorf("app: load %s: %w", name, err)
	}
	return nil
}

// RadioConfig converts the radio section of a board configuration.
func RadioConfig(cfg config.RadioConfig) (rf233.Config, error) {
	addr, err := config.ParseIEEEAddr(cfg.IEEEAddr)
	if err != nil {
		return rf233.Config{}, fmt.Errorf("app: radio: %w", err)
	}
	return rf233.Config{
		PANID:     cfg.PANID,
		ShortAddr: cfg.ShortAddr,
		IEEEAddr:  addr,
		TxPower:   cfg.TxPower,
		Channel:   cfg.Channel,
		PartNum:   cfg.PartNum,
		SPIRateHz: cfg.SPIRateHz,
	}, nil
}

// Run runs the kernel until ctx is done, or for steps steps of work when steps is
// non-zero.
func (b *Board) Run(ctx context.Context, steps uint64) error {
	if steps != 0 {
		return b.Kernel.RunSteps(ctx, steps)
	}
	return b.Kernel.Run(ctx)
}
