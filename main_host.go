//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"ember/app"
	"ember/hal"
	"ember/internal/config"
	"ember/internal/rf233sim"
	"ember/kernel"
)

func main() {
	var (
		cfgPath    string
		serialPort string
		steps      uint64
	)
	flag.StringVar(&cfgPath, "config", "", "Board configuration (YAML). Empty uses defaults.")
	flag.StringVar(&serialPort, "serial", "", "Serial device for the co-processor link (overrides serial.port; empty = stdin/stdout).")
	flag.Uint64Var(&steps, "steps", 0, "Stop after N kernel steps (0 = run until interrupted).")
	flag.Parse()

	cfg := config.Default()
	if cfgPath != "" {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			fatal(err)
		}
	}
	if serialPort != "" {
		cfg.Serial.Port = serialPort
	}
	if err := config.Validate(cfg); err != nil {
		fatal(fmt.Errorf("config validation failed: %w", err))
	}
	config.Normalize(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	k := kernel.New(nil)
	h, err := hal.New(hal.HostConfig{
		SerialPort: cfg.Serial.Port,
		ResetLine:  cfg.Serial.ResetLine,
		// The host has no SPI bus; the radio is the register-level simulator.
		SPIBus: rf233sim.New(cfg.Radio.PartNum),
	}, k)
	if err != nil {
		fatal(err)
	}
	k.SetLogger(h.Logger())

	b, err := app.New(k, h, cfg)
	if err != nil {
		fatal(err)
	}
	if err := b.Run(ctx, steps); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
