package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"ember/app"
	"ember/capsules/rf233"
	"ember/hal"
	"ember/internal/config"
	"ember/internal/rf233sim"
	"ember/kernel"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "Board configuration (YAML). Empty uses defaults.")
		sim     = flag.Bool("simulate", false, "Run the sequence against a simulated transceiver.")
		part    = flag.Int("part", -1, "Part number the simulated transceiver reports (default: radio.part_num).")
	)
	flag.Parse()

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		fatalf("%v", err)
	}
	rcfg, err := app.RadioConfig(cfg.Radio)
	if err != nil {
		fatalf("%v", err)
	}

	printSequence(os.Stdout, rcfg)

	if *sim {
		id := cfg.Radio.PartNum
		if *part >= 0 {
			id = uint8(*part)
		}
		state, err := simulate(rcfg, id)
		if err != nil {
			fatalf("simulate: %v", err)
		}
		fmt.Printf("simulated bring-up ended in %s\n", state)
		if state != rf233.StateReady {
			os.Exit(1)
		}
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	config.Normalize(cfg)
	return cfg, nil
}

func printSequence(w io.Writer, cfg rf233.Config) {
	for i, t := range rf233.Sequence(cfg) {
		state := rf233.StatePartRead + rf233.State(i)
		frame := t.Frame()
		fmt.Fprintf(w, "%2d  %-16s %02x %02x  %s\n", i+1, state, frame[0], frame[1], t)
	}
}

// simulate drives bring-up against rf233sim until no work is left.
func simulate(cfg rf233.Config, partNum uint8) (rf233.State, error) {
	k := kernel.New(nil)
	spi := hal.NewSPIDevice(rf233sim.New(partNum), k, nil)
	r, err := rf233.New(spi, nil, nil, cfg, nil)
	if err != nil {
		return rf233.StateStart, err
	}
	if err := r.Initialize(); err != nil {
		return rf233.StateStart, err
	}
	if rc := r.Start(); rc != kernel.Success {
		return r.State(), fmt.Errorf("start: %s", rc)
	}
	for k.Step() {
	}
	return r.State(), nil
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}
