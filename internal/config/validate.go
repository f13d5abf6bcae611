// internal/config/validate.go
package config

import (
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	minChannel   = 11
	maxChannel   = 26
	maxTxPower   = 0x0F
	maxSPIRateHz = 7_500_000
	maxProcesses = 8
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	// ------------------------------------------------------------
	// SERIAL
	// ------------------------------------------------------------

	if cfg.Serial.ResetLine == "" && strings.TrimSpace(cfg.Serial.ResetPin) == "" {
		return fmt.Errorf("serial: reset_pin must be set when reset_line is empty")
	}

	// ------------------------------------------------------------
	// RADIO (only checked when enabled)
	// ------------------------------------------------------------

	if cfg.Radio.Enabled {
		r := cfg.Radio
		if r.Channel < minChannel || r.Channel > maxChannel {
			return fmt.Errorf("radio: channel %d out of range [%d, %d]", r.Channel, minChannel, maxChannel)
		}
		if r.TxPower > maxTxPower {
			return fmt.Errorf("radio: tx_power %#x out of range [0, %#x]", r.TxPower, maxTxPower)
		}
		if r.SPIRateHz == 0 || r.SPIRateHz > maxSPIRateHz {
			return fmt.Errorf("radio: spi_rate_hz %d out of range (0, %d]", r.SPIRateHz, maxSPIRateHz)
		}
		if r.PartNum == 0 {
			return fmt.Errorf("radio: part_num must be non-zero")
		}
		if _, err := ParseIEEEAddr(r.IEEEAddr); err != nil {
			return fmt.Errorf("radio: ieee_addr %q: %w", r.IEEEAddr, err)
		}
	}

	// ------------------------------------------------------------
	// PROCESSES
	// ------------------------------------------------------------

	if len(cfg.Processes) > maxProcesses {
		return fmt.Errorf("processes: %d listed, at most %d", len(cfg.Processes), maxProcesses)
	}
	seen := make(map[string]bool)
	for _, p := range cfg.Processes {
		name := strings.ToLower(strings.TrimSpace(p))
		switch name {
		case ProcessSerialEcho, ProcessRadioInit:
		default:
			return fmt.Errorf("processes: unknown process %q", p)
		}
		if seen[name] {
			return fmt.Errorf("processes: %q listed twice", p)
		}
		seen[name] = true
	}

	return nil
}

// ParseIEEEAddr parses eight colon-separated hex bytes, most significant first.
func ParseIEEEAddr(s string) ([8]byte, error) {
	var out [8]byte
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != len(out) {
		return out, fmt.Errorf("want 8 colon-separated bytes, got %d", len(parts))
	}
	for i, p := range parts {
		if len(p) != 2 {
			return out, fmt.Errorf("byte %d: %q is not two hex digits", i, p)
		}
		b, err := hex.DecodeString(p)
		if err != nil {
			return out, fmt.Errorf("byte %d: %w", i, err)
		}
		out[i] = b[0]
	}
	return out, nil
}
