// internal/config/normalize.go
package config

import "strings"

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Serial.ResetPin = strings.TrimSpace(cfg.Serial.ResetPin)
	cfg.Radio.IEEEAddr = strings.ToLower(strings.TrimSpace(cfg.Radio.IEEEAddr))

	// Process names are case-insensitive; radioinit has nothing to start without
	// a radio.
	procs := cfg.Processes[:0]
	for _, p := range cfg.Processes {
		name := strings.ToLower(strings.TrimSpace(p))
		if name == ProcessRadioInit && !cfg.Radio.Enabled {
			continue
		}
		procs = append(procs, name)
	}
	cfg.Processes = procs
}
