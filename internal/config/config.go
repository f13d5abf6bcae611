// internal/config/config.go
package config

type Config struct {
	Serial    SerialConfig `yaml:"serial"`
	Radio     RadioConfig  `yaml:"radio"`
	Processes []string     `yaml:"processes"`
}

// ---- SERIAL ----

type SerialConfig struct {
	// Port is a serial device path. Empty bridges stdin/stdout.
	Port string `yaml:"port"`

	// ResetLine is a tty whose DTR line resets the co-processor (optional).
	ResetLine string `yaml:"reset_line"`
	// ResetPin names the GPIO pin used when ResetLine is empty.
	ResetPin string `yaml:"reset_pin"`
}

// ---- RADIO ----

type RadioConfig struct {
	Enabled   bool   `yaml:"enabled"`
	PANID     uint16 `yaml:"pan_id"`
	ShortAddr uint16 `yaml:"short_addr"`
	IEEEAddr  string `yaml:"ieee_addr"` // colon-separated hex, most significant byte first
	TxPower   uint8  `yaml:"tx_power"`
	Channel   uint8  `yaml:"channel"`
	SPIRateHz uint32 `yaml:"spi_rate_hz"`

	// PartNum is the identity the radio must report; the host simulator reports it too.
	PartNum uint8 `yaml:"part_num"`
}

// Process names understood by the board.
const (
	ProcessSerialEcho = "serialecho"
	ProcessRadioInit  = "radioinit"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			ResetPin: "NRF_RESET",
		},
		Radio: RadioConfig{
			Enabled:   true,
			PANID:     0xABCD,
			ShortAddr: 0x0001,
			IEEEAddr:  "02:00:00:00:00:00:00:01",
			TxPower:   0,
			Channel:   26,
			SPIRateHz: 100_000,
			PartNum:   0x0B,
		},
		Processes: []string{ProcessSerialEcho, ProcessRadioInit},
	}
}
