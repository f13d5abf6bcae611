package hal

import "errors"

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// LED is a minimal output pin abstraction.
type LED interface {
	High()
	Low()
}

var (
	ErrNotImplemented    = errors.New("not implemented")
	ErrBusy              = errors.New("busy")
	ErrOff               = errors.New("peripheral off")
	ErrCanceled          = errors.New("canceled")
	ErrInvalidParameters = errors.New("invalid parameters")
)

// Interrupts delivers hardware completions into the kernel context.
//
// Drivers never call their clients directly from a hardware goroutine: they Post the
// callback, and the kernel runs it to completion on its own loop.
type Interrupts interface {
	Post(fn func()) bool
}

// HAL provides the only contact point between the OS and the outside world.
type HAL interface {
	Logger() Logger
	LED() LED
	GPIO() GPIO
	UART() UART
	SPI() SPIMasterDevice
}
