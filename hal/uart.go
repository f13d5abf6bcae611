package hal

import "fmt"

// UARTWidth is the number of data bits per word.
type UARTWidth uint8

const (
	UARTWidthSix UARTWidth = iota + 6
	UARTWidthSeven
	UARTWidthEight
)

// UARTStopBits selects the number of stop bits.
type UARTStopBits uint8

const (
	UARTStopBitsOne UARTStopBits = iota + 1
	UARTStopBitsTwo
)

// UARTParity is the parity setting to be used for UART communication.
type UARTParity uint8

const (
	UARTParityNone UARTParity = iota
	UARTParityOdd
	UARTParityEven
)

func (p UARTParity) String() string {
	switch p {
	case UARTParityNone:
		return "none"
	case UARTParityOdd:
		return "odd"
	case UARTParityEven:
		return "even"
	default:
		return "unknown"
	}
}

// UARTParameters configures a UART.
type UARTParameters struct {
	BaudRate      uint32
	Width         UARTWidth
	StopBits      UARTStopBits
	Parity        UARTParity
	HWFlowControl bool
}

// Validate checks that the parameters describe a usable line.
func (p UARTParameters) Validate() error {
	if p.BaudRate == 0 {
		return fmt.Errorf("uart: baud rate 0: %w", ErrInvalidParameters)
	}
	if p.Width < UARTWidthSix || p.Width > UARTWidthEight {
		return fmt.Errorf("uart: width %d: %w", p.Width, ErrInvalidParameters)
	}
	if p.StopBits != UARTStopBitsOne && p.StopBits != UARTStopBitsTwo {
		return fmt.Errorf("uart: stop bits %d: %w", p.StopBits, ErrInvalidParameters)
	}
	if p.Parity > UARTParityEven {
		return fmt.Errorf("uart: parity %d: %w", p.Parity, ErrInvalidParameters)
	}
	return nil
}

// Frame returns the data and stop bit counts of one word.
func (p UARTParameters) Frame() (dataBits, stopBits uint8) {
	return uint8(p.Width), uint8(p.StopBits)
}

// UARTError describes a receive-side line error.
type UARTError uint8

const (
	UARTErrorNone UARTError = iota
	UARTErrorParity
	UARTErrorFraming
	UARTErrorOverrun
	UARTErrorRepeatCall
	UARTErrorReset
	UARTErrorAborted
)

func (e UARTError) String() string {
	switch e {
	case UARTErrorNone:
		return "none"
	case UARTErrorParity:
		return "parity"
	case UARTErrorFraming:
		return "framing"
	case UARTErrorOverrun:
		return "overrun"
	case UARTErrorRepeatCall:
		return "repeat_call"
	case UARTErrorReset:
		return "reset"
	case UARTErrorAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// UARTTransmitClient receives transmit completions. Ownership of buf returns to the
// client with the call.
type UARTTransmitClient interface {
	TransmittedBuffer(buf []byte, n int, err error)
}

// UARTReceiveClient receives receive completions. Ownership of buf returns to the
// client with the call.
type UARTReceiveClient interface {
	ReceivedBuffer(buf []byte, n int, err error, lineErr UARTError)
}

// UART is an asynchronous, buffer-passing UART.
//
// TransmitBuffer and ReceiveAutomatic take ownership of buf on success. On failure
// they hand buf back so the caller never loses it.
type UART interface {
	Configure(p UARTParameters) error

	// TransmitBuffer sends buf[:n]. Completion arrives via TransmittedBuffer.
	TransmitBuffer(buf []byte, n int) ([]byte, error)

	// ReceiveAutomatic fills buf[:n] and completes when it is full or when the line
	// has been idle for idle bit periods after at least one byte.
	ReceiveAutomatic(buf []byte, n int, idle uint32) ([]byte, error)

	SetTransmitClient(c UARTTransmitClient)
	SetReceiveClient(c UARTReceiveClient)
}
