// Package serialization bridges processes to an nRF51822 co-processor running the
// Nordic serialization protocol over a UART.
//
// The capsule owns one transmit and one receive buffer. Frames are copied between
// those buffers and regions the processes share; the UART only ever sees kernel
// buffers.
package serialization

import (
	"fmt"

	"ember/hal"
	"ember/kernel"
	"ember/proto"
)

const (
	// BufferLen is the size of each kernel buffer.
	BufferLen = proto.SerialFrameMax

	// BaudRate is the line rate the co-processor firmware expects.
	BaudRate = 250000

	// IdleBits ends a receive after this many quiet bit periods.
	IdleBits = 250

	// resetHold is the number of extra low writes that stretch the reset pulse.
	resetHold = 10
)

// LineParameters returns the UART configuration used by Initialize.
func LineParameters() hal.UARTParameters {
	return hal.UARTParameters{
		BaudRate:      BaudRate,
		Width:         hal.UARTWidthEight,
		StopBits:      hal.UARTStopBitsOne,
		Parity:        hal.UARTParityEven,
		HWFlowControl: true,
	}
}

type app struct {
	upcall   kernel.Upcall
	rx       kernel.AppSlice
	tx       kernel.AppSlice
	received int
}

// Capsule is the serialization syscall driver.
type Capsule struct {
	uart  hal.UART
	reset hal.GPIOPin
	log   hal.Logger

	apps *kernel.Grant[app]

	// active is the process that completions are routed to. Any Allow moves it, so a
	// completion reaches whichever process shared memory last.
	active kernel.OptionalCell[kernel.ProcessID]

	txBuf kernel.TakeCell[[]byte]
	rxBuf kernel.TakeCell[[]byte]

	txStore [BufferLen]byte
	rxStore [BufferLen]byte
}

// New creates the capsule and registers it as uart's client. reset may be nil when
// the co-processor reset line is not wired.
func New(k *kernel.Kernel, uart hal.UART, reset hal.GPIOPin, log hal.Logger) (*Capsule, error) {
	if uart == nil {
		return nil, fmt.Errorf("serialization: nil uart")
	}
	apps, err := kernel.NewGrant[app](k)
	if err != nil {
		return nil, fmt.Errorf("serialization: grant: %w", err)
	}
	c := &Capsule{uart: uart, reset: reset, log: log, apps: apps}
	c.txBuf.Put(c.txStore[:])
	c.rxBuf.Put(c.rxStore[:])
	uart.SetTransmitClient(c)
	uart.SetReceiveClient(c)
	return c, nil
}

func (c *Capsule) logf(format string, args ...any) {
	if c.log == nil {
		return
	}
	c.log.WriteLineString("serialization: " + fmt.Sprintf(format, args...))
}

// Initialize configures the UART for the co-processor link.
func (c *Capsule) Initialize() error {
	if err := c.uart.Configure(LineParameters()); err != nil {
		return fmt.Errorf("serialization: configure uart: %w", err)
	}
	return nil
}

// Reset pulses the co-processor reset line low.
func (c *Capsule) Reset() error {
	if c.reset == nil {
		return hal.ErrNotImplemented
	}
	if err := c.reset.MakeOutput(); err != nil {
		return fmt.Errorf("serialization: reset pin: %w", err)
	}
	for i := 0; i < 1+resetHold; i++ {
		if err := c.reset.Write(false); err != nil {
			return fmt.Errorf("serialization: reset pin: %w", err)
		}
	}
	if err := c.reset.Write(true); err != nil {
		return fmt.Errorf("serialization: reset pin: %w", err)
	}
	c.logf("co-processor reset")
	return nil
}

// Receiving reports whether a receive is outstanding on the UART.
func (c *Capsule) Receiving() bool { return !c.rxBuf.IsSome() }

// Transmitting reports whether a transmit is outstanding on the UART.
func (c *Capsule) Transmitting() bool { return !c.txBuf.IsSome() }

// ActiveProcess returns the process completions are currently routed to.
func (c *Capsule) ActiveProcess() (kernel.ProcessID, bool) { return c.active.Get() }

func (c *Capsule) Allow(pid kernel.ProcessID, allowNum int, slice kernel.AppSlice) kernel.ReturnCode {
	var rc kernel.ReturnCode
	switch allowNum {
	case proto.SerialAllowRx:
		rc = c.apps.EnterRC(pid, func(a *app) kernel.ReturnCode {
			a.rx = slice
			a.received = 0
			return kernel.Success
		})
	case proto.SerialAllowTx:
		rc = c.apps.EnterRC(pid, func(a *app) kernel.ReturnCode {
			a.tx = slice
			return kernel.Success
		})
	default:
		return kernel.NoSupport
	}
	if rc != kernel.Success {
		return rc
	}
	c.active.Set(pid)
	if allowNum == proto.SerialAllowRx {
		c.startReceive(pid)
	}
	return kernel.Success
}

func (c *Capsule) Subscribe(subscribeNum int, upcall kernel.Upcall, pid kernel.ProcessID) kernel.ReturnCode {
	if subscribeNum != proto.SerialSubscribeEvents {
		return kernel.NoSupport
	}
	rc := c.apps.EnterRC(pid, func(a *app) kernel.ReturnCode {
		a.upcall = upcall
		return kernel.Success
	})
	if rc == kernel.Success {
		c.startReceive(pid)
	}
	return rc
}

func (c *Capsule) Command(commandNum, arg0, arg1 int, pid kernel.ProcessID) kernel.ReturnCode {
	switch commandNum {
	case proto.SerialCmdPresent:
		return kernel.Success
	case proto.SerialCmdTransmit:
		return c.apps.EnterRC(pid, c.transmit)
	case proto.SerialCmdReset:
		if err := c.Reset(); err != nil {
			c.logf("reset: %v", err)
			return kernel.ReturnCodeFromError(err)
		}
		return kernel.Success
	case proto.SerialCmdReceived:
		return c.apps.EnterRC(pid, func(a *app) kernel.ReturnCode {
			return kernel.SuccessWithValue(uint32(a.received))
		})
	default:
		return kernel.NoSupport
	}
}

func (c *Capsule) transmit(a *app) kernel.ReturnCode {
	if !a.tx.Valid() {
		return kernel.Fail
	}
	buf, ok := c.txBuf.Take()
	if !ok {
		return kernel.Busy
	}
	n := 0
	if !a.tx.Map(func(b []byte) { n = copy(buf, b) }) {
		c.txBuf.Put(buf)
		return kernel.Fail
	}
	back, err := c.uart.TransmitBuffer(buf, n)
	if err != nil {
		if back == nil {
			back = buf
		}
		c.txBuf.Put(back)
		c.logf("transmit %d bytes: %v", n, err)
		return kernel.Fail
	}
	return kernel.Success
}

// startReceive arms the UART once pid has both a handle and a receive region and no
// receive is running.
func (c *Capsule) startReceive(pid kernel.ProcessID) {
	ready := false
	_ = c.apps.Enter(pid, func(a *app) { ready = a.upcall.Valid() && a.rx.Valid() })
	if ready {
		c.armReceive()
	}
}

func (c *Capsule) armReceive() {
	buf, ok := c.rxBuf.Take()
	if !ok {
		return
	}
	back, err := c.uart.ReceiveAutomatic(buf, BufferLen, IdleBits)
	if err != nil {
		if back == nil {
			back = buf
		}
		c.rxBuf.Put(back)
		c.logf("receive: %v", err)
	}
}

// TransmittedBuffer implements hal.UARTTransmitClient.
func (c *Capsule) TransmittedBuffer(buf []byte, n int, err error) {
	c.txBuf.Put(buf)
	rc := kernel.ReturnCodeFromError(err)
	pid, ok := c.active.Get()
	if !ok {
		return
	}
	_ = c.apps.Enter(pid, func(a *app) {
		a.upcall.Schedule(proto.SerialOpTxDone, 0, int(rc))
	})
}

// ReceivedBuffer implements hal.UARTReceiveClient.
func (c *Capsule) ReceivedBuffer(buf []byte, n int, err error, lineErr hal.UARTError) {
	rc := kernel.ReturnCodeFromError(err)
	if rc == kernel.Success && lineErr != hal.UARTErrorNone {
		c.logf("receive line error: %s", lineErr)
		rc = kernel.Fail
	}
	if n > len(buf) {
		n = len(buf)
	}
	if pid, ok := c.active.Get(); ok {
		_ = c.apps.Enter(pid, func(a *app) {
			if !a.rx.Map(func(dst []byte) { copy(dst, buf[:n]) }) {
				return
			}
			a.received += n
			a.upcall.Schedule(proto.SerialOpRx, n, int(rc))
		})
	}
	c.rxBuf.Put(buf)
	c.armReceive()
}
