// Package rf233 brings up an Atmel RF233 IEEE 802.15.4 transceiver over SPI.
//
// Bring-up is a fixed chain of register transactions. Each is issued from the
// completion of the one before, and at most one is outstanding at a time.
package rf233

import (
	"fmt"

	"ember/hal"
	"ember/kernel"
)

// Client is told when bring-up finishes.
type Client interface {
	RadioReady(partNum uint8)
}

// Radio drives the bring-up state machine for one transceiver.
type Radio struct {
	spi   hal.SPIMasterDevice
	reset hal.GPIOPin
	sleep hal.GPIOPin
	log   hal.Logger
	cfg   Config

	state   State
	busy    bool
	pending Transaction
	partNum uint8
	// bringUp marks the outstanding transaction as the current step's.
	bringUp bool

	radioOn      bool
	transmitting bool

	client Client

	writeBuf kernel.TakeCell[[]byte]
	readBuf  kernel.TakeCell[[]byte]

	writeStore [2]byte
	readStore  [2]byte
}

// New returns a radio on spi and registers it as spi's client. reset and sleep may
// be nil when the lines are not wired.
func New(spi hal.SPIMasterDevice, reset, sleep hal.GPIOPin, cfg Config, log hal.Logger) (*Radio, error) {
	if spi == nil {
		return nil, fmt.Errorf("rf233: nil spi device")
	}
	r := &Radio{spi: spi, reset: reset, sleep: sleep, cfg: cfg, log: log}
	r.writeBuf.Put(r.writeStore[:])
	r.readBuf.Put(r.readStore[:])
	spi.SetClient(r)
	return r, nil
}

func (r *Radio) logf(format string, args ...any) {
	if r.log == nil {
		return
	}
	r.log.WriteLineString("rf233: " + fmt.Sprintf(format, args...))
}

// SetClient installs the ready listener.
func (r *Radio) SetClient(c Client) { r.client = c }

// State returns the current bring-up step.
func (r *Radio) State() State { return r.state }

// Busy reports whether a bus transaction is outstanding.
func (r *Radio) Busy() bool { return r.busy }

// Pending returns the outstanding transaction, if any.
func (r *Radio) Pending() (Transaction, bool) { return r.pending, r.busy }

// PartNum returns the part number read during bring-up.
func (r *Radio) PartNum() uint8 { return r.partNum }

// On reports whether the radio has been reset and is powered.
func (r *Radio) On() bool { return r.radioOn }

// Initialize configures the SPI device and resets the transceiver.
func (r *Radio) Initialize() error {
	err := r.spi.Configure(hal.SPIConfig{
		Polarity: hal.ClockIdleLow,
		Phase:    hal.SampleLeading,
		RateHz:   r.cfg.SPIRateHz,
	})
	if err != nil {
		return fmt.Errorf("rf233: %w", err)
	}
	return r.Reset()
}

// Reset pulses the reset line, wakes the transceiver and returns the machine to
// StateStart. It fails with hal.ErrBusy while a transaction is outstanding.
func (r *Radio) Reset() error {
	if r.busy {
		return hal.ErrBusy
	}
	for _, p := range []hal.GPIOPin{r.reset, r.sleep} {
		if p == nil {
			continue
		}
		if err := p.MakeOutput(); err != nil {
			return fmt.Errorf("rf233: %w", err)
		}
	}
	if r.reset != nil {
		if err := r.reset.Write(false); err != nil {
			return fmt.Errorf("rf233: reset: %w", err)
		}
		if err := r.reset.Write(true); err != nil {
			return fmt.Errorf("rf233: reset: %w", err)
		}
	}
	if r.sleep != nil {
		if err := r.sleep.Write(false); err != nil {
			return fmt.Errorf("rf233: sleep: %w", err)
		}
	}
	r.transmitting = false
	r.bringUp = false
	r.radioOn = true
	r.state = StateStart
	r.partNum = 0
	return nil
}

// Start issues the first bring-up transaction.
func (r *Radio) Start() kernel.ReturnCode {
	switch {
	case r.state == StateReady:
		return kernel.Already
	case r.busy || r.state != StateStart:
		return kernel.Busy
	case !r.radioOn:
		return kernel.Off
	}
	return r.enter(StatePartRead)
}

func (r *Radio) enter(s State) kernel.ReturnCode {
	t, ok := Op(s, r.cfg)
	if !ok {
		return kernel.Inval
	}
	rc := r.issue(t)
	if rc == kernel.Success {
		r.state = s
		r.bringUp = true
	}
	return rc
}

// RegisterRead starts a read of reg.
func (r *Radio) RegisterRead(reg Register) kernel.ReturnCode {
	return r.issue(Transaction{Register: reg})
}

// RegisterWrite starts a write of v to reg.
func (r *Radio) RegisterWrite(reg Register, v byte) kernel.ReturnCode {
	return r.issue(Transaction{Register: reg, Write: true, Value: v})
}

func (r *Radio) issue(t Transaction) kernel.ReturnCode {
	if r.busy {
		return kernel.Busy
	}
	wbuf, ok := r.writeBuf.Take()
	if !ok {
		return kernel.Busy
	}
	rbuf, ok := r.readBuf.Take()
	if !ok {
		r.writeBuf.Put(wbuf)
		return kernel.Busy
	}
	frame := t.Frame()
	copy(wbuf, frame[:])
	rbuf[0], rbuf[1] = 0, 0

	r.busy = true
	r.pending = t
	w, rd, err := r.spi.ReadWriteBytes(wbuf, rbuf, len(frame))
	if err != nil {
		r.busy = false
		r.pending = Transaction{}
		r.reclaim(w, rd, wbuf, rbuf)
		r.logf("%s: %v", t, err)
		return kernel.ReturnCodeFromError(err)
	}
	return kernel.Success
}

func (r *Radio) reclaim(w, rd, wbuf, rbuf []byte) {
	if w == nil {
		w = wbuf
	}
	if rd == nil {
		rd = rbuf
	}
	r.writeBuf.Put(w)
	r.readBuf.Put(rd)
}

// ReadWriteDone implements hal.SPIMasterClient.
func (r *Radio) ReadWriteDone(write, read []byte, n int, err error) {
	r.writeBuf.Put(write)
	var v byte
	if read != nil {
		if n > 1 {
			v = read[1]
		}
		r.readBuf.Put(read)
	}
	t := r.pending
	step := r.bringUp
	r.busy = false
	r.bringUp = false
	r.pending = Transaction{}

	if !step {
		// A register access made outside bring-up.
		return
	}
	if r.state == StatePartRead && err == nil {
		r.partNum = v
	}
	next, ok := Next(r.state, Completion{Value: v, Err: err}, r.cfg)
	if !ok {
		r.logf("stalled in %s: %s returned %#04x, err=%v", r.state, t, v, err)
		return
	}
	if next == StateReady {
		r.state = StateReady
		r.logf("ready (part %#04x)", r.partNum)
		if r.client != nil {
			r.client.RadioReady(r.partNum)
		}
		return
	}
	if rc := r.enter(next); rc != kernel.Success {
		r.logf("stalled entering %s: %v", next, rc)
	}
}
