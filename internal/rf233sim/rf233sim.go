// Package rf233sim is a register-level model of an RF233 transceiver on an SPI bus.
//
// It answers two-byte register frames the way the part does and tracks the few
// state transitions bring-up depends on. It implements drivers.SPI so it can sit
// under hal.NewSPIDevice in place of a real bus.
package rf233sim

import (
	"fmt"
	"sync"

	"tinygo.org/x/drivers"
)

const (
	regTRXStatus = 0x01
	regTRXState  = 0x02
	regIRQStatus = 0x0F
	regPartNum   = 0x1C
	regVersion   = 0x1D
	regManID0    = 0x1E
	regManID1    = 0x1F

	cmdNOP         = 0x00
	cmdTXStart     = 0x02
	cmdForceTRXOff = 0x03
	cmdTRXOff      = 0x08
	cmdPLLOn       = 0x09

	statusPOn    = 0x00
	statusTRXOff = 0x08
	statusPLLOn  = 0x09

	busCmdMask = 0xC0
	busRead    = 0x80
	busWrite   = 0xC0
	addrMask   = 0x3F
)

// Write is one register write observed on the bus.
type Write struct {
	Addr  uint8
	Value uint8
}

func (w Write) String() string { return fmt.Sprintf("%#04x=%#04x", w.Addr, w.Value) }

// Device is a simulated transceiver.
type Device struct {
	mu     sync.Mutex
	regs   [64]uint8
	writes []Write
	reads  int

	// ignorePLL leaves TRX_STATUS unchanged on a PLL_ON request, as a part with a
	// dead oscillator would.
	ignorePLL bool

	cmd     uint8
	haveCmd bool
}

var _ drivers.SPI = (*Device)(nil)

// New returns a device that reports partNum from PART_NUM.
func New(partNum uint8) *Device {
	d := &Device{}
	d.regs[regPartNum] = partNum
	d.regs[regVersion] = 0x01
	d.regs[regManID0] = 0x1F
	d.regs[regTRXStatus] = statusPOn
	d.regs[regIRQStatus] = 0x01
	return d
}

// SetPLLStuck makes PLL_ON requests ineffective.
func (d *Device) SetPLLStuck(stuck bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ignorePLL = stuck
}

// Tx exchanges w for r. Frames are two bytes: command and data.
func (d *Device) Tx(w, r []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(w) == 0 {
		return nil
	}
	if r != nil && len(r) < len(w) {
		return fmt.Errorf("rf233sim: read buffer %d bytes, write %d", len(r), len(w))
	}
	for i, b := range w {
		out := d.clock(b)
		if r != nil {
			r[i] = out
		}
	}
	d.haveCmd = false
	return nil
}

// Transfer clocks a single byte. The first byte after a chip select is the command.
func (d *Device) Transfer(b byte) (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clock(b), nil
}

// clock shifts one byte in and returns the byte shifted out.
func (d *Device) clock(b byte) byte {
	if !d.haveCmd {
		d.cmd = b
		d.haveCmd = true
		// The part returns PHY_STATUS while the command byte is clocked in.
		return d.regs[regTRXStatus]
	}
	addr := d.cmd & addrMask
	d.haveCmd = false
	switch d.cmd & busCmdMask {
	case busRead:
		d.reads++
		v := d.regs[addr]
		if addr == regIRQStatus {
			d.regs[regIRQStatus] = 0
		}
		return v
	case busWrite:
		d.write(addr, b)
	}
	return 0
}

func (d *Device) write(addr, v uint8) {
	d.writes = append(d.writes, Write{Addr: addr, Value: v})
	switch addr {
	case regTRXState:
		switch v & 0x1F {
		case cmdForceTRXOff, cmdTRXOff:
			d.regs[regTRXStatus] = statusTRXOff
		case cmdPLLOn:
			if !d.ignorePLL && d.regs[regTRXStatus] == statusTRXOff {
				d.regs[regTRXStatus] = statusPLLOn
			}
		case cmdNOP, cmdTXStart:
		}
		d.regs[regTRXState] = v
	case regTRXStatus, regPartNum, regVersion, regManID0, regManID1:
		// Read-only.
	default:
		d.regs[addr] = v
	}
}

// Reg returns the current value of a register.
func (d *Device) Reg(addr uint8) uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regs[addr&addrMask]
}

// Writes returns the register writes seen so far, in order.
func (d *Device) Writes() []Write {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Write(nil), d.writes...)
}

// Reads returns the number of register reads seen so far.
func (d *Device) Reads() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reads
}
