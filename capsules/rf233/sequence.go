package rf233

import "fmt"

// State is a bring-up step. Every state between StateStart and StateReady names the
// bus transaction outstanding while the machine is in it.
type State uint8

const (
	StateStart State = iota
	StatePartRead
	StateIRQRead
	StateTurningOff
	StateStatusOff
	StateCtrl1Set
	StateCCASet
	StatePwrSet
	StateCtrl2Set
	StateIRQMaskSet
	StateXAHSet
	StateFrameRetrySet
	StateCSMARetrySet
	StatePANID1Set
	StatePANID2Set
	StateIEEE1Set
	StateIEEE2Set
	StateIEEE3Set
	StateIEEE4Set
	StateIEEE5Set
	StateIEEE6Set
	StateIEEE7Set
	StateIEEE8Set
	StateShort1Set
	StateShort2Set
	StateRPCSet
	StatePLLSet
	StatePLLStatusRead
	StateReady
)

// Steps is the number of bus transactions from StateStart to StateReady.
const Steps = int(StateReady - StatePartRead)

var stateNames = [...]string{
	StateStart:         "start",
	StatePartRead:      "part_read",
	StateIRQRead:       "irq_read",
	StateTurningOff:    "turning_off",
	StateStatusOff:     "status_off",
	StateCtrl1Set:      "ctrl1_set",
	StateCCASet:        "cca_set",
	StatePwrSet:        "pwr_set",
	StateCtrl2Set:      "ctrl2_set",
	StateIRQMaskSet:    "irqmask_set",
	StateXAHSet:        "xah_set",
	StateFrameRetrySet: "frameretry_set",
	StateCSMARetrySet:  "csmaretry_set",
	StatePANID1Set:     "panid1_set",
	StatePANID2Set:     "panid2_set",
	StateIEEE1Set:      "ieee1_set",
	StateIEEE2Set:      "ieee2_set",
	StateIEEE3Set:      "ieee3_set",
	StateIEEE4Set:      "ieee4_set",
	StateIEEE5Set:      "ieee5_set",
	StateIEEE6Set:      "ieee6_set",
	StateIEEE7Set:      "ieee7_set",
	StateIEEE8Set:      "ieee8_set",
	StateShort1Set:     "short1_set",
	StateShort2Set:     "short2_set",
	StateRPCSet:        "rpc_set",
	StatePLLSet:        "pll_set",
	StatePLLStatusRead: "pll_status_read",
	StateReady:         "ready",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// InProgress reports whether s is one of the transaction steps.
func (s State) InProgress() bool { return s > StateStart && s < StateReady }

// Config holds the values programmed into the transceiver.
type Config struct {
	PANID     uint16
	ShortAddr uint16
	// IEEEAddr is the extended address, most significant byte first.
	IEEEAddr [8]byte
	TxPower  uint8
	Channel  uint8
	// PartNum is the PART_NUM the device must report.
	PartNum   uint8
	SPIRateHz uint32
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		PANID:     0xABCD,
		ShortAddr: 0x0001,
		IEEEAddr:  [8]byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01},
		TxPower:   0x00,
		Channel:   26,
		PartNum:   PartNumRF233,
		SPIRateHz: 100_000,
	}
}

// Transaction is one two-byte register exchange.
type Transaction struct {
	Register Register
	Write    bool
	Value    byte
}

// Frame returns the bytes clocked out for t: the command byte, then the value for a
// write or a placeholder for a read.
func (t Transaction) Frame() [2]byte {
	addr := byte(t.Register) & addrMask
	if t.Write {
		return [2]byte{addr | busWrite, t.Value}
	}
	return [2]byte{addr | busRead, 0}
}

func (t Transaction) String() string {
	if t.Write {
		return fmt.Sprintf("write %s (%#04x) = %#04x", t.Register, uint8(t.Register), t.Value)
	}
	return fmt.Sprintf("read %s (%#04x)", t.Register, uint8(t.Register))
}

// Op returns the transaction issued in state s. ok is false for StateStart and
// StateReady, which have none.
func Op(s State, cfg Config) (t Transaction, ok bool) {
	w := func(r Register, v byte) (Transaction, bool) {
		return Transaction{Register: r, Write: true, Value: v}, true
	}
	r := func(reg Register) (Transaction, bool) {
		return Transaction{Register: reg}, true
	}
	switch s {
	case StatePartRead:
		return r(RegPartNum)
	case StateIRQRead:
		return r(RegIRQStatus)
	case StateTurningOff:
		return w(RegTRXState, CmdForceTRXOff)
	case StateStatusOff:
		return r(RegTRXStatus)
	case StateCtrl1Set:
		return w(RegTRXCtrl1, ctrl1Value)
	case StateCCASet:
		return w(RegPHYCCCCA, ccaModeED|cfg.Channel&0x1F)
	case StatePwrSet:
		return w(RegPHYTxPwr, cfg.TxPower&0x0F)
	case StateCtrl2Set:
		return w(RegTRXCtrl2, ctrl2Value)
	case StateIRQMaskSet:
		return w(RegIRQMask, irqMaskValue)
	case StateXAHSet:
		return w(RegXAHCtrl1, xahCtrl1Value)
	case StateFrameRetrySet:
		return w(RegXAHCtrl0, maxFrameRetries<<4|maxCSMARetries<<1)
	case StateCSMARetrySet:
		return w(RegCSMASeed1, csmaSeed1Value)
	case StatePANID1Set:
		return w(RegPANID0, byte(cfg.PANID))
	case StatePANID2Set:
		return w(RegPANID1, byte(cfg.PANID>>8))
	case StateIEEE1Set, StateIEEE2Set, StateIEEE3Set, StateIEEE4Set,
		StateIEEE5Set, StateIEEE6Set, StateIEEE7Set, StateIEEE8Set:
		// IEEE_ADDR_0 holds the least significant byte.
		i := int(s - StateIEEE1Set)
		return w(RegIEEEAddr0+Register(i), cfg.IEEEAddr[7-i])
	case StateShort1Set:
		return w(RegShortAddr0, byte(cfg.ShortAddr))
	case StateShort2Set:
		return w(RegShortAddr1, byte(cfg.ShortAddr>>8))
	case StateRPCSet:
		return w(RegTRXRPC, rpcValue)
	case StatePLLSet:
		return w(RegTRXState, CmdPLLOn)
	case StatePLLStatusRead:
		return r(RegTRXStatus)
	}
	return Transaction{}, false
}

// Completion is the outcome of the transaction of the current state.
type Completion struct {
	// Value is the byte read back; zero for writes.
	Value byte
	Err   error
}

// Next returns the state that follows s given the completion of s's transaction.
// advanced is false when the completion does not let bring-up proceed: a bus error,
// a foreign part number, or a status other than the one the step waits for. The
// machine then stays in s.
func Next(s State, c Completion, cfg Config) (next State, advanced bool) {
	if !s.InProgress() || c.Err != nil {
		return s, false
	}
	switch s {
	case StatePartRead:
		if c.Value != cfg.PartNum {
			return s, false
		}
	case StateStatusOff:
		if c.Value&statusMask != StatusTRXOff {
			return s, false
		}
	case StatePLLStatusRead:
		if c.Value&statusMask != StatusPLLOn {
			return s, false
		}
	}
	return s + 1, true
}

// Sequence returns every bring-up transaction in order.
func Sequence(cfg Config) []Transaction {
	out := make([]Transaction, 0, Steps)
	for s := StatePartRead; s < StateReady; s++ {
		t, _ := Op(s, cfg)
		out = append(out, t)
	}
	return out
}
