package rf233

// Register is an RF233 register address.
type Register uint8

const (
	RegTRXStatus  Register = 0x01
	RegTRXState   Register = 0x02
	RegTRXCtrl0   Register = 0x03
	RegTRXCtrl1   Register = 0x04
	RegPHYTxPwr   Register = 0x05
	RegPHYCCCCA   Register = 0x08
	RegTRXCtrl2   Register = 0x0C
	RegIRQMask    Register = 0x0E
	RegIRQStatus  Register = 0x0F
	RegTRXRPC     Register = 0x16
	RegXAHCtrl1   Register = 0x17
	RegPartNum    Register = 0x1C
	RegShortAddr0 Register = 0x20
	RegShortAddr1 Register = 0x21
	RegPANID0     Register = 0x22
	RegPANID1     Register = 0x23
	RegIEEEAddr0  Register = 0x24
	RegXAHCtrl0   Register = 0x2C
	RegCSMASeed1  Register = 0x2E
)

// Bus command bits combined with the register address in the first byte.
const (
	busRead  = 0x80
	busWrite = 0xC0

	addrMask = 0x3F
)

// TRX_STATE commands and TRX_STATUS values.
const (
	CmdForceTRXOff = 0x03
	StatusTRXOff   = 0x08
	StatusPLLOn    = 0x09
	CmdPLLOn       = 0x09

	statusMask = 0x1F
)

// PartNumRF233 is the PART_NUM value of an RF233.
const PartNumRF233 = 0x0B

// Values programmed during bring-up.
const (
	ctrl1Value      = 0x2E // TX_AUTO_CRC_ON | SPI_CMD_MODE status | IRQ_MASK_MODE
	ccaModeED       = 0x20
	ctrl2Value      = 0x80 // RX_SAFE_MODE
	irqMaskValue    = 0x0C // TRX_END | RX_START
	xahCtrl1Value   = 0x02
	csmaSeed1Value  = 0x42
	rpcValue        = 0xFF
	maxFrameRetries = 3
	maxCSMARetries  = 4
)

func (r Register) String() string {
	switch r {
	case RegTRXStatus:
		return "TRX_STATUS"
	case RegTRXState:
		return "TRX_STATE"
	case RegTRXCtrl0:
		return "TRX_CTRL_0"
	case RegTRXCtrl1:
		return "TRX_CTRL_1"
	case RegPHYTxPwr:
		return "PHY_TX_PWR"
	case RegPHYCCCCA:
		return "PHY_CC_CCA"
	case RegTRXCtrl2:
		return "TRX_CTRL_2"
	case RegIRQMask:
		return "IRQ_MASK"
	case RegIRQStatus:
		return "IRQ_STATUS"
	case RegTRXRPC:
		return "TRX_RPC"
	case RegXAHCtrl1:
		return "XAH_CTRL_1"
	case RegPartNum:
		return "PART_NUM"
	case RegShortAddr0:
		return "SHORT_ADDR_0"
	case RegShortAddr1:
		return "SHORT_ADDR_1"
	case RegPANID0:
		return "PAN_ID_0"
	case RegPANID1:
		return "PAN_ID_1"
	case RegXAHCtrl0:
		return "XAH_CTRL_0"
	case RegCSMASeed1:
		return "CSMA_SEED_1"
	}
	if r >= RegIEEEAddr0 && r < RegIEEEAddr0+8 {
		return "IEEE_ADDR_" + string(rune('0'+r-RegIEEEAddr0))
	}
	return "REG_?"
}
