package proto

// SerialFrameMax is the size of the bridge's kernel transmit and receive buffers.
// Longer process regions are truncated to it.
const SerialFrameMax = 600

// Serialization allow slots.
const (
	SerialAllowRx = 0
	SerialAllowTx = 1
)

// SerialSubscribeEvents is the only serialization notification slot.
const SerialSubscribeEvents = 0

// Serialization commands.
const (
	SerialCmdPresent  = 0
	SerialCmdTransmit = 1
	SerialCmdReset    = 2
	SerialCmdReceived = 3
)

// Serialization upcall opcodes, passed as r0.
//
//	SerialOpTxDone: r1 = 0,          r2 = result
//	SerialOpRx:     r1 = wire length, r2 = result
const (
	SerialOpTxDone = 1
	SerialOpRx     = 4
)
