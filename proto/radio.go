package proto

// RadioSubscribeReady is notified once bring-up reaches the ready state.
//
// Upcall arguments: r0 = RadioOpReady, r1 = part number, r2 = 0.
const RadioSubscribeReady = 0

// RadioOpReady is the ready notification opcode.
const RadioOpReady = 0

// Radio commands.
const (
	RadioCmdPresent = 0
	RadioCmdStart   = 1
	RadioCmdState   = 2
	RadioCmdReset   = 3
)
