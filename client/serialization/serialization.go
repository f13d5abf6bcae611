package serialization

import (
	"ember/kernel"
	"ember/proto"
)

// Event is one serialization notification.
type Event struct {
	Op int
	// Len is the wire length of a received frame. It can exceed the shared region.
	Len    int
	Result kernel.ReturnCode
}

// Received reports whether e carries a frame.
func (e Event) Received() bool { return e.Op == proto.SerialOpRx }

// Transmitted reports whether e completes a transmit.
func (e Event) Transmitted() bool { return e.Op == proto.SerialOpTxDone }

// Present reports whether the bridge is installed.
func Present(ctx *kernel.Context) bool {
	if ctx == nil {
		return false
	}
	return ctx.Command(proto.DriverSerialization, proto.SerialCmdPresent, 0, 0) == kernel.Success
}

// ShareReceive shares memory[off:off+n] as the receive region.
func ShareReceive(ctx *kernel.Context, off, n int) kernel.ReturnCode {
	if ctx == nil {
		return kernel.Fail
	}
	return ctx.Allow(proto.DriverSerialization, proto.SerialAllowRx, off, n)
}

// ShareTransmit shares memory[off:off+n] as the transmit region.
func ShareTransmit(ctx *kernel.Context, off, n int) kernel.ReturnCode {
	if ctx == nil {
		return kernel.Fail
	}
	return ctx.Allow(proto.DriverSerialization, proto.SerialAllowTx, off, n)
}

// Subscribe registers fn for bridge notifications.
func Subscribe(ctx *kernel.Context, fn func(*kernel.Context, Event)) kernel.ReturnCode {
	if ctx == nil {
		return kernel.Fail
	}
	if fn == nil {
		return ctx.Subscribe(proto.DriverSerialization, proto.SerialSubscribeEvents, nil)
	}
	return ctx.Subscribe(proto.DriverSerialization, proto.SerialSubscribeEvents, func(ctx *kernel.Context, op, n, rc int) {
		fn(ctx, Event{Op: op, Len: n, Result: kernel.ReturnCode(rc)})
	})
}

// Send transmits the shared transmit region.
func Send(ctx *kernel.Context) kernel.ReturnCode {
	if ctx == nil {
		return kernel.Fail
	}
	return ctx.Command(proto.DriverSerialization, proto.SerialCmdTransmit, 0, 0)
}

// ResetCoprocessor pulses the co-processor reset line.
func ResetCoprocessor(ctx *kernel.Context) kernel.ReturnCode {
	if ctx == nil {
		return kernel.Fail
	}
	return ctx.Command(proto.DriverSerialization, proto.SerialCmdReset, 0, 0)
}

// Received returns the number of bytes received since the receive region was shared.
func Received(ctx *kernel.Context) (int, kernel.ReturnCode) {
	if ctx == nil {
		return 0, kernel.Fail
	}
	rc := ctx.Command(proto.DriverSerialization, proto.SerialCmdReceived, 0, 0)
	if !rc.IsSuccess() {
		return 0, rc
	}
	return int(rc.Value()), kernel.Success
}
