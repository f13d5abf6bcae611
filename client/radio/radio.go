package radio

import (
	"ember/capsules/rf233"
	"ember/kernel"
	"ember/proto"
)

// Present reports whether the radio driver is installed.
func Present(ctx *kernel.Context) bool {
	if ctx == nil {
		return false
	}
	return ctx.Command(proto.DriverRadio, proto.RadioCmdPresent, 0, 0) == kernel.Success
}

// Start begins bring-up. Completion is reported to SubscribeReady handlers.
func Start(ctx *kernel.Context) kernel.ReturnCode {
	if ctx == nil {
		return kernel.Fail
	}
	return ctx.Command(proto.DriverRadio, proto.RadioCmdStart, 0, 0)
}

// Reset returns the radio to its initial state.
func Reset(ctx *kernel.Context) kernel.ReturnCode {
	if ctx == nil {
		return kernel.Fail
	}
	return ctx.Command(proto.DriverRadio, proto.RadioCmdReset, 0, 0)
}

// State returns the current bring-up step.
func State(ctx *kernel.Context) (rf233.State, kernel.ReturnCode) {
	if ctx == nil {
		return rf233.StateStart, kernel.Fail
	}
	rc := ctx.Command(proto.DriverRadio, proto.RadioCmdState, 0, 0)
	if !rc.IsSuccess() {
		return rf233.StateStart, rc
	}
	return rf233.State(rc.Value()), kernel.Success
}

// SubscribeReady registers fn to run once the radio is ready.
func SubscribeReady(ctx *kernel.Context, fn func(ctx *kernel.Context, partNum uint8)) kernel.ReturnCode {
	if ctx == nil {
		return kernel.Fail
	}
	if fn == nil {
		return ctx.Subscribe(proto.DriverRadio, proto.RadioSubscribeReady, nil)
	}
	return ctx.Subscribe(proto.DriverRadio, proto.RadioSubscribeReady, func(ctx *kernel.Context, op, part, _ int) {
		if op == proto.RadioOpReady {
			fn(ctx, uint8(part))
		}
	})
}
