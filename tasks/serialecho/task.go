package serialecho

import (
	serialclient "ember/client/serialization"
	"ember/kernel"
	"ember/proto"
)

const (
	rxOff = 0
	txOff = proto.SerialFrameMax
)

// Task echoes every frame received from the co-processor link back to it.
type Task struct {
	started bool

	// queued is the length of a frame waiting for the transmit buffer.
	queued int

	echoed  int
	dropped int
}

// New returns an echo task.
func New() *Task {
	return &Task{}
}

// Echoed returns the number of frames sent back.
func (t *Task) Echoed() int { return t.echoed }

// Dropped returns the number of frames lost because a previous echo was pending.
func (t *Task) Dropped() int { return t.dropped }

func (t *Task) Step(ctx *kernel.Context) {
	defer ctx.Yield()
	if t.started {
		return
	}
	t.started = true
	if !serialclient.Present(ctx) {
		ctx.Exit()
		return
	}
	if rc := serialclient.Subscribe(ctx, t.handle); rc != kernel.Success {
		ctx.Exit()
		return
	}
	if rc := serialclient.ShareReceive(ctx, rxOff, proto.SerialFrameMax); rc != kernel.Success {
		ctx.Exit()
	}
}

func (t *Task) handle(ctx *kernel.Context, e serialclient.Event) {
	defer ctx.Yield()
	switch {
	case e.Received():
		if !e.Result.IsSuccess() || e.Len == 0 {
			return
		}
		n := e.Len
		if n > proto.SerialFrameMax {
			n = proto.SerialFrameMax
		}
		if t.queued != 0 {
			t.dropped++
			return
		}
		mem := ctx.Memory()
		copy(mem[txOff:txOff+n], mem[rxOff:rxOff+n])
		t.queued = n
		t.flush(ctx)
	case e.Transmitted():
		t.queued = 0
		t.echoed++
	}
}

func (t *Task) flush(ctx *kernel.Context) {
	if rc := serialclient.ShareTransmit(ctx, txOff, t.queued); rc != kernel.Success {
		t.queued = 0
		t.dropped++
		return
	}
	if rc := serialclient.Send(ctx); rc != kernel.Success {
		t.queued = 0
		t.dropped++
	}
}
