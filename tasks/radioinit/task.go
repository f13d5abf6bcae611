package radioinit

import (
	radioclient "ember/client/radio"
	"ember/kernel"
)

// Task starts radio bring-up and waits for the ready notification.
type Task struct {
	started bool
	ready   bool
	partNum uint8

	// OnReady, if set, runs in the task's context once the radio is ready.
	OnReady func(partNum uint8)
}

// New returns a bring-up task.
func New() *Task {
	return &Task{}
}

// Ready reports whether the ready notification has arrived.
func (t *Task) Ready() bool { return t.ready }

// PartNum returns the part number from the ready notification.
func (t *Task) PartNum() uint8 { return t.partNum }

func (t *Task) Step(ctx *kernel.Context) {
	defer ctx.Yield()
	if t.started {
		return
	}
	t.started = true
	if !radioclient.Present(ctx) {
		ctx.Exit()
		return
	}
	if rc := radioclient.SubscribeReady(ctx, t.handleReady); rc != kernel.Success {
		ctx.Exit()
		return
	}
	switch rc := radioclient.Start(ctx); rc {
	case kernel.Success, kernel.Busy:
	case kernel.Already:
		// Brought up before this process loaded; no notification will follow.
		t.ready = true
	default:
		ctx.Exit()
	}
}

func (t *Task) handleReady(ctx *kernel.Context, partNum uint8) {
	defer ctx.Yield()
	t.ready = true
	t.partNum = partNum
	if t.OnReady != nil {
		t.OnReady(partNum)
	}
}
