package radioinit

import (
	"testing"

	"ember/capsules/rf233"
	"ember/hal"
	"ember/internal/rf233sim"
	"ember/kernel"
	"ember/proto"
)

func TestBringsUpRadio(t *testing.T) {
	k := kernel.New(nil)
	dev := rf233sim.New(rf233.PartNumRF233)
	r, err := rf233.New(hal.NewSPIDevice(dev, k, nil), nil, nil, rf233.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("rf233.New: %v", err)
	}
	if err := r.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	d, _ := rf233.NewDriver(k, r)
	_ = k.RegisterDriver(proto.DriverRadio, d)

	task := New()
	var hook uint8
	task.OnReady = func(part uint8) { hook = part }
	pid, _ := k.Load("radioinit", task)

	for i := 0; i < 1000 && !task.Ready(); i++ {
		k.Step()
	}
	if !task.Ready() {
		t.Fatalf("radio stuck in %s", r.State())
	}
	if task.PartNum() != rf233.PartNumRF233 || hook != rf233.PartNumRF233 {
		t.Fatalf("part = %#x hook = %#x, want %#x", task.PartNum(), hook, rf233.PartNumRF233)
	}
	if k.State(pid) != kernel.ProcessYielded {
		t.Fatalf("State() = %v, want %v", k.State(pid), kernel.ProcessYielded)
	}
}

func TestExitsWithoutRadio(t *testing.T) {
	k := kernel.New(nil)
	pid, _ := k.Load("radioinit", New())
	k.Step()
	if k.State(pid) != kernel.ProcessTerminated {
		t.Fatalf("State() = %v, want %v", k.State(pid), kernel.ProcessTerminated)
	}
}
