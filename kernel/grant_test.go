package kernel

import (
	"errors"
	"testing"
)

type idleApp struct{}

func (idleApp) Step(ctx *Context) { ctx.Yield() }

type counter struct {
	n int
}

func mustLoad(t *testing.T, k *Kernel, name string) ProcessID {
	t.Helper()
	pid, err := k.Load(name, idleApp{})
	if err != nil {
		t.Fatalf("Load(%q): %v", name, err)
	}
	return pid
}

func TestGrantLazyAllocation(t *testing.T) {
	k := New(nil)
	g, err := NewGrant[counter](k)
	if err != nil {
		t.Fatalf("NewGrant: %v", err)
	}
	a := mustLoad(t, k, "a")

	if used := k.procs[a.index].grantUsed; used != 0 {
		t.Fatalf("grantUsed before Enter = %d, want 0", used)
	}
	if err := g.Enter(a, func(c *counter) { c.n++ }); err != nil {
		t.Fatalf("Enter: %v", err)
	}
	if used := k.procs[a.index].grantUsed; used != g.size {
		t.Fatalf("grantUsed after Enter = %d, want %d", used, g.size)
	}
	if err := g.Enter(a, func(c *counter) {
		if c.n != 1 {
			t.Fatalf("record n = %d, want 1", c.n)
		}
	}); err != nil {
		t.Fatalf("second Enter: %v", err)
	}
	if used := k.procs[a.index].grantUsed; used != g.size {
		t.Fatalf("grantUsed after second Enter = %d, want %d", used, g.size)
	}
}

func TestGrantIsolatesProcesses(t *testing.T) {
	k := New(nil)
	g, _ := NewGrant[counter](k)
	a := mustLoad(t, k, "a")
	b := mustLoad(t, k, "b")

	_ = g.Enter(a, func(c *counter) { c.n = 7 })
	_ = g.Enter(b, func(c *counter) {
		if c.n != 0 {
			t.Fatalf("b sees n = %d, want 0", c.n)
		}
	})
}

func TestGrantNestedEnter(t *testing.T) {
	k := New(nil)
	g, _ := NewGrant[counter](k)
	a := mustLoad(t, k, "a")

	var inner error
	if err := g.Enter(a, func(*counter) {
		inner = g.Enter(a, func(*counter) {})
	}); err != nil {
		t.Fatalf("outer Enter: %v", err)
	}
	if !errors.Is(inner, ErrAlreadyEntered) {
		t.Fatalf("nested Enter = %v, want ErrAlreadyEntered", inner)
	}
	if err := g.Enter(a, func(*counter) {}); err != nil {
		t.Fatalf("Enter after nested attempt: %v", err)
	}
}

func TestGrantNoMemory(t *testing.T) {
	type big struct{ b [GrantRegionBytes/2 + 1]byte }

	k := New(nil)
	g1, _ := NewGrant[big](k)
	g2, _ := NewGrant[big](k)
	a := mustLoad(t, k, "a")

	if err := g1.Enter(a, func(*big) {}); err != nil {
		t.Fatalf("first grant Enter: %v", err)
	}
	if err := g2.Enter(a, func(*big) {}); !errors.Is(err, ErrNoMemory) {
		t.Fatalf("second grant Enter = %v, want ErrNoMemory", err)
	}
	if rc := g2.EnterRC(a, func(*big) ReturnCode { return Success }); rc != Fail {
		t.Fatalf("EnterRC() = %v, want %v", rc, Fail)
	}

	// Another process has its own region.
	b := mustLoad(t, k, "b")
	if err := g2.Enter(b, func(*big) {}); err != nil {
		t.Fatalf("Enter for b: %v", err)
	}
}

func TestGrantReclaimedOnTerminate(t *testing.T) {
	k := New(nil)
	g, _ := NewGrant[counter](k)
	a := mustLoad(t, k, "a")
	_ = g.Enter(a, func(c *counter) { c.n = 5 })

	if !k.Terminate(a) {
		t.Fatal("Terminate() = false, want true")
	}
	if err := g.Enter(a, func(*counter) {}); !errors.Is(err, ErrNoSuchProcess) {
		t.Fatalf("Enter after Terminate = %v, want ErrNoSuchProcess", err)
	}

	// The slot is reused with a fresh record.
	a2 := mustLoad(t, k, "a2")
	if a2.Index() != a.Index() || a2 == a {
		t.Fatalf("reload = %v, want same slot as %v with a new generation", a2, a)
	}
	_ = g.Enter(a2, func(c *counter) {
		if c.n != 0 {
			t.Fatalf("reused slot sees n = %d, want 0", c.n)
		}
	})
}

func TestGrantEach(t *testing.T) {
	k := New(nil)
	g, _ := NewGrant[counter](k)
	a := mustLoad(t, k, "a")
	b := mustLoad(t, k, "b")
	c := mustLoad(t, k, "c")
	_ = g.Enter(a, func(r *counter) { r.n = 1 })
	_ = g.Enter(b, func(r *counter) { r.n = 2 })
	k.Fault(b, "test")

	seen := map[ProcessID]int{}
	g.Each(func(pid ProcessID, r *counter) { seen[pid] = r.n })
	if len(seen) != 1 || seen[a] != 1 {
		t.Fatalf("Each visited %v, want only %v", seen, a)
	}
	if _, ok := seen[c]; ok {
		t.Fatal("Each visited a process with no record")
	}

	// A panicking visitor leaves the record enterable.
	func() {
		defer func() { _ = recover() }()
		g.Each(func(ProcessID, *counter) { panic("boom") })
	}()
	if err := g.Enter(a, func(*counter) {}); err != nil {
		t.Fatalf("Enter after panicking Each: %v", err)
	}
}
