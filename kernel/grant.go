package kernel

import "unsafe"

type grantSlot[T any] struct {
	gen       uint16
	allocated bool
	entered   bool
	v         T
}

// Grant is a capsule's per-process state table.
//
// A record is allocated lazily, charged against the owning process's grant region, on
// the first Enter by that process, and reclaimed when the process terminates. Records
// are only reachable through Enter and Each, one at a time.
type Grant[T any] struct {
	k     *Kernel
	size  int
	slots [MaxProcesses]grantSlot[T]
}

// NewGrant creates a grant owned by k.
func NewGrant[T any](k *Kernel) (*Grant[T], error) {
	var zero T
	g := &Grant[T]{k: k, size: int(unsafe.Sizeof(zero))}
	if err := k.registerGrant(g); err != nil {
		return nil, err
	}
	return g, nil
}

// Enter calls fn with exclusive access to pid's record, allocating it if needed.
func (g *Grant[T]) Enter(pid ProcessID, fn func(*T)) error {
	if !g.k.alive(pid) {
		return ErrNoSuchProcess
	}
	s := &g.slots[pid.index]
	if s.allocated && s.gen != pid.gen {
		g.reclaim(pid.Index())
	}
	if !s.allocated {
		if !g.k.reserveGrant(pid.Index(), g.size) {
			return ErrNoMemory
		}
		s.allocated = true
		s.gen = pid.gen
	}
	if s.entered {
		return ErrAlreadyEntered
	}
	s.entered = true
	defer func() { s.entered = false }()
	fn(&s.v)
	return nil
}

// EnterRC is Enter for syscall handlers: it returns fn's code, or Fail when the
// record cannot be entered.
func (g *Grant[T]) EnterRC(pid ProcessID, fn func(*T) ReturnCode) ReturnCode {
	rc := Fail
	if err := g.Enter(pid, func(v *T) { rc = fn(v) }); err != nil {
		return Fail
	}
	return rc
}

// Each calls fn for every allocated record of a live process. Records currently
// entered are skipped.
func (g *Grant[T]) Each(fn func(ProcessID, *T)) {
	for i := range g.slots {
		s := &g.slots[i]
		if !s.allocated || s.entered {
			continue
		}
		pid := ProcessID{index: uint8(i), gen: s.gen}
		if !g.k.alive(pid) {
			continue
		}
		g.visit(s, pid, fn)
	}
}

func (g *Grant[T]) visit(s *grantSlot[T], pid ProcessID, fn func(ProcessID, *T)) {
	s.entered = true
	defer func() { s.entered = false }()
	fn(pid, &s.v)
}

func (g *Grant[T]) reclaim(index int) {
	g.slots[index] = grantSlot[T]{}
}
