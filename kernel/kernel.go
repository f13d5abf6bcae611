package kernel

import (
	"context"
	"errors"
	"fmt"

	"ember/hal"
)

const (
	// MaxProcesses is the size of the process table.
	MaxProcesses = 8
	// MaxDrivers is the number of syscall drivers that can be registered.
	MaxDrivers = 16
	// MaxGrants is the number of grants that can be created.
	MaxGrants = 16

	// ProcessMemoryBytes is the size of each process's memory region.
	ProcessMemoryBytes = 4096
	// GrantRegionBytes is the part of a process's memory reserved for grant records.
	//
	// It is not addressable by the process.
	GrantRegionBytes = 1024

	upcallSlots = 8
)

var (
	ErrNoSuchProcess    = errors.New("kernel: no such process")
	ErrNoMemory         = errors.New("kernel: grant region exhausted")
	ErrAlreadyEntered   = errors.New("kernel: grant already entered")
	ErrTooManyProcesses = errors.New("kernel: process table full")
	ErrTooManyDrivers   = errors.New("kernel: driver table full")
	ErrTooManyGrants    = errors.New("kernel: grant table full")
)

// App is the program of a userspace process.
//
// Step runs until the process yields or returns. Upcalls are delivered between steps.
type App interface {
	Step(*Context)
}

// ProcessState is the scheduling state of a process slot.
type ProcessState uint8

const (
	ProcessUnused ProcessState = iota
	ProcessRunning
	ProcessYielded
	ProcessFaulted
	ProcessTerminated
)

func (s ProcessState) String() string {
	switch s {
	case ProcessUnused:
		return "unused"
	case ProcessRunning:
		return "running"
	case ProcessYielded:
		return "yielded"
	case ProcessFaulted:
		return "faulted"
	case ProcessTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// ProcessID identifies a loaded process.
//
// It is opaque by construction; an ID of a terminated process never matches the
// process that later reuses its slot.
type ProcessID struct {
	index uint8
	gen   uint16
}

// Valid reports whether the ID was issued by a kernel.
func (p ProcessID) Valid() bool { return p.gen != 0 }

// Index returns the process table slot.
func (p ProcessID) Index() int { return int(p.index) }

func (p ProcessID) String() string {
	if !p.Valid() {
		return "pid(none)"
	}
	return fmt.Sprintf("pid(%d.%d)", p.index, p.gen)
}

type pendingUpcall struct {
	fn         UpcallFn
	r0, r1, r2 int
}

type upcallQueue struct {
	head  uint8
	tail  uint8
	slots [upcallSlots]pendingUpcall
}

func (q *upcallQueue) push(u pendingUpcall) bool {
	if q.head-q.tail >= upcallSlots {
		return false
	}
	q.slots[q.head%upcallSlots] = u
	q.head++
	return true
}

func (q *upcallQueue) pop() (pendingUpcall, bool) {
	if q.tail == q.head {
		return pendingUpcall{}, false
	}
	u := q.slots[q.tail%upcallSlots]
	q.slots[q.tail%upcallSlots] = pendingUpcall{}
	q.tail++
	return u, true
}

func (q *upcallQueue) reset() { *q = upcallQueue{} }

type process struct {
	name      string
	app       App
	gen       uint16
	state     ProcessState
	grantUsed int
	upcalls   upcallQueue
}

func (p *process) live() bool {
	return p.state == ProcessRunning || p.state == ProcessYielded
}

type driverEntry struct {
	num uint32
	drv Driver
}

type grantReclaimer interface {
	reclaim(index int)
}

// Kernel is a cooperative scheduler plus the syscall router for capsules.
//
// All capsule and process code runs on the goroutine that calls Step or Run. Hardware
// adapters deliver completions with Post, which is the only method safe to call from
// other goroutines.
type Kernel struct {
	log hal.Logger

	procs  [MaxProcesses]process
	memory [MaxProcesses][ProcessMemoryBytes]byte
	rr     int

	drivers     [MaxDrivers]driverEntry
	driverCount int

	grants     [MaxGrants]grantReclaimer
	grantCount int

	irq  interruptQueue
	wake chan struct{}

	onFault func(FaultInfo)
}

// New creates a kernel instance. log may be nil.
func New(log hal.Logger) *Kernel {
	return &Kernel{log: log, wake: make(chan struct{}, 1)}
}

// SetLogger replaces the kernel logger. Boards create the kernel before the HAL
// that provides the logger, since the HAL needs the kernel's interrupt queue.
func (k *Kernel) SetLogger(log hal.Logger) {
	k.log = log
}

func (k *Kernel) logf(format string, args ...any) {
	if k.log == nil {
		return
	}
	k.log.WriteLineString("kernel: " + fmt.Sprintf(format, args...))
}

// RegisterDriver binds a syscall driver number.
func (k *Kernel) RegisterDriver(num uint32, d Driver) error {
	if d == nil {
		return fmt.Errorf("kernel: driver %#x: nil driver", num)
	}
	for i := 0; i < k.driverCount; i++ {
		if k.drivers[i].num == num {
			return fmt.Errorf("kernel: driver %#x already registered", num)
		}
	}
	if k.driverCount >= MaxDrivers {
		return ErrTooManyDrivers
	}
	k.drivers[k.driverCount] = driverEntry{num: num, drv: d}
	k.driverCount++
	return nil
}

func (k *Kernel) driver(num uint32) Driver {
	for i := 0; i < k.driverCount; i++ {
		if k.drivers[i].num == num {
			return k.drivers[i].drv
		}
	}
	return nil
}

// Load places app into a free process slot and marks it runnable.
func (k *Kernel) Load(name string, app App) (ProcessID, error) {
	if app == nil {
		return ProcessID{}, fmt.Errorf("kernel: load %q: nil app", name)
	}
	for i := range k.procs {
		p := &k.procs[i]
		if p.state != ProcessUnused && p.state != ProcessTerminated {
			continue
		}
		p.gen++
		if p.gen == 0 {
			p.gen = 1
		}
		p.name = name
		p.app = app
		p.state = ProcessRunning
		p.grantUsed = 0
		p.upcalls.reset()
		clear(k.memory[i][:])
		pid := ProcessID{index: uint8(i), gen: p.gen}
		k.logf("loaded %s as %s", name, pid)
		return pid, nil
	}
	return ProcessID{}, ErrTooManyProcesses
}

// Terminate stops a process and reclaims its grant records.
func (k *Kernel) Terminate(pid ProcessID) bool {
	p := k.proc(pid)
	if p == nil || p.state == ProcessTerminated || p.state == ProcessUnused {
		return false
	}
	p.state = ProcessTerminated
	p.app = nil
	p.upcalls.reset()
	for i := 0; i < k.grantCount; i++ {
		k.grants[i].reclaim(pid.Index())
	}
	k.logf("terminated %s (%s)", p.name, pid)
	return true
}

// State returns the state of pid, or ProcessUnused if pid is stale.
func (k *Kernel) State(pid ProcessID) ProcessState {
	p := k.proc(pid)
	if p == nil {
		return ProcessUnused
	}
	return p.state
}

// SetFaultHandler installs a hook called after a process faults.
func (k *Kernel) SetFaultHandler(fn func(FaultInfo)) {
	k.onFault = fn
}

func (k *Kernel) proc(pid ProcessID) *process {
	if !pid.Valid() || int(pid.index) >= MaxProcesses {
		return nil
	}
	p := &k.procs[pid.index]
	if p.gen != pid.gen {
		return nil
	}
	return p
}

func (k *Kernel) alive(pid ProcessID) bool {
	p := k.proc(pid)
	return p != nil && p.live()
}

func (k *Kernel) reserveGrant(index, size int) bool {
	p := &k.procs[index]
	if p.grantUsed+size > GrantRegionBytes {
		return false
	}
	p.grantUsed += size
	return true
}

func (k *Kernel) registerGrant(g grantReclaimer) error {
	if k.grantCount >= MaxGrants {
		return ErrTooManyGrants
	}
	k.grants[k.grantCount] = g
	k.grantCount++
	return nil
}

func (k *Kernel) scheduleUpcall(pid ProcessID, u pendingUpcall) bool {
	p := k.proc(pid)
	if p == nil || !p.live() {
		return false
	}
	if !p.upcalls.push(u) {
		k.logf("%s: upcall queue full, dropped", pid)
		return false
	}
	k.signal()
	return true
}

func (k *Kernel) signal() {
	select {
	case k.wake <- struct{}{}:
	default:
	}
}

// Step services pending interrupts, then runs at most one process: a queued upcall
// takes priority over the process's own step. It reports whether any work was done.
func (k *Kernel) Step() bool {
	worked := k.serviceInterrupts()

	for i := 0; i < MaxProcesses; i++ {
		idx := (k.rr + i) % MaxProcesses
		p := &k.procs[idx]
		if !p.live() {
			continue
		}
		pid := ProcessID{index: uint8(idx), gen: p.gen}
		if u, ok := p.upcalls.pop(); ok {
			k.rr = (idx + 1) % MaxProcesses
			p.state = ProcessRunning
			k.deliver(pid, u)
			return true
		}
		if p.state == ProcessRunning {
			k.rr = (idx + 1) % MaxProcesses
			k.runStep(pid)
			return true
		}
	}
	return worked
}

// Run steps the kernel until ctx is done, sleeping while idle.
func (k *Kernel) Run(ctx context.Context) error {
	return k.run(ctx, 0)
}

// RunSteps is Run that returns nil after n steps that did work.
func (k *Kernel) RunSteps(ctx context.Context, n uint64) error {
	if n == 0 {
		return nil
	}
	return k.run(ctx, n)
}

func (k *Kernel) run(ctx context.Context, limit uint64) error {
	var steps uint64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if k.Step() {
			steps++
			if limit != 0 && steps >= limit {
				return nil
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-k.wake:
		}
	}
}

func (k *Kernel) runStep(pid ProcessID) {
	p := &k.procs[pid.index]
	ctx := &Context{k: k, pid: pid}
	if !k.protect(pid, func() { p.app.Step(ctx) }) {
		return
	}
	switch {
	case ctx.exited:
		k.Terminate(pid)
	case ctx.yielded && p.state == ProcessRunning:
		p.state = ProcessYielded
	}
}

func (k *Kernel) deliver(pid ProcessID, u pendingUpcall) {
	ctx := &Context{k: k, pid: pid}
	if !k.protect(pid, func() { u.fn(ctx, u.r0, u.r1, u.r2) }) {
		return
	}
	if ctx.exited {
		k.Terminate(pid)
		return
	}
	// A process resumes from its yield after an upcall; it yields again when its
	// next step asks to.
	if p := k.proc(pid); p != nil && p.state == ProcessRunning && ctx.yielded {
		p.state = ProcessYielded
	}
}
