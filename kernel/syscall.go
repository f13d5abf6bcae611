package kernel

// Driver is the syscall surface of a capsule.
//
// Every method must be non-blocking, must reject unknown ids with NoSupport, and must
// be safe to call from any process while another process's operation is in flight.
type Driver interface {
	// Allow binds a region of the calling process's memory to slot allowNum. A slice
	// that is not Valid unbinds the slot.
	Allow(pid ProcessID, allowNum int, slice AppSlice) ReturnCode

	// Subscribe stores a notification handle. An upcall that is not Valid unsubscribes.
	Subscribe(subscribeNum int, upcall Upcall, pid ProcessID) ReturnCode

	// Command triggers an immediate action. Completion, if any, arrives as an upcall.
	Command(commandNum int, arg0, arg1 int, pid ProcessID) ReturnCode
}

// AppSlice is a bounds-checked view into a process's own memory.
//
// The kernel never hands out the underlying bytes except for the duration of Map,
// and Map fails once the process is gone.
type AppSlice struct {
	k   *Kernel
	pid ProcessID
	off int
	n   int
}

// Valid reports whether the slice refers to a region.
func (s AppSlice) Valid() bool { return s.k != nil && s.n > 0 }

// Len returns the region length.
func (s AppSlice) Len() int {
	if !s.Valid() {
		return 0
	}
	return s.n
}

// ProcessID returns the process that shared the region.
func (s AppSlice) ProcessID() ProcessID { return s.pid }

// Map lends the region to fn. It returns false if the region is unbound or the
// process no longer exists.
func (s AppSlice) Map(fn func(b []byte)) bool {
	if !s.Valid() || !s.k.alive(s.pid) {
		return false
	}
	mem := s.k.memory[s.pid.index][:]
	fn(mem[s.off : s.off+s.n : s.off+s.n])
	return true
}

// UpcallFn is a process's notification handler. It runs in the process's context.
type UpcallFn func(ctx *Context, r0, r1, r2 int)

// Upcall is a registered notification handle.
type Upcall struct {
	k      *Kernel
	pid    ProcessID
	driver uint32
	num    int
	fn     UpcallFn
}

// Valid reports whether the handle refers to a handler.
func (u Upcall) Valid() bool { return u.k != nil && u.fn != nil }

// ProcessID returns the process that registered the handle.
func (u Upcall) ProcessID() ProcessID { return u.pid }

// Schedule queues the upcall for delivery. It returns false if the handle is empty,
// the process is gone, or its upcall queue is full.
func (u Upcall) Schedule(r0, r1, r2 int) bool {
	if !u.Valid() {
		return false
	}
	return u.k.scheduleUpcall(u.pid, pendingUpcall{fn: u.fn, r0: r0, r1: r1, r2: r2})
}

func (k *Kernel) allow(pid ProcessID, driverNum uint32, allowNum, off, n int) ReturnCode {
	if !k.alive(pid) {
		return Fail
	}
	d := k.driver(driverNum)
	if d == nil {
		return NoDevice
	}
	if off < 0 || n < 0 || off+n > ProcessMemoryBytes-GrantRegionBytes {
		return Inval
	}
	var s AppSlice
	if n > 0 {
		s = AppSlice{k: k, pid: pid, off: off, n: n}
	}
	return d.Allow(pid, allowNum, s)
}

func (k *Kernel) subscribe(pid ProcessID, driverNum uint32, subscribeNum int, fn UpcallFn) ReturnCode {
	if !k.alive(pid) {
		return Fail
	}
	d := k.driver(driverNum)
	if d == nil {
		return NoDevice
	}
	var u Upcall
	if fn != nil {
		u = Upcall{k: k, pid: pid, driver: driverNum, num: subscribeNum, fn: fn}
	}
	return d.Subscribe(subscribeNum, u, pid)
}

func (k *Kernel) command(pid ProcessID, driverNum uint32, commandNum, arg0, arg1 int) ReturnCode {
	if !k.alive(pid) {
		return Fail
	}
	d := k.driver(driverNum)
	if d == nil {
		return NoDevice
	}
	return d.Command(commandNum, arg0, arg1, pid)
}
