package kernel

// Context is a process's view of the kernel: its memory and the syscall surface.
type Context struct {
	k       *Kernel
	pid     ProcessID
	yielded bool
	exited  bool
}

// Context returns a syscall context for pid, for boards and tests that act on a
// process's behalf outside the scheduler.
func (k *Kernel) Context(pid ProcessID) *Context {
	return &Context{k: k, pid: pid}
}

// ProcessID returns the calling process.
func (c *Context) ProcessID() ProcessID { return c.pid }

// Memory returns the process-addressable part of the process's memory region.
func (c *Context) Memory() []byte {
	if c.k == nil || !c.k.alive(c.pid) {
		return nil
	}
	return c.k.memory[c.pid.index][:ProcessMemoryBytes-GrantRegionBytes]
}

// Allow shares memory[off:off+n] with a driver slot. n == 0 unshares the slot.
func (c *Context) Allow(driverNum uint32, allowNum, off, n int) ReturnCode {
	if c.k == nil {
		return Fail
	}
	return c.k.allow(c.pid, driverNum, allowNum, off, n)
}

// Unallow unbinds a driver slot.
func (c *Context) Unallow(driverNum uint32, allowNum int) ReturnCode {
	return c.Allow(driverNum, allowNum, 0, 0)
}

// Subscribe registers fn as the handler for a driver notification. A nil fn
// unsubscribes.
func (c *Context) Subscribe(driverNum uint32, subscribeNum int, fn UpcallFn) ReturnCode {
	if c.k == nil {
		return Fail
	}
	return c.k.subscribe(c.pid, driverNum, subscribeNum, fn)
}

// Command issues a driver command.
func (c *Context) Command(driverNum uint32, commandNum, arg0, arg1 int) ReturnCode {
	if c.k == nil {
		return Fail
	}
	return c.k.command(c.pid, driverNum, commandNum, arg0, arg1)
}

// Yield parks the process until an upcall is delivered.
func (c *Context) Yield() { c.yielded = true }

// Exit terminates the process when the current step or upcall returns.
func (c *Context) Exit() { c.exited = true }
