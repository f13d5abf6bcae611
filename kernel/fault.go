package kernel

// FaultInfo contains details about a process fault.
type FaultInfo struct {
	Process ProcessID
	Name    string
	Value   any
	Stack   []byte
}

// Fault stops pid without reclaiming its grant records.
//
// Capsules keep their global state; completions routed to a faulted process
// become no-ops.
func (k *Kernel) Fault(pid ProcessID, reason any) bool {
	p := k.proc(pid)
	if p == nil || !p.live() {
		return false
	}
	k.fault(pid, reason, nil)
	return true
}

func (k *Kernel) fault(pid ProcessID, value any, stack []byte) {
	p := &k.procs[pid.index]
	p.state = ProcessFaulted
	p.app = nil
	p.upcalls.reset()
	k.logf("%s (%s) faulted: %v", p.name, pid, value)
	if k.onFault != nil {
		k.onFault(FaultInfo{Process: pid, Name: p.name, Value: value, Stack: stack})
	}
}

// protect runs fn on behalf of pid. A panic faults the process and returns false.
func (k *Kernel) protect(pid ProcessID, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			k.fault(pid, r, captureStack())
			ok = false
		}
	}()
	fn()
	return true
}
