package app

import (
	"fmt"
	"strings"

	"ember/hal"
	"ember/kernel"
)

// installFaultHandler logs process faults with their stacks. The faulted process
// stays stopped; the rest of the board keeps running.
func installFaultHandler(k *kernel.Kernel, l hal.Logger) {
	k.SetFaultHandler(func(info kernel.FaultInfo) {
		if l == nil {
			return
		}
		l.WriteLineString(fmt.Sprintf("ember fault: process=%s %s panic=%v", info.Name, info.Process, info.Value))
		if len(info.Stack) == 0 {
			l.WriteLineString("stack: unavailable")
			return
		}
		for _, line := range strings.Split(string(info.Stack), "\n") {
			if line == "" {
				continue
			}
			l.WriteLineString(line)
		}
	})
}
