package kernel

import (
	"errors"

	"ember/hal"
)

// ReturnCode is the synchronous result of a syscall, and the result field carried by
// completion upcalls.
//
// Non-negative values are success; positive values carry a value (see SuccessWithValue).
type ReturnCode int32

const (
	Success     ReturnCode = 0
	Fail        ReturnCode = -1
	Busy        ReturnCode = -2
	Already     ReturnCode = -3
	Off         ReturnCode = -4
	Reserve     ReturnCode = -5
	Inval       ReturnCode = -6
	Size        ReturnCode = -7
	Cancel      ReturnCode = -8
	NoMem       ReturnCode = -9
	NoSupport   ReturnCode = -10
	NoDevice    ReturnCode = -11
	Uninstalled ReturnCode = -12
	NoAck       ReturnCode = -13
)

// SuccessWithValue returns a success code carrying v.
//
// A zero value is indistinguishable from Success.
func SuccessWithValue(v uint32) ReturnCode {
	if v > 1<<31-1 {
		v = 1<<31 - 1
	}
	return ReturnCode(v)
}

// IsSuccess reports whether r is Success or a success with value.
func (r ReturnCode) IsSuccess() bool { return r >= 0 }

// Value returns the value carried by a success code, or 0.
func (r ReturnCode) Value() uint32 {
	if r <= 0 {
		return 0
	}
	return uint32(r)
}

func (r ReturnCode) String() string {
	if r > 0 {
		return "success_with_value"
	}
	switch r {
	case Success:
		return "success"
	case Fail:
		return "fail"
	case Busy:
		return "busy"
	case Already:
		return "already"
	case Off:
		return "off"
	case Reserve:
		return "reserve"
	case Inval:
		return "inval"
	case Size:
		return "size"
	case Cancel:
		return "cancel"
	case NoMem:
		return "nomem"
	case NoSupport:
		return "nosupport"
	case NoDevice:
		return "nodevice"
	case Uninstalled:
		return "uninstalled"
	case NoAck:
		return "noack"
	default:
		return "unknown"
	}
}

// ReturnCodeFromError maps a HAL or kernel error onto the code delivered to userspace.
func ReturnCodeFromError(err error) ReturnCode {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, hal.ErrBusy):
		return Busy
	case errors.Is(err, hal.ErrInvalidParameters):
		return Inval
	case errors.Is(err, hal.ErrNotImplemented):
		return NoSupport
	case errors.Is(err, hal.ErrOff):
		return Off
	case errors.Is(err, hal.ErrCanceled):
		return Cancel
	case errors.Is(err, ErrNoMemory):
		return NoMem
	default:
		return Fail
	}
}
