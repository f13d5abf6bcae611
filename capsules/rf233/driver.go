package rf233

import (
	"fmt"

	"ember/kernel"
	"ember/proto"
)

type app struct {
	ready kernel.Upcall
}

// Driver exposes bring-up to processes.
type Driver struct {
	radio *Radio
	apps  *kernel.Grant[app]
}

// NewDriver wraps radio and becomes its ready listener.
func NewDriver(k *kernel.Kernel, radio *Radio) (*Driver, error) {
	apps, err := kernel.NewGrant[app](k)
	if err != nil {
		return nil, fmt.Errorf("rf233: grant: %w", err)
	}
	d := &Driver{radio: radio, apps: apps}
	radio.SetClient(d)
	return d, nil
}

func (d *Driver) Allow(pid kernel.ProcessID, allowNum int, slice kernel.AppSlice) kernel.ReturnCode {
	return kernel.NoSupport
}

func (d *Driver) Subscribe(subscribeNum int, upcall kernel.Upcall, pid kernel.ProcessID) kernel.ReturnCode {
	if subscribeNum != proto.RadioSubscribeReady {
		return kernel.NoSupport
	}
	return d.apps.EnterRC(pid, func(a *app) kernel.ReturnCode {
		a.ready = upcall
		return kernel.Success
	})
}

func (d *Driver) Command(commandNum, arg0, arg1 int, pid kernel.ProcessID) kernel.ReturnCode {
	switch commandNum {
	case proto.RadioCmdPresent:
		return kernel.Success
	case proto.RadioCmdStart:
		return d.radio.Start()
	case proto.RadioCmdState:
		return kernel.SuccessWithValue(uint32(d.radio.State()))
	case proto.RadioCmdReset:
		return kernel.ReturnCodeFromError(d.radio.Reset())
	default:
		return kernel.NoSupport
	}
}

// RadioReady implements Client.
func (d *Driver) RadioReady(partNum uint8) {
	d.apps.Each(func(_ kernel.ProcessID, a *app) {
		a.ready.Schedule(proto.RadioOpReady, int(partNum), 0)
	})
}
