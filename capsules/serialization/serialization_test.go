package serialization

import (
	"bytes"
	"errors"
	"testing"

	"ember/hal"
	"ember/kernel"
	"ember/proto"
)

// fakeUART holds whatever buffers the capsule lends it until the test completes them.
type fakeUART struct {
	params hal.UARTParameters

	txBuf   []byte
	txN     int
	txCalls int
	txErr   error

	rxBuf   []byte
	rxN     int
	rxIdle  uint32
	rxCalls int
	rxErr   error
}

func (u *fakeUART) Configure(p hal.UARTParameters) error     { u.params = p; return nil }
func (u *fakeUART) SetTransmitClient(hal.UARTTransmitClient) {}
func (u *fakeUART) SetReceiveClient(hal.UARTReceiveClient)   {}

func (u *fakeUART) TransmitBuffer(buf []byte, n int) ([]byte, error) {
	u.txCalls++
	if u.txErr != nil {
		return buf, u.txErr
	}
	if u.txBuf != nil {
		return buf, hal.ErrBusy
	}
	u.txBuf, u.txN = buf, n
	return nil, nil
}

func (u *fakeUART) ReceiveAutomatic(buf []byte, n int, idle uint32) ([]byte, error) {
	u.rxCalls++
	if u.rxErr != nil {
		return buf, u.rxErr
	}
	if u.rxBuf != nil {
		return buf, hal.ErrBusy
	}
	u.rxBuf, u.rxN, u.rxIdle = buf, n, idle
	return nil, nil
}

// deliver writes data into the outstanding receive buffer and completes it.
func (u *fakeUART) deliver(c *Capsule, data []byte) {
	buf := u.rxBuf
	u.rxBuf = nil
	n := copy(buf, data)
	c.ReceivedBuffer(buf, n, nil, hal.UARTErrorNone)
}

func (u *fakeUART) finishTx(c *Capsule, err error) {
	buf, n := u.txBuf, u.txN
	u.txBuf = nil
	c.TransmittedBuffer(buf, n, err)
}

type event struct {
	op, arg, rc int
}

type idleApp struct{}

func (idleApp) Step(ctx *kernel.Context) { ctx.Yield() }

type rig struct {
	k    *kernel.Kernel
	uart *fakeUART
	pin  hal.GPIOPin
	c    *Capsule
}

func newRig(t *testing.T) *rig {
	t.Helper()
	k := kernel.New(nil)
	uart := &fakeUART{}
	pin := hal.NewVirtualPin("NRF_RESET")
	c, err := New(k, uart, pin, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := k.RegisterDriver(proto.DriverSerialization, c); err != nil {
		t.Fatalf("RegisterDriver: %v", err)
	}
	return &rig{k: k, uart: uart, pin: pin, c: c}
}

// load starts a process and subscribes it, collecting its events.
func (r *rig) load(t *testing.T, name string) (*kernel.Context, *[]event) {
	t.Helper()
	pid, err := r.k.Load(name, idleApp{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	events := &[]event{}
	ctx := r.k.Context(pid)
	rc := ctx.Subscribe(proto.DriverSerialization, proto.SerialSubscribeEvents, func(_ *kernel.Context, op, arg, rc int) {
		*events = append(*events, event{op, arg, rc})
	})
	if rc != kernel.Success {
		t.Fatalf("Subscribe() = %v, want %v", rc, kernel.Success)
	}
	return ctx, events
}

func (r *rig) drain() {
	for r.k.Step() {
	}
}

func TestReceiveEndToEnd(t *testing.T) {
	r := newRig(t)
	a, events := r.load(t, "a")

	if r.c.Receiving() {
		t.Fatal("receive armed before a region was shared")
	}
	if rc := a.Allow(proto.DriverSerialization, proto.SerialAllowRx, 0, 600); rc != kernel.Success {
		t.Fatalf("Allow(rx) = %v, want %v", rc, kernel.Success)
	}
	if r.uart.rxBuf == nil || r.uart.rxN != BufferLen || r.uart.rxIdle != IdleBits {
		t.Fatalf("receive armed with n=%d idle=%d, want %d, %d", r.uart.rxN, r.uart.rxIdle, BufferLen, IdleBits)
	}

	frame := bytes.Repeat([]byte{0xA5}, 120)
	r.uart.deliver(r.c, frame)

	if !bytes.Equal(a.Memory()[:120], frame) {
		t.Fatal("region does not hold the received frame")
	}
	if a.Memory()[120] != 0 {
		t.Fatal("copy overran the frame")
	}
	if r.uart.rxBuf == nil || !r.c.Receiving() {
		t.Fatal("receive not restarted before the completion returned")
	}

	r.drain()
	if len(*events) != 1 || (*events)[0] != (event{proto.SerialOpRx, 120, 0}) {
		t.Fatalf("events = %v, want [{4 120 0}]", *events)
	}
	if rc := a.Command(proto.DriverSerialization, proto.SerialCmdReceived, 0, 0); rc.Value() != 120 {
		t.Fatalf("Command(received) = %v, want 120", rc)
	}
}

func TestReceiveTruncatesToRegion(t *testing.T) {
	r := newRig(t)
	a, events := r.load(t, "a")
	_ = a.Allow(proto.DriverSerialization, proto.SerialAllowRx, 0, 50)

	frame := make([]byte, 200)
	for i := range frame {
		frame[i] = byte(i + 1)
	}
	r.uart.deliver(r.c, frame)
	r.drain()

	mem := a.Memory()
	if !bytes.Equal(mem[:50], frame[:50]) {
		t.Fatal("region does not hold the frame prefix")
	}
	if mem[50] != 0 {
		t.Fatalf("byte past region = %d, want 0", mem[50])
	}
	if len(*events) != 1 || (*events)[0].arg != 200 {
		t.Fatalf("events = %v, want wire length 200", *events)
	}
}

func TestReceiveWaitsForHandleAndRegion(t *testing.T) {
	r := newRig(t)
	pid, _ := r.k.Load("a", idleApp{})
	ctx := r.k.Context(pid)

	_ = ctx.Allow(proto.DriverSerialization, proto.SerialAllowRx, 0, 64)
	if r.c.Receiving() {
		t.Fatal("receive armed without a notification handle")
	}
	_ = ctx.Subscribe(proto.DriverSerialization, proto.SerialSubscribeEvents, func(*kernel.Context, int, int, int) {})
	if !r.c.Receiving() {
		t.Fatal("receive not armed once handle and region exist")
	}
	// A second process does not arm a second receive.
	b, _ := r.load(t, "b")
	_ = b.Allow(proto.DriverSerialization, proto.SerialAllowRx, 0, 64)
	if r.uart.rxCalls != 1 {
		t.Fatalf("ReceiveAutomatic calls = %d, want 1", r.uart.rxCalls)
	}
}

func TestReceiveLineErrorReported(t *testing.T) {
	r := newRig(t)
	a, events := r.load(t, "a")
	_ = a.Allow(proto.DriverSerialization, proto.SerialAllowRx, 0, 16)

	buf := r.uart.rxBuf
	r.uart.rxBuf = nil
	r.c.ReceivedBuffer(buf, 3, nil, hal.UARTErrorParity)
	r.drain()
	if len(*events) != 1 || (*events)[0].rc != int(kernel.Fail) {
		t.Fatalf("events = %v, want one rx event with result %d", *events, kernel.Fail)
	}
}

func TestReceiveStopsWhenLineGoesOff(t *testing.T) {
	r := newRig(t)
	a, events := r.load(t, "a")
	_ = a.Allow(proto.DriverSerialization, proto.SerialAllowRx, 0, 16)

	buf := r.uart.rxBuf
	r.uart.rxBuf = nil
	r.uart.rxErr = hal.ErrOff
	r.c.ReceivedBuffer(buf, 0, hal.ErrOff, hal.UARTErrorNone)
	r.drain()

	if len(*events) != 1 || (*events)[0] != (event{proto.SerialOpRx, 0, int(kernel.Off)}) {
		t.Fatalf("events = %v, want one rx event with result %d", *events, kernel.Off)
	}
	if r.uart.rxCalls != 2 {
		t.Fatalf("ReceiveAutomatic calls = %d, want 2", r.uart.rxCalls)
	}
	if r.c.Receiving() {
		t.Fatal("Receiving() = true after the line went off")
	}
}

func TestTransmitWithoutRegionFails(t *testing.T) {
	r := newRig(t)
	b, _ := r.load(t, "b")
	_ = b.Allow(proto.DriverSerialization, proto.SerialAllowRx, 0, 600)

	if rc := b.Command(proto.DriverSerialization, proto.SerialCmdTransmit, 0, 0); rc != kernel.Fail {
		t.Fatalf("Command(transmit) = %v, want %v", rc, kernel.Fail)
	}
	if r.uart.txCalls != 0 {
		t.Fatalf("TransmitBuffer calls = %d, want 0", r.uart.txCalls)
	}
	if r.c.Transmitting() {
		t.Fatal("transmit buffer left the capsule")
	}
}

func TestTransmitEndToEnd(t *testing.T) {
	r := newRig(t)
	a, events := r.load(t, "a")
	copy(a.Memory()[1000:], "ping")
	_ = a.Allow(proto.DriverSerialization, proto.SerialAllowTx, 1000, 4)

	if rc := a.Command(proto.DriverSerialization, proto.SerialCmdTransmit, 0, 0); rc != kernel.Success {
		t.Fatalf("Command(transmit) = %v, want %v", rc, kernel.Success)
	}
	if got := string(r.uart.txBuf[:r.uart.txN]); got != "ping" {
		t.Fatalf("transmitted %q, want %q", got, "ping")
	}
	if rc := a.Command(proto.DriverSerialization, proto.SerialCmdTransmit, 0, 0); rc != kernel.Busy {
		t.Fatalf("Command(transmit) while in flight = %v, want %v", rc, kernel.Busy)
	}

	r.uart.finishTx(r.c, nil)
	r.drain()
	if len(*events) != 1 || (*events)[0] != (event{proto.SerialOpTxDone, 0, 0}) {
		t.Fatalf("events = %v, want [{1 0 0}]", *events)
	}
	if r.c.Transmitting() {
		t.Fatal("transmit buffer not reclaimed")
	}
}

func TestTransmitTruncatesToBuffer(t *testing.T) {
	r := newRig(t)
	a, _ := r.load(t, "a")
	_ = a.Allow(proto.DriverSerialization, proto.SerialAllowTx, 0, 900)
	_ = a.Command(proto.DriverSerialization, proto.SerialCmdTransmit, 0, 0)
	if r.uart.txN != BufferLen {
		t.Fatalf("transmit length = %d, want %d", r.uart.txN, BufferLen)
	}
}

func TestTransmitRefusedReclaimsBuffer(t *testing.T) {
	r := newRig(t)
	a, _ := r.load(t, "a")
	_ = a.Allow(proto.DriverSerialization, proto.SerialAllowTx, 0, 8)
	r.uart.txErr = hal.ErrOff

	if rc := a.Command(proto.DriverSerialization, proto.SerialCmdTransmit, 0, 0); rc != kernel.Fail {
		t.Fatalf("Command(transmit) = %v, want %v", rc, kernel.Fail)
	}
	if r.c.Transmitting() {
		t.Fatal("refused buffer not reclaimed")
	}
}

// Completions go to whichever process shared memory last, not to the process that
// issued the request.
func TestCompletionRoutedToActiveProcess(t *testing.T) {
	r := newRig(t)
	a, aEvents := r.load(t, "a")
	b, bEvents := r.load(t, "b")

	_ = a.Allow(proto.DriverSerialization, proto.SerialAllowTx, 0, 4)
	_ = a.Command(proto.DriverSerialization, proto.SerialCmdTransmit, 0, 0)
	_ = b.Allow(proto.DriverSerialization, proto.SerialAllowTx, 0, 4)
	if pid, _ := r.c.ActiveProcess(); pid != b.ProcessID() {
		t.Fatalf("ActiveProcess() = %v, want %v", pid, b.ProcessID())
	}

	r.uart.finishTx(r.c, nil)
	r.drain()
	if len(*aEvents) != 0 {
		t.Fatalf("issuer events = %v, want none", *aEvents)
	}
	if len(*bEvents) != 1 || (*bEvents)[0].op != proto.SerialOpTxDone {
		t.Fatalf("active process events = %v, want one tx-done", *bEvents)
	}
}

func TestCompletionForTerminatedProcessIsNoop(t *testing.T) {
	r := newRig(t)
	a, _ := r.load(t, "a")
	_ = a.Allow(proto.DriverSerialization, proto.SerialAllowRx, 0, 16)
	r.k.Terminate(a.ProcessID())

	r.uart.deliver(r.c, []byte("late"))
	if !r.c.Receiving() {
		t.Fatal("receive not restarted after completion for a dead process")
	}
}

func TestResetPulse(t *testing.T) {
	pin := &recordingPin{}
	c, err := New(kernel.New(nil), &fakeUART{}, pin, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	want := "out " + "0 0 0 0 0 0 0 0 0 0 0 " + "1"
	if got := pin.trace(); got != want {
		t.Fatalf("reset trace = %q, want %q", got, want)
	}

	noPin, _ := New(kernel.New(nil), &fakeUART{}, nil, nil)
	if err := noPin.Reset(); !errors.Is(err, hal.ErrNotImplemented) {
		t.Fatalf("Reset() without pin = %v, want ErrNotImplemented", err)
	}
}

func TestResetCommand(t *testing.T) {
	r := newRig(t)
	a, _ := r.load(t, "a")
	if rc := a.Command(proto.DriverSerialization, proto.SerialCmdReset, 0, 0); rc != kernel.Success {
		t.Fatalf("Command(reset) = %v, want %v", rc, kernel.Success)
	}
	if level, _ := r.pin.Read(); !level {
		t.Fatal("reset pin left low")
	}
}

func TestInitializeLine(t *testing.T) {
	r := newRig(t)
	if err := r.c.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	p := r.uart.params
	if p.BaudRate != 250000 || p.Width != hal.UARTWidthEight || p.StopBits != hal.UARTStopBitsOne ||
		p.Parity != hal.UARTParityEven || !p.HWFlowControl {
		t.Fatalf("line parameters = %+v", p)
	}
}

func TestUnknownIDs(t *testing.T) {
	r := newRig(t)
	a, _ := r.load(t, "a")

	if rc := a.Command(proto.DriverSerialization, proto.SerialCmdPresent, 0, 0); rc != kernel.Success {
		t.Fatalf("Command(present) = %v, want %v", rc, kernel.Success)
	}
	if rc := a.Command(proto.DriverSerialization, 7, 0, 0); rc != kernel.NoSupport {
		t.Fatalf("Command(7) = %v, want %v", rc, kernel.NoSupport)
	}
	if rc := a.Allow(proto.DriverSerialization, 2, 0, 4); rc != kernel.NoSupport {
		t.Fatalf("Allow(2) = %v, want %v", rc, kernel.NoSupport)
	}
	if rc := a.Subscribe(proto.DriverSerialization, 1, func(*kernel.Context, int, int, int) {}); rc != kernel.NoSupport {
		t.Fatalf("Subscribe(1) = %v, want %v", rc, kernel.NoSupport)
	}
}

type recordingPin struct {
	steps []string
	level bool
}

func (p *recordingPin) Name() string        { return "NRF_RESET" }
func (p *recordingPin) Read() (bool, error) { return p.level, nil }

func (p *recordingPin) MakeOutput() error {
	p.steps = append(p.steps, "out")
	return nil
}

func (p *recordingPin) Write(level bool) error {
	p.level = level
	if level {
		p.steps = append(p.steps, "1")
	} else {
		p.steps = append(p.steps, "0")
	}
	return nil
}

func (p *recordingPin) trace() string {
	var b bytes.Buffer
	for i, s := range p.steps {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s)
	}
	return b.String()
}
