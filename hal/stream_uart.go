package hal

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"
)

const pollInterval = 100 * time.Microsecond

// IdleDuration converts an idle timeout in bit periods into wall time at baud.
func IdleDuration(baud, bits uint32) time.Duration {
	if baud == 0 {
		return 0
	}
	d := time.Duration(bits) * time.Second / time.Duration(baud)
	if d < pollInterval {
		d = pollInterval
	}
	return d
}

type rxRequest struct {
	buf  []byte
	n    int
	idle time.Duration
}

// streamUART implements UART over a byte stream.
//
// A single reader goroutine serves receive requests; each transmit runs on its own
// goroutine. Completions are posted to the kernel.
type streamUART struct {
	irq Interrupts

	// open, when set, (re)opens the underlying port on Configure.
	open func(UARTParameters) (io.ReadWriteCloser, error)
	// isTimeout reports a read that returned because the line was quiet.
	isTimeout func(error) bool
	// measureIdle is set when reads return while the line is quiet, so the idle gap
	// can be timed. Otherwise every read that returns data ends a receive.
	measureIdle bool

	mu         sync.Mutex
	r          io.Reader
	w          io.Writer
	c          io.Closer
	params     UARTParameters
	configured bool
	txBusy     bool
	rxBusy     bool
	closed     bool
	tx         UARTTransmitClient
	rx         UARTReceiveClient

	startOnce sync.Once
	rxReq     chan rxRequest
}

// NewStreamUART returns a UART that receives from r and transmits to w.
//
// Reads that return data are treated as ending an idle gap, so each chunk the reader
// delivers completes a receive. This suits pipes and terminals.
func NewStreamUART(r io.Reader, w io.Writer, irq Interrupts) UART {
	return newStreamUART(r, w, irq)
}

func newStreamUART(r io.Reader, w io.Writer, irq Interrupts) *streamUART {
	return &streamUART{r: r, w: w, irq: irq, rxReq: make(chan rxRequest, 1)}
}

func (u *streamUART) SetTransmitClient(c UARTTransmitClient) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.tx = c
}

func (u *streamUART) SetReceiveClient(c UARTReceiveClient) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.rx = c
}

func (u *streamUART) Configure(p UARTParameters) error {
	if err := p.Validate(); err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.txBusy || u.rxBusy {
		return ErrBusy
	}
	if u.open != nil {
		if u.c != nil {
			_ = u.c.Close()
		}
		port, err := u.open(p)
		if err != nil {
			return err
		}
		u.r, u.w, u.c = port, port, port
	}
	u.params = p
	u.configured = true
	u.closed = false
	u.startOnce.Do(func() { go u.readLoop() })
	return nil
}

func (u *streamUART) TransmitBuffer(buf []byte, n int) ([]byte, error) {
	if n < 0 || n > len(buf) {
		return buf, ErrInvalidParameters
	}
	u.mu.Lock()
	if !u.configured || u.w == nil {
		u.mu.Unlock()
		return buf, ErrOff
	}
	if u.txBusy {
		u.mu.Unlock()
		return buf, ErrBusy
	}
	u.txBusy = true
	w := u.w
	u.mu.Unlock()

	go func() {
		written, err := w.Write(buf[:n])
		u.complete(func() {
			u.mu.Lock()
			u.txBusy = false
			c := u.tx
			u.mu.Unlock()
			if c != nil {
				c.TransmittedBuffer(buf, written, err)
			}
		})
	}()
	return nil, nil
}

func (u *streamUART) ReceiveAutomatic(buf []byte, n int, idle uint32) ([]byte, error) {
	if n <= 0 || n > len(buf) {
		return buf, ErrInvalidParameters
	}
	u.mu.Lock()
	if !u.configured || u.r == nil || u.closed {
		u.mu.Unlock()
		return buf, ErrOff
	}
	if u.rxBusy {
		u.mu.Unlock()
		return buf, ErrBusy
	}
	u.rxBusy = true
	d := IdleDuration(u.params.BaudRate, idle)
	u.mu.Unlock()

	u.rxReq <- rxRequest{buf: buf, n: n, idle: d}
	return nil, nil
}

func (u *streamUART) readLoop() {
	for req := range u.rxReq {
		got, err := u.fill(req)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			err = ErrOff
		case !errors.Is(err, ErrOff):
			// A failed port does not recover on its own; Configure reopens it.
			err = fmt.Errorf("uart: read: %w: %w", ErrOff, err)
		}
		buf := req.buf
		u.complete(func() {
			u.mu.Lock()
			u.rxBusy = false
			if errors.Is(err, ErrOff) {
				u.closed = true
			}
			c := u.rx
			u.mu.Unlock()
			if c != nil {
				c.ReceivedBuffer(buf, got, err, UARTErrorNone)
			}
		})
	}
}

func (u *streamUART) fill(req rxRequest) (int, error) {
	u.mu.Lock()
	r := u.r
	u.mu.Unlock()

	got := 0
	last := time.Now()
	for got < req.n {
		m, err := r.Read(req.buf[got:req.n])
		if m > 0 {
			got += m
			last = time.Now()
		}
		quiet := m == 0 && err == nil
		if err != nil && u.isTimeout != nil && u.isTimeout(err) {
			quiet, err = true, nil
		}
		if err != nil {
			return got, err
		}
		if quiet {
			if got > 0 && time.Since(last) >= req.idle {
				return got, nil
			}
			if m == 0 {
				time.Sleep(pollInterval)
			}
			continue
		}
		if !u.measureIdle {
			return got, nil
		}
	}
	return got, nil
}

// complete posts fn, waiting for room if the kernel queue is momentarily full. A
// completion is never dropped: it carries buffer ownership.
func (u *streamUART) complete(fn func()) {
	for !u.irq.Post(fn) {
		runtime.Gosched()
	}
}
