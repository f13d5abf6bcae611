package rf233sim

import "testing"

func TestReadPartNum(t *testing.T) {
	d := New(0x0B)
	r := make([]byte, 2)
	if err := d.Tx([]byte{0x80 | regPartNum, 0}, r); err != nil {
		t.Fatalf("Tx: %v", err)
	}
	if r[1] != 0x0B {
		t.Fatalf("PART_NUM = %#x, want 0x0b", r[1])
	}
	if d.Reads() != 1 {
		t.Fatalf("Reads() = %d, want 1", d.Reads())
	}
}

func TestStateTransitions(t *testing.T) {
	d := New(0x0B)
	write := func(addr, v byte) {
		t.Helper()
		if err := d.Tx([]byte{0xC0 | addr, v}, nil); err != nil {
			t.Fatalf("Tx: %v", err)
		}
	}

	write(regTRXState, cmdPLLOn)
	if got := d.Reg(regTRXStatus); got != statusPOn {
		t.Fatalf("PLL_ON from P_ON: status = %#x, want %#x", got, statusPOn)
	}
	write(regTRXState, cmdForceTRXOff)
	if got := d.Reg(regTRXStatus); got != statusTRXOff {
		t.Fatalf("status after FORCE_TRX_OFF = %#x, want %#x", got, statusTRXOff)
	}
	write(regTRXState, cmdPLLOn)
	if got := d.Reg(regTRXStatus); got != statusPLLOn {
		t.Fatalf("status after PLL_ON = %#x, want %#x", got, statusPLLOn)
	}

	write(regPartNum, 0x99)
	if got := d.Reg(regPartNum); got != 0x0B {
		t.Fatalf("PART_NUM after write = %#x, want read-only 0x0b", got)
	}
	if n := len(d.Writes()); n != 4 {
		t.Fatalf("len(Writes()) = %d, want 4", n)
	}
}

func TestPLLStuck(t *testing.T) {
	d := New(0x0B)
	d.SetPLLStuck(true)
	_ = d.Tx([]byte{0xC0 | regTRXState, cmdForceTRXOff}, nil)
	_ = d.Tx([]byte{0xC0 | regTRXState, cmdPLLOn}, nil)
	if got := d.Reg(regTRXStatus); got != statusTRXOff {
		t.Fatalf("status = %#x, want %#x", got, statusTRXOff)
	}
}

func TestIRQStatusClearedOnRead(t *testing.T) {
	d := New(0x0B)
	r := make([]byte, 2)
	_ = d.Tx([]byte{0x80 | regIRQStatus, 0}, r)
	if r[1] == 0 {
		t.Fatal("first IRQ_STATUS read = 0, want pending bit")
	}
	_ = d.Tx([]byte{0x80 | regIRQStatus, 0}, r)
	if r[1] != 0 {
		t.Fatalf("second IRQ_STATUS read = %#x, want 0", r[1])
	}
}

func TestTransferFrames(t *testing.T) {
	d := New(0x0B)
	if _, err := d.Transfer(0x80 | regPartNum); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	v, _ := d.Transfer(0)
	if v != 0x0B {
		t.Fatalf("Transfer read = %#x, want 0x0b", v)
	}
}
