package csr

import "testing"

func TestTvec(t *testing.T) {
	tv := TvecFromRaw(0x1000 | uint64(TvecVectored))
	if tv.Mode() != TvecVectored {
		t.Errorf("Mode() = %v, want TvecVectored", tv.Mode())
	}
	if tv.Base() != 0x1000 {
		t.Errorf("Base() = %#x, want 0x1000", tv.Base())
	}
}

func TestMstatusInterruptEnableStack(t *testing.T) {
	var s Mstatus
	s.SetMIE(true)
	s.SetMPIE(true)
	s.SetMPP(3)
	if !s.MIE() || !s.MPIE() {
		t.Fatal("MIE/MPIE should read back set")
	}
	if s.MPP() != 3 {
		t.Errorf("MPP() = %d, want 3", s.MPP())
	}
	s.SetMIE(false)
	if s.MIE() {
		t.Error("MIE should clear")
	}
	if !s.MPIE() {
		t.Error("clearing MIE should not disturb MPIE")
	}
}

func TestMstatusSPP(t *testing.T) {
	var s Mstatus
	s.SetSPP(1)
	if s.SPP() != 1 {
		t.Errorf("SPP() = %d, want 1", s.SPP())
	}
	s.SetSPP(0)
	if s.SPP() != 0 {
		t.Errorf("SPP() = %d, want 0", s.SPP())
	}
}

func TestMstatusMPRV(t *testing.T) {
	var s Mstatus
	s.SetMPRV(true)
	if !s.MPRV() {
		t.Error("MPRV should read back set")
	}
	s.SetMPRV(false)
	if s.MPRV() {
		t.Error("MPRV should clear")
	}
}

func TestMcauseInterruptBitXLen(t *testing.T) {
	c32 := McauseFromRaw(0, 32)
	c32.SetInterrupt(true)
	if c32.Raw() != 1<<31 {
		t.Errorf("rv32 interrupt bit at wrong position: %#x", c32.Raw())
	}

	c64 := McauseFromRaw(0, 64)
	c64.SetInterrupt(true)
	if c64.Raw() != 1<<63 {
		t.Errorf("rv64 interrupt bit at wrong position: %#x", c64.Raw())
	}
}

func TestMcauseExceptionCode(t *testing.T) {
	var c Mcause
	c.SetExceptionCode(0x123)
	if c.ExceptionCode() != 0x123 {
		t.Errorf("ExceptionCode() = %#x, want 0x123", c.ExceptionCode())
	}
	c.SetInterrupt(true)
	if c.ExceptionCode() != 0x123 {
		t.Error("setting Interrupt should not disturb ExceptionCode")
	}
}

func TestMcausePilInhv(t *testing.T) {
	var c Mcause
	c.SetPil(200)
	c.SetInhv(true)
	if c.Pil() != 200 {
		t.Errorf("Pil() = %d, want 200", c.Pil())
	}
	if !c.Inhv() {
		t.Error("Inhv should read back set")
	}
	c.SetInhv(false)
	if c.Inhv() {
		t.Error("Inhv should clear")
	}
	if c.Pil() != 200 {
		t.Error("clearing Inhv should not disturb Pil")
	}
}

func TestMintstatus(t *testing.T) {
	var m Mintstatus
	m.SetMIL(10)
	m.SetSIL(20)
	m.SetUIL(30)
	if m.MIL() != 10 || m.SIL() != 20 || m.UIL() != 30 {
		t.Errorf("Mintstatus round-trip failed: %+v", m)
	}
}

func TestDcsr(t *testing.T) {
	var d Dcsr
	d.SetPrv(2)
	d.SetCause(CauseHaltreq)
	d.SetStep(true)
	if d.Prv() != 2 {
		t.Errorf("Prv() = %d, want 2", d.Prv())
	}
	if d.Cause() != CauseHaltreq {
		t.Errorf("Cause() = %v, want CauseHaltreq", d.Cause())
	}
	if !d.Step() {
		t.Error("Step should read back set")
	}
}

func TestDcsrNmip(t *testing.T) {
	var d Dcsr
	d.SetNmip(true)
	if !d.Nmip() {
		t.Error("Nmip should read back set")
	}
	d.SetNmip(false)
	if d.Nmip() {
		t.Error("Nmip should clear")
	}
}

func TestClicIntAttr(t *testing.T) {
	var a ClicIntAttr
	a.SetMode(2)
	a.SetShv(true)
	a.SetTrig(Trig(0x3))
	if a.Mode() != 2 {
		t.Errorf("Mode() = %d, want 2", a.Mode())
	}
	if !a.Shv() {
		t.Error("Shv should read back set")
	}
	if !a.Trig().Edge() || !a.Trig().ActiveLow() {
		t.Error("Trig(0x3) should be edge-triggered and active-low")
	}
}

func TestWriteCliccfg(t *testing.T) {
	current := CliccfgFromRaw(0)
	next := WriteCliccfg(current, 0xFF, 2, true)
	if next.Nmbits() != 2 {
		t.Errorf("Nmbits() = %d, want clamped to 2", next.Nmbits())
	}
	if next.Nlbits() != 8 {
		t.Errorf("Nlbits() = %d, want clamped to 8", next.Nlbits())
	}
	if !next.Nvbits() {
		t.Error("Nvbits should be forced to the fixed value")
	}
}
