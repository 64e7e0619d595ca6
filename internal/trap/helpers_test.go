package trap

import (
	"testing"

	"rvtrap/internal/except"
	"rvtrap/internal/priv"
)

func TestIllegalInstructionTvalPolicy(t *testing.T) {
	f := newFakeTarget()
	f.lastInsn = 0xABCD
	f.tvalIICode = true
	IllegalInstruction(f)
	if f.xtval[priv.Machine] != 0xABCD {
		t.Errorf("xtval = %#x, want the faulting instruction encoding", f.xtval[priv.Machine])
	}

	f2 := newFakeTarget()
	f2.lastInsn = 0xABCD
	f2.tvalIICode = false
	IllegalInstruction(f2)
	if f2.xtval[priv.Machine] != 0 {
		t.Errorf("xtval = %#x, want 0 when TvalIICodeConfigured is false", f2.xtval[priv.Machine])
	}
}

func TestInstructionAddressMisalignedMasksLSB(t *testing.T) {
	f := newFakeTarget()
	InstructionAddressMisaligned(f, 0x1003)
	if f.xtval[priv.Machine] != 0x1002 {
		t.Errorf("xtval = %#x, want 0x1002 (LSB masked)", f.xtval[priv.Machine])
	}
	if f.lastExc != except.InstructionAddressMisaligned {
		t.Errorf("lastExc = %v, want InstructionAddressMisaligned", f.lastExc)
	}
}

func TestECALLCodeByMode(t *testing.T) {
	cases := []struct {
		mode priv.Mode
		want except.Code
	}{
		{priv.User, except.EnvironmentCallFromUMode},
		{priv.Supervisor, except.EnvironmentCallFromSMode},
		{priv.Machine, except.EnvironmentCallFromMMode},
	}
	for _, c := range cases {
		f := newFakeTarget()
		f.mode = c.mode
		ECALL(f)
		if f.lastExc != c.want {
			t.Errorf("ECALL from %v: lastExc = %v, want %v", c.mode, f.lastExc, c.want)
		}
	}
}

func TestBreakpointTvalPolicy(t *testing.T) {
	f := newFakeTarget()
	Breakpoint(f, 0x4444, false)
	if f.xtval[priv.Machine] != 0x4444 {
		t.Errorf("xtval = %#x, want faulting pc under priv < 1.12", f.xtval[priv.Machine])
	}

	f2 := newFakeTarget()
	Breakpoint(f2, 0x4444, true)
	if f2.xtval[priv.Machine] != 0 {
		t.Errorf("xtval = %#x, want 0 under priv >= 1.12", f2.xtval[priv.Machine])
	}
}
