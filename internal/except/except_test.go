package except

import "testing"

func TestLookupExceptions(t *testing.T) {
	d, ok := Lookup(false, IllegalInstruction)
	if !ok {
		t.Fatal("IllegalInstruction must be in the exception table")
	}
	if d.Name != "illegal-instruction" {
		t.Errorf("Name = %q, want illegal-instruction", d.Name)
	}
	if d.Interrupt {
		t.Error("exception descriptor should not have Interrupt set")
	}
}

func TestLookupInterrupts(t *testing.T) {
	d, ok := Lookup(true, MachineTimerInterrupt)
	if !ok {
		t.Fatal("MachineTimerInterrupt must be in the interrupt table")
	}
	if !d.Interrupt {
		t.Error("interrupt descriptor should have Interrupt set")
	}
	if d.Required != ReqBase {
		t.Errorf("machine timer interrupt should require only ReqBase, got %v", d.Required)
	}
}

func TestLookupMiss(t *testing.T) {
	if _, ok := Lookup(false, Code(999)); ok {
		t.Error("Lookup should miss on an unknown exception code")
	}
	if _, ok := Lookup(true, Code(999)); ok {
		t.Error("Lookup should miss on an unknown interrupt code")
	}
}

func TestIsRetiring(t *testing.T) {
	if !IsRetiring(false, EnvironmentCallFromUMode, true) {
		t.Error("ecall should always retire regardless of privilege version")
	}
	if !IsRetiring(false, EnvironmentCallFromUMode, false) {
		t.Error("ecall should always retire regardless of privilege version")
	}
	if IsRetiring(false, Breakpoint, true) {
		t.Error("ebreak should not retire under privilege version >= 1.12")
	}
	if !IsRetiring(false, Breakpoint, false) {
		t.Error("ebreak should retire under privilege version < 1.12")
	}
	if IsRetiring(true, MachineTimerInterrupt, true) {
		t.Error("interrupts never retire the causing instruction")
	}
	if IsRetiring(false, IllegalInstruction, true) {
		t.Error("illegal-instruction is not a retiring exception")
	}
}
