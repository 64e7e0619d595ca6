package trap

import (
	"testing"

	"rvtrap/internal/csr"
	"rvtrap/internal/except"
	"rvtrap/internal/hostif"
	"rvtrap/internal/priv"
)

func TestTakeExceptionDebugModeShortcut(t *testing.T) {
	f := newFakeTarget()
	f.dm = true
	TakeException(f, except.IllegalInstruction, false, 0)
	if !f.repeatAbortCalled {
		t.Fatal("TakeException in Debug mode should call EnterDebugRepeatAbort")
	}
	if f.mode != priv.User {
		t.Error("Debug-mode shortcut must not touch mode")
	}
}

func TestTakeExceptionSyncDelegation(t *testing.T) {
	f := newFakeTarget()
	f.mode = priv.User
	f.medeleg = 1 << except.IllegalInstruction
	f.sedeleg = 0 // not delegated further to U
	f.xtvec[priv.Supervisor] = csr.TvecFromRaw(0x2000 | uint64(csr.TvecDirect))

	TakeException(f, except.IllegalInstruction, false, 0xdead)

	if f.mode != priv.Supervisor {
		t.Fatalf("mode = %v, want Supervisor (delegated via medeleg, not sedeleg)", f.mode)
	}
	if f.pc != 0x2000 {
		t.Fatalf("pc = %#x, want trap base 0x2000", f.pc)
	}
	if f.xtval[priv.Supervisor] != 0xdead {
		t.Errorf("xtval = %#x, want 0xdead", f.xtval[priv.Supervisor])
	}
}

func TestTakeExceptionNeverGoesToLowerPrivilege(t *testing.T) {
	f := newFakeTarget()
	f.mode = priv.Machine
	f.medeleg = 1 << except.IllegalInstruction // "delegate" to S, but current mode is M
	TakeException(f, except.IllegalInstruction, false, 0)
	if f.mode != priv.Machine {
		t.Fatalf("mode = %v, want Machine (traps never go to lower privilege)", f.mode)
	}
}

func TestTakeExceptionClampsToImplementedMode(t *testing.T) {
	f := newFakeTarget()
	f.implemented = priv.Implemented{} // only Machine
	f.mode = priv.Machine
	TakeException(f, except.IllegalInstruction, false, 0)
	if f.mode != priv.Machine {
		t.Fatalf("mode = %v, want clamped to Machine", f.mode)
	}
}

func TestTakeExceptionSetsMPIEAndClearsMIE(t *testing.T) {
	f := newFakeTarget()
	f.mode = priv.Machine
	f.mstatus[priv.Machine].SetMIE(true)
	TakeException(f, except.IllegalInstruction, false, 0)
	st := f.mstatus[priv.Machine]
	if !st.MPIE() {
		t.Error("MPIE should capture the prior MIE")
	}
	if st.MIE() {
		t.Error("MIE should be cleared on trap entry")
	}
	if st.MPP() != uint8(priv.Machine) {
		t.Errorf("MPP = %d, want previous mode Machine", st.MPP())
	}
}

func TestTakeExceptionClearsExclusive(t *testing.T) {
	f := newFakeTarget()
	TakeException(f, except.IllegalInstruction, false, 0)
	if !f.exclusiveCleared {
		t.Error("TakeException must clear the exclusive reservation unconditionally")
	}
}

func TestTakeExceptionTvalZeroOverride(t *testing.T) {
	f := newFakeTarget()
	f.tvalZero = true
	TakeException(f, except.LoadAddressMisaligned, false, 0x1234)
	if f.xtval[priv.Machine] != 0 {
		t.Errorf("xtval = %#x, want 0 when TvalZeroConfigured", f.xtval[priv.Machine])
	}
}

func TestTakeExceptionAFErrorPassthroughOnAccessFault(t *testing.T) {
	f := newFakeTarget()
	f.afErrorIn = true
	TakeException(f, except.LoadAccessFault, false, 0)
	if !f.afErrorOut {
		t.Error("AFErrorOut should mirror AFErrorIn on an access-fault exception")
	}

	f2 := newFakeTarget()
	f2.afErrorIn = true
	TakeException(f2, except.IllegalInstruction, false, 0)
	if f2.afErrorOut {
		t.Error("AFErrorOut should be false for a non-access-fault exception")
	}
}

func TestTakeExceptionNotifiesObservers(t *testing.T) {
	f := newFakeTarget()
	var gotMode priv.Mode
	f.obs.Register(hostif.Observer{
		TrapNotifier: func(hart int, m priv.Mode) { gotMode = m },
	})
	TakeException(f, except.IllegalInstruction, false, 0)
	if gotMode != priv.Machine {
		t.Errorf("observer saw targetMode = %v, want Machine", gotMode)
	}
}

func TestTakeExceptionInterruptUsesVectoredOffset(t *testing.T) {
	f := newFakeTarget()
	f.mode = priv.Machine
	f.xtvec[priv.Machine] = csr.TvecFromRaw(0x4000 | uint64(csr.TvecVectored))
	f.pend = PendEnab{Valid: true, ID: except.MachineTimerInterrupt, Priv: priv.Machine, Level: -1}
	TakeException(f, except.MachineTimerInterrupt, true, 0)
	want := uint64(0x4000) + 4*uint64(except.MachineTimerInterrupt)
	if f.pc != want {
		t.Fatalf("pc = %#x, want %#x (vectored base + 4*cause)", f.pc, want)
	}
}

func TestTakeExceptionCLICNonSHVMasksLowBits(t *testing.T) {
	f := newFakeTarget()
	f.mode = priv.Machine
	f.xtvec[priv.Machine] = csr.TvecFromRaw(0x5000 | 0x3F | uint64(csr.TvecCLIC)) // low bits set, must be masked
	f.pend = PendEnab{Valid: true, ID: 5, Priv: priv.Machine, Level: 10, IsCLIC: true, Shv: false}
	TakeException(f, except.Code(5), true, 0)
	if f.pc != 0x5000 {
		t.Fatalf("pc = %#x, want 0x5000 (CLIC base with low 6 bits masked)", f.pc)
	}
}

func TestTakeExceptionCLICSHVFetchesVectorEntry(t *testing.T) {
	f := newFakeTarget()
	f.mode = priv.Machine
	f.xtvec[priv.Machine] = csr.TvecFromRaw(0x6000 | uint64(csr.TvecCLIC))
	f.xtvt[priv.Machine] = 0x7000
	f.vectorEntry = 0x9999
	f.vectorEntryOK = true
	f.pend = PendEnab{Valid: true, ID: 7, Priv: priv.Machine, Level: 10, IsCLIC: true, Shv: true}
	TakeException(f, except.Code(7), true, 0)
	if f.pc != 0x9998 {
		t.Fatalf("pc = %#x, want 0x9998 (fetched entry with LSB masked)", f.pc)
	}
	if len(f.ackSHVCalls) != 1 || f.ackSHVCalls[0] != except.Code(7) {
		t.Errorf("AckSHV calls = %v, want one call for code 7", f.ackSHVCalls)
	}
}

func TestTakeExceptionCLICSHVNestedFetchFaultAbandonsOuterTrap(t *testing.T) {
	f := newFakeTarget()
	f.mode = priv.Machine
	f.xtvec[priv.Machine] = csr.TvecFromRaw(0x6000 | uint64(csr.TvecCLIC))
	f.vectorEntryOK = false
	f.pend = PendEnab{Valid: true, ID: 7, Priv: priv.Machine, Level: 10, IsCLIC: true, Shv: true}
	f.pc = 0x42 // simulate a nested trap having already set PC
	TakeException(f, except.Code(7), true, 0)
	if f.pc != 0x42 {
		t.Fatalf("pc = %#x, want left at the nested trap's PC (0x42)", f.pc)
	}
}

func TestTakeExceptionLevelSentinelHorizontalTrap(t *testing.T) {
	f := newFakeTarget()
	f.mode = priv.Machine
	f.mintstatus.SetMIL(55)
	TakeException(f, except.IllegalInstruction, false, 0)
	if f.mintstatus.MIL() != 55 {
		t.Errorf("mintstatus.MIL should be untouched on a horizontal exception, got %d", f.mintstatus.MIL())
	}
}

func TestTakeExceptionVerticalExceptionSetsLevelZero(t *testing.T) {
	f := newFakeTarget()
	f.mode = priv.User
	f.implemented = priv.Implemented{S: true, U: true}
	f.mintstatus.SetMIL(55)
	TakeException(f, except.IllegalInstruction, false, 0) // no delegation at all -> goes to M
	if f.mintstatus.MIL() != 0 {
		t.Errorf("mintstatus.MIL should be set to 0 on a vertical exception into M, got %d", f.mintstatus.MIL())
	}
}

func TestTakeExceptionStoresTargetModesOwnLevelInCausePil(t *testing.T) {
	f := newFakeTarget()
	f.mode = priv.User
	f.medeleg = 1 << except.IllegalInstruction
	f.sedeleg = 0 // delegated to S, not further to U
	f.mintstatus.SetMIL(0x11)
	f.mintstatus.SetSIL(0x22)
	f.mintstatus.SetUIL(0x33)

	TakeException(f, except.IllegalInstruction, false, 0)

	if f.mode != priv.Supervisor {
		t.Fatalf("mode = %v, want Supervisor", f.mode)
	}
	if got := f.mcause[priv.Supervisor].Pil(); got != 0x22 {
		t.Errorf("scause.pil = %#x, want mintstatus.SIL 0x22, not mintstatus.MIL", got)
	}
}
