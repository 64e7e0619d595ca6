// Package debugctl implements the Debug-mode controller: enter/leave
// Debug via halt-request, step, EBREAK, and reset-halt-request, plus
// halt/restart scheduling.
//
// The halt/restart shape generalizes a run/stop signal-channel loop
// from "stop the whole VM" to "halt one hart for one of several
// reasons", with a running flag generalized to a bitmask DisableReason
// field so multiple halt reasons can be active simultaneously.
package debugctl

import "rvtrap/internal/csr"

// DisableReason is one bit of the bitmask "disable" field: multiple
// halt reasons can be active simultaneously, and the hart is restarted
// only once every bit clears.
type DisableReason uint8

const (
	DisableReset DisableReason = 1 << iota
	DisableWFI
	DisableDebug
)

// Mode selects how Debug entry is externally observed.
type Mode uint8

const (
	ModeHalt Mode = iota
	ModeInterrupt
	ModeVector
)

// Config is the immutable per-hart Debug configuration.
type Config struct {
	Mode           Mode
	DebugAddress   uint64 // fresh-entry VECTOR jump target
	DexcAddress    uint64 // nested-entry VECTOR jump target
}

// State is the mutable Debug-mode state carried per hart.
type State struct {
	DM      bool
	Dcsr    csr.Dcsr
	DPC     uint64
	Disable DisableReason
}

// Halted reports whether the hart is currently halted for any reason.
func (s *State) Halted() bool { return s.Disable != 0 }

// SetDisable raises a halt reason.
func (s *State) SetDisable(r DisableReason) { s.Disable |= r }

// ClearDisable clears a halt reason; the hart restarts only once every
// bit has cleared.
func (s *State) ClearDisable(r DisableReason) { s.Disable &^= r }

// EnterAction tells the caller what side effect to perform after
// EnterDM has updated State: the controller itself never touches the
// host, it only decides.
type EnterAction struct {
	Halt               bool
	DeliverAsyncIRQ    bool
	JumpTarget         uint64
	Jump               bool
}

// EnterDM implements the Debug-mode enter procedure: if not already in
// Debug, set DM, store dcsr.prv/cause, dpc, switch to M mode (the
// caller does the mode switch; this function returns whether one is
// needed), then react to the debug_mode configuration. Count-inhibit
// state is neither saved nor restored here.
func EnterDM(s *State, cfg Config, cause csr.DebugCause, currentPrv uint8, currentPC uint64) (modeSwitchToM bool, action EnterAction) {
	if s.DM {
		// Already in Debug: the hart does not take further exceptions;
		// it re-enters Debug with cause NONE. Re-entry still needs a
		// VECTOR jump to DexcAddress if so configured.
		if cfg.Mode == ModeVector {
			return false, EnterAction{Jump: true, JumpTarget: cfg.DexcAddress}
		}
		return false, EnterAction{}
	}

	s.DM = true
	s.Dcsr.SetPrv(currentPrv)
	s.Dcsr.SetCause(cause)
	s.DPC = currentPC

	switch cfg.Mode {
	case ModeHalt:
		s.SetDisable(DisableDebug)
		action = EnterAction{Halt: true}
	case ModeInterrupt:
		action = EnterAction{DeliverAsyncIRQ: true}
	case ModeVector:
		action = EnterAction{Jump: true, JumpTarget: cfg.DebugAddress}
	}
	return true, action
}

// LeaveAction tells the caller how to resume after LeaveDM.
type LeaveAction struct {
	TargetPrv  uint8
	PC         uint64
	ClearMPRV  bool
}

// LeaveDM implements the Debug-mode exit procedure: clear DM,
// conditionally clear MPRV (the caller decides, by the same rule as
// xRET), perform common return to dcsr.prv with PC <- dpc, clear the
// DM-stall reason. Count-inhibit state is neither saved nor restored
// here.
func LeaveDM(s *State, mprvClearApplies bool) LeaveAction {
	s.DM = false
	s.ClearDisable(DisableDebug)
	return LeaveAction{
		TargetPrv: s.Dcsr.Prv(),
		PC:        s.DPC,
		ClearMPRV: mprvClearApplies,
	}
}

// EbreakAction reports what EBREAK should do, having consulted
// dcsr.ebreakm/s/u for the executing privilege.
type EbreakAction struct {
	EnterDebug    bool
	NormalTrap    bool
	// AdjustRetiredCounter is set when dcsr.stopcount requires this
	// instruction to be counted via direct counter adjustment, since
	// Debug entry bypasses the normal retirement path.
	AdjustRetiredCounter bool
}

// Ebreak decides the EBREAK outcome for privilege prv (0=U,1=S,3=M).
func Ebreak(dcsr csr.Dcsr, prv uint8) EbreakAction {
	enter := false
	switch prv {
	case 3:
		enter = dcsr.EbreakM()
	case 1:
		enter = dcsr.EbreakS()
	case 0:
		enter = dcsr.EbreakU()
	}
	if enter {
		return EbreakAction{EnterDebug: true, AdjustRetiredCounter: dcsr.StopCount()}
	}
	return EbreakAction{NormalTrap: true}
}

// BreakpointTval returns the mtval policy for a normal (non-Debug)
// Breakpoint trap: 0 in privilege >= 1.12, the faulting PC before
// that.
func BreakpointTval(priv12OrLater bool, pc uint64) uint64 {
	if priv12OrLater {
		return 0
	}
	return pc
}

// ShouldSingleStep reports whether, after a retired instruction, the
// hart should enter Debug with cause STEP: dcsr.step is set and the
// hart is not already in Debug.
func ShouldSingleStep(dcsr csr.Dcsr, inDebug bool) bool {
	return dcsr.Step() && !inDebug
}
