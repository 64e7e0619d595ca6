package trap

import (
	"rvtrap/internal/csr"
	"rvtrap/internal/debugctl"
	"rvtrap/internal/priv"
)

// RetMode selects which xRET variant is executing.
type RetMode uint8

const (
	RetURET RetMode = iota
	RetSRET
	RetMRET
)

func (m RetMode) mode() priv.Mode {
	switch m {
	case RetSRET:
		return priv.Supervisor
	case RetMRET:
		return priv.Machine
	default:
		return priv.User
	}
}

// Return implements the common xRET procedure: if CLIC is active in
// the retiring mode, restore mintstatus's interrupt level from the
// retiring cause register; restore the interrupt-enable stack for the
// retiring mode, resetting xPP to the minimum implemented mode; restore
// the previous privilege (clamped to an implemented mode); clear MPRV
// when returning to a mode other than M and the configured privilege
// version requires it; clear the
// exclusive reservation unless the target preserves it; jump to xepc
// (masking the low bit too when compressed instructions are
// disabled); notify observers; then re-poll for a newly deliverable
// interrupt.
func Return(t Target, mode RetMode) {
	m := mode.mode()

	if t.UseCLICMode(m) {
		mis := t.Mintstatus()
		pil := t.Mcause(m).Pil()
		switch m {
		case priv.Machine:
			mis.SetMIL(pil)
		case priv.Supervisor:
			mis.SetSIL(pil)
		case priv.User:
			mis.SetUIL(pil)
		}
		t.SetMintstatus(mis)
	}

	status := t.Mstatus(m)
	var targetPrv priv.Mode

	switch m {
	case priv.User:
		status.SetUIE(status.UPIE())
		status.SetUPIE(true)
		targetPrv = priv.User
	case priv.Supervisor:
		status.SetSIE(status.SPIE())
		status.SetSPIE(true)
		targetPrv = priv.Mode(status.SPP())
		status.SetSPP(uint8(t.Implemented().Minimum()))
	case priv.Machine:
		status.SetMIE(status.MPIE())
		status.SetMPIE(true)
		targetPrv = priv.Mode(status.MPP())
		status.SetMPP(uint8(t.Implemented().Minimum()))
	}

	targetPrv = t.Implemented().Clamp(targetPrv)

	if t.MprvClearApplies(targetPrv) {
		status.SetMPRV(false)
	}

	t.SetMstatus(m, status)
	t.SetMode(targetPrv)

	if !t.XRETPreservesLR() {
		t.ClearExclusive()
	}

	pc := t.Xepc(m) & t.XepcMask()
	if t.CompressedDisabled() {
		pc &^= 2
	}
	t.SetPC(pc)

	t.Observers().NotifyERET(t.HartID(), targetPrv)
	t.Reselect()
}

// DebugTarget is the narrow slice of Target the DRET path needs beyond
// what debugctl.LeaveDM itself computes.
type DebugTarget interface {
	DM() bool
	SetMode(priv.Mode)
	SetPC(uint64)
	Mstatus(priv.Mode) csr.Mstatus
	SetMstatus(priv.Mode, csr.Mstatus)
	MprvClearApplies(newMode priv.Mode) bool
}

// DRET implements DRET handling: outside Debug mode it is an Illegal
// Instruction (delegated to the caller via the returned
// illegal bool, since raising it is TakeException's job and DRET
// itself carries no tval); inside Debug mode it invokes the Debug-mode
// controller's leave procedure and resumes at dpc.
func DRET(t DebugTarget, s *debugctl.State) (illegal bool) {
	if !s.DM {
		return true
	}

	mprvApplies := t.MprvClearApplies(priv.Mode(s.Dcsr.Prv()))

	action := debugctl.LeaveDM(s, mprvApplies)

	if action.ClearMPRV {
		status := t.Mstatus(priv.Machine)
		status.SetMPRV(false)
		t.SetMstatus(priv.Machine, status)
	}

	t.SetMode(priv.Mode(action.TargetPrv))
	t.SetPC(action.PC)
	return false
}
