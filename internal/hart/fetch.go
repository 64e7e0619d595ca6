package hart

import (
	"rvtrap/internal/csr"
	"rvtrap/internal/debugctl"
	"rvtrap/internal/priv"
	"rvtrap/internal/trap"
)

// FetchAction reports what OnFetch decided should happen before the
// host proceeds with the instruction fetch.
type FetchAction uint8

const (
	// FetchProceed means the host should fetch and execute normally.
	FetchProceed FetchAction = iota
	// FetchEnteredDebug means the hart halted into Debug mode; the host
	// must not fetch.
	FetchEnteredDebug
	// FetchTookInterrupt means a trap was taken; the host should fetch
	// from the new PC rather than the one that was about to be used.
	FetchTookInterrupt
)

// OnFetch runs the fixed priority chain for taking a trap before an
// instruction fetch: reset-halt-request, then halt-request, then any
// pending-and-enabled interrupt selection, in that order. It is the
// single place interrupts are taken; the host calls this once before
// every instruction fetch.
func (h *Hart) OnFetch() FetchAction {
	if h.net.ResethaltreqS {
		h.net.ResethaltreqS = false
		h.enterDebug(csr.CauseResetHaltreq)
		return FetchEnteredDebug
	}

	if h.net.Haltreq && !h.debug.DM {
		h.enterDebug(csr.CauseHaltreq)
		return FetchEnteredDebug
	}

	if h.pend.Valid && !h.debug.DM && !h.net.Deferint {
		trap.TakeException(h, h.pend.ID, true, 0)
		return FetchTookInterrupt
	}

	// Fetch-address validation delegates execute-permission checking
	// to an MMU collaborator this module
	// does not model: none of the example repositories this module was
	// built from contribute an MMU/TLB abstraction to ground one on, so
	// every fetch address is treated as executable. A concrete MMU
	// integration would raise InstructionAddressMisaligned /
	// InstructionAccessFault here via the internal/trap helpers.
	return FetchProceed
}

// enterDebug runs the Debug-mode controller's enter procedure and
// applies the resulting action against the host.
func (h *Hart) enterDebug(cause csr.DebugCause) {
	cfg := h.cfg.Debug
	switchToM, action := debugctl.EnterDM(&h.debug, cfg, cause, uint8(h.mode), h.pc)
	if switchToM {
		h.mode = priv.Machine
	}
	if action.Halt {
		h.debug.SetDisable(debugctl.DisableDebug)
		if h.host != nil {
			h.host.Halt(h.id)
		}
	}
	if action.DeliverAsyncIRQ && h.host != nil {
		h.host.DeliverAsyncInterrupt(h.id)
	}
	if action.Jump {
		h.pc = action.JumpTarget
	}
}

// WFI halts with reason WFI unless an interrupt is already pending
// (any mip & mie bit, or any CLIC interrupt with both ip and ie set).
func (h *Hart) WFI() {
	if h.anyPendingRaw() {
		return
	}
	h.debug.SetDisable(debugctl.DisableWFI)
	if h.host != nil {
		h.host.Halt(h.id)
	}
}

func (h *Hart) anyPendingRaw() bool {
	if h.mip&h.mie != 0 {
		return true
	}
	if h.clic == nil {
		return false
	}
	for i := 0; i < h.clic.NumInterrupt(); i++ {
		if h.clic.IpeBit(i) {
			return true
		}
	}
	return false
}

// pendingArrivalRestart restarts a WFI-halted hart once Reselect finds
// a new candidate; called from Reselect so external net-port writes
// that make an interrupt newly deliverable wake the hart up.
func (h *Hart) pendingArrivalRestart() {
	if h.debug.Disable&debugctl.DisableWFI == 0 {
		return
	}
	if !h.anyPendingRaw() {
		return
	}
	h.debug.ClearDisable(debugctl.DisableWFI)
	if h.host != nil {
		h.host.Restart(h.id)
	}
}
