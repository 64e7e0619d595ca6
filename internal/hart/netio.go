package hart

import (
	"rvtrap/internal/csr"
	"rvtrap/internal/debugctl"
	"rvtrap/internal/priv"
)

// ResetLevel implements the `reset` input net port: a rising edge
// halts with reason RESET, a falling edge runs the full reset
// sequence.
func (h *Hart) ResetLevel(level bool) {
	edge := h.net.UpdateReset(level)
	switch {
	case edge.Rising:
		h.debug.SetDisable(debugctl.DisableReset)
		if h.host != nil {
			h.host.Halt(h.id)
		}
	case edge.Falling:
		h.resetLocked()
		h.debug.ClearDisable(debugctl.DisableReset)
		if h.host != nil {
			h.host.Restart(h.id)
		}
		h.observers.NotifyReset(h.id)
		h.net.LatchResethaltreqS()
	}
}

// NMILevel implements the `nmi` input net port: rising edge outside
// Debug mode enters NMI (switch to M, mcause <- configured NMI code,
// mepc <- current PC, PC <- nmi_address); the live level is always
// mirrored into dcsr.nmip regardless of edge or Debug state.
func (h *Hart) NMILevel(level bool) {
	edge := h.net.UpdateNMI(level)
	h.debug.Dcsr.SetNmip(level)
	if edge.Rising && !h.debug.DM {
		h.xepc[priv.Machine] = h.pc & h.XepcMask()
		cause := csr.McauseFromRaw(h.cfg.NMICode, h.cfg.XLen)
		h.mcause[priv.Machine] = cause
		h.mode = priv.Machine
		h.pc = h.cfg.NMIAddress
	}
}

// Haltreq implements the `haltreq` input net port by latching its
// level. OnFetch enters Debug while the latched level is high; a
// request raised and dropped again before the next OnFetch call does
// not halt the hart.
func (h *Hart) Haltreq(level bool) { h.net.UpdateHaltreq(level) }

// Resethaltreq implements the level-latched `resethaltreq` input,
// sampled into resethaltreqS on the reset falling edge.
func (h *Hart) Resethaltreq(level bool) { h.net.UpdateResethaltreq(level) }

// Deferint implements the `deferint` input net port: the falling edge
// schedules a synchronous interrupt delivery if anything is currently
// pending and enabled.
func (h *Hart) Deferint(level bool) {
	edge := h.net.UpdateDeferint(level)
	if edge.Falling && h.pend.Valid && h.host != nil {
		h.host.DeliverSyncInterrupt(h.id)
	}
}

// SCValid implements the `SC_valid` input net port: deassertion clears
// the exclusive reservation.
func (h *Hart) SCValid(level bool) {
	edge := h.net.UpdateSCValid(level)
	if edge.Falling {
		h.exclusive = false
	}
}

// PerInterrupt implements one `<interrupt-name>` input net port: set
// or clear the raw ip[] bit, run it through the trigger-aware CLIC
// updater (if id addresses a CLIC interrupt) and the basic mip updater
// (mip <- ip[0] | swip, modelled here as a direct per-source mip bit
// since this module tracks mip per standard source rather than a
// separate ip[]/swip pair).
func (h *Hart) PerInterrupt(id int, level bool, edgeTriggered bool, activeLow bool) {
	if id < 0 || id >= len(h.perIRQ) {
		return
	}
	value, shouldWrite := h.perIRQ[id].Sample(level, edgeTriggered, activeLow)
	if h.clic != nil && id < h.clic.NumInterrupt() {
		if shouldWrite {
			h.clic.WriteIP(id, value)
		}
	}
	if shouldWrite {
		bit := uint64(1) << uint(id%64)
		if value {
			h.mip |= bit
		} else if !edgeTriggered {
			h.mip &^= bit
		}
	}
	h.Reselect()
}

// SetMie writes the mie register and re-selects.
func (h *Hart) SetMie(v uint64) { h.mie = v; h.Reselect() }

// Mie returns the mie register.
func (h *Hart) Mie() uint64 { return h.mie }

// Mip returns the mip register (read-only view; individual bits are
// set only through PerInterrupt or SetMie's consequent re-selection).
func (h *Hart) Mip() uint64 { return h.mip }

// SetDelegation writes medeleg/mideleg/sedeleg/sideleg and re-selects.
func (h *Hart) SetDelegation(medeleg, mideleg, sedeleg, sideleg uint64) {
	h.medeleg, h.mideleg, h.sedeleg, h.sideleg = medeleg, mideleg, sedeleg, sideleg
	h.Reselect()
}

// SetXtvec writes xtvec for mode m.
func (h *Hart) SetXtvec(m priv.Mode, raw uint64) { h.xtvec[m] = csr.TvecFromRaw(raw) }

// SetXtvt writes the CLIC vector-table base for mode m.
func (h *Hart) SetXtvt(m priv.Mode, v uint64) { h.xtvt[m] = v }

// SetXIntThresh writes xintthresh.th for mode m and re-selects.
func (h *Hart) SetXIntThresh(m priv.Mode, v uint8) { h.xthresh[m] = v; h.Reselect() }
