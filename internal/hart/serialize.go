package hart

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"rvtrap/internal/csr"
	"rvtrap/internal/debugctl"
	"rvtrap/internal/except"
	"rvtrap/internal/netsig"
	"rvtrap/internal/priv"
	"rvtrap/internal/trap"
)

// saveFormatVersion guards RestoreState against loading a snapshot
// written by an incompatible layout.
const saveFormatVersion = 1

// SaveState serializes one hart's architectural state to a flat byte
// slice. Grounded on a hand-rolled encoding/binary writer in the style
// of the pack's
// other emulator serializers, rather than gob: every field here is a
// fixed-width integer or bool, so a manual binary.Write sequence is
// both smaller and keeps the wire layout under this module's control
// (gob would pull in reflection-driven tagging this fixed record
// doesn't need).
func (h *Hart) SaveState() []byte {
	var buf bytes.Buffer
	w := func(v interface{}) { binary.Write(&buf, binary.LittleEndian, v) }

	w(uint32(saveFormatVersion))
	w(uint8(h.mode))
	w(h.pc)
	w(h.exclusive)
	w(h.afErrorIn)
	w(h.afErrorOut)
	w(uint32(h.lastExc))

	w(h.mip)
	w(h.mie)
	w(h.medeleg)
	w(h.sedeleg)
	w(h.mideleg)
	w(h.sideleg)
	w(h.mstatusRaw)

	for m := 0; m < 4; m++ {
		w(h.mcause[m].Raw())
		w(h.xepc[m])
		w(h.xtval[m])
		w(h.xtvec[m].Raw())
		w(h.xtvt[m])
		w(h.xthresh[m])
		w(h.extInt[m])
	}

	w(h.mintstatus.MIL())
	w(h.mintstatus.SIL())
	w(h.mintstatus.UIL())
	w(h.mcountinhibitIR)
	w(h.retired)

	w(h.vstart)
	w(h.vl)
	w(h.vFirstFault)
	w(h.lastInsnEncoding)

	w(h.pend.Valid)
	w(uint32(h.pend.ID))
	w(uint8(h.pend.Priv))
	w(int32(h.pend.Level))
	w(h.pend.IsCLIC)
	w(h.pend.Shv)

	w(h.net.Reset)
	w(h.net.NMI)
	w(h.net.Haltreq)
	w(h.net.Resethaltreq)
	w(h.net.ResethaltreqS)
	w(h.net.Deferint)
	w(h.net.SCValid)

	w(h.debug.DM)
	w(h.debug.Dcsr.Raw())
	w(h.debug.DPC)
	w(uint8(h.debug.Disable))

	if h.clic != nil {
		w(uint32(h.clic.NumInterrupt()))
		for i := 0; i < h.clic.NumInterrupt(); i++ {
			st := h.clic.State(i)
			w(st.IP)
			w(st.IE)
			w(st.Attr.Raw())
			w(st.Ctl)
		}
	} else {
		w(uint32(0))
	}

	return buf.Bytes()
}

// RestoreState reverses SaveState. Per-interrupt external-input edge
// latches (internal/netsig.PerInterruptInput) are intentionally not
// restored: they reconstruct themselves from the next sampled net-port
// level, the same way a real platform's external wiring would re-
// assert its current state after a restore rather than replaying
// history.
func (h *Hart) RestoreState(data []byte) error {
	r := bytes.NewReader(data)
	read := func(v interface{}) error { return binary.Read(r, binary.LittleEndian, v) }

	var version uint32
	if err := read(&version); err != nil {
		return fmt.Errorf("hart: read save version: %w", err)
	}
	if version != saveFormatVersion {
		return fmt.Errorf("hart: unsupported save format version %d", version)
	}

	var modeRaw uint8
	read(&modeRaw)
	h.mode = priv.Mode(modeRaw)
	read(&h.pc)
	read(&h.exclusive)
	read(&h.afErrorIn)
	read(&h.afErrorOut)
	var lastExc uint32
	read(&lastExc)
	h.lastExc = except.Code(lastExc)

	read(&h.mip)
	read(&h.mie)
	read(&h.medeleg)
	read(&h.sedeleg)
	read(&h.mideleg)
	read(&h.sideleg)
	read(&h.mstatusRaw)

	for m := 0; m < 4; m++ {
		var raw uint64
		read(&raw)
		h.mcause[m] = csr.McauseFromRaw(raw, h.cfg.XLen)
		read(&h.xepc[m])
		read(&h.xtval[m])
		var tvecRaw uint64
		read(&tvecRaw)
		h.xtvec[m] = csr.TvecFromRaw(tvecRaw)
		read(&h.xtvt[m])
		read(&h.xthresh[m])
		read(&h.extInt[m])
	}

	var mil, sil, uil uint8
	read(&mil)
	read(&sil)
	read(&uil)
	h.mintstatus.SetMIL(mil)
	h.mintstatus.SetSIL(sil)
	h.mintstatus.SetUIL(uil)
	read(&h.mcountinhibitIR)
	read(&h.retired)

	read(&h.vstart)
	read(&h.vl)
	read(&h.vFirstFault)
	read(&h.lastInsnEncoding)

	var pendValid bool
	var pendID uint32
	var pendPriv uint8
	var pendLevel int32
	var pendIsCLIC, pendShv bool
	read(&pendValid)
	read(&pendID)
	read(&pendPriv)
	read(&pendLevel)
	read(&pendIsCLIC)
	read(&pendShv)
	h.pend = trap.PendEnab{
		Valid:  pendValid,
		ID:     except.Code(pendID),
		Priv:   priv.Mode(pendPriv),
		Level:  int(pendLevel),
		IsCLIC: pendIsCLIC,
		Shv:    pendShv,
	}

	var net netsig.Latched
	read(&net.Reset)
	read(&net.NMI)
	read(&net.Haltreq)
	read(&net.Resethaltreq)
	read(&net.ResethaltreqS)
	read(&net.Deferint)
	read(&net.SCValid)
	h.net = net

	read(&h.debug.DM)
	var dcsrRaw uint32
	read(&dcsrRaw)
	h.debug.Dcsr = csr.DcsrFromRaw(dcsrRaw)
	read(&h.debug.DPC)
	var disable uint8
	read(&disable)
	h.debug.Disable = debugctl.DisableReason(disable)

	var clicCount uint32
	if err := read(&clicCount); err != nil {
		return fmt.Errorf("hart: read clic count: %w", err)
	}
	if clicCount > 0 && h.clic != nil {
		for i := 0; i < int(clicCount) && i < h.clic.NumInterrupt(); i++ {
			var ip, ie bool
			var attrRaw, ctl uint8
			read(&ip)
			read(&ie)
			read(&attrRaw)
			read(&ctl)
			h.clic.WriteIP(i, ip)
			h.clic.WriteIE(i, ie)
			h.clic.WriteAttr(i, attrRaw, 3, h.modeConfig())
			h.clic.WriteCtl(i, ctl)
		}
		h.clic.RebuildIpe()
	}

	h.Reselect()
	return nil
}
