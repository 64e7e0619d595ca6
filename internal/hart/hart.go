// Package hart is the composition root: it owns the CSR storage the
// trap core treats as an external collaborator, and wires internal/trap,
// internal/clic, internal/basicirq, internal/debugctl, and
// internal/netsig together into one runnable per-hart state machine
// plus the cluster-wide CLIC memory map.
//
// A single struct owning registers, the coprocessor, and the running
// flag generalizes here from one fixed coprocessor to the pluggable
// collaborator interfaces this module's engine packages expose.
package hart

import (
	"rvtrap/internal/basicirq"
	"rvtrap/internal/clic"
	"rvtrap/internal/csr"
	"rvtrap/internal/debugctl"
	"rvtrap/internal/except"
	"rvtrap/internal/hostif"
	"rvtrap/internal/netsig"
	"rvtrap/internal/priv"
	"rvtrap/internal/rvlog"
	"rvtrap/internal/trap"
)

// PrivVersion enumerates the privileged-spec revisions this module
// branches on directly: MPRV clearing on xRET depends on "privilege
// version > 2019-04-05", and EBREAK's mtval policy depends on
// "priv >= 1.12". This is the minimal state needed to implement those
// two branches.
type PrivVersion uint8

const (
	PrivVersion20190405 PrivVersion = iota
	PrivVersion20211203             // "1.12"
)

func (v PrivVersion) atLeast112() bool { return v >= PrivVersion20211203 }

// after20190405 reports whether the configured revision is later than
// 2019-04-05, the condition for MPRV-clearing on xRET.
func (v PrivVersion) after20190405() bool { return v > PrivVersion20190405 }

// Config is the immutable per-hart configuration, plus the ambient
// knobs cmd/rvtrapsim exposes as flags.
type Config struct {
	XLen        int // 32 or 64
	Implemented priv.Implemented
	PrivVersion PrivVersion

	HasCLIC        bool
	ClicInfo       clic.Info
	ClicCfgMBits   uint8

	TvalZero        bool // tval always reported as zero
	TvalIICode      bool // illegal-instruction tval carries the instruction encoding
	XRETPreservesLR bool
	CompressedOff   bool // C extension disabled: fetch alignment is 4 bytes, not 2

	ResetAddress uint64
	NMIAddress   uint64
	NMICode      uint64

	Debug debugctl.Config
}

// Hart is one RISC-V hart's complete trap-relevant state: mode, DM,
// disable reasons, pending bits (held as one per-source mip bitmap
// rather than a separate ip/swip pair), last exception, pendEnab, CLIC
// engine, extInt, the exclusive-reservation flag, AFErrorIn/Out, vFirstFault,
// net-port state, and configuration, plus the CSR storage the engine
// packages take as an external collaborator.
type Hart struct {
	id  int
	cfg Config
	cl  *Cluster

	mode priv.Mode
	pc   uint64

	// exclusive tracks whether an LR reservation is outstanding; only
	// its presence/absence matters here, not the reserved address.
	exclusive bool

	afErrorIn  bool
	afErrorOut bool
	lastExc    except.Code

	mip, mie         uint64
	medeleg, sedeleg uint64
	mideleg, sideleg uint64

	mstatusRaw uint64 // single physical register; xstatus views share it

	mcause  [4]csr.Mcause
	xepc    [4]uint64
	xtval   [4]uint64
	xtvec   [4]csr.Tvec
	xtvt    [4]uint64
	xthresh [4]uint8
	extInt  [4]uint64

	mintstatus csr.Mintstatus
	mcountinhibitIR bool
	retired         uint64

	vstart      uint64
	vl          uint64
	vFirstFault bool

	lastInsnEncoding uint64

	pend trap.PendEnab

	clic *clic.Engine // nil when Config.HasCLIC is false
	net  netsig.Latched
	perIRQ []netsig.PerInterruptInput

	debug debugctl.State

	host      hostif.Host
	observers hostif.Observers
	log       *rvlog.Logger
}

// New allocates a hart in its post-reset state.
func New(id int, cfg Config, cl *Cluster, host hostif.Host, log *rvlog.Logger) *Hart {
	h := &Hart{
		id:     id,
		cfg:    cfg,
		cl:     cl,
		host:   host,
		log:    log,
		perIRQ: make([]netsig.PerInterruptInput, 64),
	}
	if cfg.HasCLIC {
		h.clic = clic.NewEngine(cfg.ClicInfo)
	}
	h.resetLocked()
	return h
}

// resetLocked applies the reset-falling-edge state clear shared with
// ResetFallingEdge, minus the Debug-exit/observer/PC steps that
// ResetFallingEdge layers on top for a live reset pulse (New's caller
// never has a prior state to leave, so those steps would be no-ops
// here anyway).
func (h *Hart) resetLocked() {
	h.mode = priv.Machine
	h.mstatusRaw = 0
	h.mip, h.mie = 0, 0
	h.medeleg, h.sedeleg, h.mideleg, h.sideleg = 0, 0, 0, 0
	for m := range h.mcause {
		h.mcause[m] = csr.McauseFromRaw(0, h.cfg.XLen)
		h.xepc[m] = 0
		h.xtval[m] = 0
		h.xtvec[m] = csr.TvecFromRaw(0)
		h.xtvt[m] = 0
		h.xthresh[m] = 0
		h.extInt[m] = 0
	}
	h.mintstatus = csr.Mintstatus{}
	h.retired = 0
	h.vstart, h.vl, h.vFirstFault = 0, 0, false
	h.exclusive = false
	h.afErrorIn, h.afErrorOut = false, false
	h.pend = trap.NonePending
	if h.clic != nil {
		h.clic = clic.NewEngine(h.cfg.ClicInfo)
	}
	h.debug = debugctl.State{}
	h.pc = h.cfg.ResetAddress
}

// --- trap.Target ---

func (h *Hart) HartID() int               { return h.id }
func (h *Hart) XLen() int                 { return h.cfg.XLen }
func (h *Hart) Mode() priv.Mode           { return h.mode }
func (h *Hart) SetMode(m priv.Mode)       { h.mode = m }
func (h *Hart) Implemented() priv.Implemented { return h.cfg.Implemented }
func (h *Hart) PrivVersionAtLeast112() bool   { return h.cfg.PrivVersion.atLeast112() }

func (h *Hart) DM() bool { return h.debug.DM }

// EnterDebugRepeatAbort aborts any in-progress repeated instruction
// and re-enters Debug with cause NONE.
func (h *Hart) EnterDebugRepeatAbort() {
	if h.host != nil {
		h.host.AbortRepeat(h.id)
	}
	h.debug.Dcsr.SetCause(csr.CauseNone)
}

func (h *Hart) PC() uint64     { return h.pc }
func (h *Hart) SetPC(pc uint64) { h.pc = pc }

func (h *Hart) ClearExclusive() { h.exclusive = false }
func (h *Hart) AFErrorIn() bool { return h.afErrorIn }
func (h *Hart) SetAFErrorOut(v bool) { h.afErrorOut = v }
func (h *Hart) SetLastException(c except.Code) { h.lastExc = c }

func (h *Hart) Medeleg() uint64 { return h.medeleg }
func (h *Hart) Sedeleg() uint64 { return h.sedeleg }
func (h *Hart) Mideleg() uint64 { return h.mideleg }
func (h *Hart) Sideleg() uint64 { return h.sideleg }

func (h *Hart) Mstatus(priv.Mode) csr.Mstatus { return csr.MstatusFromRaw(h.mstatusRaw) }
func (h *Hart) SetMstatus(_ priv.Mode, s csr.Mstatus) { h.mstatusRaw = s.Raw() }

func (h *Hart) Mcause(m priv.Mode) csr.Mcause          { return h.mcause[m] }
func (h *Hart) SetMcause(m priv.Mode, c csr.Mcause)    { h.mcause[m] = c }
func (h *Hart) Xepc(m priv.Mode) uint64                { return h.xepc[m] }
func (h *Hart) SetXepc(m priv.Mode, v uint64)          { h.xepc[m] = v }

// XepcMask masks off bit 0 always, and bit 1 too when compressed
// instructions are disabled (xepc is IALIGN-aligned).
func (h *Hart) XepcMask() uint64 {
	if h.cfg.CompressedOff {
		return ^uint64(0x3)
	}
	return ^uint64(0x1)
}

func (h *Hart) Xtval(m priv.Mode) uint64       { return h.xtval[m] }
func (h *Hart) SetXtval(m priv.Mode, v uint64) { h.xtval[m] = v }
func (h *Hart) Xtvec(m priv.Mode) csr.Tvec     { return h.xtvec[m] }
func (h *Hart) Xtvt(m priv.Mode) uint64        { return h.xtvt[m] }

func (h *Hart) Mintstatus() csr.Mintstatus        { return h.mintstatus }
func (h *Hart) SetMintstatus(m csr.Mintstatus)    { h.mintstatus = m }
func (h *Hart) XIntThresh(m priv.Mode) uint8      { return h.xthresh[m] }

func (h *Hart) UseCLICMode(m priv.Mode) bool {
	return h.clic != nil && h.xtvec[m].Mode() == csr.TvecCLIC
}

func (h *Hart) PendEnab() trap.PendEnab     { return h.pend }
func (h *Hart) SetPendEnab(p trap.PendEnab) { h.pend = p }

// ExtInt returns the configured external-interrupt-code substitution
// for mode m, the `<Mode>ExternalInterruptID` input net port. Zero
// means "no substitution": this module does not model a downstream
// PLIC-style ID bus, so the port always reads back whatever was last
// written via SetExtInt (zero at reset).
func (h *Hart) ExtInt(m priv.Mode) uint64 { return h.extInt[m] }

// SetExtInt drives the `<Mode>ExternalInterruptID` input net port.
func (h *Hart) SetExtInt(m priv.Mode, v uint64) { h.extInt[m] = v }

func (h *Hart) TvalZeroConfigured() bool   { return h.cfg.TvalZero }
func (h *Hart) TvalIICodeConfigured() bool { return h.cfg.TvalIICode }
func (h *Hart) LastInstructionEncoding() uint64 { return h.lastInsnEncoding }

// SetLastInstructionEncoding lets the host's fetch/decode loop record
// the instruction bits before an illegal-instruction trap.
func (h *Hart) SetLastInstructionEncoding(v uint64) { h.lastInsnEncoding = v }

func (h *Hart) MCountinhibitIR() bool { return h.mcountinhibitIR }
func (h *Hart) IncRetired()           { h.retired++ }

// SetCountinhibitIR implements the mcountinhibit.IR configuration bit.
func (h *Hart) SetCountinhibitIR(v bool) { h.mcountinhibitIR = v }

// Retired returns the minstret-equivalent counter.
func (h *Hart) Retired() uint64 { return h.retired }

func (h *Hart) Vstart() uint64        { return h.vstart }
func (h *Hart) SetVstart(v uint64)    { h.vstart = v }
func (h *Hart) Vl() uint64            { return h.vl }
func (h *Hart) SetVl(v uint64)        { h.vl = v }
func (h *Hart) VFirstFault() bool     { return h.vFirstFault }
func (h *Hart) SetVFirstFault(v bool) { h.vFirstFault = v }

// ReadVectorEntry performs the CLIC SHV vector-table fetch: an xlen/8
// byte, little-endian data-domain read through the host memory
// collaborator.
func (h *Hart) ReadVectorEntry(addr uint64) (uint64, bool) {
	if h.host == nil {
		return 0, false
	}
	return h.host.ReadMemory(h.id, addr, h.cfg.XLen/8, hostif.LittleEndian)
}

// AckSHV acknowledges the delivered CLIC interrupt (deassert if edge,
// leave level alone) and re-runs selection.
func (h *Hart) AckSHV(id except.Code) {
	if h.clic != nil {
		h.clic.Acknowledge(int(id))
	}
	h.Reselect()
}

func (h *Hart) XRETPreservesLR() bool  { return h.cfg.XRETPreservesLR }
func (h *Hart) CompressedDisabled() bool { return h.cfg.CompressedOff }

func (h *Hart) Observers() *hostif.Observers { return &h.observers }
func (h *Hart) Log() *rvlog.Logger           { return h.log }

// MprvClearApplies reports whether xRET must clear MPRV on return to
// newMode: true whenever the configured privilege version postdates
// 2019-04-05 and the new mode is not M.
func (h *Hart) MprvClearApplies(newMode priv.Mode) bool {
	return h.cfg.PrivVersion.after20190405() && newMode != priv.Machine
}

// modeConfig derives internal/clic's ModeConfig from this hart's
// implemented-modes configuration and the cluster-wide cliccfg.
func (h *Hart) modeConfig() clic.ModeConfig {
	return clic.ModeConfig{
		Nmbits:   h.cl.cliccfg.Nmbits(),
		CfgMBits: h.cfg.ClicCfgMBits,
		HasS:     h.cfg.Implemented.S,
		HasU:     h.cfg.Implemented.U,
	}
}

// basicInputs builds internal/basicirq's Inputs from live hart state.
func (h *Hart) basicInputs() basicirq.Inputs {
	status := csr.MstatusFromRaw(h.mstatusRaw)
	return basicirq.Inputs{
		Mip:         h.mip,
		Mie:         h.mie,
		Mideleg:     h.mideleg,
		Sideleg:     h.sideleg,
		CurrentMode: h.mode,
		Status: basicirq.Status{
			UIE: status.UIE(),
			SIE: status.SIE(),
			MIE: status.MIE(),
		},
		CLICActive: h.UseCLICMode,
	}
}

// Reselect recomputes pendEnab from the basic selector, the CLIC
// selector, and the delivery gate in gate, and caches the result so
// OnFetch never recomputes selection mid-instruction.
func (h *Hart) Reselect() {
	basic := basicirq.Select(h.basicInputs())

	var clicSel clic.Selection = clic.None
	if h.clic != nil {
		clicSel = h.clic.Select(h.modeConfig(), h.cl.cliccfg.Nlbits())
	}

	prev := h.pend
	h.pend = gate(h, basic, clicSel)

	if h.log != nil && h.log.Verbose {
		if h.pend.Valid && h.pend != prev {
			h.log.IRQState(h.id, "combined", int(h.pend.ID))
		}
	}

	h.pendingArrivalRestart()
}

// gate decides whether a CLIC selection is promoted into pendEnab: it
// is promoted only when the basic selector did not already pick a
// strictly-higher privilege, current privilege <= target, CLIC mode is
// active in the target, xIE is set (or current < target), and
// level > mintstatus.xil and level > xintthresh.
func gate(h *Hart, basic basicirq.Selection, sel clic.Selection) trap.PendEnab {
	if sel.ID == clic.NoInterrupt {
		return basicPend(h, basic)
	}

	target := priv.Mode(sel.Priv)

	if basic.Valid && basic.Priv > target {
		return basicPend(h, basic)
	}
	if h.mode > target {
		return basicPend(h, basic)
	}
	if !h.UseCLICMode(target) {
		return basicPend(h, basic)
	}
	if !xieSetOrLower(h, target) {
		return basicPend(h, basic)
	}
	if !(sel.Level > int(xil(h, target)) && sel.Level > int(h.xthresh[target])) {
		return basicPend(h, basic)
	}

	return trap.PendEnab{
		Valid:  true,
		ID:     except.Code(sel.ID),
		Priv:   target,
		Level:  sel.Level,
		IsCLIC: true,
		Shv:    sel.Shv,
	}
}

func xieSetOrLower(h *Hart, target priv.Mode) bool {
	if h.mode < target {
		return true
	}
	status := csr.MstatusFromRaw(h.mstatusRaw)
	switch target {
	case priv.Machine:
		return status.MIE()
	case priv.Supervisor:
		return status.SIE()
	default:
		return status.UIE()
	}
}

func xil(h *Hart, target priv.Mode) uint8 {
	switch target {
	case priv.Machine:
		return h.mintstatus.MIL()
	case priv.Supervisor:
		return h.mintstatus.SIL()
	default:
		return h.mintstatus.UIL()
	}
}

// basicPend builds a PendEnab from the basic selector's result. The
// basic controller has no notion of interrupt level (that is a CLIC
// concept), so Level is the "unchanged" sentinel: trap entry's step 7
// passes it through and leaves mintstatus.xil as it was.
func basicPend(h *Hart, basic basicirq.Selection) trap.PendEnab {
	if !basic.Valid {
		return trap.NonePending
	}
	return trap.PendEnab{
		Valid:  true,
		ID:     except.Code(basic.Source.Code()),
		Priv:   basic.Priv,
		Level:  -1,
		IsCLIC: false,
	}
}
