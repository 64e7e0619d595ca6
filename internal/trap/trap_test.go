package trap

import (
	"rvtrap/internal/csr"
	"rvtrap/internal/except"
	"rvtrap/internal/hostif"
	"rvtrap/internal/priv"
	"rvtrap/internal/rvlog"
)

// fakeTarget is a minimal, entirely in-memory Target used to exercise
// TakeException/Return/DRET without a real hart.
type fakeTarget struct {
	hartID      int
	xlen        int
	mode        priv.Mode
	implemented priv.Implemented
	priv112     bool

	dm                 bool
	repeatAbortCalled  bool
	pc                 uint64
	exclusiveCleared   bool
	afErrorIn          bool
	afErrorOut         bool
	lastExc            except.Code

	medeleg, sedeleg, mideleg, sideleg uint64

	mstatus [4]csr.Mstatus
	mcause  [4]csr.Mcause
	xepc    [4]uint64
	xtval   [4]uint64
	xtvec   [4]csr.Tvec
	xtvt    [4]uint64
	xthresh [4]uint8
	extInt  [4]uint64

	mintstatus csr.Mintstatus

	useCLIC map[priv.Mode]bool

	pend PendEnab

	tvalZero   bool
	tvalIICode bool
	lastInsn   uint64

	countinhibit bool
	retired      uint64

	vstart      uint64
	vl          uint64
	vFirstFault bool

	vectorEntry    uint64
	vectorEntryOK  bool
	ackSHVCalls    []except.Code

	xretPreservesLR bool
	compressedOff   bool
	mprvGate        bool // models PrivVersion.after20190405()

	reselectCalls int

	obs hostif.Observers
	log *rvlog.Logger
}

func newFakeTarget() *fakeTarget {
	ft := &fakeTarget{
		xlen:        64,
		implemented: priv.Implemented{S: true, U: true},
		priv112:     true,
		mprvGate:    true,
		useCLIC:     map[priv.Mode]bool{},
		log:         rvlog.New(false),
	}
	for m := range ft.mcause {
		ft.mcause[m] = csr.McauseFromRaw(0, ft.xlen)
	}
	return ft
}

func (f *fakeTarget) HartID() int                     { return f.hartID }
func (f *fakeTarget) XLen() int                        { return f.xlen }
func (f *fakeTarget) Mode() priv.Mode                  { return f.mode }
func (f *fakeTarget) SetMode(m priv.Mode)              { f.mode = m }
func (f *fakeTarget) Implemented() priv.Implemented    { return f.implemented }
func (f *fakeTarget) PrivVersionAtLeast112() bool      { return f.priv112 }

func (f *fakeTarget) DM() bool                 { return f.dm }
func (f *fakeTarget) EnterDebugRepeatAbort()    { f.repeatAbortCalled = true }

func (f *fakeTarget) PC() uint64        { return f.pc }
func (f *fakeTarget) SetPC(pc uint64)   { f.pc = pc }

func (f *fakeTarget) ClearExclusive()        { f.exclusiveCleared = true }
func (f *fakeTarget) AFErrorIn() bool        { return f.afErrorIn }
func (f *fakeTarget) SetAFErrorOut(v bool)   { f.afErrorOut = v }
func (f *fakeTarget) SetLastException(c except.Code) { f.lastExc = c }

func (f *fakeTarget) Medeleg() uint64 { return f.medeleg }
func (f *fakeTarget) Sedeleg() uint64 { return f.sedeleg }
func (f *fakeTarget) Mideleg() uint64 { return f.mideleg }
func (f *fakeTarget) Sideleg() uint64 { return f.sideleg }

func (f *fakeTarget) Mstatus(m priv.Mode) csr.Mstatus        { return f.mstatus[m] }
func (f *fakeTarget) SetMstatus(m priv.Mode, s csr.Mstatus)  { f.mstatus[m] = s }
func (f *fakeTarget) Mcause(m priv.Mode) csr.Mcause          { return f.mcause[m] }
func (f *fakeTarget) SetMcause(m priv.Mode, c csr.Mcause)    { f.mcause[m] = c }
func (f *fakeTarget) Xepc(m priv.Mode) uint64                { return f.xepc[m] }
func (f *fakeTarget) SetXepc(m priv.Mode, v uint64)          { f.xepc[m] = v }
func (f *fakeTarget) XepcMask() uint64 {
	if f.compressedOff {
		return ^uint64(0x3)
	}
	return ^uint64(0x1)
}
func (f *fakeTarget) Xtval(m priv.Mode) uint64       { return f.xtval[m] }
func (f *fakeTarget) SetXtval(m priv.Mode, v uint64) { f.xtval[m] = v }
func (f *fakeTarget) Xtvec(m priv.Mode) csr.Tvec     { return f.xtvec[m] }
func (f *fakeTarget) Xtvt(m priv.Mode) uint64        { return f.xtvt[m] }

func (f *fakeTarget) Mintstatus() csr.Mintstatus      { return f.mintstatus }
func (f *fakeTarget) SetMintstatus(m csr.Mintstatus)  { f.mintstatus = m }
func (f *fakeTarget) XIntThresh(m priv.Mode) uint8    { return f.xthresh[m] }

func (f *fakeTarget) UseCLICMode(m priv.Mode) bool { return f.useCLIC[m] }
func (f *fakeTarget) PendEnab() PendEnab           { return f.pend }
func (f *fakeTarget) SetPendEnab(p PendEnab)       { f.pend = p }
func (f *fakeTarget) Reselect()                    { f.reselectCalls++ }
func (f *fakeTarget) ExtInt(m priv.Mode) uint64    { return f.extInt[m] }

func (f *fakeTarget) TvalZeroConfigured() bool     { return f.tvalZero }
func (f *fakeTarget) TvalIICodeConfigured() bool   { return f.tvalIICode }
func (f *fakeTarget) LastInstructionEncoding() uint64 { return f.lastInsn }

func (f *fakeTarget) MCountinhibitIR() bool { return f.countinhibit }
func (f *fakeTarget) IncRetired()           { f.retired++ }

func (f *fakeTarget) Vstart() uint64        { return f.vstart }
func (f *fakeTarget) SetVstart(v uint64)    { f.vstart = v }
func (f *fakeTarget) Vl() uint64            { return f.vl }
func (f *fakeTarget) SetVl(v uint64)        { f.vl = v }
func (f *fakeTarget) VFirstFault() bool     { return f.vFirstFault }
func (f *fakeTarget) SetVFirstFault(v bool) { f.vFirstFault = v }

func (f *fakeTarget) ReadVectorEntry(addr uint64) (uint64, bool) {
	return f.vectorEntry, f.vectorEntryOK
}
func (f *fakeTarget) AckSHV(id except.Code) { f.ackSHVCalls = append(f.ackSHVCalls, id) }

func (f *fakeTarget) XRETPreservesLR() bool  { return f.xretPreservesLR }
func (f *fakeTarget) CompressedDisabled() bool { return f.compressedOff }
func (f *fakeTarget) MprvClearApplies(newMode priv.Mode) bool {
	return f.mprvGate && newMode != priv.Machine
}

func (f *fakeTarget) Observers() *hostif.Observers { return &f.obs }
func (f *fakeTarget) Log() *rvlog.Logger           { return f.log }

var _ Target = (*fakeTarget)(nil)
var _ DebugTarget = (*fakeTarget)(nil)
