// Package trap implements the Trap Entry and Trap Return engines: the
// 13-step exception/interrupt-taking procedure and the common xRET/
// DRET return procedure.
//
// A RaiseException/ERET pair (EPC/BD/EXL/vector-selection side
// effects) and an ERET-branch dispatch shape (decode funct -> call
// into the coprocessor -> get back the next PC) ground the entry/
// return split here.
//
// The core does not own CSR storage itself; CSR file storage is
// treated as an external collaborator, and Target is the narrow,
// verb-named interface this package calls into, in the same spirit as
// a Coprocessor interface. A single concrete implementation
// (internal/hart.Hart) satisfies it for this module's own runnable
// harness.
package trap

import (
	"rvtrap/internal/csr"
	"rvtrap/internal/except"
	"rvtrap/internal/hostif"
	"rvtrap/internal/priv"
	"rvtrap/internal/rvlog"
)

// PendEnab is the selected-interrupt cache, named after the hart
// field it lives in: {id, priv, level, isCLIC}. ID is except.Code when Valid; Level is
// meaningful only when IsCLIC (the basic selector has no notion of
// level).
type PendEnab struct {
	Valid  bool
	ID     except.Code
	Priv   priv.Mode
	Level  int
	IsCLIC bool
	Shv    bool // clicintattr.shv of the selected CLIC interrupt
}

// NonePending is the sentinel "no interrupt is currently deliverable".
var NonePending = PendEnab{}

// Target is everything the trap engines need from the hart/CSR file
// collaborator.
type Target interface {
	HartID() int
	XLen() int
	Mode() priv.Mode
	SetMode(priv.Mode)
	Implemented() priv.Implemented
	PrivVersionAtLeast112() bool

	DM() bool
	EnterDebugRepeatAbort() // Debug-mode shortcut: abort in-progress repeated instruction, re-enter Debug w/ cause NONE

	PC() uint64
	SetPC(uint64) // exception-setting PC API

	ClearExclusive()
	AFErrorIn() bool
	SetAFErrorOut(bool)
	SetLastException(except.Code)

	Medeleg() uint64
	Sedeleg() uint64
	Mideleg() uint64
	Sideleg() uint64

	Mstatus(priv.Mode) csr.Mstatus
	SetMstatus(priv.Mode, csr.Mstatus)
	Mcause(priv.Mode) csr.Mcause
	SetMcause(priv.Mode, csr.Mcause)
	Xepc(priv.Mode) uint64
	SetXepc(priv.Mode, uint64)
	XepcMask() uint64
	Xtval(priv.Mode) uint64
	SetXtval(priv.Mode, uint64)
	Xtvec(priv.Mode) csr.Tvec
	Xtvt(priv.Mode) uint64

	Mintstatus() csr.Mintstatus
	SetMintstatus(csr.Mintstatus)
	XIntThresh(priv.Mode) uint8

	UseCLICMode(priv.Mode) bool
	PendEnab() PendEnab
	SetPendEnab(PendEnab)
	Reselect()
	ExtInt(priv.Mode) uint64

	TvalZeroConfigured() bool
	TvalIICodeConfigured() bool
	LastInstructionEncoding() uint64

	MCountinhibitIR() bool
	IncRetired()

	Vstart() uint64
	SetVstart(uint64)
	Vl() uint64
	SetVl(uint64)
	VFirstFault() bool
	SetVFirstFault(bool)

	// ReadVectorEntry performs the CLIC SHV endian-aware, data-domain
	// fetch of an xlen/8-byte vector-table entry. ok is false when a
	// nested exception occurred during the fetch, in which case the
	// vector fetch is abandoned and the nested trap takes its place.
	ReadVectorEntry(addr uint64) (value uint64, ok bool)

	// AckSHV performs the SHV acknowledgement step: edge interrupts
	// deassert, level interrupts are re-evaluated.
	AckSHV(id except.Code)

	XRETPreservesLR() bool
	CompressedDisabled() bool
	MprvClearApplies(newMode priv.Mode) bool

	Observers() *hostif.Observers
	Log() *rvlog.Logger
}
