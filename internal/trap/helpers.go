package trap

import (
	"rvtrap/internal/except"
)

// IllegalInstruction raises an Illegal Instruction exception. tval
// carries the faulting instruction bits when the hart is configured to
// report them, zero otherwise.
func IllegalInstruction(t Target) {
	tval := uint64(0)
	if t.TvalIICodeConfigured() {
		tval = t.LastInstructionEncoding()
	}
	TakeException(t, except.IllegalInstruction, false, tval)
}

// InstructionAddressMisaligned raises the fetch-misalignment exception
// for a target address the caller has already determined is
// misaligned: tval is the target address with its LSB masked off.
func InstructionAddressMisaligned(t Target, faultingTarget uint64) {
	TakeException(t, except.InstructionAddressMisaligned, false, faultingTarget&^1)
}

// ECALL raises the environment-call exception for the executing
// privilege mode: code = EnvironmentCallFromUMode + currentMode
// (U/S/M map to 8/9/11 since the Reserved encoding is never an actual
// current mode).
func ECALL(t Target) {
	code := except.Code(uint(except.EnvironmentCallFromUMode) + uint(t.Mode()))
	TakeException(t, code, false, 0)
}

// Breakpoint raises the EBREAK-as-normal-trap exception, the
// NormalTrap outcome of the EBREAK decision.
func Breakpoint(t Target, pc uint64, priv12OrLater bool) {
	tval := pc
	if priv12OrLater {
		tval = 0
	}
	TakeException(t, except.Breakpoint, false, tval)
}
