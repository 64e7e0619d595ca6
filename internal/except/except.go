// Package except holds the static exception/interrupt descriptor
// catalogue: a read-only table indexed by numeric code, in the style of
// a coprocessor-0 exception-code const block ("Cause ExcCode for
// exceptions (subset)").
package except

// Code is a RISC-V standard exception or interrupt cause code (the
// low bits of xcause.ExceptionCode; interrupt-ness is a separate bit,
// see Descriptor.Interrupt).
type Code uint

// Standard synchronous exception codes.
const (
	InstructionAddressMisaligned Code = 0
	InstructionAccessFault       Code = 1
	IllegalInstruction           Code = 2
	Breakpoint                   Code = 3
	LoadAddressMisaligned        Code = 4
	LoadAccessFault              Code = 5
	StoreAMOAddressMisaligned    Code = 6
	StoreAMOAccessFault          Code = 7
	EnvironmentCallFromUMode     Code = 8
	EnvironmentCallFromSMode     Code = 9
	EnvironmentCallFromMMode     Code = 11
	InstructionPageFault         Code = 12
	LoadPageFault                Code = 13
	StoreAMOPageFault            Code = 15
)

// Standard interrupt codes (reported with xcause.Interrupt set).
const (
	UserSoftwareInterrupt       Code = 0
	SupervisorSoftwareInterrupt Code = 1
	MachineSoftwareInterrupt    Code = 3
	UserTimerInterrupt          Code = 4
	SupervisorTimerInterrupt    Code = 5
	MachineTimerInterrupt       Code = 7
	UserExternalInterrupt       Code = 8
	SupervisorExternalInterrupt Code = 9
	MachineExternalInterrupt    Code = 11
)

// Required is the extension(s) a standard exception/interrupt depends
// on being configured present.
type Required uint8

const (
	ReqBase Required = iota // always available
	ReqS                    // requires Supervisor mode
	ReqU                    // requires User mode
	ReqN                    // requires the N (user-level interrupts) extension
	ReqH                    // requires the Hypervisor extension (not modelled further)
)

// Descriptor catalogues one standard exception or interrupt.
type Descriptor struct {
	Code        Code
	Interrupt   bool
	Name        string
	Required    Required
	// Retiring reports whether taking this exception still retires the
	// instruction that caused it: true for ecall and, in privilege
	// versions before 1.12, ebreak.
	Retiring bool
}

// exceptions is the static catalogue, indexed by (Interrupt, Code).
var exceptions = []Descriptor{
	{Code: InstructionAddressMisaligned, Name: "instruction-address-misaligned", Required: ReqBase},
	{Code: InstructionAccessFault, Name: "instruction-access-fault", Required: ReqBase},
	{Code: IllegalInstruction, Name: "illegal-instruction", Required: ReqBase},
	{Code: Breakpoint, Name: "breakpoint", Required: ReqBase, Retiring: true},
	{Code: LoadAddressMisaligned, Name: "load-address-misaligned", Required: ReqBase},
	{Code: LoadAccessFault, Name: "load-access-fault", Required: ReqBase},
	{Code: StoreAMOAddressMisaligned, Name: "store-amo-address-misaligned", Required: ReqBase},
	{Code: StoreAMOAccessFault, Name: "store-amo-access-fault", Required: ReqBase},
	{Code: EnvironmentCallFromUMode, Name: "ecall-from-u-mode", Required: ReqU, Retiring: true},
	{Code: EnvironmentCallFromSMode, Name: "ecall-from-s-mode", Required: ReqS, Retiring: true},
	{Code: EnvironmentCallFromMMode, Name: "ecall-from-m-mode", Required: ReqBase, Retiring: true},
	{Code: InstructionPageFault, Name: "instruction-page-fault", Required: ReqS},
	{Code: LoadPageFault, Name: "load-page-fault", Required: ReqS},
	{Code: StoreAMOPageFault, Name: "store-amo-page-fault", Required: ReqS},
}

var interrupts = []Descriptor{
	{Code: UserSoftwareInterrupt, Interrupt: true, Name: "user-software-interrupt", Required: ReqN},
	{Code: SupervisorSoftwareInterrupt, Interrupt: true, Name: "supervisor-software-interrupt", Required: ReqS},
	{Code: MachineSoftwareInterrupt, Interrupt: true, Name: "machine-software-interrupt", Required: ReqBase},
	{Code: UserTimerInterrupt, Interrupt: true, Name: "user-timer-interrupt", Required: ReqN},
	{Code: SupervisorTimerInterrupt, Interrupt: true, Name: "supervisor-timer-interrupt", Required: ReqS},
	{Code: MachineTimerInterrupt, Interrupt: true, Name: "machine-timer-interrupt", Required: ReqBase},
	{Code: UserExternalInterrupt, Interrupt: true, Name: "user-external-interrupt", Required: ReqN},
	{Code: SupervisorExternalInterrupt, Interrupt: true, Name: "supervisor-external-interrupt", Required: ReqS},
	{Code: MachineExternalInterrupt, Interrupt: true, Name: "machine-external-interrupt", Required: ReqBase},
}

// Lookup returns the descriptor for (isInterrupt, code) and whether it
// was found in the standard catalogue. A platform may contribute extra
// descriptors (e.g. custom or CLIC-only codes) outside this table;
// callers fall back to those when Lookup misses.
func Lookup(isInterrupt bool, code Code) (Descriptor, bool) {
	table := exceptions
	if isInterrupt {
		table = interrupts
	}
	for _, d := range table {
		if d.Code == code {
			return d, true
		}
	}
	return Descriptor{}, false
}

// IsRetiring reports whether taking this exception retires the causing
// instruction. Ecall always retires; ebreak retires only in privilege
// versions before 1.12 (the caller passes priv12OrLater to express that
// without this package depending on the priv-version type).
func IsRetiring(isInterrupt bool, code Code, priv12OrLater bool) bool {
	if isInterrupt {
		return false
	}
	d, ok := Lookup(false, code)
	if !ok || !d.Retiring {
		return false
	}
	if code == Breakpoint {
		return !priv12OrLater
	}
	return true
}
