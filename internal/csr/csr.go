// Package csr models the bit-field control/status registers the trap
// core reads and mutates as typed values rather than opaque integers:
// each register gets {get, set, Raw, FromRaw} accessors so clamping and
// WPRI rules stay checkable. The field-mask style generalizes a
// coprocessor register file's Read/Write switch (e.g. its IV/SW-IP
// bit handling) into small reusable wrapper types instead of one large
// register-number switch.
package csr

// TvecMode is the trap-vector mode field (xtvec.MODE).
type TvecMode uint8

const (
	TvecDirect TvecMode = 0
	TvecVectored TvecMode = 1
	TvecCLIC TvecMode = 3 // smclic: tvec.MODE == 3 selects CLIC
)

// Tvec models xtvec: BASE (word-aligned, shifted left 2 to form an
// address) and MODE.
type Tvec struct {
	raw uint64
}

func TvecFromRaw(raw uint64) Tvec { return Tvec{raw: raw} }
func (t Tvec) Raw() uint64        { return t.raw }

// Mode returns xtvec.MODE (the low 2 bits).
func (t Tvec) Mode() TvecMode { return TvecMode(t.raw & 0x3) }

// Base returns the byte address of the trap-vector base: BASE<<2.
func (t Tvec) Base() uint64 { return t.raw &^ 0x3 }

// Mstatus models the subset of mstatus/sstatus/ustatus this module
// cares about: the interrupt-enable stack (xIE/xPIE) and the previous-
// privilege fields (SPP/MPP), plus MPRV.
type Mstatus struct {
	raw uint64
}

func MstatusFromRaw(raw uint64) Mstatus { return Mstatus{raw: raw} }
func (s Mstatus) Raw() uint64           { return s.raw }

const (
	bitUIE  = 1 << 0
	bitSIE  = 1 << 1
	bitMIE  = 1 << 3
	bitUPIE = 1 << 4
	bitSPIE = 1 << 5
	bitMPIE = 1 << 7
	bitSPP  = 1 << 8
	maskMPP = 0x3 << 11
	bitMPRV = 1 << 17
)

func (s Mstatus) UIE() bool  { return s.raw&bitUIE != 0 }
func (s Mstatus) SIE() bool  { return s.raw&bitSIE != 0 }
func (s Mstatus) MIE() bool  { return s.raw&bitMIE != 0 }
func (s Mstatus) UPIE() bool { return s.raw&bitUPIE != 0 }
func (s Mstatus) SPIE() bool { return s.raw&bitSPIE != 0 }
func (s Mstatus) MPIE() bool { return s.raw&bitMPIE != 0 }
func (s Mstatus) MPRV() bool { return s.raw&bitMPRV != 0 }

func (s *Mstatus) setBit(bit uint64, v bool) {
	if v {
		s.raw |= bit
	} else {
		s.raw &^= bit
	}
}

func (s *Mstatus) SetUIE(v bool)  { s.setBit(bitUIE, v) }
func (s *Mstatus) SetSIE(v bool)  { s.setBit(bitSIE, v) }
func (s *Mstatus) SetMIE(v bool)  { s.setBit(bitMIE, v) }
func (s *Mstatus) SetUPIE(v bool) { s.setBit(bitUPIE, v) }
func (s *Mstatus) SetSPIE(v bool) { s.setBit(bitSPIE, v) }
func (s *Mstatus) SetMPIE(v bool) { s.setBit(bitMPIE, v) }
func (s *Mstatus) SetMPRV(v bool) { s.setBit(bitMPRV, v) }

// SPP returns Supervisor (bit set) or User (bit clear): SPP is a
// single bit, unlike MPP's two bits.
func (s Mstatus) SPP() uint8 {
	if s.raw&bitSPP != 0 {
		return 1
	}
	return 0
}

func (s *Mstatus) SetSPP(bit uint8) {
	s.setBit(bitSPP, bit != 0)
}

// MPP returns the two-bit previous-privilege field.
func (s Mstatus) MPP() uint8 {
	return uint8((s.raw & maskMPP) >> 11)
}

func (s *Mstatus) SetMPP(v uint8) {
	s.raw = (s.raw &^ maskMPP) | (uint64(v&0x3) << 11)
}

// Mcause models xcause: Interrupt bit, ExceptionCode, and the smclic
// extension fields (pil, inhv) that coexist with the base layout.
type Mcause struct {
	raw  uint64
	xlen int // 32 or 64, for the Interrupt-bit position; 0 (zero value) acts as 64
}

func McauseFromRaw(raw uint64, xlen int) Mcause { return Mcause{raw: raw, xlen: xlen} }
func (c Mcause) Raw() uint64                    { return c.raw }

func (c Mcause) interruptBit() uint64 {
	xlen := c.xlen
	if xlen <= 0 {
		xlen = 64
	}
	return uint64(1) << (xlen - 1)
}

func (c Mcause) Interrupt() bool { return c.raw&c.interruptBit() != 0 }

func (c *Mcause) SetInterrupt(v bool) {
	if v {
		c.raw |= c.interruptBit()
	} else {
		c.raw &^= c.interruptBit()
	}
}

// ExceptionCode is the low bits of xcause, masked wide enough for a
// CLIC's larger interrupt-id space (up to 12 bits per the clicinfo
// num_interrupt range used in this module).
func (c Mcause) ExceptionCode() uint64 { return c.raw & 0xFFF }

func (c *Mcause) SetExceptionCode(code uint64) {
	c.raw = (c.raw &^ 0xFFF) | (code & 0xFFF)
}

// smclic extension fields, valid only when CLIC mode is active for
// this privilege: pil (previous interrupt level, bits [23:16]) and
// inhv (interrupt-handler-vectoring-in-progress, a single
// bit). This module keeps them in separate high bit positions outside
// the base ExceptionCode/Interrupt fields to avoid collision.
const (
	clicPilShift = 16
	clicPilMask  = 0xFF << clicPilShift
	bitInhv      = 1 << 30
)

func (c Mcause) Pil() uint8 { return uint8((c.raw & clicPilMask) >> clicPilShift) }

func (c *Mcause) SetPil(level uint8) {
	c.raw = (c.raw &^ clicPilMask) | (uint64(level) << clicPilShift)
}

func (c Mcause) Inhv() bool { return c.raw&bitInhv != 0 }

func (c *Mcause) SetInhv(v bool) {
	if v {
		c.raw |= bitInhv
	} else {
		c.raw &^= bitInhv
	}
}

// Mintstatus models mintstatus: the per-privilege "current interrupt
// level" snapshot the CLIC uses for priority comparisons, saved and
// restored by trap entry and return.
type Mintstatus struct {
	mil uint8
	sil uint8
	uil uint8
}

func (m Mintstatus) MIL() uint8 { return m.mil }
func (m Mintstatus) SIL() uint8 { return m.sil }
func (m Mintstatus) UIL() uint8 { return m.uil }

func (m *Mintstatus) SetMIL(v uint8) { m.mil = v }
func (m *Mintstatus) SetSIL(v uint8) { m.sil = v }
func (m *Mintstatus) SetUIL(v uint8) { m.uil = v }

// Dcsr models the Debug Control and Status register: prv, cause,
// step, stopcount, the ebreak-per-mode bits, and the live NMI mirror.
type Dcsr struct {
	raw uint32
}

func DcsrFromRaw(raw uint32) Dcsr { return Dcsr{raw: raw} }
func (d Dcsr) Raw() uint32        { return d.raw }

const (
	bitEbreakU   = 1 << 0
	bitEbreakS   = 1 << 1
	bitStep      = 1 << 2
	bitEbreakM   = 1 << 3
	bitStopCount = 1 << 10
	bitStopTime  = 1 << 11
	causeShift   = 6
	causeMask    = 0x7 << causeShift
	prvMaskBits  = 0x3
	bitNMIP      = 1 << 31
)

// DebugCause enumerates dcsr.cause values.
type DebugCause uint8

const (
	CauseNone         DebugCause = 0
	CauseEbreak       DebugCause = 1
	CauseStep         DebugCause = 4
	CauseHaltreq      DebugCause = 3
	CauseResetHaltreq DebugCause = 5
)

func (d Dcsr) Prv() uint8 { return uint8(d.raw & prvMaskBits) }
func (d *Dcsr) SetPrv(v uint8) {
	d.raw = (d.raw &^ prvMaskBits) | uint32(v&prvMaskBits)
}

func (d Dcsr) Cause() DebugCause { return DebugCause((d.raw & causeMask) >> causeShift) }
func (d *Dcsr) SetCause(c DebugCause) {
	d.raw = (d.raw &^ causeMask) | (uint32(c) << causeShift)
}

func (d Dcsr) Step() bool      { return d.raw&bitStep != 0 }
func (d Dcsr) StopCount() bool { return d.raw&bitStopCount != 0 }
func (d Dcsr) EbreakM() bool   { return d.raw&bitEbreakM != 0 }
func (d Dcsr) EbreakS() bool   { return d.raw&bitEbreakS != 0 }
func (d Dcsr) EbreakU() bool   { return d.raw&bitEbreakU != 0 }

func (d *Dcsr) SetStep(v bool) {
	if v {
		d.raw |= bitStep
	} else {
		d.raw &^= bitStep
	}
}

// Nmip mirrors the live nmi net-port level into dcsr.nmip, regardless
// of whether an NMI is actually being taken.
func (d Dcsr) Nmip() bool { return d.raw&bitNMIP != 0 }

func (d *Dcsr) SetNmip(v bool) {
	if v {
		d.raw |= bitNMIP
	} else {
		d.raw &^= bitNMIP
	}
}

// Trig is the CLIC interrupt-trigger-type field of clicintattr: low
// bit selects edge (1) vs. level (0); high bit selects active-low (1)
// vs. active-high (0).
type Trig uint8

func (t Trig) Edge() bool      { return t&0x1 != 0 }
func (t Trig) ActiveLow() bool { return t&0x2 != 0 }

// ClicIntAttr models one interrupt's clicintattr byte in the smclic
// draft layout bit order: {trig[7:6], shv[5], rsvd[4:2], mode[1:0]}.
type ClicIntAttr struct {
	raw uint8
}

func ClicIntAttrFromRaw(raw uint8) ClicIntAttr { return ClicIntAttr{raw: raw} }
func (a ClicIntAttr) Raw() uint8               { return a.raw }

func (a ClicIntAttr) Mode() uint8   { return a.raw & 0x3 }
func (a ClicIntAttr) Shv() bool     { return a.raw&(1<<5) != 0 }
func (a ClicIntAttr) Trig() Trig    { return Trig((a.raw >> 6) & 0x3) }

func (a *ClicIntAttr) SetMode(m uint8) {
	a.raw = (a.raw &^ 0x3) | (m & 0x3)
}

func (a *ClicIntAttr) SetShv(v bool) {
	if v {
		a.raw |= 1 << 5
	} else {
		a.raw &^= 1 << 5
	}
}

func (a *ClicIntAttr) SetTrig(t Trig) {
	a.raw = (a.raw &^ (0x3 << 6)) | (uint8(t&0x3) << 6)
}

// Cliccfg models the cluster-wide cliccfg register: nmbits, nlbits,
// and the read-only nvbits (hardware-vectoring-enabled) bit.
type Cliccfg struct {
	raw uint8
}

func CliccfgFromRaw(raw uint8) Cliccfg { return Cliccfg{raw: raw} }
func (c Cliccfg) Raw() uint8           { return c.raw }

func (c Cliccfg) Nvbits() bool { return c.raw&(1<<0) != 0 }
func (c Cliccfg) Nlbits() uint8 {
	return (c.raw >> 1) & 0xF
}
func (c Cliccfg) Nmbits() uint8 {
	return (c.raw >> 5) & 0x3
}

func (c *Cliccfg) setNvbits(v bool) {
	if v {
		c.raw |= 1 << 0
	} else {
		c.raw &^= 1 << 0
	}
}

func (c *Cliccfg) SetNlbits(v uint8) {
	c.raw = (c.raw &^ (0xF << 1)) | ((v & 0xF) << 1)
}

func (c *Cliccfg) SetNmbits(v uint8) {
	c.raw = (c.raw &^ (0x3 << 5)) | ((v & 0x3) << 5)
}

// WriteCliccfg applies a raw write to cliccfg, clearing WPRI bits,
// clamping nmbits <= cfgMBits and nlbits <= 8, and preserving the
// read-only nvbits from the current value.
func WriteCliccfg(current Cliccfg, rawWrite uint8, cfgMBits uint8, nvbitsFixed bool) Cliccfg {
	next := CliccfgFromRaw(rawWrite &^ 0x80) // bit 7 is WPRI
	if next.Nmbits() > cfgMBits {
		next.SetNmbits(cfgMBits)
	}
	if next.Nlbits() > 8 {
		next.SetNlbits(8)
	}
	next.setNvbits(nvbitsFixed)
	return next
}
