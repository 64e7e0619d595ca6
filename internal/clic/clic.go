// Package clic implements a Core-Local Interrupt Controller engine:
// per-hart interrupt state, the memory-mapped register file, the
// pending+enabled summary bitmap, and level/privilege/hardware-
// vectoring selection.
//
// The packed-register read/write style (manual bit-mask get/set, as
// in a coprocessor register file's IV/SW-IP handling) generalizes from
// a single-register-number switch to a per-interrupt array of
// four-byte records, following the "decode fields from a raw
// register, clamp, write back" shape of a TLB-entry write.
package clic

import "rvtrap/internal/csr"

// NoInterrupt is the "no interrupt selected" sentinel: ID uses this
// exact value so it round-trips through the priority rank computation
// without colliding with a real interrupt id (ids are >= 0).
const NoInterrupt = -1

// IntState is one interrupt's packed 4-byte clicint* state: ip, ie,
// attr, ctl.
type IntState struct {
	IP   bool
	IE   bool
	Attr csr.ClicIntAttr
	Ctl  uint8
}

// Info is the read-only clicinfo register.
type Info struct {
	NumInterrupt   int
	Version        uint8
	ClicIntCtlBits uint8 // CLICINTCTLBITS: writable high bits of clicintctl
}

// ctlAlwaysOneMask returns the always-one low-bits mask: writes to
// clicintctl always OR in (1<<(8-CLICINTCTLBITS))-1, the unconfigurable
// low bits that always read as 1.
func (info Info) ctlAlwaysOneMask() uint8 {
	bits := info.ClicIntCtlBits
	if bits >= 8 {
		return 0
	}
	return uint8((1 << (8 - bits)) - 1)
}

// NormalizeCtl applies the always-one mask to a raw clicintctl write.
func (info Info) NormalizeCtl(raw uint8) uint8 {
	return raw | info.ctlAlwaysOneMask()
}

// Selection is the cached selected-interrupt result: {id, priv, level,
// shv}.
type Selection struct {
	ID    int
	Priv  uint8 // numeric privilege encoding matching csr/priv.Mode values
	Level int   // -1 means "no selection"; otherwise 0..255
	Shv   bool
}

// None is the empty selection.
var None = Selection{ID: NoInterrupt, Level: -1}

// Engine holds one hart's CLIC interrupt state.
type Engine struct {
	Info  Info
	state []IntState
	ipe   []uint64 // summary bitmap: bit k of word i is state[64*i+k].IP && .IE
	sel   Selection
}

// NewEngine allocates CLIC state for info.NumInterrupt interrupts.
// Callers only construct an Engine when CLIC is configured present.
func NewEngine(info Info) *Engine {
	n := info.NumInterrupt
	return &Engine{
		Info:  info,
		state: make([]IntState, n),
		ipe:   make([]uint64, (n+63)/64),
		sel:   None,
	}
}

// NumInterrupt returns the configured interrupt count.
func (e *Engine) NumInterrupt() int { return len(e.state) }

// State returns a copy of interrupt i's packed state.
func (e *Engine) State(i int) IntState {
	if i < 0 || i >= len(e.state) {
		return IntState{}
	}
	return e.state[i]
}

// Selected returns the cached selection.
func (e *Engine) Selected() Selection { return e.sel }

// recomputeIpe mirrors state[i].IP && .IE into the ipe summary bitmap.
func (e *Engine) recomputeIpe(i int) {
	word, bit := i/64, uint(i%64)
	set := e.state[i].IP && e.state[i].IE
	if set {
		e.ipe[word] |= 1 << bit
	} else {
		e.ipe[word] &^= 1 << bit
	}
}

// IpeBit reports the summary bitmap bit for interrupt i (exported for
// tests and for save/restore rebuilding).
func (e *Engine) IpeBit(i int) bool {
	word, bit := i/64, uint(i%64)
	if word < 0 || word >= len(e.ipe) {
		return false
	}
	return e.ipe[word]&(1<<bit) != 0
}

// RebuildIpe recomputes the entire ipe bitmap from state, used after a
// state restore since only IntState is saved; the summary bitmap is
// derived, not persisted.
func (e *Engine) RebuildIpe() {
	for i := range e.state {
		e.recomputeIpe(i)
	}
}

// WriteIP sets or clears interrupt i's pending bit. On an edge-
// triggered interrupt being acknowledged (set=false), this simply
// deasserts; on level-triggered, acknowledgement re-evaluates without
// forcing the bit off by itself — callers drive that distinction
// themselves.
func (e *Engine) WriteIP(i int, set bool) {
	if i < 0 || i >= len(e.state) {
		return
	}
	e.state[i].IP = set
	e.recomputeIpe(i)
}

// Acknowledge implements the deassert-on-ack rule: edge-triggered
// sources deassert when acknowledged; level-triggered sources are left
// alone (level stays pending until the external source itself drops)
// and the selector is simply re-run.
func (e *Engine) Acknowledge(i int) {
	if i < 0 || i >= len(e.state) {
		return
	}
	if e.state[i].Attr.Trig().Edge() {
		e.state[i].IP = false
		e.recomputeIpe(i)
	}
}

// WriteIE sets or clears interrupt i's enable bit.
func (e *Engine) WriteIE(i int, set bool) {
	if i < 0 || i >= len(e.state) {
		return
	}
	e.state[i].IE = set
	e.recomputeIpe(i)
}

// effectiveMode resolves attr.mode through the nmbits/CLICCFGMBITS
// table.
func effectiveMode(nmbits uint8, modesMSU bool, modesMU bool, rawMode uint8) uint8 {
	const (
		modeU uint8 = 0
		modeS uint8 = 1
		modeM uint8 = 3
	)
	switch nmbits {
	case 0:
		return modeM
	case 1:
		if modesMU && !modesMSU {
			if rawMode&0x2 != 0 {
				return modeM
			}
			return modeU
		}
		// M/S/U, nmbits=1
		if rawMode&0x2 != 0 {
			return modeM
		}
		return modeS
	default: // 2
		switch rawMode & 0x3 {
		case 0:
			return modeU
		case 1:
			return modeS
		case 2:
			return modeS // reserved: treated as S, see clamp-on-write which should prevent this encoding from being written
		default:
			return modeM
		}
	}
}

// ModeConfig describes which modes the cluster implements, needed to
// interpret and clamp attr.mode.
type ModeConfig struct {
	Nmbits      uint8
	CfgMBits    uint8 // CLICCFGMBITS: max nmbits the cluster supports
	HasS        bool
	HasU        bool
}

// EffectiveMode returns the effective privilege (0=U,1=S,3=M) of
// interrupt i's attr.mode under cfg.
func (e *Engine) EffectiveMode(i int, cfg ModeConfig) uint8 {
	if i < 0 || i >= len(e.state) {
		return 3
	}
	modesMSU := cfg.HasS && cfg.HasU
	modesMU := cfg.HasU && !cfg.HasS
	return effectiveMode(cfg.Nmbits, modesMSU, modesMU, e.state[i].Attr.Mode())
}

// ClampAttrMode clamps a raw attr.mode write so it cannot exceed
// pageMode, cannot select an unimplemented mode, and cannot leave M
// when CLICCFGMBITS == 0.
func ClampAttrMode(rawMode uint8, pageMode uint8, cfg ModeConfig) uint8 {
	if cfg.CfgMBits == 0 {
		return 3 // M
	}
	m := rawMode & 0x3
	// Reserved encoding (nmbits==2, mode==10) is not a valid target;
	// clamp down to S, the nearest implemented non-M mode.
	if cfg.Nmbits == 2 && m == 2 {
		m = 1
	}
	if m == 1 && !cfg.HasS {
		if cfg.HasU {
			m = 0
		} else {
			m = 3
		}
	}
	if m == 0 && !cfg.HasU {
		m = 3
	}
	if m > pageMode {
		m = pageMode
	}
	return m
}

// WriteAttr applies attr fields from a raw byte write, clamping mode
// per ClampAttrMode.
func (e *Engine) WriteAttr(i int, raw uint8, pageMode uint8, cfg ModeConfig) {
	if i < 0 || i >= len(e.state) {
		return
	}
	a := csr.ClicIntAttrFromRaw(raw)
	a.SetMode(ClampAttrMode(a.Mode(), pageMode, cfg))
	e.state[i].Attr = a
}

// WriteCtl applies a raw clicintctl write, OR-ing in the always-one
// low-bits mask.
func (e *Engine) WriteCtl(i int, raw uint8) {
	if i < 0 || i >= len(e.state) {
		return
	}
	e.state[i].Ctl = e.Info.NormalizeCtl(raw)
}

// rank computes the selection rank (effectiveMode<<8)|ctl used by
// Select.
func rank(effMode uint8, ctl uint8) int {
	return int(effMode)<<8 | int(ctl)
}

// Select scans ipe and recomputes e.sel: max rank wins, ties go to the
// higher-numbered id; level is the top nlbits of the winner's ctl with
// lower bits filled with 1s.
func (e *Engine) Select(cfg ModeConfig, nlbits uint8) Selection {
	best := None
	bestRank := -1
	for word, bits := range e.ipe {
		if bits == 0 {
			continue
		}
		for k := 0; k < 64; k++ {
			if bits&(uint64(1)<<uint(k)) == 0 {
				continue
			}
			i := word*64 + k
			if i >= len(e.state) {
				continue
			}
			eff := e.EffectiveMode(i, cfg)
			r := rank(eff, e.state[i].Ctl)
			if r > bestRank || (r == bestRank && i > best.ID) {
				bestRank = r
				best = Selection{ID: i, Priv: eff, Shv: e.state[i].Attr.Shv()}
			}
		}
	}
	if best.ID == NoInterrupt {
		e.sel = None
		return e.sel
	}
	best.Level = levelFromCtl(e.state[best.ID].Ctl, nlbits)
	e.sel = best
	return e.sel
}

// levelFromCtl takes the top nlbits of ctl and fills the lower bits
// with 1s.
func levelFromCtl(ctl uint8, nlbits uint8) int {
	if nlbits == 0 {
		return 0xFF
	}
	if nlbits > 8 {
		nlbits = 8
	}
	top := ctl >> (8 - nlbits)
	fill := uint8((1 << (8 - nlbits)) - 1)
	return int(top<<(8-nlbits) | fill)
}
