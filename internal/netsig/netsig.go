// Package netsig implements the external signal layer: edge/level
// detection for reset, NMI, per-interrupt inputs, the deferral signal,
// and store-conditional invalidation.
//
// A single external input (a keypress) sampled, compared against its
// previous latched value, and mirrored into simulated hardware state
// generalizes here into a full latched-signal struct with edge
// detection for every net port this module exposes.
package netsig

// Latched holds the sampled level of every external input net port:
// reset, nmi, haltreq, resethaltreq, resethaltreqS (the sampled-at-
// reset copy), and deferint.
type Latched struct {
	Reset         bool
	NMI           bool
	Haltreq       bool
	Resethaltreq  bool
	ResethaltreqS bool
	Deferint      bool
	SCValid       bool
}

// Edge is the result of comparing a new sample against the previous
// latched value.
type Edge struct {
	Rising  bool
	Falling bool
}

// detect returns the edge between old and new levels and the updated
// latch value.
func detect(old, new bool) Edge {
	return Edge{Rising: !old && new, Falling: old && !new}
}

// UpdateReset samples the reset net port and returns the edge. The
// caller (internal/hart) reacts to Rising by halting with reason RESET
// and to Falling by performing the full reset sequence.
func (l *Latched) UpdateReset(level bool) Edge {
	e := detect(l.Reset, level)
	l.Reset = level
	return e
}

// UpdateNMI samples the nmi net port; only the rising edge triggers NMI
// entry (outside Debug mode). The live level is always mirrored by the
// caller into dcsr.nmip regardless of edge.
func (l *Latched) UpdateNMI(level bool) Edge {
	e := detect(l.NMI, level)
	l.NMI = level
	return e
}

// UpdateHaltreq samples the haltreq net port, latching its level and
// returning the edge; internal/hart acts on the latched level and does
// not use the edge.
func (l *Latched) UpdateHaltreq(level bool) Edge {
	e := detect(l.Haltreq, level)
	l.Haltreq = level
	return e
}

// UpdateResethaltreq samples the level-latched resethaltreq input,
// sampled into ResethaltreqS on the reset falling edge (full reset).
func (l *Latched) UpdateResethaltreq(level bool) {
	l.Resethaltreq = level
}

// LatchResethaltreqS is called on the reset falling edge to copy the
// live resethaltreq level into the sticky resethaltreqS latch.
func (l *Latched) LatchResethaltreqS() {
	l.ResethaltreqS = l.Resethaltreq
}

// UpdateDeferint samples the deferint net port and returns the edge;
// the caller schedules a synchronous interrupt on the falling edge if
// anything is pending and enabled.
func (l *Latched) UpdateDeferint(level bool) Edge {
	e := detect(l.Deferint, level)
	l.Deferint = level
	return e
}

// UpdateSCValid samples SC_valid; deassertion (falling edge) clears
// the exclusive reservation.
func (l *Latched) UpdateSCValid(level bool) Edge {
	e := detect(l.SCValid, level)
	l.SCValid = level
	return e
}

// PerInterruptInput latches one externally-asserted pending bit and
// applies trigger-type semantics before mirroring into CLIC/basic
// state. Edge-triggered sources latch on
// the rising edge and stay latched until acknowledged elsewhere;
// level-triggered sources track the live level directly, inverted if
// the interrupt is configured active-low.
type PerInterruptInput struct {
	level bool
}

// Sample updates one per-interrupt input given its current trigger
// configuration (edge vs. level, active-low vs. active-high). For a
// level-triggered source, shouldWrite is always true and value tracks
// the live (polarity-corrected) level. For an edge-triggered source,
// shouldWrite is true only on the polarity-corrected rising edge
// (value is then always true — an edge asserts, it never deasserts;
// deassertion happens only through Engine.Acknowledge).
func (p *PerInterruptInput) Sample(newLevel bool, edgeTriggered bool, activeLow bool) (value bool, shouldWrite bool) {
	effective := newLevel
	if activeLow {
		effective = !newLevel
	}
	if !edgeTriggered {
		p.level = effective
		return effective, true
	}
	rising := !p.level && effective
	p.level = effective
	if rising {
		return true, true
	}
	return false, false
}
