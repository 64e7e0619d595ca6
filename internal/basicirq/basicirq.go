// Package basicirq implements the classic CLINT-style interrupt
// selector: the highest-priority pending-and-enabled interrupt computed
// from mip/mie/delegation and the global interrupt-enable bits. It is
// deliberately independent of the CLIC engine (internal/clic) — the two
// selectors run side by side and their outputs are reconciled by
// internal/hart's delivery gate.
//
// The pending-interrupt computation (mask under enable/exception-level
// gating) generalizes from a single flat IM/IP mask to RISC-V's
// three-way mode-delegated partition.
package basicirq

import "rvtrap/internal/priv"

// Source identifies one of the nine standard basic-controller
// interrupt sources, ordered by the mandatory fixed priority table
// (index 0 is highest priority).
type Source uint8

const (
	MExternal Source = iota
	MSoftware
	MTimer
	SExternal
	SSoftware
	STimer
	UExternal
	USoftware
	UTimer
	numSources
)

// Code returns the standard xcause interrupt code for a source: the
// mip/mie bit position and the reported cause code share the same
// numbering for every standard basic-controller source.
func (s Source) Code() uint { return s.bit() }

// bit returns the mip/mie bit position for a source.
func (s Source) bit() uint {
	switch s {
	case UExternal:
		return 8
	case SExternal:
		return 9
	case MExternal:
		return 11
	case USoftware:
		return 0
	case SSoftware:
		return 1
	case MSoftware:
		return 3
	case UTimer:
		return 4
	case STimer:
		return 5
	case MTimer:
		return 7
	}
	return 0
}

func (s Source) mode() priv.Mode {
	switch s {
	case MExternal, MSoftware, MTimer:
		return priv.Machine
	case SExternal, SSoftware, STimer:
		return priv.Supervisor
	default:
		return priv.User
	}
}

// priorityOrder is the mandatory fixed priority table, highest first.
var priorityOrder = [numSources]Source{
	MExternal, MSoftware, MTimer,
	SExternal, SSoftware, STimer,
	UExternal, USoftware, UTimer,
}

// Selection is the basic selector's result, feeding the hart's combined
// pendEnab cache.
type Selection struct {
	Source Source
	Priv   priv.Mode
	Valid  bool
}

// Status is the subset of mstatus the selector consults.
type Status struct {
	UIE, SIE, MIE bool
}

// Inputs bundles everything the basic selector needs on one call.
type Inputs struct {
	Mip, Mie         uint64
	Mideleg, Sideleg uint64
	Status           Status
	CurrentMode      priv.Mode
	// CLICActive reports whether CLIC mode is active for a given
	// privilege; when active, the basic selector's effective-enable
	// computation for that mode is forced false.
	CLICActive func(m priv.Mode) bool
}

// effectiveEnable computes per-mode effective xIE: current mode below
// the target is always enabled, above is always disabled, and equal
// falls back to the mode's own xIE bit.
func effectiveEnable(in Inputs, m priv.Mode) bool {
	if in.CLICActive != nil && in.CLICActive(m) {
		return false
	}
	if in.CurrentMode < m {
		return true
	}
	if in.CurrentMode > m {
		return false
	}
	switch m {
	case priv.Machine:
		return in.Status.MIE
	case priv.Supervisor:
		return in.Status.SIE
	default:
		return in.Status.UIE
	}
}

// Select runs the full basic selector: candidate mask, per-mode
// effective enable, delegation partition, priority selection.
func Select(in Inputs) Selection {
	candidates := in.Mip & in.Mie

	enableM := effectiveEnable(in, priv.Machine)
	enableS := effectiveEnable(in, priv.Supervisor)
	enableU := effectiveEnable(in, priv.User)

	mMask := ^in.Mideleg
	sMask := in.Mideleg &^ in.Sideleg
	uMask := in.Sideleg

	surviving := uint64(0)
	if enableM {
		surviving |= candidates & mMask
	}
	if enableS {
		surviving |= candidates & sMask
	}
	if enableU {
		surviving |= candidates & uMask
	}

	for _, src := range priorityOrder {
		bit := uint64(1) << src.bit()
		if surviving&bit == 0 {
			continue
		}
		return Selection{Source: src, Priv: src.mode(), Valid: true}
	}
	return Selection{}
}
