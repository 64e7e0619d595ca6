// Package priv implements privilege/mode utilities: current-mode
// inspection, minimum-implemented-mode clamp, and mode-implementation
// checks shared by the trap entry, trap return, and debug-mode
// controllers.
package priv

// Mode is a RISC-V privilege level. Debug mode is tracked separately
// and is not a Mode value here: it is an orthogonal flag a hart can be
// "in" while mode still holds the privilege it trapped from.
type Mode uint8

const (
	User Mode = iota
	Supervisor
	Reserved // architecturally reserved encoding, never targeted
	Machine
)

func (m Mode) String() string {
	switch m {
	case User:
		return "U"
	case Supervisor:
		return "S"
	case Machine:
		return "M"
	default:
		return "reserved"
	}
}

// Implemented describes which privilege modes a hart implements. Every
// hart implements Machine.
type Implemented struct {
	S bool // Supervisor mode (S extension)
	U bool // User mode (U extension)
}

// Implements reports whether the hart implements mode m.
func (imp Implemented) Implements(m Mode) bool {
	switch m {
	case Machine:
		return true
	case Supervisor:
		return imp.S
	case User:
		return imp.U
	default:
		return false
	}
}

// Minimum returns the minimum mode implemented by the hart: the mode
// xPP is reset to on trap return, and the floor the return-mode clamp
// applies.
func (imp Implemented) Minimum() Mode {
	if imp.U {
		return User
	}
	if imp.S {
		return Supervisor
	}
	return Machine
}

// Clamp returns m clamped to a mode the hart implements: if m is not
// implemented, the next higher implemented mode is used. Machine is
// always implemented so this always terminates.
func (imp Implemented) Clamp(m Mode) Mode {
	for m != Machine && !imp.Implements(m) {
		m++
	}
	return m
}

// Max returns the higher-privilege of a and b: traps never move to a
// lower privilege than the one they were taken from.
func Max(a, b Mode) Mode {
	if a > b {
		return a
	}
	return b
}
