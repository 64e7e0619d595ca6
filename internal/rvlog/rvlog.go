// Package rvlog is a small verbose-gated wrapper around the standard
// library logger, in the style of a printIfVerbose helper: diagnostics
// are opt-in and side-effect-free on architectural state.
package rvlog

import "log"

// Logger gates Printf-style diagnostics on a Verbose flag.
type Logger struct {
	Verbose bool
}

// New returns a Logger with the given verbosity.
func New(verbose bool) *Logger {
	return &Logger{Verbose: verbose}
}

// Printf logs a formatted message if the logger is verbose.
func (l *Logger) Printf(format string, v ...interface{}) {
	if l == nil || !l.Verbose {
		return
	}
	log.Printf(format, v...)
}

// Trap logs a trap-entry transition. Callers should only call this on
// a real state change, never unconditionally per step.
func (l *Logger) Trap(hartID int, code uint, isInterrupt bool, targetMode string) {
	kind := "exception"
	if isInterrupt {
		kind = "interrupt"
	}
	l.Printf("[hart %d] %s code=%d -> mode=%s", hartID, kind, code, targetMode)
}

// MemException logs a synchronous memory exception.
func (l *Logger) MemException(hartID int, code uint, tval uint64) {
	l.Printf("[hart %d] memory exception code=%d tval=%#x", hartID, code, tval)
}

// IRQState logs an interrupt-state transition, basic or CLIC. Callers
// are responsible for only calling this when the selection changes.
func (l *Logger) IRQState(hartID int, source string, pendingID int) {
	l.Printf("[hart %d] %s selector -> id=%d", hartID, source, pendingID)
}

// IllegalDRET logs a DRET executed outside Debug mode.
func (l *Logger) IllegalDRET(hartID int) {
	l.Printf("[hart %d] DRET outside Debug mode: illegal instruction", hartID)
}
