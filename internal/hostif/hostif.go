// Package hostif defines the external collaborator interfaces the trap
// core needs but does not own: the simulator host runtime and the
// derived-model observer list. Each interface is a narrow, verb-named
// set of methods describing what the core calls into without owning
// the implementation.
package hostif

import "rvtrap/internal/priv"

// Endian selects the data endianness of a memory read.
type Endian uint8

const (
	LittleEndian Endian = iota
	BigEndian
)

// TimerHandle identifies a host-created one-shot timer.
type TimerHandle uint64

// Host is the simulator host runtime the trap core calls into. It
// owns PC storage, data memory, MMIO range registration, timers, and
// halt/restart scheduling; this module never stores these itself.
type Host interface {
	// PC reads the hart's committed program counter.
	PC(hart int) uint64
	// SetPC writes the hart's program counter via the exception-setting
	// API, not the instruction-retire PC path.
	SetPC(hart int, pc uint64)
	// DeferredPC returns the committed PC and a "jump base" for
	// instruction-table extensions: the committed PC is preferred when
	// an instruction is mid-stream.
	DeferredPC(hart int) (committed uint64, jumpBase uint64)

	// ReadMemory performs an endian-aware n-byte (4 or 8) read from the
	// hart's data memory domain. ok is false on access fault.
	ReadMemory(hart int, addr uint64, n int, endian Endian) (value uint64, ok bool)

	// RegisterMMIO installs a memory-mapped callback range, used by
	// cmd/rvtrapsim to expose the CLIC register file.
	RegisterMMIO(base, size uint64, read func(off uint64) uint8, write func(off uint64, v uint8))

	// TimerCreate, TimerArm, and TimerDelete manage a one-shot timer,
	// used by the debug single-step controller.
	TimerCreate(hart int, fire func()) TimerHandle
	TimerArm(h TimerHandle, instructions uint64)
	TimerDelete(h TimerHandle)

	// AbortRepeat aborts an in-progress repeated instruction, part of
	// the Debug-mode entry shortcut.
	AbortRepeat(hart int)

	// Halt and Restart implement the halt/restart scheduling hooks.
	Halt(hart int)
	Restart(hart int)

	// DeliverSyncInterrupt and DeliverAsyncInterrupt deliver host
	// interrupts, used by the deferint scheduling path and the debug
	// INTERRUPT configuration.
	DeliverSyncInterrupt(hart int)
	DeliverAsyncInterrupt(hart int)

	// WriteNet writes an output net (DM indication, LR/SC address
	// broadcast, AMO-active indication).
	WriteNet(hart int, name string, value uint64)
}

// Observer is one derived-model extension's optional callback block,
// modelled as a struct of optional function fields rather than a linked
// list node: a slice of these in registration order gives an
// idiomatic Go equivalent of an observable-order notification list.
type Observer struct {
	Name string

	HaltRestartNotifier func(hart int, halted bool)
	TrapNotifier        func(hart int, targetMode priv.Mode)
	ERETNotifier        func(hart int, targetMode priv.Mode)
	ResetNotifier       func(hart int)

	// FirstException lets a derived model enumerate extra exception
	// descriptors beyond the standard catalogue (internal/except).
	FirstException func() []uint

	RdSnapCB func(addr uint64)
	WrSnapCB func(addr uint64)
}

// Observers is an ordered list of registered extension callback
// blocks; notifications fire in list (insertion) order.
type Observers struct {
	list []Observer
}

// Register appends an observer, preserving insertion order.
func (o *Observers) Register(ob Observer) {
	o.list = append(o.list, ob)
}

// NotifyTrap invokes every registered TrapNotifier in order.
func (o *Observers) NotifyTrap(hart int, targetMode priv.Mode) {
	for _, ob := range o.list {
		if ob.TrapNotifier != nil {
			ob.TrapNotifier(hart, targetMode)
		}
	}
}

// NotifyERET invokes every registered ERETNotifier in order.
func (o *Observers) NotifyERET(hart int, targetMode priv.Mode) {
	for _, ob := range o.list {
		if ob.ERETNotifier != nil {
			ob.ERETNotifier(hart, targetMode)
		}
	}
}

// NotifyReset invokes every registered ResetNotifier in order.
func (o *Observers) NotifyReset(hart int) {
	for _, ob := range o.list {
		if ob.ResetNotifier != nil {
			ob.ResetNotifier(hart)
		}
	}
}

// NotifyHaltRestart invokes every registered HaltRestartNotifier in
// order.
func (o *Observers) NotifyHaltRestart(hart int, halted bool) {
	for _, ob := range o.list {
		if ob.HaltRestartNotifier != nil {
			ob.HaltRestartNotifier(hart, halted)
		}
	}
}
