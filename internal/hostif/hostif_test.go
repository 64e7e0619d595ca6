package hostif

import (
	"rvtrap/internal/priv"
	"testing"
)

func TestObserversNotifyOrder(t *testing.T) {
	var order []string
	var obs Observers
	obs.Register(Observer{Name: "a", TrapNotifier: func(hart int, m priv.Mode) { order = append(order, "a") }})
	obs.Register(Observer{Name: "b", TrapNotifier: func(hart int, m priv.Mode) { order = append(order, "b") }})
	obs.NotifyTrap(0, priv.Machine)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("notify order = %v, want [a b]", order)
	}
}

func TestObserversSkipUnsetCallbacks(t *testing.T) {
	var obs Observers
	obs.Register(Observer{Name: "no-op"})
	// Should not panic even though none of the callback fields are set.
	obs.NotifyTrap(0, priv.Machine)
	obs.NotifyERET(0, priv.Machine)
	obs.NotifyReset(0)
	obs.NotifyHaltRestart(0, true)
}

func TestObserversIndependentNotifications(t *testing.T) {
	var eretFired, resetFired bool
	var obs Observers
	obs.Register(Observer{
		ERETNotifier:  func(hart int, m priv.Mode) { eretFired = true },
		ResetNotifier: func(hart int) { resetFired = true },
	})
	obs.NotifyERET(0, priv.User)
	if !eretFired || resetFired {
		t.Fatalf("NotifyERET should only fire ERETNotifier: eret=%v reset=%v", eretFired, resetFired)
	}
}
