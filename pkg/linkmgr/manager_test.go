package linkmgr

import (
	"testing"
	"time"

	"dualtor-linkmgrd/pkg/model"
)

func TestUpdateTunablesAppliesToRegisteredPorts(t *testing.T) {
	mgr := NewManager(model.DefaultMuxConfig(), 1)
	t.Cleanup(mgr.Stop)
	sup := mgr.AddPort(model.PortConfig{PortName: "Ethernet0", CableType: model.CableActiveStandby})

	next := model.DefaultMuxConfig()
	next.PositiveStateChangeRetryCount = 7
	mgr.UpdateTunables(next)

	// UpdateTunables's own apply task is posted onto the same strand; a
	// sentinel task posted afterward is guaranteed (§5 ordering) to run
	// after it, giving a happens-before edge for the sup.Config read below.
	done := make(chan struct{})
	mgr.Dispatch("Ethernet0", func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("tunables update never reached the port strand")
	}

	if sup.Config.PositiveStateChangeRetryCount != 7 {
		t.Fatalf("PositiveStateChangeRetryCount = %d, want 7", sup.Config.PositiveStateChangeRetryCount)
	}
	if mgr.Tunables().PositiveStateChangeRetryCount != 7 {
		t.Fatalf("Manager.Tunables() not updated")
	}
}

func TestUpdateTunablesSeedsLaterAddedPorts(t *testing.T) {
	mgr := NewManager(model.DefaultMuxConfig(), 1)
	t.Cleanup(mgr.Stop)

	next := model.DefaultMuxConfig()
	next.NegativeStateChangeRetryCount = 9
	mgr.UpdateTunables(next)

	sup := mgr.AddPort(model.PortConfig{PortName: "Ethernet4", CableType: model.CableActiveStandby})
	if sup.Config.NegativeStateChangeRetryCount != 9 {
		t.Fatalf("newly added port's NegativeStateChangeRetryCount = %d, want 9", sup.Config.NegativeStateChangeRetryCount)
	}
}
