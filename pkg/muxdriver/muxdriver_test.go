package muxdriver

import (
	"testing"
	"time"

	"dualtor-linkmgrd/pkg/fabric"
	"dualtor-linkmgrd/pkg/linkmgr"
	"dualtor-linkmgrd/pkg/model"
)

func TestApplyWritesMuxStateForToggle(t *testing.T) {
	mem := fabric.NewMemory()
	mgr := linkmgr.NewManager(model.DefaultMuxConfig(), 1)
	t.Cleanup(mgr.Stop)
	d := New(mem, mgr)

	d.Apply("Ethernet0", []linkmgr.Action{{Kind: linkmgr.ActionRequestToggle, Target: model.MuxActive}})
	if len(mem.MuxStateWrites) != 1 || mem.MuxStateWrites[0] != model.MuxActive {
		t.Fatalf("got %+v", mem.MuxStateWrites)
	}
}

func TestApplyWritesProbeCommand(t *testing.T) {
	mem := fabric.NewMemory()
	mgr := linkmgr.NewManager(model.DefaultMuxConfig(), 1)
	t.Cleanup(mgr.Stop)
	d := New(mem, mgr)

	d.Apply("Ethernet0", []linkmgr.Action{{Kind: linkmgr.ActionRequestProbe}})
	if len(mem.MuxCommandWrites) != 1 || mem.MuxCommandWrites[0] != fabric.MuxCommandProbe {
		t.Fatalf("got %+v", mem.MuxCommandWrites)
	}
}

func TestApplyWritesHealth(t *testing.T) {
	mem := fabric.NewMemory()
	mgr := linkmgr.NewManager(model.DefaultMuxConfig(), 1)
	t.Cleanup(mgr.Stop)
	d := New(mem, mgr)

	d.Apply("Ethernet0", []linkmgr.Action{{Kind: linkmgr.ActionPublishHealth, Health: model.HealthHealthy}})
	if len(mem.HealthWrites) != 1 || mem.HealthWrites[0] != model.HealthHealthy {
		t.Fatalf("got %+v", mem.HealthWrites)
	}
}

func TestApplyWritesSwitchMetric(t *testing.T) {
	mem := fabric.NewMemory()
	mgr := linkmgr.NewManager(model.DefaultMuxConfig(), 1)
	t.Cleanup(mgr.Stop)
	d := New(mem, mgr)

	d.Apply("Ethernet0", []linkmgr.Action{{Kind: linkmgr.ActionPublishMetrics, MetricLabel: "active", MetricEdge: "start"}})
	if len(mem.SwitchMetrics) != 1 || mem.SwitchMetrics[0] != "linkmgrd_switch_active_start" {
		t.Fatalf("got %+v", mem.SwitchMetrics)
	}
}

func TestWatchReportsDeliversIntoPortStrand(t *testing.T) {
	mem := fabric.NewMemory()
	cfg := model.DefaultMuxConfig()
	mgr := linkmgr.NewManager(cfg, 1)
	t.Cleanup(mgr.Stop)
	mgr.AddPort(model.PortConfig{PortName: "Ethernet0", CableType: model.CableActiveStandby})
	d := New(mem, mgr)

	got := make(chan []linkmgr.Action, cfg.MuxStateChangeRetryCount)
	cancel, err := d.WatchReports("Ethernet0", func(_ string, actions []linkmgr.Action) {
		got <- actions
	})
	if err != nil {
		t.Fatalf("WatchReports: %v", err)
	}
	defer cancel()

	// MuxStateChangeRetryCount consecutive identical reports are needed to
	// settle the mux sub-state and drive a decision (§4.1 hysteresis).
	for i := 0; i < cfg.MuxStateChangeRetryCount; i++ {
		mem.Deliver("Ethernet0", model.MuxReportStandby)
	}

	var settled bool
	deadline := time.After(2 * time.Second)
	for i := 0; i < cfg.MuxStateChangeRetryCount && !settled; i++ {
		select {
		case actions := <-got:
			if len(actions) > 0 {
				settled = true
			}
		case <-deadline:
		}
	}
	if !settled {
		t.Fatalf("expected at least one action once the mux report settled")
	}
}

func TestWatchLinkOperDeliversIntoPortStrand(t *testing.T) {
	mem := fabric.NewMemory()
	mgr := linkmgr.NewManager(model.DefaultMuxConfig(), 1)
	t.Cleanup(mgr.Stop)
	sup := mgr.AddPort(model.PortConfig{PortName: "Ethernet0", CableType: model.CableActiveStandby})
	d := New(mem, mgr)

	done := make(chan struct{}, 1)
	cancel, err := d.WatchLinkOper("Ethernet0", func(string, []linkmgr.Action) {
		select {
		case done <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("WatchLinkOper: %v", err)
	}
	defer cancel()

	mem.DeliverOper("Ethernet0", true)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("link oper delivery never reached the port strand")
	}

	// the default LinkStateChangeRetryCount is 1, so a single report settles
	// the link sub-state immediately.
	if sup.State.Composite.Link != model.LinkUp {
		t.Fatalf("got Link=%v, want Up", sup.State.Composite.Link)
	}
}
