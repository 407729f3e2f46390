package fabric

import (
	"testing"

	"dualtor-linkmgrd/pkg/model"
)

func TestMemoryWritesAreRecorded(t *testing.T) {
	m := NewMemory()
	if err := m.WriteMuxState("Ethernet0", model.MuxActive); err != nil {
		t.Fatalf("WriteMuxState: %v", err)
	}
	if err := m.WriteMuxCommand("Ethernet0", MuxCommandProbe); err != nil {
		t.Fatalf("WriteMuxCommand: %v", err)
	}
	if err := m.WriteHealth("Ethernet0", model.HealthHealthy); err != nil {
		t.Fatalf("WriteHealth: %v", err)
	}
	if len(m.MuxStateWrites) != 1 || m.MuxStateWrites[0] != model.MuxActive {
		t.Fatalf("MuxStateWrites = %+v", m.MuxStateWrites)
	}
	if len(m.MuxCommandWrites) != 1 || m.MuxCommandWrites[0] != MuxCommandProbe {
		t.Fatalf("MuxCommandWrites = %+v", m.MuxCommandWrites)
	}
	if len(m.HealthWrites) != 1 || m.HealthWrites[0] != model.HealthHealthy {
		t.Fatalf("HealthWrites = %+v", m.HealthWrites)
	}
}

func TestMemoryDeliverReachesSubscriber(t *testing.T) {
	m := NewMemory()
	got := make(chan model.MuxReport, 1)
	cancel, err := m.SubscribeMuxState("Ethernet0", func(r model.MuxReport) { got <- r })
	if err != nil {
		t.Fatalf("SubscribeMuxState: %v", err)
	}
	defer cancel()

	m.Deliver("Ethernet0", model.MuxReportActive)
	select {
	case r := <-got:
		if r != model.MuxReportActive {
			t.Fatalf("got %v, want Active", r)
		}
	default:
		t.Fatalf("subscriber did not receive delivered report")
	}
}

func TestMemoryDeliverTunablesReachesSubscriber(t *testing.T) {
	m := NewMemory()
	got := make(chan TunablesEvent, 1)
	if _, err := m.SubscribeTunables(func(ev TunablesEvent) { got <- ev }); err != nil {
		t.Fatalf("SubscribeTunables: %v", err)
	}
	m.DeliverTunables(TunablesEvent{LogVerbosity: "debug"})
	select {
	case ev := <-got:
		if ev.LogVerbosity != "debug" {
			t.Fatalf("got %+v, want LogVerbosity=debug", ev)
		}
	default:
		t.Fatalf("subscriber did not receive delivered tunables event")
	}
}

func TestMemoryDeliverOperReachesSubscriber(t *testing.T) {
	m := NewMemory()
	got := make(chan bool, 1)
	if _, err := m.SubscribePortOper("Ethernet0", func(up bool) { got <- up }); err != nil {
		t.Fatalf("SubscribePortOper: %v", err)
	}
	m.DeliverOper("Ethernet0", true)
	select {
	case up := <-got:
		if !up {
			t.Fatalf("got down, want up")
		}
	default:
		t.Fatalf("subscriber did not receive delivered oper status")
	}
}
