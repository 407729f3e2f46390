package linkmgr

import (
	"testing"

	"dualtor-linkmgrd/pkg/model"
)

func newActiveActiveSupervisor() *PortSupervisor {
	cfg := model.DefaultMuxConfig()
	return NewPortSupervisor(model.PortConfig{PortName: "Ethernet4", CableType: model.CableActiveActive}, cfg)
}

func bootActiveActiveToActive(t *testing.T) *PortSupervisor {
	t.Helper()
	s := newActiveActiveSupervisor()
	for i := 0; i < s.Config.LinkStateChangeRetryCount; i++ {
		s.OnLinkOper(true)
	}
	for i := 0; i < s.Config.PositiveStateChangeRetryCount; i++ {
		s.OnProberVerdict(model.VerdictSelfActive)
	}
	for i := 0; i < s.Config.MuxStateChangeRetryCount; i++ {
		s.OnMuxReport(model.MuxReportActive)
	}
	if s.State.Composite != (model.CompositeState{Prober: model.ProberActive, Mux: model.MuxActive, Link: model.LinkUp}) {
		t.Fatalf("setup failed, composite = %v", s.State.Composite)
	}
	return s
}

// S6 — active-active peer yield.
func TestScenarioPeerYield(t *testing.T) {
	s := bootActiveActiveToActive(t)

	var actions []Action
	for i := 0; i < s.Config.NegativeStateChangeRetryCount; i++ {
		actions = s.OnPeerVerdict(model.VerdictPeerUnknown)
	}
	peerSwitches := 0
	for _, a := range actions {
		if a.Kind == ActionRequestPeerSwitch {
			peerSwitches++
		}
	}
	if peerSwitches != 1 {
		t.Fatalf("peer-switch count = %d, want 1 (actions=%+v)", peerSwitches, actions)
	}
	if s.State.PeerMuxStateInvokeCount != 1 {
		t.Fatalf("PeerMuxStateInvokeCount = %d, want 1", s.State.PeerMuxStateInvokeCount)
	}
	if s.State.Composite != (model.CompositeState{Prober: model.ProberActive, Mux: model.MuxActive, Link: model.LinkUp}) {
		t.Fatalf("local composite mutated by peer signal: %v", s.State.Composite)
	}
}

// Invariant 6: in active-active, a local toggle is never caused by a peer-only signal.
func TestInvariantPeerSignalNeverTogglesLocal(t *testing.T) {
	s := bootActiveActiveToActive(t)

	var actions []Action
	for i := 0; i < s.Config.PositiveStateChangeRetryCount; i++ {
		actions = s.OnPeerVerdict(model.VerdictPeerActive)
	}
	if got := countToggles(actions, model.MuxActive); got != 0 {
		t.Fatalf("peer verdict must never toggle local hardware, got %+v", actions)
	}
	if got := countToggles(actions, model.MuxStandby); got != 0 {
		t.Fatalf("peer verdict must never toggle local hardware, got %+v", actions)
	}
}

// Detached mode withholds peer-switch requests while remaining observable.
func TestDetachedModeSuppressesPeerSwitch(t *testing.T) {
	s := bootActiveActiveToActive(t)
	s.OnModeChange(model.ModeDetached)

	var actions []Action
	for i := 0; i < s.Config.NegativeStateChangeRetryCount; i++ {
		actions = s.OnPeerVerdict(model.VerdictPeerUnknown)
	}
	for _, a := range actions {
		if a.Kind == ActionRequestPeerSwitch {
			t.Fatalf("expected no peer-switch request while Detached, got %+v", actions)
		}
	}
	if s.State.PeerMuxStateInvokeCount != 0 {
		t.Fatalf("PeerMuxStateInvokeCount = %d, want 0 while Detached", s.State.PeerMuxStateInvokeCount)
	}
}

// Both ToRs may be Active simultaneously in active-active: a peer Active
// verdict never forces the local mux to Standby.
func TestActiveActiveBothSidesCanBeActive(t *testing.T) {
	s := bootActiveActiveToActive(t)
	for i := 0; i < s.Config.PositiveStateChangeRetryCount; i++ {
		s.OnPeerVerdict(model.VerdictPeerActive)
	}
	if s.State.Peer.Prober != model.ProberPeerActive {
		t.Fatalf("peer view not updated: %v", s.State.Peer.Prober)
	}
	if s.State.Composite.Mux != model.MuxActive {
		t.Fatalf("local mux disturbed by peer Active verdict: %v", s.State.Composite.Mux)
	}
}
