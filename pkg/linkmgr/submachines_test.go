package linkmgr

import (
	"testing"

	"dualtor-linkmgrd/pkg/model"
)

func newTestState() *model.PortState {
	return model.NewPortState(model.PortConfig{PortName: "Ethernet0", CableType: model.CableActiveStandby})
}

func TestProberHysteresisRequiresConsecutiveVerdicts(t *testing.T) {
	st := newTestState()
	cfg := model.DefaultMuxConfig()
	cfg.PositiveStateChangeRetryCount = 3

	for i := 0; i < 2; i++ {
		if applyProberHysteresis(st, cfg, model.VerdictSelfActive) {
			t.Fatalf("advanced early at verdict %d", i+1)
		}
	}
	if !applyProberHysteresis(st, cfg, model.VerdictSelfActive) {
		t.Fatalf("expected advance on 3rd consecutive SelfActive")
	}
	if st.Composite.Prober != model.ProberActive {
		t.Fatalf("got %v, want Active", st.Composite.Prober)
	}
}

func TestProberHysteresisResetsOnNonMatchingVerdict(t *testing.T) {
	st := newTestState()
	cfg := model.DefaultMuxConfig()

	applyProberHysteresis(st, cfg, model.VerdictSelfActive)
	applyProberHysteresis(st, cfg, model.VerdictSelfActive)
	if st.ProberConsecutive != 2 {
		t.Fatalf("consecutive = %d, want 2", st.ProberConsecutive)
	}
	applyProberHysteresis(st, cfg, model.VerdictSelfUnknown)
	if st.ProberConsecutive != 1 {
		t.Fatalf("consecutive after reset = %d, want 1", st.ProberConsecutive)
	}
}

func TestPeerProberHysteresisIndependentOfLocal(t *testing.T) {
	st := newTestState()
	cfg := model.DefaultMuxConfig()
	cfg.NegativeStateChangeRetryCount = 3

	for i := 0; i < 3; i++ {
		applyProberHysteresis(st, cfg, model.VerdictPeerUnknown)
	}
	if st.Peer.Prober != model.ProberPeerUnknown {
		t.Fatalf("peer prober = %v, want PeerUnknown", st.Peer.Prober)
	}
	if st.Composite.Prober != model.ProberWait {
		t.Fatalf("local composite mutated by peer verdicts: %v", st.Composite.Prober)
	}
}

func TestMuxHysteresisSettlesPerReport(t *testing.T) {
	st := newTestState()
	cfg := model.DefaultMuxConfig()
	cfg.MuxStateChangeRetryCount = 3

	for i := 0; i < 2; i++ {
		if applyMuxHysteresis(st, cfg, model.MuxReportActive) {
			t.Fatalf("advanced early")
		}
	}
	if !applyMuxHysteresis(st, cfg, model.MuxReportActive) {
		t.Fatalf("expected advance on 3rd report")
	}
	if st.Composite.Mux != model.MuxActive {
		t.Fatalf("mux = %v, want Active", st.Composite.Mux)
	}
}

func TestLinkHysteresis(t *testing.T) {
	st := newTestState()
	cfg := model.DefaultMuxConfig()
	cfg.LinkStateChangeRetryCount = 2

	if applyLinkHysteresis(st, cfg, true) {
		t.Fatalf("advanced early")
	}
	if !applyLinkHysteresis(st, cfg, true) {
		t.Fatalf("expected advance on 2nd sample")
	}
	if st.Composite.Link != model.LinkUp {
		t.Fatalf("link = %v, want Up", st.Composite.Link)
	}
}

func TestResetLossCountIdempotent(t *testing.T) {
	st := newTestState()
	st.PacketLossCount = 5
	st.PacketExpectedCount = 10
	ResetLossCount(st)
	ResetLossCount(st)
	if st.PacketLossCount != 0 || st.PacketExpectedCount != 0 {
		t.Fatalf("loss counters not reset: %+v", st)
	}
}
