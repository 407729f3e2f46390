package fabric

import (
	"testing"
	"time"

	"dualtor-linkmgrd/pkg/model"
)

func TestTunablesEventApplyOverlaysPresentFields(t *testing.T) {
	base := model.DefaultMuxConfig()
	ev := TunablesEvent{
		IntervalV4:          "200",
		PositiveSignalCount: "5",
		LogVerbosity:        "debug",
	}

	cfg := ev.Apply(base)
	if cfg.IntervalV4 != 200*time.Millisecond {
		t.Fatalf("IntervalV4 = %s, want 200ms", cfg.IntervalV4)
	}
	if cfg.PositiveSignalCount != 5 {
		t.Fatalf("PositiveSignalCount = %d, want 5", cfg.PositiveSignalCount)
	}
	if cfg.LogVerbosity != "debug" {
		t.Fatalf("LogVerbosity = %q, want debug", cfg.LogVerbosity)
	}
	// fields absent from ev must keep base's value untouched.
	if cfg.NegativeSignalCount != base.NegativeSignalCount {
		t.Fatalf("NegativeSignalCount = %d, want base's %d", cfg.NegativeSignalCount, base.NegativeSignalCount)
	}
	if cfg.IntervalV6 != base.IntervalV6 {
		t.Fatalf("IntervalV6 = %s, want base's %s", cfg.IntervalV6, base.IntervalV6)
	}
}

func TestTunablesEventApplyInvalidInputKeepsPreviousValue(t *testing.T) {
	base := model.DefaultMuxConfig()
	ev := TunablesEvent{PositiveSignalCount: "not-an-int"}

	cfg := ev.Apply(base)
	if cfg.PositiveSignalCount != base.PositiveSignalCount {
		t.Fatalf("PositiveSignalCount = %d, want base's %d retained on malformed input", cfg.PositiveSignalCount, base.PositiveSignalCount)
	}
}
