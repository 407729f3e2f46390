package linkmgr

import (
	"fmt"
	"log"
	"time"

	"dualtor-linkmgrd/pkg/model"
)

// probeBackoff is a per-port bounded exponential backoff for re-probing a
// MuxWaitTimeout-expired toggle or an Unknown/Error mux report (§4.1 failure
// semantics, §5 cancellation and timeouts).
type probeBackoff struct {
	attempt int
	base    time.Duration
	cap     time.Duration
}

func newProbeBackoff(base, cap time.Duration) *probeBackoff {
	if base <= 0 {
		base = time.Second
	}
	if cap <= 0 {
		cap = base
	}
	return &probeBackoff{base: base, cap: cap}
}

// next returns the delay before the next probe attempt and advances the
// internal attempt counter.
func (b *probeBackoff) next() time.Duration {
	d := b.base << uint(b.attempt)
	if d <= 0 || d > b.cap {
		d = b.cap
	}
	b.attempt++
	return d
}

func (b *probeBackoff) reset() { b.attempt = 0 }

// OnToggleDeadline is called by the dispatcher's timer when a pending
// toggle's deadline elapses with no confirming report. Per §4.1's failure
// semantics it re-probes (never re-toggles) up to MuxStateChangeRetryCount,
// then declares Unhealthy while continuing to observe.
func OnToggleDeadline(st *model.PortState, cfg model.MuxConfig) []Action {
	if st.PendingToggle == nil {
		return nil
	}
	st.PendingToggle.Attempt++
	if st.PendingToggle.Attempt > cfg.MuxStateChangeRetryCount {
		st.Health = model.HealthUnhealthy
		err := newErr(KindTimeout, st.PortName, fmt.Errorf("pending toggle to %s never confirmed after %d attempts", st.PendingToggle.Target, st.PendingToggle.Attempt-1))
		log.Printf("linkmgr: %v", err)
		return []Action{healthAction(model.HealthUnhealthy)}
	}
	return []Action{probeAction()}
}

// ResetLossCount implements the idempotent reset_loss_count operation common
// to both cable-type variants (§4.1, §8 round-trip properties).
func ResetLossCount(st *model.PortState) {
	st.PacketLossCount = 0
	st.PacketExpectedCount = 0
}
