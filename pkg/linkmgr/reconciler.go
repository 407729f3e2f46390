package linkmgr

import (
	"sync"
	"time"
)

// Reconciler implements §4.5's warm-restart reconciliation: a process-wide
// timer starts when the platform reports a warm restart; each port
// decrements a shared counter once it has observed a composite state
// consistent with existing hardware, and the reconciler completes either
// when the counter reaches zero or when the timer fires first (force-complete).
type Reconciler struct {
	mu        sync.Mutex
	remaining int
	done      bool
	timer     *time.Timer
	onDone    func(forced bool)
}

// NewReconciler starts the reconciliation window immediately for portCount
// ports. onDone is invoked exactly once, either because every port
// reconciled (forced=false) or the timeout elapsed first (forced=true).
func NewReconciler(portCount int, timeout time.Duration, onDone func(forced bool)) *Reconciler {
	r := &Reconciler{remaining: portCount, onDone: onDone}
	if portCount <= 0 {
		r.done = true
		return r
	}
	r.timer = time.AfterFunc(timeout, r.forceComplete)
	return r
}

// InReconciliation reports whether the process is still within the
// reconciliation window — while true, §4.1's "Tie-breaks & edge cases" rule
// applies: do not issue toggles that would change already-observed hardware
// state, only publish it.
func (r *Reconciler) InReconciliation() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.done
}

// MarkReconciled is called once per port when it observes a composite state
// consistent with existing hardware. It is idempotent per port — callers
// must gate repeat calls on model.PortState.Reconciled themselves so the
// shared counter is only ever decremented once per port.
func (r *Reconciler) MarkReconciled() {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	r.remaining--
	done := r.remaining <= 0
	r.mu.Unlock()
	if done {
		r.complete(false)
	}
}

func (r *Reconciler) forceComplete() {
	r.complete(true)
}

func (r *Reconciler) complete(forced bool) {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	r.done = true
	if r.timer != nil && !forced {
		r.timer.Stop()
	}
	r.mu.Unlock()
	if r.onDone != nil {
		r.onDone(forced)
	}
}
