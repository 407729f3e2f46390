// Package prober defines the link-prober collaborator contract of spec.md
// §4.4. The prober's own ICMP packet construction and raw-socket I/O are
// explicitly out of scope (§1); this package only carries the interface the
// composite coordinator drives and a stub implementation that satisfies the
// contract without doing real network I/O, the way pkg/agent/health.go
// treated FRR/ping as a best-effort external collaborator behind a narrow
// function surface rather than owning the protocol itself.
package prober

import (
	"sync"
	"time"

	"dualtor-linkmgrd/pkg/model"
)

// Prober is the narrow interface the supervisor drives (§4.4): it emits
// verdicts on VerdictCh and accepts the four control operations.
type Prober interface {
	VerdictCh() <-chan model.ProberVerdict
	Suspend(d time.Duration)
	Restart()
	Shutdown()
	ResetLossCount()
}

// Stub is a link-prober collaborator that never performs ICMP I/O. It is the
// default wired implementation: real heartbeat transmission is an external
// collaborator per §1's scope boundary, so production deployments are
// expected to front this with a real ICMP prober process and feed verdicts
// in via Feed. Stub still honors the suspend/restart/shutdown contract
// (§4.4: "respect suspend_timer... halt transmission for that duration").
type Stub struct {
	mu        sync.Mutex
	ch        chan model.ProberVerdict
	suspended bool
	suspendAt time.Time
	suspendFor time.Duration
	shutdown  bool
}

// NewStub constructs a Stub whose verdict channel buffers up to 16 verdicts.
// Stub holds no heartbeat interval and generates no heartbeats; the pace of
// Feed calls is up to the caller.
func NewStub() *Stub {
	return &Stub{ch: make(chan model.ProberVerdict, 16)}
}

func (s *Stub) VerdictCh() <-chan model.ProberVerdict { return s.ch }

// Feed is how an external heartbeat source (e.g. a sibling ICMP process
// communicating over a socket) injects a verdict. Feed is a no-op while
// suspended or shut down, matching "respect suspend_timer... halt
// transmission" and the shutdown contract.
func (s *Stub) Feed(v model.ProberVerdict) {
	s.mu.Lock()
	blocked := s.shutdown || s.suspended
	s.mu.Unlock()
	if blocked {
		return
	}
	select {
	case s.ch <- v:
	default:
	}
}

func (s *Stub) Suspend(d time.Duration) {
	s.mu.Lock()
	s.suspended = true
	s.suspendAt = time.Now()
	s.suspendFor = d
	s.mu.Unlock()
	if d > 0 {
		time.AfterFunc(d, func() {
			s.mu.Lock()
			// Only auto-restart if a later decision hasn't already done so
			// (§5: "its expiry restarts transmission unless a later
			// decision already did so" — approximated here by checking the
			// suspend window is still the one that scheduled this timer).
			if s.suspended && time.Since(s.suspendAt) >= s.suspendFor {
				s.suspended = false
			}
			s.mu.Unlock()
		})
	}
}

func (s *Stub) Restart() {
	s.mu.Lock()
	s.suspended = false
	s.mu.Unlock()
}

func (s *Stub) Shutdown() {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()
}

func (s *Stub) ResetLossCount() {
	// Loss counters live on model.PortState; the prober itself has none to
	// reset in this stub. Kept as a method to satisfy the Prober interface
	// and as the hook a real ICMP collaborator would implement.
}

// IsSuspended reports whether Feed is currently being dropped, for tests and
// for health/status surfaces that want to show prober tx state.
func (s *Stub) IsSuspended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suspended
}
