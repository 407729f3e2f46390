package linkmgr

import (
	"time"

	"dualtor-linkmgrd/pkg/model"
)

// PortSupervisor exclusively owns one port's sub-machines, counters and
// timers (§3 Ownership). It is only ever touched from within its own
// serialization domain — the Dispatcher borrows it for one callback at a
// time, so none of its methods take a lock.
type PortSupervisor struct {
	State       *model.PortState
	Coordinator Coordinator
	Config      model.MuxConfig
	backoff     *probeBackoff
}

// NewPortSupervisor constructs a supervisor for a newly-discovered port
// (§3 lifecycle: "Created on first discovery of the port in config").
func NewPortSupervisor(cfg model.PortConfig, tunables model.MuxConfig) *PortSupervisor {
	return &PortSupervisor{
		State:       model.NewPortState(cfg),
		Coordinator: NewCoordinator(cfg.CableType),
		Config:      tunables,
		backoff:     newProbeBackoff(time.Second, tunables.MuxWaitTimeout),
	}
}

func (s *PortSupervisor) OnProberVerdict(v model.ProberVerdict) []Action {
	return s.Coordinator.OnProberVerdict(s.State, s.Config, v)
}

func (s *PortSupervisor) OnMuxReport(r model.MuxReport) []Action {
	actions := s.Coordinator.OnMuxReport(s.State, s.Config, r)
	if r != model.MuxReportUnknown && r != model.MuxReportError {
		s.backoff.reset()
	}
	return actions
}

func (s *PortSupervisor) OnLinkOper(up bool) []Action {
	return s.Coordinator.OnLinkOper(s.State, s.Config, up)
}

func (s *PortSupervisor) OnModeChange(mode model.Mode) []Action {
	return s.Coordinator.OnModeChange(s.State, s.Config, mode)
}

func (s *PortSupervisor) OnDefaultRoute(ok bool) []Action {
	return s.Coordinator.OnDefaultRoute(s.State, s.Config, ok)
}

// OnPeerVerdict is the peer-prober counterpart of OnProberVerdict — the
// underlying verdicts are the Peer* members of model.ProberVerdict, routed
// through the same entrypoint since the link prober emits both self and
// peer verdicts on one stream (§2.1).
func (s *PortSupervisor) OnPeerVerdict(v model.ProberVerdict) []Action {
	return s.Coordinator.OnProberVerdict(s.State, s.Config, v)
}

func (s *PortSupervisor) OnPeerMux(label model.MuxLabel) []Action {
	return s.Coordinator.OnPeerMux(s.State, s.Config, label)
}

func (s *PortSupervisor) ResetLossCount() []Action {
	return s.Coordinator.ResetLossCount(s.State)
}

// OnToggleDeadline handles the pending-toggle timer expiry (§5 cancellation
// and timeouts): re-probe, never re-toggle, up to the retry cap.
func (s *PortSupervisor) OnToggleDeadline() []Action {
	return OnToggleDeadline(s.State, s.Config)
}

// NextProbeDelay returns the backoff delay for the next probe retry and
// advances the internal attempt counter (§4.1 failure semantics).
func (s *PortSupervisor) NextProbeDelay() time.Duration {
	return s.backoff.next()
}

// FilterReconciliation enforces §4.5's "Tie-breaks & edge cases" rule: while
// still within the warm-restart reconciliation window, drop any action that
// would mutate hardware or peer/prober state and keep only the ones that
// merely publish observed state.
func FilterReconciliation(actions []Action) []Action {
	var out []Action
	for _, a := range actions {
		switch a.Kind {
		case ActionPublishHealth, ActionPublishMetrics:
			out = append(out, a)
		}
	}
	return out
}

// ApplyConfig swaps in a new tunables snapshot. Readers (the hysteresis
// functions) always see the snapshot active at the start of the task that
// calls them (design note "Replacing process-wide mutable state").
func (s *PortSupervisor) ApplyConfig(cfg model.MuxConfig) {
	s.Config = cfg
}
