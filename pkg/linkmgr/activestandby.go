package linkmgr

import "dualtor-linkmgrd/pkg/model"

// activeStandbyCoordinator implements the active-standby transition policy
// of §4.1: exactly one ToR is ever the hardware-active egress.
type activeStandbyCoordinator struct{}

func (activeStandbyCoordinator) OnProberVerdict(st *model.PortState, cfg model.MuxConfig, v model.ProberVerdict) []Action {
	if !applyProberHysteresis(st, cfg, v) {
		return nil
	}
	return decideActiveStandby(st, cfg)
}

func (activeStandbyCoordinator) OnMuxReport(st *model.PortState, cfg model.MuxConfig, r model.MuxReport) []Action {
	var actions []Action
	actions = append(actions, confirmToggle(st, cfg, r.Label())...)
	if !applyMuxHysteresis(st, cfg, r) {
		// Still surface a probe if the raw report (pre-hysteresis) is
		// Unknown/Error and we're in Auto — the driver may be flapping
		// between definite and indefinite reports.
		if st.Mode == model.ModeAuto && (r == model.MuxReportUnknown || r == model.MuxReportError) {
			actions = append(actions, probeAction())
		}
		return actions
	}
	if st.Mode == model.ModeAuto && (st.Composite.Mux == model.MuxUnknown || st.Composite.Mux == model.MuxError) {
		actions = append(actions, probeAction())
	}
	actions = append(actions, decideActiveStandby(st, cfg)...)
	return actions
}

func (activeStandbyCoordinator) OnLinkOper(st *model.PortState, cfg model.MuxConfig, up bool) []Action {
	if !applyLinkHysteresis(st, cfg, up) {
		return nil
	}
	return decideActiveStandby(st, cfg)
}

func (activeStandbyCoordinator) OnModeChange(st *model.PortState, cfg model.MuxConfig, mode model.Mode) []Action {
	if st.Mode == mode {
		return nil
	}
	st.Mode = mode
	return decideActiveStandby(st, cfg)
}

// OnDefaultRoute implements §4.1's "na suspends prober transmission, ok
// restarts it" alongside the health recompute: with the default-route
// feature enabled, a default-route transition suspends/restarts the prober
// the same way a Standby toggle does.
func (activeStandbyCoordinator) OnDefaultRoute(st *model.PortState, cfg model.MuxConfig, ok bool) []Action {
	if st.DefaultRouteOK == ok {
		return evaluateHealth(st, cfg)
	}
	st.DefaultRouteOK = ok
	actions := evaluateHealth(st, cfg)
	if !cfg.EnableDefaultRouteFeature {
		return actions
	}
	if ok {
		actions = append(actions, restartAction())
	} else {
		actions = append(actions, suspendAction())
	}
	return actions
}

// OnPeerMux only records the peer's mux label in the peer view and emits no
// actions for active-standby: the peer view never drives local hardware, and
// active-standby has no peer-switch channel (§3 invariants).
func (activeStandbyCoordinator) OnPeerMux(st *model.PortState, cfg model.MuxConfig, label model.MuxLabel) []Action {
	st.Peer.Mux = label
	return nil
}

func (activeStandbyCoordinator) ResetLossCount(st *model.PortState) []Action {
	ResetLossCount(st)
	return nil
}

// decideActiveStandby is the active-standby next_action function (§4.1):
// (composite, mode, pending) -> actions. Once the mux matches the decided
// target it emits no toggle; while a toggle to that same target is still
// pending, calling it again re-emits that toggle (pendingAllows lets a
// same-target request through), and a toggle to a different target is
// withheld until the pending one is cleared.
func decideActiveStandby(st *model.PortState, cfg model.MuxConfig) []Action {
	var actions []Action

	switch st.Mode {
	case model.ModeManual:
		return append(actions, evaluateHealth(st, cfg)...)
	case model.ModeStandby:
		if st.Composite.Mux != model.MuxStandby && pendingAllows(st, model.MuxStandby) {
			actions = append(actions, issueToggle(st, cfg, model.MuxStandby)...)
		}
		return append(actions, evaluateHealth(st, cfg)...)
	case model.ModeActive:
		if st.Composite.Mux != model.MuxActive && pendingAllows(st, model.MuxActive) {
			actions = append(actions, issueToggle(st, cfg, model.MuxActive)...)
		}
		return append(actions, evaluateHealth(st, cfg)...)
	}

	// ModeAuto (and ModeDetached, which is meaningless for active-standby
	// and is treated the same as Auto per the open question in spec §9).
	if st.Composite.Link == model.LinkDown {
		if st.Composite.Mux == model.MuxActive && pendingAllows(st, model.MuxStandby) {
			actions = append(actions, issueToggle(st, cfg, model.MuxStandby)...)
		}
		return append(actions, evaluateHealth(st, cfg)...)
	}

	switch st.Composite.Prober {
	case model.ProberActive:
		if st.Composite.Mux != model.MuxActive && pendingAllows(st, model.MuxActive) {
			actions = append(actions, issueToggle(st, cfg, model.MuxActive)...)
		}
	case model.ProberUnknown:
		if st.Composite.Mux != model.MuxStandby && pendingAllows(st, model.MuxStandby) {
			actions = append(actions, issueToggle(st, cfg, model.MuxStandby)...)
			actions = append(actions, suspendAction())
		}
	}

	actions = append(actions, evaluateHealth(st, cfg)...)
	return actions
}
