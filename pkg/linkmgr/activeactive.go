package linkmgr

import "dualtor-linkmgrd/pkg/model"

// activeActiveCoordinator implements the active-active transition policy of
// §4.1: both ToRs may be hardware-active simultaneously; local toggles are
// driven only by the local prober verdict, and peer signals only ever
// request the peer to yield over the peer-switch channel (§3 invariant 6,
// §8 invariant 6).
type activeActiveCoordinator struct{}

func (activeActiveCoordinator) OnProberVerdict(st *model.PortState, cfg model.MuxConfig, v model.ProberVerdict) []Action {
	switch v {
	case model.VerdictPeerActive, model.VerdictPeerUnknown, model.VerdictPeerWait:
		if !applyProberHysteresis(st, cfg, v) {
			return nil
		}
		return decideActiveActivePeer(st, cfg)
	default:
		if !applyProberHysteresis(st, cfg, v) {
			return nil
		}
		return decideActiveActiveLocal(st, cfg)
	}
}

func (activeActiveCoordinator) OnMuxReport(st *model.PortState, cfg model.MuxConfig, r model.MuxReport) []Action {
	var actions []Action
	actions = append(actions, confirmToggle(st, cfg, r.Label())...)
	if !applyMuxHysteresis(st, cfg, r) {
		if st.Mode == model.ModeAuto && (r == model.MuxReportUnknown || r == model.MuxReportError) {
			actions = append(actions, probeAction())
		}
		return actions
	}
	if st.Mode == model.ModeAuto && (st.Composite.Mux == model.MuxUnknown || st.Composite.Mux == model.MuxError) {
		actions = append(actions, probeAction())
	}
	actions = append(actions, decideActiveActiveLocal(st, cfg)...)
	return actions
}

func (activeActiveCoordinator) OnLinkOper(st *model.PortState, cfg model.MuxConfig, up bool) []Action {
	if !applyLinkHysteresis(st, cfg, up) {
		return nil
	}
	return decideActiveActiveLocal(st, cfg)
}

func (activeActiveCoordinator) OnModeChange(st *model.PortState, cfg model.MuxConfig, mode model.Mode) []Action {
	if st.Mode == mode {
		return nil
	}
	st.Mode = mode
	return decideActiveActiveLocal(st, cfg)
}

// OnDefaultRoute implements §4.1's "na suspends prober transmission, ok
// restarts it" alongside the health recompute, same as active-standby.
func (activeActiveCoordinator) OnDefaultRoute(st *model.PortState, cfg model.MuxConfig, ok bool) []Action {
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

func (activeActiveCoordinator) OnPeerMux(st *model.PortState, cfg model.MuxConfig, label model.MuxLabel) []Action {
	// The open question in spec §9 leaves (PeerActive, mux=Unknown) un-exercised;
	// treated conservatively here too: only the peer view is updated, no action
	// is derived from the peer's mux label alone.
	st.Peer.Mux = label
	return nil
}

func (activeActiveCoordinator) ResetLossCount(st *model.PortState) []Action {
	ResetLossCount(st)
	return nil
}

// decideActiveActiveLocal drives local hardware from local signals only.
func decideActiveActiveLocal(st *model.PortState, cfg model.MuxConfig) []Action {
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

	// Auto and Detached: Detached only withholds peer-switch requests
	// (handled in decideActiveActivePeer), local toggles still apply.
	if st.Composite.Link == model.LinkDown {
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
		}
	}

	actions = append(actions, evaluateHealth(st, cfg)...)
	return actions
}

// decideActiveActivePeer reacts to peer-prober signals. It never mutates
// local hardware (§3 invariant, §8 invariant 6); it only ever requests the
// peer to yield, and only while not Detached.
func decideActiveActivePeer(st *model.PortState, cfg model.MuxConfig) []Action {
	if st.Peer.Prober != model.ProberPeerUnknown {
		return nil
	}
	if st.Mode == model.ModeDetached {
		return nil
	}
	st.PeerMuxStateInvokeCount++
	return []Action{peerSwitchAction()}
}
