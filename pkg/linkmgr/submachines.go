package linkmgr

import "dualtor-linkmgrd/pkg/model"

// applyProberHysteresis folds a raw verdict into the prober sub-state (§4.1,
// §4.2-style direct event mapping but with per-verdict retry counts: Active
// advances after PositiveStateChangeRetryCount consecutive SelfActive verdicts,
// Unknown after NegativeStateChangeRetryCount consecutive SelfUnknown verdicts).
// Peer verdicts run the identical hysteresis against the peer view instead of
// the local composite (S6: PeerUnknown must also repeat NegativeStateChangeRetryCount
// times before a peer-switch decision may fire).
func applyProberHysteresis(st *model.PortState, cfg model.MuxConfig, v model.ProberVerdict) (advanced bool) {
	switch v {
	case model.VerdictPeerActive, model.VerdictPeerUnknown, model.VerdictPeerWait:
		return applyPeerProberHysteresis(st, cfg, v)
	}

	if v != st.ProberLastVerdict {
		st.ProberLastVerdict = v
		st.ProberConsecutive = 1
	} else {
		st.ProberConsecutive++
	}

	var threshold int
	var target model.ProberLabel
	switch v {
	case model.VerdictSelfActive:
		threshold = cfg.PositiveStateChangeRetryCount
		target = model.ProberActive
	case model.VerdictSelfUnknown:
		threshold = cfg.NegativeStateChangeRetryCount
		target = model.ProberUnknown
	default:
		return false
	}
	if threshold <= 0 {
		threshold = 1
	}
	if st.ProberConsecutive < threshold {
		return false
	}
	if st.Composite.Prober == target {
		return false
	}
	st.Composite.Prober = target
	return true
}

// applyPeerProberHysteresis is applyProberHysteresis's twin for the peer
// verdict stream, settling into PeerView.Prober instead of the local composite.
func applyPeerProberHysteresis(st *model.PortState, cfg model.MuxConfig, v model.ProberVerdict) (advanced bool) {
	if v != st.PeerProberLastVerdict {
		st.PeerProberLastVerdict = v
		st.PeerProberConsecutive = 1
	} else {
		st.PeerProberConsecutive++
	}

	var threshold int
	var target model.ProberLabel
	switch v {
	case model.VerdictPeerActive:
		threshold = cfg.PositiveStateChangeRetryCount
		target = model.ProberPeerActive
	case model.VerdictPeerUnknown:
		threshold = cfg.NegativeStateChangeRetryCount
		target = model.ProberPeerUnknown
	case model.VerdictPeerWait:
		threshold = 1
		target = model.ProberPeerWait
	default:
		return false
	}
	if threshold <= 0 {
		threshold = 1
	}
	if st.PeerProberConsecutive < threshold {
		return false
	}
	if st.Peer.Prober == target {
		return false
	}
	st.Peer.Prober = target
	return true
}

// applyMuxHysteresis folds a raw driver report into the MUX-state sub-machine
// (§4.2). Wait is only the initial state and is never re-entered.
func applyMuxHysteresis(st *model.PortState, cfg model.MuxConfig, r model.MuxReport) (advanced bool) {
	if r != st.MuxLastReport {
		st.MuxLastReport = r
		st.MuxConsecutive = 1
	} else {
		st.MuxConsecutive++
	}

	threshold := cfg.MuxStateChangeRetryCount
	if threshold <= 0 {
		threshold = 1
	}
	if st.MuxConsecutive < threshold {
		return false
	}
	target := r.Label()
	if st.Composite.Mux == target {
		return false
	}
	st.Composite.Mux = target
	return true
}

// applyLinkHysteresis folds a raw oper-status sample into the link-state
// sub-machine (§4.3).
func applyLinkHysteresis(st *model.PortState, cfg model.MuxConfig, up bool) (advanced bool) {
	if up != st.LinkLastUp {
		st.LinkLastUp = up
		st.LinkConsecutive = 1
	} else {
		st.LinkConsecutive++
	}

	threshold := cfg.LinkStateChangeRetryCount
	if threshold <= 0 {
		threshold = 1
	}
	if st.LinkConsecutive < threshold {
		return false
	}
	target := model.LinkDown
	if up {
		target = model.LinkUp
	}
	if st.Composite.Link == target {
		return false
	}
	st.Composite.Link = target
	return true
}
