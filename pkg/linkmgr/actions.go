package linkmgr

import "dualtor-linkmgrd/pkg/model"

// ActionKind enumerates every side effect the composite coordinator can ask
// the supervisor to perform. The coordinator only decides; the supervisor's
// adapters (pkg/muxdriver, pkg/peer, pkg/fabric) carry the action out (§4.1).
type ActionKind int

const (
	ActionRequestToggle ActionKind = iota
	ActionRequestProbe
	ActionSuspendProberTx
	ActionRestartProberTx
	ActionRequestPeerSwitch
	ActionPublishHealth
	ActionPublishMetrics
)

// Action is one emitted side effect. Fields not relevant to Kind are zero.
type Action struct {
	Kind        ActionKind
	Target      model.MuxLabel // ActionRequestToggle
	Health      model.Health    // ActionPublishHealth
	MetricLabel string          // ActionPublishMetrics: "active"/"standby"
	MetricEdge  string          // ActionPublishMetrics: "start"/"end"
}

func toggleAction(target model.MuxLabel) Action {
	return Action{Kind: ActionRequestToggle, Target: target}
}

func probeAction() Action { return Action{Kind: ActionRequestProbe} }

func suspendAction() Action { return Action{Kind: ActionSuspendProberTx} }

func restartAction() Action { return Action{Kind: ActionRestartProberTx} }

func peerSwitchAction() Action { return Action{Kind: ActionRequestPeerSwitch} }

func healthAction(h model.Health) Action { return Action{Kind: ActionPublishHealth, Health: h} }

// metricAction emits a State:MuxMetrics sample for a switchover-timing edge
// (§6 linkmgrd_switch_<label>_{start,end}). label/edge are carried separately
// rather than pre-joined so the adapter that writes them (pkg/muxdriver) can
// hand them to Fabric.WriteSwitchMetric without re-parsing a formatted name.
func metricAction(label, edge string) Action {
	return Action{Kind: ActionPublishMetrics, MetricLabel: label, MetricEdge: edge}
}
