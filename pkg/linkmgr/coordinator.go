package linkmgr

import (
	"github.com/google/uuid"

	"dualtor-linkmgrd/pkg/model"
)

// Coordinator is the shared trait every cable-type variant implements. It is
// resolved statically per port at construction time (no vtables): a
// PortSupervisor holds exactly one concrete Coordinator for its CableType
// (design note "Replacing inheritance").
type Coordinator interface {
	OnProberVerdict(st *model.PortState, cfg model.MuxConfig, v model.ProberVerdict) []Action
	OnMuxReport(st *model.PortState, cfg model.MuxConfig, r model.MuxReport) []Action
	OnLinkOper(st *model.PortState, cfg model.MuxConfig, up bool) []Action
	OnModeChange(st *model.PortState, cfg model.MuxConfig, mode model.Mode) []Action
	OnDefaultRoute(st *model.PortState, cfg model.MuxConfig, ok bool) []Action
	OnPeerMux(st *model.PortState, cfg model.MuxConfig, label model.MuxLabel) []Action
	ResetLossCount(st *model.PortState) []Action
}

// NewCoordinator resolves the tagged variant for a cable type.
func NewCoordinator(cableType model.CableType) Coordinator {
	if cableType == model.CableActiveActive {
		return activeActiveCoordinator{}
	}
	return activeStandbyCoordinator{}
}

// pendingAllows reports whether a new toggle to target may be issued: either
// there is no toggle in flight, or the in-flight one already targets the same
// label (coalesce), so at most one toggle is pending and its target never
// changes until a confirming report clears it; a toggle deadline
// (OnToggleDeadline) re-probes but leaves the pending toggle in place.
func pendingAllows(st *model.PortState, target model.MuxLabel) bool {
	return st.PendingToggle == nil || st.PendingToggle.Target == target
}

func issueToggle(st *model.PortState, cfg model.MuxConfig, target model.MuxLabel) []Action {
	if st.PendingToggle == nil {
		st.PendingToggle = &model.PendingToggle{ID: uuid.New(), Target: target}
	}
	actions := []Action{toggleAction(target)}
	if cfg.EnableSwitchoverMeasurement {
		actions = append(actions, metricAction(switchMetricLabel(target), "start"))
	}
	return actions
}

// confirmToggle clears a matching pending toggle and, when the switchover-
// measurement feature flag is set (§6 CLI surface), emits the matching end
// metric for State:MuxMetrics' linkmgrd_switch_<label>_{start,end} pair.
func confirmToggle(st *model.PortState, cfg model.MuxConfig, confirmed model.MuxLabel) []Action {
	if st.PendingToggle == nil || st.PendingToggle.Target != confirmed {
		return nil
	}
	st.PendingToggle = nil
	if !cfg.EnableSwitchoverMeasurement {
		return nil
	}
	return []Action{metricAction(switchMetricLabel(confirmed), "end")}
}

func switchMetricLabel(target model.MuxLabel) string {
	if target == model.MuxActive {
		return "active"
	}
	return "standby"
}

// evaluateHealth recomputes Health per §3's invariant and returns a
// publish-health action iff it changed.
func evaluateHealth(st *model.PortState, cfg model.MuxConfig) []Action {
	healthy := st.Composite.Prober == model.ProberActive &&
		st.Composite.Mux == model.MuxActive &&
		st.Composite.Link == model.LinkUp &&
		(!cfg.EnableDefaultRouteFeature || st.DefaultRouteOK)

	next := model.HealthUnhealthy
	if healthy {
		next = model.HealthHealthy
	}
	if st.Health == next {
		return nil
	}
	st.Health = next
	return []Action{healthAction(next)}
}
