// Package muxdriver adapts the transceiver driver's i2c-backed reports and
// toggle/probe requests to and from pkg/fabric, keeping pkg/linkmgr's
// Coordinator free of any I/O (§4.1: "Probe/toggle requests are fire-and-
// forget to the adapter"). It plays the same wiring role pkg/agent/apply.go
// played between rendered configs and the host's wg-quick/vtysh commands.
package muxdriver

import (
	"log"
	"time"

	"dualtor-linkmgrd/pkg/fabric"
	"dualtor-linkmgrd/pkg/linkmgr"
	"dualtor-linkmgrd/pkg/model"
)

// Driver carries out Action side effects against a Fabric and feeds incoming
// driver reports back into a Manager's per-port strand.
type Driver struct {
	fab     fabric.Fabric
	manager *linkmgr.Manager
}

func New(fab fabric.Fabric, manager *linkmgr.Manager) *Driver {
	return &Driver{fab: fab, manager: manager}
}

// Apply carries out one action list emitted by a PortSupervisor callback.
// It is the sink passed to Manager.Apply (§4.1, §5: "I/O... is posted as a
// new task").
func (d *Driver) Apply(port string, actions []linkmgr.Action) {
	for _, a := range actions {
		switch a.Kind {
		case linkmgr.ActionRequestToggle:
			if err := d.fab.WriteMuxState(port, a.Target); err != nil {
				log.Printf("muxdriver: port=%s toggle write failed: %v", port, err)
			}
		case linkmgr.ActionRequestProbe:
			if err := d.fab.WriteMuxCommand(port, fabric.MuxCommandProbe); err != nil {
				log.Printf("muxdriver: port=%s probe write failed: %v", port, err)
			}
		case linkmgr.ActionPublishHealth:
			if err := d.fab.WriteHealth(port, a.Health); err != nil {
				log.Printf("muxdriver: port=%s health write failed: %v", port, err)
			}
		case linkmgr.ActionPublishMetrics:
			if err := d.fab.WriteSwitchMetric(port, a.MetricLabel, a.MetricEdge, time.Now().UnixNano()); err != nil {
				log.Printf("muxdriver: port=%s switch metric write failed: %v", port, err)
			}
		case linkmgr.ActionSuspendProberTx, linkmgr.ActionRestartProberTx, linkmgr.ActionRequestPeerSwitch:
			// Carried out by pkg/prober and pkg/peer respectively; the
			// supervisor's caller routes these, muxdriver only owns the
			// hardware-facing actions.
		}
	}
}

// WatchReports subscribes to State:MuxCable and Appl:MuxCableResponse for
// port and posts every report onto the port's serialization domain via
// Manager.Apply, so OnMuxReport always executes inside its own strand (§5).
func (d *Driver) WatchReports(port string, sink func(string, []linkmgr.Action)) (cancel func(), err error) {
	cancelState, err := d.fab.SubscribeMuxState(port, func(r model.MuxReport) {
		d.manager.Apply(port, func(s *linkmgr.PortSupervisor) []linkmgr.Action {
			return s.OnMuxReport(r)
		}, true, sink)
	})
	if err != nil {
		return nil, err
	}
	cancelResp, err := d.fab.SubscribeMuxResponse(port, func(r model.MuxReport) {
		d.manager.Apply(port, func(s *linkmgr.PortSupervisor) []linkmgr.Action {
			return s.OnMuxReport(r)
		}, true, sink)
	})
	if err != nil {
		cancelState()
		return nil, err
	}
	return func() { cancelState(); cancelResp() }, nil
}

// WatchLinkOper subscribes to Appl:Port.oper_status for port.
func (d *Driver) WatchLinkOper(port string, sink func(string, []linkmgr.Action)) (cancel func(), err error) {
	return d.fab.SubscribePortOper(port, func(up bool) {
		d.manager.Apply(port, func(s *linkmgr.PortSupervisor) []linkmgr.Action {
			return s.OnLinkOper(up)
		}, true, sink)
	})
}

// WatchToggleDeadline arms a timer for the current pending toggle's deadline
// (§5 "Cancellation and timeouts"): on expiry it posts OnToggleDeadline onto
// the port's strand and, if still pending, reschedules using the port's
// bounded exponential backoff.
func (d *Driver) WatchToggleDeadline(port string, sup *linkmgr.PortSupervisor, sink func(string, []linkmgr.Action)) *time.Timer {
	var timer *time.Timer
	var schedule func(delay time.Duration)
	schedule = func(delay time.Duration) {
		timer = time.AfterFunc(delay, func() {
			d.manager.Apply(port, func(s *linkmgr.PortSupervisor) []linkmgr.Action {
				actions := s.OnToggleDeadline()
				if s.State.PendingToggle != nil {
					schedule(s.NextProbeDelay())
				}
				return actions
			}, false, sink)
		})
	}
	schedule(sup.Config.MuxWaitTimeout)
	return timer
}
