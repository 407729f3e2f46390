// Package fabric models the external key-value fabric of spec.md §6 (the
// CONFIG/APPL/STATE tables this repo treats as an external collaborator) as
// a typed topic interface, the way pkg/store modeled node persistence in the
// teacher repo behind a NodeStore interface with a swappable backend.
package fabric

import "dualtor-linkmgrd/pkg/model"

// PortConfigEvent mirrors a Config:MuxCable row (§6).
type PortConfigEvent struct {
	PortName         string
	ServerIPv4       string
	CableType        model.CableType
	PckLossDataReset bool
}

// TunablesEvent mirrors Config:MuxLinkmgr's LINK_PROBER/MUXLOGGER fields
// (§6). Fields left empty mean that row wasn't present in the watch's result
// set; see Apply for how a partial event is overlaid onto a base MuxConfig.
type TunablesEvent struct {
	IntervalV4          string
	IntervalV6          string
	PositiveSignalCount string
	NegativeSignalCount string
	SuspendTimer        string
	LogVerbosity        string
}

// MuxCommand is the Appl:MuxCableCommand write (§6); today only "probe" is used.
type MuxCommand string

const MuxCommandProbe MuxCommand = "probe"

// Fabric is the narrow collaborator interface the linkmgr dispatcher adapters
// consume. A concrete implementation owns the wire protocol (Consul KV here);
// linkmgr code never imports it directly — only pkg/muxdriver and
// cmd/linkmgrd do, keeping the composite coordinator free of I/O (§4.1).
type Fabric interface {
	// WriteMuxState publishes Appl:MuxCable.state — the hardware toggle request.
	WriteMuxState(port string, label model.MuxLabel) error
	// WriteMuxCommand publishes Appl:MuxCableCommand.command — the i2c probe request.
	WriteMuxCommand(port string, cmd MuxCommand) error
	// WriteHealth publishes State:MuxLinkmgr.state.
	WriteHealth(port string, h model.Health) error
	// WriteSwitchMetric publishes State:MuxMetrics' linkmgrd_switch_<label>_{start,end}.
	WriteSwitchMetric(port, label, edge string, unixNano int64) error
	// WriteProbeStats publishes State:LinkProbeStats.
	WriteProbeStats(port string, lossCount, expectedCount int) error

	// SubscribeMuxState watches State:MuxCable for driver-reported mux state.
	SubscribeMuxState(port string, onReport func(model.MuxReport)) (cancel func(), err error)
	// SubscribeMuxResponse watches Appl:MuxCableResponse for probe replies.
	SubscribeMuxResponse(port string, onReport func(model.MuxReport)) (cancel func(), err error)
	// SubscribePortOper watches Appl:Port.oper_status for link up/down.
	SubscribePortOper(port string, onOper func(up bool)) (cancel func(), err error)
	// SubscribeRoute watches State:Route for default-route health.
	SubscribeRoute(family string, onState func(ok bool)) (cancel func(), err error)
	// SubscribePeerMuxInfo watches State:MuxCableInfo.link_status_peer.
	SubscribePeerMuxInfo(port string, onPeerLinkUp func(up bool)) (cancel func(), err error)

	// SubscribePortConfig watches Config:MuxCable for per-port config (§6).
	SubscribePortConfig(onEvent func(PortConfigEvent)) (cancel func(), err error)
	// SubscribeTunables watches Config:MuxLinkmgr for LINK_PROBER/MUXLOGGER tunables.
	SubscribeTunables(onEvent func(TunablesEvent)) (cancel func(), err error)

	// Close releases any underlying connections/sessions.
	Close() error
}
