package model

// ProberLabel is the hysteresis-settled verdict of the link prober.
type ProberLabel int

const (
	ProberWait ProberLabel = iota
	ProberActive
	ProberUnknown
	ProberPeerActive
	ProberPeerUnknown
	ProberPeerWait
)

func (l ProberLabel) String() string {
	switch l {
	case ProberWait:
		return "Wait"
	case ProberActive:
		return "Active"
	case ProberUnknown:
		return "Unknown"
	case ProberPeerActive:
		return "PeerActive"
	case ProberPeerUnknown:
		return "PeerUnknown"
	case ProberPeerWait:
		return "PeerWait"
	default:
		return "Invalid"
	}
}

// ProberVerdict is a single raw verdict delivered by the link prober, before hysteresis.
type ProberVerdict int

const (
	VerdictSelfActive ProberVerdict = iota
	VerdictSelfUnknown
	VerdictPeerActive
	VerdictPeerUnknown
	VerdictPeerWait
)

func (v ProberVerdict) String() string {
	switch v {
	case VerdictSelfActive:
		return "SelfActive"
	case VerdictSelfUnknown:
		return "SelfUnknown"
	case VerdictPeerActive:
		return "PeerActive"
	case VerdictPeerUnknown:
		return "PeerUnknown"
	case VerdictPeerWait:
		return "PeerWait"
	default:
		return "Invalid"
	}
}

// MuxLabel is the hysteresis-settled state of the MUX-state sub-machine.
type MuxLabel int

const (
	MuxWait MuxLabel = iota
	MuxActive
	MuxStandby
	MuxUnknown
	MuxError
)

func (l MuxLabel) String() string {
	switch l {
	case MuxWait:
		return "Wait"
	case MuxActive:
		return "Active"
	case MuxStandby:
		return "Standby"
	case MuxUnknown:
		return "Unknown"
	case MuxError:
		return "Error"
	default:
		return "Invalid"
	}
}

// MuxReport is a raw, un-settled report from the transceiver driver.
type MuxReport int

const (
	MuxReportActive MuxReport = iota
	MuxReportStandby
	MuxReportUnknown
	MuxReportError
)

func (r MuxReport) String() string {
	switch r {
	case MuxReportActive:
		return "Active"
	case MuxReportStandby:
		return "Standby"
	case MuxReportUnknown:
		return "Unknown"
	case MuxReportError:
		return "Error"
	default:
		return "Invalid"
	}
}

// Label converts a raw driver report into the corresponding settled label.
func (r MuxReport) Label() MuxLabel {
	switch r {
	case MuxReportActive:
		return MuxActive
	case MuxReportStandby:
		return MuxStandby
	case MuxReportUnknown:
		return MuxUnknown
	case MuxReportError:
		return MuxError
	default:
		return MuxUnknown
	}
}

// LinkLabel is the hysteresis-settled state of the link-state sub-machine.
type LinkLabel int

const (
	LinkDown LinkLabel = iota
	LinkUp
)

func (l LinkLabel) String() string {
	if l == LinkUp {
		return "Up"
	}
	return "Down"
}

// Mode is the operator/config override mode for a port.
type Mode int

const (
	ModeAuto Mode = iota
	ModeActive
	ModeManual
	ModeStandby
	ModeDetached
)

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "Auto"
	case ModeActive:
		return "Active"
	case ModeManual:
		return "Manual"
	case ModeStandby:
		return "Standby"
	case ModeDetached:
		return "Detached"
	default:
		return "Invalid"
	}
}

// CableType selects which transition-policy variant a port runs.
type CableType int

const (
	CableActiveStandby CableType = iota
	CableActiveActive
)

func (c CableType) String() string {
	if c == CableActiveActive {
		return "ActiveActive"
	}
	return "ActiveStandby"
}

// Health is the derived overall health of a port.
type Health int

const (
	HealthUninitialized Health = iota
	HealthUnhealthy
	HealthHealthy
)

func (h Health) String() string {
	switch h {
	case HealthUninitialized:
		return "Uninitialized"
	case HealthUnhealthy:
		return "Unhealthy"
	case HealthHealthy:
		return "Healthy"
	default:
		return "Invalid"
	}
}

// RouteState is the observed health of the default route, as reported by the
// State:Route table. Only consulted when the default-route feature is enabled.
type RouteState int

const (
	RouteUnknown RouteState = iota
	RouteOK
	RouteNA
)

func (r RouteState) String() string {
	switch r {
	case RouteOK:
		return "ok"
	case RouteNA:
		return "na"
	default:
		return "unknown"
	}
}

// CompositeState is the 3-tuple that drives every decision (§3).
type CompositeState struct {
	Prober ProberLabel
	Mux    MuxLabel
	Link   LinkLabel
}

func (c CompositeState) String() string {
	return "(" + c.Prober.String() + "," + c.Mux.String() + "," + c.Link.String() + ")"
}

// InitialComposite is the state every port starts in (§4.1).
func InitialComposite() CompositeState {
	return CompositeState{Prober: ProberWait, Mux: MuxWait, Link: LinkDown}
}

// PeerView is the locally-held view of the peer ToR's composite state, used only
// to gate peer-switch requests in the active-active variant (§3 invariants).
type PeerView struct {
	Prober ProberLabel
	Mux    MuxLabel
}
