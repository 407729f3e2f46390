package model

import (
	"time"

	"github.com/google/uuid"
)

// PendingToggle tracks an in-flight hardware-toggle request. At most one exists
// per port at any instant (§3 invariants). ID lets adapters and the audit log
// correlate the toggle issue with its eventual confirmation or timeout.
type PendingToggle struct {
	ID       uuid.UUID
	Target   MuxLabel
	Deadline time.Time
	Attempt  int
}

// PortState is the full runtime state owned exclusively by one PortSupervisor (§3).
type PortState struct {
	PortName   string
	ServerID   string
	ServerIPv4 string
	CableType  CableType

	Composite CompositeState
	Peer      PeerView

	Health Health
	Mode   Mode

	ProberConsecutive int
	ProberLastVerdict ProberVerdict

	PeerProberConsecutive int
	PeerProberLastVerdict ProberVerdict

	MuxConsecutive    int
	MuxLastReport     MuxReport
	LinkConsecutive   int
	LinkLastUp        bool

	PendingToggle *PendingToggle

	DefaultRouteOK bool

	PeerMuxStateInvokeCount int

	PacketLossCount    int
	PacketExpectedCount int

	Reconciled bool
}

// NewPortState initializes state per §4.1's initial composite and §3 lifecycle.
func NewPortState(cfg PortConfig) *PortState {
	return &PortState{
		PortName:   cfg.PortName,
		ServerID:   cfg.ServerID,
		ServerIPv4: cfg.ServerIPv4,
		CableType:  cfg.CableType,
		Composite:  InitialComposite(),
		Mode:       ModeAuto,
		Health:     HealthUninitialized,
	}
}
