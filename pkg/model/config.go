package model

import "time"

// MuxConfig holds the per-port and global tunables from §6 (Config:MuxCable,
// Config:MuxLinkmgr). Readers take a snapshot at task start; writers only ever
// come from the config-subscription task (see pkg/linkmgr.Dispatcher).
type MuxConfig struct {
	// Hysteresis / retry counters (§4.1).
	PositiveStateChangeRetryCount int
	NegativeStateChangeRetryCount int
	MuxStateChangeRetryCount      int
	LinkStateChangeRetryCount     int

	// Timeouts (§4.1, §4.5).
	MuxWaitTimeout            time.Duration
	LinkWaitTimeout           time.Duration
	SuspendTimeout            time.Duration
	MuxReconciliationTimeout  time.Duration

	// Link prober tunables (§4.4, §6 Config:MuxLinkmgr/LINK_PROBER).
	IntervalV4            time.Duration
	IntervalV6            time.Duration
	PositiveSignalCount   int
	NegativeSignalCount   int
	SuspendTimer          time.Duration

	// Feature flags (§6 CLI surface).
	EnableSwitchoverMeasurement bool
	EnableDefaultRouteFeature   bool

	LogVerbosity string
}

// DefaultMuxConfig returns the documented defaults (§2, §4.4).
func DefaultMuxConfig() MuxConfig {
	return MuxConfig{
		PositiveStateChangeRetryCount: 3,
		NegativeStateChangeRetryCount: 3,
		MuxStateChangeRetryCount:      3,
		LinkStateChangeRetryCount:     1,

		MuxWaitTimeout:           5 * time.Second,
		LinkWaitTimeout:          5 * time.Second,
		SuspendTimeout:           10 * time.Second,
		MuxReconciliationTimeout: 60 * time.Second,

		IntervalV4:          100 * time.Millisecond,
		IntervalV6:          100 * time.Millisecond,
		PositiveSignalCount: 3,
		NegativeSignalCount: 3,
		SuspendTimer:         10 * time.Second,

		EnableSwitchoverMeasurement: false,
		EnableDefaultRouteFeature:   false,

		LogVerbosity: "info",
	}
}

// PortConfig is the per-port configuration from Config:MuxCable.
type PortConfig struct {
	PortName       string
	ServerID       string
	ServerIPv4     string
	CableType      CableType
	PckLossDataReset bool
}
