package fabric

import (
	"log"
	"strconv"
	"time"

	"dualtor-linkmgrd/pkg/model"
)

// Apply overlays the fields present in ev onto base and returns the merged
// snapshot, the way pkg/config.FromEnv overlays environment variables onto
// model.DefaultMuxConfig. A field left empty means the corresponding row
// wasn't present in the blocking query's result set and base's value is kept
// untouched; a present-but-malformed field is InvalidInput (§7): log a
// warning and keep base's value rather than fail the whole update.
func (ev TunablesEvent) Apply(base model.MuxConfig) model.MuxConfig {
	cfg := base
	if ev.IntervalV4 != "" {
		cfg.IntervalV4 = parseMillis("LINK_PROBER.interval_v4", ev.IntervalV4, base.IntervalV4)
	}
	if ev.IntervalV6 != "" {
		cfg.IntervalV6 = parseMillis("LINK_PROBER.interval_v6", ev.IntervalV6, base.IntervalV6)
	}
	if ev.PositiveSignalCount != "" {
		cfg.PositiveSignalCount = parseInt("LINK_PROBER.positive_signal_count", ev.PositiveSignalCount, base.PositiveSignalCount)
	}
	if ev.NegativeSignalCount != "" {
		cfg.NegativeSignalCount = parseInt("LINK_PROBER.negative_signal_count", ev.NegativeSignalCount, base.NegativeSignalCount)
	}
	if ev.SuspendTimer != "" {
		cfg.SuspendTimer = parseMillis("LINK_PROBER.suspend_timer", ev.SuspendTimer, base.SuspendTimer)
	}
	if ev.LogVerbosity != "" {
		cfg.LogVerbosity = ev.LogVerbosity
	}
	return cfg
}

func parseInt(field, raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("fabric: CONFIG_MUX_LINKMGR.%s=%q is not an integer, keeping %d", field, raw, def)
		return def
	}
	return n
}

// parseMillis parses raw as a millisecond count, the native unit
// Config:MuxLinkmgr's LINK_PROBER fields are published in.
func parseMillis(field, raw string, def time.Duration) time.Duration {
	ms, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("fabric: CONFIG_MUX_LINKMGR.%s=%q is not an integer millisecond count, keeping %s", field, raw, def)
		return def
	}
	return time.Duration(ms) * time.Millisecond
}
