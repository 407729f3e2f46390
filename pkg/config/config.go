// Package config loads MuxConfig tunables from flags, environment variables
// and an optional .env file, the way pkg/db loaded MySQL settings in the
// teacher repo: a thin getenv layer plus godotenv.Load for local overrides.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"dualtor-linkmgrd/pkg/model"
)

// LoadDotEnv loads a .env file from the working directory if present. Missing
// files are not an error; this mirrors pkg/db/mysql.go's loadDotEnv.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); err == nil {
		return godotenv.Load(".env")
	}
	return nil
}

// FromEnv builds a MuxConfig starting from model.DefaultMuxConfig and
// overlaying any recognized environment variables. A malformed value is
// InvalidInput (§7): log a warning and keep the previous (default) value.
func FromEnv() model.MuxConfig {
	cfg := model.DefaultMuxConfig()

	cfg.PositiveStateChangeRetryCount = envInt("LINKMGRD_POSITIVE_RETRY_COUNT", cfg.PositiveStateChangeRetryCount)
	cfg.NegativeStateChangeRetryCount = envInt("LINKMGRD_NEGATIVE_RETRY_COUNT", cfg.NegativeStateChangeRetryCount)
	cfg.MuxStateChangeRetryCount = envInt("LINKMGRD_MUX_RETRY_COUNT", cfg.MuxStateChangeRetryCount)
	cfg.LinkStateChangeRetryCount = envInt("LINKMGRD_LINK_RETRY_COUNT", cfg.LinkStateChangeRetryCount)

	cfg.MuxWaitTimeout = envDuration("LINKMGRD_MUX_WAIT_TIMEOUT", cfg.MuxWaitTimeout)
	cfg.LinkWaitTimeout = envDuration("LINKMGRD_LINK_WAIT_TIMEOUT", cfg.LinkWaitTimeout)
	cfg.SuspendTimeout = envDuration("LINKMGRD_SUSPEND_TIMEOUT", cfg.SuspendTimeout)
	cfg.MuxReconciliationTimeout = envDuration("LINKMGRD_RECONCILIATION_TIMEOUT", cfg.MuxReconciliationTimeout)

	cfg.IntervalV4 = envDuration("LINKMGRD_INTERVAL_V4", cfg.IntervalV4)
	cfg.IntervalV6 = envDuration("LINKMGRD_INTERVAL_V6", cfg.IntervalV6)
	cfg.PositiveSignalCount = envInt("LINKMGRD_POSITIVE_SIGNAL_COUNT", cfg.PositiveSignalCount)
	cfg.NegativeSignalCount = envInt("LINKMGRD_NEGATIVE_SIGNAL_COUNT", cfg.NegativeSignalCount)
	cfg.SuspendTimer = envDuration("LINKMGRD_SUSPEND_TIMER", cfg.SuspendTimer)

	cfg.EnableSwitchoverMeasurement = envBool("LINKMGRD_ENABLE_SWITCHOVER_MEASUREMENT", cfg.EnableSwitchoverMeasurement)
	cfg.EnableDefaultRouteFeature = envBool("LINKMGRD_ENABLE_DEFAULT_ROUTE", cfg.EnableDefaultRouteFeature)

	if v := os.Getenv("LINKMGRD_LOG_VERBOSITY"); v != "" {
		cfg.LogVerbosity = v
	}
	return cfg
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: %s=%q is not an integer, keeping %d", key, v, def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config: %s=%q is not a duration, keeping %s", key, v, def)
		return def
	}
	return d
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("config: %s=%q is not a boolean, keeping %v", key, v, def)
		return def
	}
	return b
}

// DeviceMetadata holds the mandatory startup configuration read from
// Config:DeviceMetadata / Config:LoopbackInterfaces (§6). Missing mandatory
// values are ConfigNotFound and must abort startup before any supervisors
// are created (§7).
type DeviceMetadata struct {
	MAC          string
	LoopbackIPv4 string
}

// RequireDeviceMetadata validates the mandatory startup configuration. It is
// the Go analogue of the source's fatal ConfigNotFound path: callers should
// log.Fatalf on a non-nil error before constructing any PortSupervisor.
func RequireDeviceMetadata(mac, loopbackIPv4 string) (DeviceMetadata, error) {
	if mac == "" {
		return DeviceMetadata{}, ErrMissingDeviceMAC
	}
	if loopbackIPv4 == "" {
		return DeviceMetadata{}, ErrMissingLoopbackIPv4
	}
	return DeviceMetadata{MAC: mac, LoopbackIPv4: loopbackIPv4}, nil
}
