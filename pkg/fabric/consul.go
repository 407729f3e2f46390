package fabric

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	consulapi "github.com/hashicorp/consul/api"

	"dualtor-linkmgrd/pkg/linkmgr"
	"dualtor-linkmgrd/pkg/model"
)

// Consul is a Consul KV-backed Fabric: every logical table from spec.md §6
// is a key prefix, and every Subscribe* is a long-poll blocking query, the
// same pattern pkg/consul/store_consul.go and pkg/agent/watch_consul.go used
// for node/plan state (CAS writes, WaitIndex-driven watch loops). Unlike the
// teacher's consul backend this one is wired unconditionally (no "consul"
// build tag) since the KV fabric is this daemon's primary collaborator, not
// an optional extra.
type Consul struct {
	cli     *consulapi.Client
	session string

	ctx    context.Context
	cancel context.CancelFunc
}

const (
	applMuxCablePrefix        = "MUX_CABLE_TABLE|"
	applMuxCableCommandPrefix = "MUX_CABLE_COMMAND_TABLE|"
	applMuxResponsePrefix     = "MUX_CABLE_RESPONSE_TABLE|"
	applPortPrefix            = "PORT_TABLE|"
	stateMuxCablePrefix       = "MUX_CABLE_TABLE|"
	stateMuxLinkmgrPrefix     = "MUX_LINKMGR_TABLE|"
	stateMuxMetricsPrefix     = "MUX_METRICS_TABLE|"
	stateLinkProbeStatsPrefix = "LINK_PROBE_STATS_TABLE|"
	stateRoutePrefix          = "ROUTE_TABLE|"
	stateMuxCableInfoPrefix   = "MUX_CABLE_INFO_TABLE|"
	configMuxCablePrefix      = "CONFIG_MUX_CABLE|"
	configMuxLinkmgrPrefix    = "CONFIG_MUX_LINKMGR|"
)

// NewConsul dials addr (empty uses the default agent at localhost:8500) and
// acquires a session, used only to gate the warm-restart reconciler's
// force-complete path across multiple linkmgrd processes in a fleet.
func NewConsul(addr string) (*Consul, error) {
	cfg := consulapi.DefaultConfig()
	if addr != "" {
		cfg.Address = addr
	}
	cli, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("fabric: consul client: %w", err)
	}
	sessionID, _, err := cli.Session().Create(&consulapi.SessionEntry{
		Name:     "linkmgrd-reconciler",
		Behavior: consulapi.SessionBehaviorRelease,
		TTL:      "30s",
	}, nil)
	if err != nil {
		log.Printf("fabric: consul session create failed (continuing without leader gate): %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Consul{cli: cli, session: sessionID, ctx: ctx, cancel: cancel}, nil
}

// AcquireReconcileLock attempts to take the shared reconciliation lock so
// that in a multi-process deployment only one process force-completes a warm
// restart's reconciliation window.
func (c *Consul) AcquireReconcileLock() (bool, error) {
	if c.session == "" {
		return true, nil // no session: behave as a single-process deployment
	}
	ok, _, err := c.cli.KV().Acquire(&consulapi.KVPair{
		Key:     "linkmgrd/reconcile-lock",
		Value:   []byte("locked"),
		Session: c.session,
	}, nil)
	if err != nil {
		return false, &linkmgr.Error{Kind: linkmgr.KindTransientAdapter, Err: fmt.Errorf("acquire reconcile lock: %w", err)}
	}
	return ok, nil
}

func (c *Consul) WriteMuxState(port string, label model.MuxLabel) error {
	val := "standby"
	if label == model.MuxActive {
		val = "active"
	}
	return c.put(applMuxCablePrefix+port+"|state", val)
}

func (c *Consul) WriteMuxCommand(port string, cmd MuxCommand) error {
	return c.put(applMuxCableCommandPrefix+port+"|command", string(cmd))
}

func (c *Consul) WriteHealth(port string, h model.Health) error {
	var val string
	switch h {
	case model.HealthHealthy:
		val = "healthy"
	case model.HealthUnhealthy:
		val = "unhealthy"
	default:
		val = "uninitialized"
	}
	return c.put(stateMuxLinkmgrPrefix+port+"|state", val)
}

func (c *Consul) WriteSwitchMetric(port, label, edge string, unixNano int64) error {
	key := fmt.Sprintf("%s%s|linkmgrd_switch_%s_%s", stateMuxMetricsPrefix, port, label, edge)
	return c.put(key, strconv.FormatInt(unixNano, 10))
}

func (c *Consul) WriteProbeStats(port string, lossCount, expectedCount int) error {
	if err := c.put(fmt.Sprintf("%s%s|pck_loss_count", stateLinkProbeStatsPrefix, port), strconv.Itoa(lossCount)); err != nil {
		return err
	}
	return c.put(fmt.Sprintf("%s%s|pck_expected_count", stateLinkProbeStatsPrefix, port), strconv.Itoa(expectedCount))
}

func (c *Consul) put(key, value string) error {
	_, err := c.cli.KV().Put(&consulapi.KVPair{Key: key, Value: []byte(value)}, nil)
	if err != nil {
		return &linkmgr.Error{Kind: linkmgr.KindTransientAdapter, Port: portFromKey(key), Err: fmt.Errorf("put %s: %w", key, err)}
	}
	return nil
}

// portFromKey recovers the port segment from a PREFIX|<port>|<field> key,
// best-effort, for TransientAdapterError context (§7).
func portFromKey(key string) string {
	parts := strings.Split(key, "|")
	if len(parts) >= 2 {
		return parts[1]
	}
	return ""
}

func (c *Consul) SubscribeMuxState(port string, onReport func(model.MuxReport)) (func(), error) {
	key := stateMuxCablePrefix + port + "|state"
	return c.watchKey(key, func(v string) { onReport(parseMuxReport(v)) })
}

func (c *Consul) SubscribeMuxResponse(port string, onReport func(model.MuxReport)) (func(), error) {
	key := applMuxResponsePrefix + port + "|response"
	return c.watchKey(key, func(v string) { onReport(parseMuxReport(v)) })
}

func (c *Consul) SubscribePortOper(port string, onOper func(up bool)) (func(), error) {
	key := applPortPrefix + port + "|oper_status"
	return c.watchKey(key, func(v string) { onOper(v == "up") })
}

func (c *Consul) SubscribeRoute(family string, onState func(ok bool)) (func(), error) {
	prefix := "0.0.0.0/0"
	if family == "v6" {
		prefix = "::/0"
	}
	key := stateRoutePrefix + prefix + "|state"
	return c.watchKey(key, func(v string) { onState(v == "ok") })
}

func (c *Consul) SubscribePeerMuxInfo(port string, onPeerLinkUp func(up bool)) (func(), error) {
	key := stateMuxCableInfoPrefix + port + "|link_status_peer"
	return c.watchKey(key, func(v string) { onPeerLinkUp(v == "up") })
}

func (c *Consul) SubscribePortConfig(onEvent func(PortConfigEvent)) (func(), error) {
	ctx, cancel := context.WithCancel(c.ctx)
	go func() {
		q := &consulapi.QueryOptions{}
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			pairs, meta, err := c.cli.KV().List(configMuxCablePrefix, q.WithContext(ctx))
			if err != nil {
				time.Sleep(time.Second)
				continue
			}
			for _, ev := range mergePortConfigRows(pairs) {
				onEvent(ev)
			}
			q.WaitIndex = meta.LastIndex
		}
	}()
	return cancel, nil
}

// SubscribeTunables watches Config:MuxLinkmgr's LINK_PROBER/MUXLOGGER fields
// (§6), folding the flat CONFIG_MUX_LINKMGR|<group>|<field> rows into one
// TunablesEvent per change batch — the same List-based blocking-query shape
// SubscribePortConfig uses for Config:MuxCable, since both tables publish
// their sub-fields as separate KV pairs under a shared prefix.
func (c *Consul) SubscribeTunables(onEvent func(TunablesEvent)) (func(), error) {
	ctx, cancel := context.WithCancel(c.ctx)
	go func() {
		q := &consulapi.QueryOptions{}
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			pairs, meta, err := c.cli.KV().List(configMuxLinkmgrPrefix, q.WithContext(ctx))
			if err != nil {
				time.Sleep(time.Second)
				continue
			}
			onEvent(mergeTunablesRows(pairs))
			q.WaitIndex = meta.LastIndex
		}
	}()
	return cancel, nil
}

func (c *Consul) Close() error {
	c.cancel()
	if c.session != "" {
		_, err := c.cli.Session().Destroy(c.session, nil)
		return err
	}
	return nil
}

// watchKey runs a blocking-query loop against a single key and invokes fn
// with its string value on every change, mirroring
// pkg/agent/watch_consul.go's StartConsulWatch.
func (c *Consul) watchKey(key string, fn func(string)) (func(), error) {
	return c.watchKeyRaw(key, func(kv *consulapi.KVPair) {
		fn(string(kv.Value))
	})
}

func (c *Consul) watchKeyRaw(key string, fn func(*consulapi.KVPair)) (func(), error) {
	ctx, cancel := context.WithCancel(c.ctx)
	var once sync.Once
	go func() {
		q := &consulapi.QueryOptions{}
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			kv, meta, err := c.cli.KV().Get(key, q.WithContext(ctx))
			if err != nil {
				adapterErr := &linkmgr.Error{Kind: linkmgr.KindTransientAdapter, Port: portFromKey(key), Err: err}
				log.Printf("fabric: %v, retrying", adapterErr)
				time.Sleep(time.Second)
				continue
			}
			if kv != nil {
				once.Do(func() {}) // first observation is not logged as a change
				fn(kv)
				q.WaitIndex = meta.LastIndex
			} else {
				time.Sleep(time.Second)
			}
		}
	}()
	return cancel, nil
}

func parseMuxReport(v string) model.MuxReport {
	switch v {
	case "active":
		return model.MuxReportActive
	case "standby":
		return model.MuxReportStandby
	case "error", "Error":
		return model.MuxReportError
	default:
		return model.MuxReportUnknown
	}
}

// mergePortConfigRows folds the flat CONFIG_MUX_CABLE|<port>|<field> rows
// (each field a separate KV pair, per the table's per-field layout) into one
// PortConfigEvent per port, including pck_loss_data_reset (§6
// Config:MuxCable.pck_loss_data_reset).
func mergePortConfigRows(pairs consulapi.KVPairs) []PortConfigEvent {
	byPort := make(map[string]*PortConfigEvent)
	order := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts := strings.SplitN(strings.TrimPrefix(p.Key, configMuxCablePrefix), "|", 2)
		if len(parts) != 2 {
			continue
		}
		port, field, val := parts[0], parts[1], string(p.Value)
		ev, ok := byPort[port]
		if !ok {
			ev = &PortConfigEvent{PortName: port}
			byPort[port] = ev
			order = append(order, port)
		}
		switch field {
		case "server_ipv4":
			ev.ServerIPv4 = val
		case "cable_type":
			if val == "active-active" {
				ev.CableType = model.CableActiveActive
			}
		case "pck_loss_data_reset":
			ev.PckLossDataReset = val == "true"
		}
	}
	out := make([]PortConfigEvent, 0, len(order))
	for _, port := range order {
		out = append(out, *byPort[port])
	}
	return out
}

// mergeTunablesRows folds the flat CONFIG_MUX_LINKMGR|<group>|<field> rows
// (LINK_PROBER's interval_v4/interval_v6/positive_signal_count/
// negative_signal_count/suspend_timer, MUXLOGGER's log_verbosity) into one
// TunablesEvent (§6 Config:MuxLinkmgr).
func mergeTunablesRows(pairs consulapi.KVPairs) TunablesEvent {
	var ev TunablesEvent
	for _, p := range pairs {
		parts := strings.SplitN(strings.TrimPrefix(p.Key, configMuxLinkmgrPrefix), "|", 2)
		if len(parts) != 2 {
			continue
		}
		val := string(p.Value)
		switch parts[0] + "." + parts[1] {
		case "LINK_PROBER.interval_v4":
			ev.IntervalV4 = val
		case "LINK_PROBER.interval_v6":
			ev.IntervalV6 = val
		case "LINK_PROBER.positive_signal_count":
			ev.PositiveSignalCount = val
		case "LINK_PROBER.negative_signal_count":
			ev.NegativeSignalCount = val
		case "LINK_PROBER.suspend_timer":
			ev.SuspendTimer = val
		case "MUXLOGGER.log_verbosity":
			ev.LogVerbosity = val
		}
	}
	return ev
}
