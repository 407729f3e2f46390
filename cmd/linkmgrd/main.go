// Command linkmgrd is the dual-ToR MUX link manager daemon: it wires a
// fabric.Fabric, a linkmgr.Manager, the prober/muxdriver/peer adapters and
// the admin HTTP surface together and runs until signaled to stop. The
// overall shape — flag parsing, fabric backend selection, HTTP server with
// graceful drain on SIGINT/SIGTERM — follows cmd/controller/main.go and
// cmd/agent/main.go.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"gorm.io/gorm"

	"dualtor-linkmgrd/pkg/adminapi"
	"dualtor-linkmgrd/pkg/config"
	"dualtor-linkmgrd/pkg/fabric"
	"dualtor-linkmgrd/pkg/linkmgr"
	"dualtor-linkmgrd/pkg/model"
	"dualtor-linkmgrd/pkg/muxdriver"
	"dualtor-linkmgrd/pkg/peer"
	"dualtor-linkmgrd/pkg/persistence"
	"dualtor-linkmgrd/pkg/prober"
	"dualtor-linkmgrd/pkg/version"
)

// probers holds the link-prober collaborator for every discovered port, so
// ActionSuspendProberTx/ActionRestartProberTx (emitted by the coordinator,
// carried out by whoever owns the prober per muxdriver.Driver.Apply's
// comment) can be routed to the right Stub.
type proberRegistry struct {
	mu sync.RWMutex
	m  map[string]*prober.Stub
}

func newProbers() *proberRegistry { return &proberRegistry{m: make(map[string]*prober.Stub)} }

func (p *proberRegistry) add(port string) *prober.Stub {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.m[port]; ok {
		return s
	}
	s := prober.NewStub()
	p.m[port] = s
	return s
}

func (p *proberRegistry) get(port string) (*prober.Stub, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.m[port]
	return s, ok
}

// peerClients holds this process's outbound dial to the peer ToR's linkmgrd,
// one per active-active port (the peer-switch channel is per-port, §3
// invariant 6). Connections are established lazily in startPortWatches once
// a port's cable type is known.
type peerClients struct {
	mu sync.RWMutex
	m  map[string]*peer.Client
}

func newPeerClients() *peerClients { return &peerClients{m: make(map[string]*peer.Client)} }

func (p *peerClients) add(addr, port string, onRecv func(peer.Message)) *peer.Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.m[port]; ok {
		return c
	}
	c := peer.NewClient(addr, port, onRecv)
	c.Start()
	p.m[port] = c
	return c
}

func (p *peerClients) get(port string) (*peer.Client, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.m[port]
	return c, ok
}

func (p *peerClients) stopAll() {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, c := range p.m {
		c.Stop()
	}
}

func main() {
	addr := flag.String("addr", ":8081", "admin HTTP listen address")
	fabricType := flag.String("fabric", "memory", "fabric backend: memory|consul")
	consulAddr := flag.String("consul-addr", "", "consul address (when fabric=consul, empty uses agent default)")
	deviceMAC := flag.String("device-mac", os.Getenv("LINKMGRD_DEVICE_MAC"), "device MAC (Config:DeviceMetadata.mac, env LINKMGRD_DEVICE_MAC)")
	loopbackIPv4 := flag.String("loopback-ipv4", os.Getenv("LINKMGRD_LOOPBACK_IPV4"), "Loopback2 IPv4 (env LINKMGRD_LOOPBACK_IPV4)")
	peerAddr := flag.String("peer-addr", os.Getenv("LINKMGRD_PEER_ADDR"), "peer ToR's linkmgrd admin address for active-active peer-switch (env LINKMGRD_PEER_ADDR)")
	warmRestart := flag.Bool("warm-restart", false, "this process started from a warm restart; begin the reconciliation window")
	localAuditPath := flag.String("audit-db", "", "sqlite audit log path (empty uses the documented default)")
	mysqlEnable := flag.Bool("enable-mysql-audit", false, "also mirror audit entries to the fleet-wide mysql store (env LINKMGRD_MYSQL_*)")
	enableSwitchoverMeasurement := flag.Bool("enable-switchover-measurement", false, "emit State:MuxMetrics switch-timing samples (§6 CLI surface)")
	enableDefaultRoute := flag.Bool("enable-default-route-feature", false, "factor default-route health into Health (§6 CLI surface)")
	tlsCert := flag.String("tls-cert", os.Getenv("LINKMGRD_TLS_CERT"), "TLS certificate for the admin HTTP surface (empty serves plaintext)")
	tlsKey := flag.String("tls-key", os.Getenv("LINKMGRD_TLS_KEY"), "TLS key for the admin HTTP surface")
	tlsClientCA := flag.String("tls-client-ca", os.Getenv("LINKMGRD_TLS_CLIENT_CA"), "CA bundle to require and verify client certs against (empty disables mTLS)")
	showVersion := flag.Bool("v", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		log.Printf("linkmgrd version=%s", version.Build)
		return
	}

	if err := config.LoadDotEnv(); err != nil {
		log.Printf("linkmgrd: .env load failed (continuing): %v", err)
	}

	if _, err := config.RequireDeviceMetadata(*deviceMAC, *loopbackIPv4); err != nil {
		log.Fatalf("linkmgrd: %v", err)
	}

	tunables := config.FromEnv()
	if *enableSwitchoverMeasurement {
		tunables.EnableSwitchoverMeasurement = true
	}
	if *enableDefaultRoute {
		tunables.EnableDefaultRouteFeature = true
	}

	var fab fabric.Fabric
	switch *fabricType {
	case "consul":
		c, err := fabric.NewConsul(*consulAddr)
		if err != nil {
			log.Fatalf("linkmgrd: consul fabric: %v", err)
		}
		fab = c
	case "memory":
		fab = fabric.NewMemory()
	default:
		log.Fatalf("linkmgrd: unsupported fabric type %q", *fabricType)
	}
	defer fab.Close()

	audit, err := persistence.OpenLocalAudit(*localAuditPath)
	if err != nil {
		log.Fatalf("linkmgrd: local audit store: %v", err)
	}
	defer audit.Close()

	var remoteDB *gorm.DB
	if *mysqlEnable {
		db, err := persistence.OpenRemoteStore()
		if err != nil {
			log.Printf("linkmgrd: remote mysql audit store unavailable, continuing without it: %v", err)
		} else {
			remoteDB = db
			if sqlDB, sqlErr := db.DB(); sqlErr == nil {
				defer sqlDB.Close()
			}
		}
	}

	manager := linkmgr.NewManager(tunables, linkmgr.DefaultWorkerCount())
	driver := muxdriver.New(fab, manager)
	probers := newProbers()
	peers := newPeerClients()
	defer peers.stopAll()

	var hub *peer.Hub
	hub = peer.NewHub(func(port string, msg peer.Message) {
		handlePeerMessage(manager, port, msg, auditSink(manager, audit, remoteDB, driver, probers, peers, hub))
	})

	var routeOK atomic.Bool
	cancelRoute, err := fab.SubscribeRoute("v4", func(ok bool) {
		routeOK.Store(ok)
		sink := auditSink(manager, audit, remoteDB, driver, probers, peers, hub)
		for _, port := range manager.Ports() {
			manager.Apply(port, func(s *linkmgr.PortSupervisor) []linkmgr.Action {
				return s.OnDefaultRoute(ok)
			}, false, sink)
		}
	})
	if err != nil {
		log.Fatalf("linkmgrd: subscribe route: %v", err)
	}
	defer cancelRoute()

	cancelConfig, err := fab.SubscribePortConfig(func(ev fabric.PortConfigEvent) {
		sink := auditSink(manager, audit, remoteDB, driver, probers, peers, hub)
		wasKnown := false
		if _, ok := manager.Supervisor(ev.PortName); ok {
			wasKnown = true
		}
		sup := manager.AddPort(model.PortConfig{
			PortName:         ev.PortName,
			ServerIPv4:       ev.ServerIPv4,
			CableType:        ev.CableType,
			PckLossDataReset: ev.PckLossDataReset,
		})
		if !wasKnown {
			startPortWatches(manager, driver, sup, ev.PortName, audit, remoteDB, probers, peers, hub, *peerAddr)
			// a newly discovered port hasn't seen the route watch's initial
			// callback yet; seed it with whatever this process already knows.
			manager.Apply(ev.PortName, func(s *linkmgr.PortSupervisor) []linkmgr.Action {
				return s.OnDefaultRoute(routeOK.Load())
			}, false, sink)
		}
		if ev.PckLossDataReset {
			manager.Apply(ev.PortName, func(s *linkmgr.PortSupervisor) []linkmgr.Action {
				return s.ResetLossCount()
			}, false, sink)
		}
	})
	if err != nil {
		log.Fatalf("linkmgrd: subscribe port config: %v", err)
	}
	defer cancelConfig()

	cancelTunables, err := fab.SubscribeTunables(func(ev fabric.TunablesEvent) {
		manager.UpdateTunables(ev.Apply(manager.Tunables()))
	})
	if err != nil {
		log.Fatalf("linkmgrd: subscribe tunables: %v", err)
	}
	defer cancelTunables()

	if *warmRestart {
		manager.StartWarmRestart(tunables.MuxReconciliationTimeout, func(forced bool) {
			audit.RecordReconciliation("*", forced)
		})
	}

	srv := &http.Server{
		Addr:              *addr,
		ReadHeaderTimeout: 5 * time.Second,
	}
	mux := http.NewServeMux()
	admin := &adminapi.Server{
		Manager:  manager,
		Audit:    audit,
		Dispatch: auditSink(manager, audit, remoteDB, driver, probers, peers, hub),
	}
	admin.RegisterRoutes(mux)
	mux.HandleFunc("/api/v1/peer/ws", hub.HandlePeerWS)
	srv.Handler = mux

	useTLS := *tlsCert != "" && *tlsKey != ""
	if useTLS {
		tlsCfg, err := adminapi.ServerTLSConfig(*tlsCert, *tlsKey, *tlsClientCA)
		if err != nil {
			log.Fatalf("linkmgrd: %v", err)
		}
		srv.TLSConfig = tlsCfg
	}

	go func() {
		log.Printf("linkmgrd version=%s listening on %s fabric=%s tls=%v", version.Build, *addr, *fabricType, useTLS)
		var err error
		if useTLS {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("linkmgrd: server error: %v", err)
		}
	}()

	waitForShutdown(srv, manager)
}

// startPortWatches arms the hardware-report, link-oper, toggle-deadline and
// prober-verdict watches for a newly discovered port (§3 lifecycle, §5
// "I/O... posted as a new task"), and — for active-active ports, when a peer
// address is configured — dials this port's peer-switch channel.
func startPortWatches(manager *linkmgr.Manager, driver *muxdriver.Driver, sup *linkmgr.PortSupervisor, port string, audit *persistence.LocalAudit, remoteDB *gorm.DB, probers *proberRegistry, peers *peerClients, hub *peer.Hub, peerAddr string) {
	sink := auditSink(manager, audit, remoteDB, driver, probers, peers, hub)
	if _, err := driver.WatchReports(port, sink); err != nil {
		log.Printf("linkmgrd: port=%s watch mux reports failed: %v", port, err)
	}
	if _, err := driver.WatchLinkOper(port, sink); err != nil {
		log.Printf("linkmgrd: port=%s watch link oper failed: %v", port, err)
	}
	driver.WatchToggleDeadline(port, sup, sink)

	p := probers.add(port)
	go func() {
		for v := range p.VerdictCh() {
			manager.Apply(port, func(s *linkmgr.PortSupervisor) []linkmgr.Action {
				return s.OnProberVerdict(v)
			}, true, sink)
		}
	}()

	if peerAddr != "" && sup.State.CableType == model.CableActiveActive {
		peers.add(peerAddr, port, func(msg peer.Message) {
			handlePeerMessage(manager, port, msg, sink)
		})
	}
}

// handlePeerMessage reacts to a Message received over the peer-switch
// channel, whichever side (Hub or Client) received it. MsgTypePeerSwitch
// forces this port toward Standby via the same OnModeChange entrypoint an
// operator override uses (§4.1's active-active "request peer mux Standby");
// MsgTypePeerVerdict/MsgTypePeerMux carry the peer's own settled prober/mux
// labels, decoded from Payload instead of assumed.
func handlePeerMessage(manager *linkmgr.Manager, port string, msg peer.Message, sink func(string, []linkmgr.Action)) {
	switch msg.Type {
	case peer.MsgTypePeerSwitch:
		manager.Apply(port, func(s *linkmgr.PortSupervisor) []linkmgr.Action {
			return s.OnModeChange(model.ModeStandby)
		}, false, sink)
	case peer.MsgTypePeerVerdict:
		manager.Apply(port, func(s *linkmgr.PortSupervisor) []linkmgr.Action {
			return s.OnPeerVerdict(parsePeerVerdict(msg.Payload))
		}, false, sink)
	case peer.MsgTypePeerMux:
		manager.Apply(port, func(s *linkmgr.PortSupervisor) []linkmgr.Action {
			return s.OnPeerMux(parsePeerMuxLabel(msg.Payload))
		}, false, sink)
	}
}

// parsePeerVerdict decodes a MsgTypePeerVerdict Payload — the peer's own
// ProberVerdict.String() — back into the VerdictPeer* value this side's
// coordinator expects.
func parsePeerVerdict(payload interface{}) model.ProberVerdict {
	switch payload {
	case model.VerdictSelfActive.String():
		return model.VerdictPeerActive
	case model.VerdictSelfUnknown.String():
		return model.VerdictPeerUnknown
	default:
		return model.VerdictPeerWait
	}
}

// parsePeerMuxLabel decodes a MsgTypePeerMux Payload — the peer's own
// MuxLabel.String().
func parsePeerMuxLabel(payload interface{}) model.MuxLabel {
	if payload == model.MuxActive.String() {
		return model.MuxActive
	}
	return model.MuxStandby
}

// auditSink wraps a muxdriver.Driver.Apply sink with a local (and, when
// enabled, fleet-wide) audit-log write for every action the coordinator
// emits, dispatching the non-hardware actions (suspend/restart the prober,
// request a peer switch) to the collaborator that owns them, per
// muxdriver.Driver.Apply's "carried out by pkg/prober and pkg/peer
// respectively" comment, and — for active-active ports with a peer
// connection — relaying this port's own settled prober/mux labels to the
// peer so its OnPeerVerdict/OnPeerMux ever see something other than Unknown.
func auditSink(manager *linkmgr.Manager, audit *persistence.LocalAudit, remoteDB *gorm.DB, driver *muxdriver.Driver, probers *proberRegistry, peers *peerClients, hub *peer.Hub) func(string, []linkmgr.Action) {
	return func(port string, actions []linkmgr.Action) {
		for _, a := range actions {
			var action, target string
			switch a.Kind {
			case linkmgr.ActionRequestToggle:
				action, target = "toggle", a.Target.String()
			case linkmgr.ActionRequestProbe:
				action = "probe"
			case linkmgr.ActionSuspendProberTx:
				if p, ok := probers.get(port); ok {
					d := model.DefaultMuxConfig().SuspendTimer
					if sup, ok := manager.Supervisor(port); ok {
						d = sup.Config.SuspendTimer
					}
					p.Suspend(d)
				}
				continue
			case linkmgr.ActionRestartProberTx:
				if p, ok := probers.get(port); ok {
					p.Restart()
				}
				continue
			case linkmgr.ActionRequestPeerSwitch:
				hub.RequestPeerSwitch(port)
				continue
			default:
				continue
			}
			audit.RecordAction(port, action, target, "")
			if remoteDB != nil {
				if err := persistence.AppendAudit(remoteDB, model.NewAuditEntry(port, action, target, "")); err != nil {
					log.Printf("linkmgrd: remote audit write failed: %v", err)
				}
			}
		}
		driver.Apply(port, actions)
		if len(actions) > 0 {
			notifyPeer(manager, peers, port)
		}
	}
}

// notifyPeer sends this port's current settled prober verdict and mux label
// to its peer-switch channel, letting the peer's OnPeerVerdict/OnPeerMux
// react to real state instead of never being exercised at all.
func notifyPeer(manager *linkmgr.Manager, peers *peerClients, port string) {
	sup, ok := manager.Supervisor(port)
	if !ok || sup.State.CableType != model.CableActiveActive {
		return
	}
	client, ok := peers.get(port)
	if !ok {
		return
	}
	switch sup.State.Composite.Prober {
	case model.ProberActive:
		client.Send(peer.Message{Type: peer.MsgTypePeerVerdict, Port: port, Payload: model.VerdictSelfActive.String()})
	case model.ProberUnknown:
		client.Send(peer.Message{Type: peer.MsgTypePeerVerdict, Port: port, Payload: model.VerdictSelfUnknown.String()})
	}
	client.Send(peer.Message{Type: peer.MsgTypePeerMux, Port: port, Payload: sup.State.Composite.Mux.String()})
}

func waitForShutdown(srv *http.Server, manager *linkmgr.Manager) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	for sig := range sigCh {
		switch sig {
		case syscall.SIGINT, syscall.SIGTERM:
			log.Printf("linkmgrd: received %s, draining", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			_ = srv.Shutdown(ctx)
			cancel()
			manager.Stop()
			return
		}
	}
}
