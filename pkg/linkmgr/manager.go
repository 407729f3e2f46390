package linkmgr

import (
	"log"
	"sync"
	"time"

	"dualtor-linkmgrd/pkg/model"
)

// Manager owns every PortSupervisor in the process (one per dual-ToR cable),
// the shared dispatcher and the optional warm-restart reconciler. It is the
// Go analogue of the source's MuxManager: the top-level object that routes
// per-table notifications to the right port's serialization domain.
type Manager struct {
	mu         sync.RWMutex
	supervisors map[string]*PortSupervisor
	dispatcher  *Dispatcher
	reconciler  *Reconciler
	tunables    model.MuxConfig
}

// NewManager builds a manager with a running dispatcher. Call
// StartWarmRestart afterward if the platform reports a warm restart.
func NewManager(tunables model.MuxConfig, workers int) *Manager {
	if workers <= 0 {
		workers = DefaultWorkerCount()
	}
	return &Manager{
		supervisors: make(map[string]*PortSupervisor),
		dispatcher:  NewDispatcher(workers),
		tunables:    tunables,
	}
}

// AddPort registers a newly-discovered port (§3 lifecycle). Safe to call
// concurrently with dispatched events for other ports.
func (m *Manager) AddPort(cfg model.PortConfig) *PortSupervisor {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.supervisors[cfg.PortName]; ok {
		return s
	}
	s := NewPortSupervisor(cfg, m.tunables)
	m.supervisors[cfg.PortName] = s
	return s
}

// Tunables returns the manager's current tunables snapshot, the base that
// UpdateTunables overlays the next Config:MuxLinkmgr change onto.
func (m *Manager) Tunables() model.MuxConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tunables
}

func (m *Manager) Supervisor(port string) (*PortSupervisor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.supervisors[port]
	return s, ok
}

// Ports returns the currently registered port names.
func (m *Manager) Ports() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.supervisors))
	for p := range m.supervisors {
		out = append(out, p)
	}
	return out
}

// StartWarmRestart begins the reconciliation window described in §4.5.
// onDone is called exactly once when reconciliation completes (either every
// port reconciled, or the timeout fired first).
func (m *Manager) StartWarmRestart(timeout time.Duration, onDone func(forced bool)) {
	m.mu.Lock()
	n := len(m.supervisors)
	m.mu.Unlock()
	m.reconciler = NewReconciler(n, timeout, func(forced bool) {
		if forced {
			log.Printf("linkmgr: warm-restart reconciliation window elapsed; forcing complete")
		} else {
			log.Printf("linkmgr: warm-restart reconciliation complete")
		}
		if onDone != nil {
			onDone(forced)
		}
	})
}

func (m *Manager) inReconciliation() bool {
	return m.reconciler != nil && m.reconciler.InReconciliation()
}

// UpdateTunables swaps in a new tunables snapshot for the manager and
// applies it to every currently registered port via PortSupervisor.ApplyConfig,
// each posted onto that port's own strand so the swap is never observed
// mid-transition (design note "Replacing process-wide mutable state": readers
// only ever see the snapshot active at the start of their own task). Ports
// discovered afterward pick up the new snapshot directly through AddPort.
func (m *Manager) UpdateTunables(cfg model.MuxConfig) {
	m.mu.Lock()
	m.tunables = cfg
	ports := make([]string, 0, len(m.supervisors))
	for p := range m.supervisors {
		ports = append(ports, p)
	}
	m.mu.Unlock()

	for _, port := range ports {
		m.Dispatch(port, func() {
			if s, ok := m.Supervisor(port); ok {
				s.ApplyConfig(cfg)
			}
		})
	}
}

// Dispatch posts fn onto port's serialization domain (§5). fn should call
// exactly one PortSupervisor method and hand the resulting actions to
// process, e.g. via Manager.Apply.
func (m *Manager) Dispatch(port string, fn func()) {
	m.dispatcher.Post(port, fn)
}

// Apply runs a supervisor operation inside port's strand, reconciliation-
// filters the resulting actions, marks the port reconciled the first time an
// event flagged observedHardware reaches it during the window (the composite
// state itself is not checked for consistency), and hands the surviving
// actions to sink (typically an adapter that carries them out).
func (m *Manager) Apply(port string, op func(*PortSupervisor) []Action, observedHardware bool, sink func(string, []Action)) {
	m.Dispatch(port, func() {
		s, ok := m.Supervisor(port)
		if !ok {
			log.Printf("linkmgr: event for unknown port %s dropped", port)
			return
		}
		actions := op(s)
		if m.inReconciliation() {
			actions = FilterReconciliation(actions)
			if observedHardware && !s.State.Reconciled {
				s.State.Reconciled = true
				m.reconciler.MarkReconciled()
			}
		}
		if sink != nil {
			sink(port, actions)
		}
	})
}

// Stop drains the dispatcher and joins its workers (§5 process termination).
func (m *Manager) Stop() {
	m.dispatcher.Stop()
}
