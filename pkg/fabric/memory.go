package fabric

import (
	"fmt"
	"sync"

	"dualtor-linkmgrd/pkg/model"
)

// Memory is an in-memory Fabric used by tests and by cmd/linkmgrd when no
// Consul address is configured, mirroring how pkg/store.MemoryStore served
// as the teacher's dev/demo backend behind the same NodeStore interface.
type Memory struct {
	mu sync.Mutex

	muxState     map[string][]func(model.MuxReport)
	muxResponse  map[string][]func(model.MuxReport)
	portOper     map[string][]func(bool)
	route        map[string][]func(bool)
	peerMuxInfo  map[string][]func(bool)
	portConfig   []func(PortConfigEvent)
	tunables     []func(TunablesEvent)

	// Writes captured for assertions in tests.
	MuxStateWrites    []model.MuxLabel
	MuxCommandWrites  []MuxCommand
	HealthWrites      []model.Health
	SwitchMetrics     []string
	ProbeStatsWrites  int
}

func NewMemory() *Memory {
	return &Memory{
		muxState:    make(map[string][]func(model.MuxReport)),
		muxResponse: make(map[string][]func(model.MuxReport)),
		portOper:    make(map[string][]func(bool)),
		route:       make(map[string][]func(bool)),
		peerMuxInfo: make(map[string][]func(bool)),
	}
}

func (m *Memory) WriteMuxState(port string, label model.MuxLabel) error {
	m.mu.Lock()
	m.MuxStateWrites = append(m.MuxStateWrites, label)
	m.mu.Unlock()
	return nil
}

func (m *Memory) WriteMuxCommand(port string, cmd MuxCommand) error {
	m.mu.Lock()
	m.MuxCommandWrites = append(m.MuxCommandWrites, cmd)
	m.mu.Unlock()
	return nil
}

func (m *Memory) WriteHealth(port string, h model.Health) error {
	m.mu.Lock()
	m.HealthWrites = append(m.HealthWrites, h)
	m.mu.Unlock()
	return nil
}

func (m *Memory) WriteSwitchMetric(port, label, edge string, unixNano int64) error {
	m.mu.Lock()
	m.SwitchMetrics = append(m.SwitchMetrics, fmt.Sprintf("linkmgrd_switch_%s_%s", label, edge))
	m.mu.Unlock()
	return nil
}

func (m *Memory) WriteProbeStats(port string, lossCount, expectedCount int) error {
	m.mu.Lock()
	m.ProbeStatsWrites++
	m.mu.Unlock()
	return nil
}

func (m *Memory) SubscribeMuxState(port string, onReport func(model.MuxReport)) (func(), error) {
	m.mu.Lock()
	m.muxState[port] = append(m.muxState[port], onReport)
	m.mu.Unlock()
	return func() {}, nil
}

func (m *Memory) SubscribeMuxResponse(port string, onReport func(model.MuxReport)) (func(), error) {
	m.mu.Lock()
	m.muxResponse[port] = append(m.muxResponse[port], onReport)
	m.mu.Unlock()
	return func() {}, nil
}

func (m *Memory) SubscribePortOper(port string, onOper func(bool)) (func(), error) {
	m.mu.Lock()
	m.portOper[port] = append(m.portOper[port], onOper)
	m.mu.Unlock()
	return func() {}, nil
}

func (m *Memory) SubscribeRoute(family string, onState func(bool)) (func(), error) {
	m.mu.Lock()
	m.route[family] = append(m.route[family], onState)
	m.mu.Unlock()
	return func() {}, nil
}

func (m *Memory) SubscribePeerMuxInfo(port string, onPeerLinkUp func(bool)) (func(), error) {
	m.mu.Lock()
	m.peerMuxInfo[port] = append(m.peerMuxInfo[port], onPeerLinkUp)
	m.mu.Unlock()
	return func() {}, nil
}

func (m *Memory) SubscribePortConfig(onEvent func(PortConfigEvent)) (func(), error) {
	m.mu.Lock()
	m.portConfig = append(m.portConfig, onEvent)
	m.mu.Unlock()
	return func() {}, nil
}

func (m *Memory) SubscribeTunables(onEvent func(TunablesEvent)) (func(), error) {
	m.mu.Lock()
	m.tunables = append(m.tunables, onEvent)
	m.mu.Unlock()
	return func() {}, nil
}

func (m *Memory) Close() error { return nil }

// Deliver feeds a simulated State:MuxCable report to every subscriber of
// port, the way a test driver stands in for the real transceiver driver.
func (m *Memory) Deliver(port string, r model.MuxReport) {
	m.mu.Lock()
	subs := append([]func(model.MuxReport){}, m.muxState[port]...)
	m.mu.Unlock()
	for _, fn := range subs {
		fn(r)
	}
}

// DeliverOper feeds a simulated Appl:Port.oper_status sample.
func (m *Memory) DeliverOper(port string, up bool) {
	m.mu.Lock()
	subs := append([]func(bool){}, m.portOper[port]...)
	m.mu.Unlock()
	for _, fn := range subs {
		fn(up)
	}
}

// DeliverTunables feeds a simulated Config:MuxLinkmgr change to every
// SubscribeTunables subscriber.
func (m *Memory) DeliverTunables(ev TunablesEvent) {
	m.mu.Lock()
	subs := append([]func(TunablesEvent){}, m.tunables...)
	m.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}
