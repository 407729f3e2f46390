// Package peer implements the active-active peer-switch channel between two
// ToRs' linkmgrd processes (§4.1's active-active variant: "Peer prober
// PeerUnknown... request peer mux Standby via the peer-notification
// channel"). It is adapted from pkg/api/ws.go's WSHub, keyed by port name
// instead of node id, and pkg/agent/ws_client.go's reconnecting client.
package peer

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Message is the wire envelope exchanged between peer linkmgrd processes.
type Message struct {
	Type    string      `json:"type"`              // e.g. peer_switch, peer_verdict, peer_mux
	Port    string      `json:"port,omitempty"`    // source/target port
	Payload interface{} `json:"payload,omitempty"` // arbitrary JSON
}

const (
	MsgTypePeerSwitch  = "peer_switch"
	MsgTypePeerVerdict = "peer_verdict"
	MsgTypePeerMux     = "peer_mux"
)

// Hub holds the peer ToR's inbound connections, one websocket per dual-homed
// port, keyed by port name; a new connection for a port replaces the old one.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	conns    map[string]*websocket.Conn
	onRecv   func(port string, msg Message)
}

func NewHub(onRecv func(port string, msg Message)) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns:  map[string]*websocket.Conn{},
		onRecv: onRecv,
	}
}

// HandlePeerWS upgrades and stores the connection for a port; expects
// ?port=xxx, mirroring WSHub.HandleAgentWS's ?nodeId= convention.
func (h *Hub) HandlePeerWS(w http.ResponseWriter, r *http.Request) {
	port := r.URL.Query().Get("port")
	if port == "" {
		http.Error(w, "port required", http.StatusBadRequest)
		return
	}
	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("peer: ws upgrade failed port=%s err=%v", port, err)
		return
	}
	h.mu.Lock()
	if old, ok := h.conns[port]; ok {
		_ = old.Close()
	}
	h.conns[port] = c
	h.mu.Unlock()
	log.Printf("peer: ws connected port=%s", port)
	go h.readLoop(port, c)
}

// RequestPeerSwitch sends a peer-switch request for port, the action
// pkg/linkmgr emits when the peer's prober verdict settles to PeerUnknown.
func (h *Hub) RequestPeerSwitch(port string) {
	h.send(port, Message{Type: MsgTypePeerSwitch, Port: port})
}

func (h *Hub) send(port string, msg Message) {
	h.mu.RLock()
	c := h.conns[port]
	h.mu.RUnlock()
	if c == nil {
		log.Printf("peer: send skipped, port %s not connected", port)
		return
	}
	if err := c.WriteJSON(msg); err != nil {
		log.Printf("peer: send to %s failed: %v", port, err)
	}
}

func (h *Hub) readLoop(port string, c *websocket.Conn) {
	defer func() {
		c.Close()
		h.mu.Lock()
		delete(h.conns, port)
		h.mu.Unlock()
		log.Printf("peer: ws disconnected port=%s", port)
	}()
	for {
		var msg Message
		if err := c.ReadJSON(&msg); err != nil {
			return
		}
		if h.onRecv != nil {
			h.onRecv(port, msg)
		}
	}
}
