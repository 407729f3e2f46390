package peer

import (
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client maintains a reconnecting websocket connection to the peer ToR's
// linkmgrd, adapted from pkg/agent/ws_client.go's loop/readLoop/send shape.
type Client struct {
	mu       sync.Mutex
	conn     *websocket.Conn
	endpoint string
	onRecv   func(Message)
	stop     chan struct{}
}

// NewClient builds a client dialing peerAddr (host:port of the peer ToR's
// linkmgrd admin surface) for port's peer-switch channel — the query
// parameter mirrors what Hub.HandlePeerWS expects on the accepting side, so
// this port's traffic lands on the matching keyed connection there.
// onRecv is invoked for every Message received.
func NewClient(peerAddr, port string, onRecv func(Message)) *Client {
	if peerAddr == "" {
		return nil
	}
	u := url.URL{Scheme: "ws", Host: peerAddr, Path: "/api/v1/peer/ws", RawQuery: "port=" + url.QueryEscape(port)}
	return &Client{
		endpoint: u.String(),
		onRecv:   onRecv,
		stop:     make(chan struct{}),
	}
}

func (c *Client) Start() {
	if c == nil {
		return
	}
	go c.loop()
}

func (c *Client) loop() {
	for {
		select {
		case <-c.stop:
			return
		default:
		}
		conn, _, err := websocket.DefaultDialer.Dial(c.endpoint, nil)
		if err != nil {
			log.Printf("peer: dial failed: %v (url=%s)", err, c.endpoint)
			time.Sleep(5 * time.Second)
			continue
		}
		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		log.Printf("peer: connected to %s", c.endpoint)
		c.readLoop(conn)
		log.Printf("peer: disconnected, retrying in 5s")
		time.Sleep(5 * time.Second)
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if c.onRecv != nil {
			c.onRecv(msg)
		}
	}
}

func (c *Client) Send(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		log.Printf("peer: send failed: %v", err)
	}
}

func (c *Client) Stop() {
	if c == nil {
		return
	}
	close(c.stop)
	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.Unlock()
}
