package peer

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHubRequestPeerSwitchRoundTrip(t *testing.T) {
	recv := make(chan Message, 1)
	hub := NewHub(func(port string, msg Message) { recv <- msg })

	srv := httptest.NewServer(http.HandlerFunc(hub.HandlePeerWS))
	defer srv.Close()

	wsURL := "ws" + srv.URL[len("http"):] + "/?port=Ethernet0"
	u, err := url.Parse(wsURL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	time.Sleep(50 * time.Millisecond) // allow the server side to register the connection
	hub.RequestPeerSwitch("Ethernet0")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Message
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Type != MsgTypePeerSwitch || got.Port != "Ethernet0" {
		t.Fatalf("got %+v", got)
	}

	if err := conn.WriteJSON(Message{Type: MsgTypePeerVerdict, Port: "Ethernet0"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case msg := <-recv:
		if msg.Type != MsgTypePeerVerdict {
			t.Fatalf("got %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("hub did not relay client message to onRecv")
	}
}

func TestHubSendSkipsWhenNotConnected(t *testing.T) {
	hub := NewHub(nil)
	hub.RequestPeerSwitch("Ethernet0") // must not panic when no connection exists
}
