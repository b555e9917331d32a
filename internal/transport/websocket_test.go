// SPDX-License-Identifier: MIT
package transport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newTestTransport builds a WebSocketTransport around an httptest server
// instead of a real listener.
func newTestTransport(t *testing.T) (*WebSocketTransport, string) {
	t.Helper()

	wst := &WebSocketTransport{
		upgrader:  websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan any, 256),
	}
	go wst.handleBroadcasts()

	srv := httptest.NewServer(http.HandlerFunc(wst.handleWebSocket))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { wst.Close() })

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	return wst, url
}

func TestWebSocketBroadcast(t *testing.T) {
	wst, url := newTestTransport(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Registration races the first broadcast; wait for the client map.
	deadline := time.Now().Add(2 * time.Second)
	for wst.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	payload := map[string]any{"type": "energy", "bass": 0.7}
	if err := wst.Send(payload); err != nil {
		t.Fatalf("Send: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got map[string]any
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got["type"] != "energy" || got["bass"] != 0.7 {
		t.Errorf("received %+v", got)
	}
}

func TestWebSocketSendNeverBlocks(t *testing.T) {
	// No broadcast goroutine draining: Send must drop once the queue
	// fills rather than block.
	wst := &WebSocketTransport{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan any, 4),
	}

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			_ = wst.Send(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Send blocked on a full queue")
	}
	if len(wst.broadcast) != 4 {
		t.Errorf("queue length = %d, want 4", len(wst.broadcast))
	}
}

func TestWebSocketCloseDisconnectsClients(t *testing.T) {
	wst, url := newTestTransport(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for wst.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := wst.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if wst.ClientCount() != 0 {
		t.Errorf("client count after close = %d, want 0", wst.ClientCount())
	}
}
