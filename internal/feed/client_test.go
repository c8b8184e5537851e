package feed

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"
	"time"

	"stockmon/internal/models"
)

// fakeFeed serves scripted responses, one JSON line per request line.
func fakeFeed(t *testing.T, responses []quoteResponse) (host string, port int) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })

	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		for _, resp := range responses {
			if _, err := r.ReadBytes('\n'); err != nil {
				return
			}
			out, _ := json.Marshal(resp)
			if _, err := conn.Write(append(out, '\n')); err != nil {
				return
			}
		}
	}()

	addr := l.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port
}

func TestClient_ConnectFetchDisconnect(t *testing.T) {
	want := []models.Quote{
		{Code: "920579", Price: 24.1, LastClose: 23.5, Volume: 1200, Amount: 2890000},
		{Code: "002747", Price: 18.3, LastClose: 18.3, Volume: 900, Amount: 1640000},
	}
	host, port := fakeFeed(t, []quoteResponse{{Quotes: want}})

	c := NewClient(time.Second, time.Second)
	if err := c.Connect(host, port); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Disconnect()

	got, err := c.Fetch([]SymbolKey{{Market: 2, Code: "920579"}, {Market: 0, Code: "002747"}})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d quotes, want 2", len(got))
	}
	if got[0] != want[0] {
		t.Errorf("got quote %+v, want %+v", got[0], want[0])
	}
}

func TestClient_FetchBeforeConnect(t *testing.T) {
	c := NewClient(time.Second, time.Second)
	if _, err := c.Fetch(nil); err != ErrNotConnected {
		t.Errorf("got %v, want ErrNotConnected", err)
	}
}

func TestClient_FeedError(t *testing.T) {
	host, port := fakeFeed(t, []quoteResponse{{Error: "unknown symbol"}})

	c := NewClient(time.Second, time.Second)
	if err := c.Connect(host, port); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Disconnect()

	if _, err := c.Fetch([]SymbolKey{{Market: 2, Code: "nope"}}); err == nil {
		t.Error("expected error from feed error response")
	}
}

func TestClient_FetchAfterDisconnect(t *testing.T) {
	host, port := fakeFeed(t, nil)

	c := NewClient(time.Second, time.Second)
	if err := c.Connect(host, port); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	c.Disconnect()

	if _, err := c.Fetch(nil); err != ErrNotConnected {
		t.Errorf("got %v, want ErrNotConnected", err)
	}
}

func TestClient_ConnectRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()

	c := NewClient(500*time.Millisecond, time.Second)
	if err := c.Connect("127.0.0.1", port); err == nil {
		t.Error("expected connect to fail against closed port")
	}
}
