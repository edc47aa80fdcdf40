package signaling

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestOfferAnswerRoundTrip(t *testing.T) {
	offers := make(chan string, 1)
	server := NewServer("render-1", ServerHandler{
		OnOffer: func(p *Peer, payload json.RawMessage) {
			offers <- string(payload)
			_ = p.SendAnswer(json.RawMessage(`{"type":"answer","sdp":"a"}`))
			_ = p.SendICECandidate(json.RawMessage(`{"candidate":"c"}`))
		},
	})
	srv := httptest.NewServer(server)
	defer srv.Close()

	registered := make(chan string, 1)
	answers := make(chan string, 1)
	candidates := make(chan string, 1)
	c := NewClient(wsURL(srv), "client-1", Handler{
		OnRegistered:   func(id string) { registered <- id },
		OnAnswer:       func(from string, payload json.RawMessage) { answers <- from + " " + string(payload) },
		OnICECandidate: func(_ string, payload json.RawMessage) { candidates <- string(payload) },
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Connect(ctx); err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	select {
	case id := <-registered:
		if id != "render-1" || c.ServerID() != "render-1" {
			t.Fatalf("server id = %q", id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no registered message")
	}

	if err := c.SendOffer("render-1", json.RawMessage(`{"type":"offer","sdp":"o"}`)); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-offers:
		if got != `{"type":"offer","sdp":"o"}` {
			t.Fatalf("offer = %s", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("offer not delivered")
	}
	select {
	case got := <-answers:
		if got != `render-1 {"type":"answer","sdp":"a"}` {
			t.Fatalf("answer = %s", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("answer not delivered")
	}
	select {
	case got := <-candidates:
		if got != `{"candidate":"c"}` {
			t.Fatalf("candidate = %s", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("candidate not delivered")
	}
}

func TestDuplicateRegistrationRejected(t *testing.T) {
	connected := make(chan struct{}, 1)
	server := NewServer("render-1", ServerHandler{
		OnConnect: func(*Peer) { connected <- struct{}{} },
	})
	srv := httptest.NewServer(server)
	defer srv.Close()

	ctx := context.Background()
	first := NewClient(wsURL(srv), "dup", Handler{})
	if err := first.Connect(ctx); err != nil {
		t.Fatal(err)
	}
	defer first.Close()
	<-connected

	errs := make(chan string, 1)
	second := NewClient(wsURL(srv), "dup", Handler{OnError: func(msg string) { errs <- msg }})
	if err := second.Connect(ctx); err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	select {
	case msg := <-errs:
		if !strings.Contains(msg, "already registered") {
			t.Fatalf("error = %q", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("duplicate id accepted")
	}
	if n := server.Peers(); n != 1 {
		t.Fatalf("peers = %d", n)
	}
}

func TestServerCloseNotifiesClient(t *testing.T) {
	disconnected := make(chan struct{}, 1)
	server := NewServer("render-1", ServerHandler{
		OnConnect: func(p *Peer) { p.Close() },
		OnDisconnect: func(*Peer) {
			disconnected <- struct{}{}
		},
	})
	srv := httptest.NewServer(server)
	defer srv.Close()

	closed := make(chan struct{}, 1)
	c := NewClient(wsURL(srv), "client-1", Handler{OnClosed: func(error) { closed <- struct{}{} }})
	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("client not told about close")
	}
	select {
	case <-disconnected:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not see disconnect")
	}
	if err := c.SendOffer("x", nil); err != ErrNotConnected {
		t.Fatalf("send after close = %v", err)
	}
}
