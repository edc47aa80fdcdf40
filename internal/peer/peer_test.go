package peer

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/pion/webrtc/v4"
)

type offerRecorder struct {
	mu         sync.Mutex
	target     string
	offer      json.RawMessage
	candidates int
}

func (r *offerRecorder) SendOffer(target string, payload json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = target
	r.offer = payload
	return nil
}

func (r *offerRecorder) SendICECandidate(string, json.RawMessage) error {
	r.mu.Lock()
	r.candidates++
	r.mu.Unlock()
	return nil
}

type answerRecorder struct {
	mu     sync.Mutex
	answer json.RawMessage
}

func (r *answerRecorder) SendAnswer(payload json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answer = payload
	return nil
}

func (r *answerRecorder) SendICECandidate(json.RawMessage) error { return nil }

func TestOfferAnswerNegotiation(t *testing.T) {
	cfg := Config{}

	offers := &offerRecorder{}
	client, err := NewClient(cfg, offers, "render-1", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	if err := client.Connect(); err != nil {
		t.Fatal(err)
	}
	offers.mu.Lock()
	offer, target := offers.offer, offers.target
	offers.mu.Unlock()
	if target != "render-1" {
		t.Fatalf("target = %q", target)
	}

	var sd webrtc.SessionDescription
	if err := json.Unmarshal(offer, &sd); err != nil {
		t.Fatal(err)
	}
	if sd.Type != webrtc.SDPTypeOffer || !strings.Contains(sd.SDP, "m=application") {
		t.Fatalf("offer = %v %q", sd.Type, sd.SDP)
	}

	answers := &answerRecorder{}
	server, err := NewServer(cfg, answers, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer server.Close()

	if err := server.HandleOffer(offer); err != nil {
		t.Fatal(err)
	}

	answers.mu.Lock()
	answer := answers.answer
	answers.mu.Unlock()
	if err := json.Unmarshal(answer, &sd); err != nil {
		t.Fatal(err)
	}
	if sd.Type != webrtc.SDPTypeAnswer {
		t.Fatalf("answer type = %v", sd.Type)
	}

	if err := client.HandleAnswer(answer); err != nil {
		t.Fatal(err)
	}
	if client.Transport().Ready() {
		t.Fatal("transport ready before channels opened")
	}
}

func TestBadPayloads(t *testing.T) {
	server, err := NewServer(Config{}, &answerRecorder{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer server.Close()

	if err := server.HandleOffer(json.RawMessage(`not json`)); err == nil {
		t.Error("bad offer accepted")
	}
	if err := server.HandleICECandidate(json.RawMessage(`[`)); err == nil {
		t.Error("bad candidate accepted")
	}
}
