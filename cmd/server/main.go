package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/junsooki/AirXR/internal/config"
	"github.com/junsooki/AirXR/internal/peer"
	"github.com/junsooki/AirXR/internal/signaling"
)

type session struct {
	pc     *peer.Server
	client *remoteClient
}

func main() {
	cfg := config.ParseServerFlags()
	slog.SetDefault(config.NewLogger(cfg.LogLevel))

	log.Printf("AirXR Server starting")
	log.Printf("  Server ID:  %s", cfg.ServerID)
	log.Printf("  Listen:     %s", cfg.Listen)
	log.Printf("  FPS:        %d", cfg.FPS)
	log.Printf("  Quality:    %d", cfg.Quality)
	log.Printf("  Frame max:  %d bytes", cfg.MaxFrameBytes)

	started := time.Now()
	var mu sync.Mutex
	sessions := make(map[string]*session)

	closeSession := func(id string) {
		mu.Lock()
		s := sessions[id]
		delete(sessions, id)
		mu.Unlock()
		if s != nil {
			s.client.stop()
			s.pc.Close()
		}
	}

	sigServer := signaling.NewServer(cfg.ServerID, signaling.ServerHandler{
		OnOffer: func(p *signaling.Peer, payload json.RawMessage) {
			log.Printf("Received offer from %s", p.ID)
			closeSession(p.ID)

			var client *remoteClient
			pc, err := peer.NewServer(peer.DefaultConfig(), p, func(state webrtc.PeerConnectionState) {
				if client != nil && (state == webrtc.PeerConnectionStateFailed || state == webrtc.PeerConnectionStateClosed) {
					client.stop()
				}
			})
			if err != nil {
				log.Printf("create server peer: %v", err)
				_ = p.SendError("peer setup failed")
				return
			}

			tr := pc.Transport()
			client = newRemoteClient(p.ID, cfg, tr)
			tr.OnInput(client.handleInput)
			tr.OnTracking(client.handleTracking)
			tr.OnClosed(client.stop)

			mu.Lock()
			sessions[p.ID] = &session{pc: pc, client: client}
			mu.Unlock()

			if err := pc.HandleOffer(payload); err != nil {
				log.Printf("handle offer: %v", err)
				closeSession(p.ID)
			}
		},
		OnICECandidate: func(p *signaling.Peer, payload json.RawMessage) {
			mu.Lock()
			s := sessions[p.ID]
			mu.Unlock()
			if s == nil {
				return
			}
			if err := s.pc.HandleICECandidate(payload); err != nil {
				log.Printf("handle ICE candidate: %v", err)
			}
		},
		OnDisconnect: func(p *signaling.Peer) {
			slog.Debug("server: signaling closed", "client", p.ID)
		},
	})

	mux := http.NewServeMux()
	mux.Handle("/signal", sigServer)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		streaming := len(sessions)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":    "alive",
			"serverId":  cfg.ServerID,
			"uptime":    int64(time.Since(started).Seconds()),
			"signaling": sigServer.Peers(),
			"sessions":  streaming,
		})
	})

	server := &http.Server{
		Addr:        cfg.Listen,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	log.Printf("Server ready. Clients connect to ws://<host>%s/signal", cfg.Listen)

	// Wait for interrupt.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)

	mu.Lock()
	ids := make([]string, 0, len(sessions))
	for id := range sessions {
		ids = append(ids, id)
	}
	mu.Unlock()
	for _, id := range ids {
		closeSession(id)
	}
}
