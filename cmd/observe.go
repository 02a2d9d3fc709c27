package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/evac-sim/evac-sim/sim"
)

var observeAddr string // Listen address of the snapshot server

// observeCmd runs a paced evacuation and streams snapshots to local viewers
var observeCmd = &cobra.Command{
	Use:   "observe",
	Short: "Run an evacuation while serving snapshots over HTTP and websocket",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		if !cmd.Flags().Changed("pace") {
			pace = 100 * time.Millisecond
		}
		automaton, err := buildAutomaton(cmd, seed, configFromFlags())
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		hub := NewSnapshotHub()
		hub.Publish(automaton.Snapshot())
		automaton.SetObserver(hub.Publish)

		srv := &http.Server{Addr: observeAddr, Handler: NewObserverServer(hub).Routes()}
		go func() {
			logrus.Infof("Serving snapshots on http://%s/snapshot and ws://%s/ws", observeAddr, observeAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.Fatalf("Snapshot server failed: %v", err)
			}
		}()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		automaton.Run(automaton.Config().GenerationLimit())
		statistics, err := automaton.ComputeStatistics()
		if err != nil {
			logrus.Warnf("%v", err)
		}
		statistics.Print()

		logrus.Info("Evacuation finished; serving the final snapshot until interrupted")
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.Errorf("Snapshot server shutdown: %v", err)
		}
	},
}

// SnapshotHub keeps the latest encoded snapshot and fans new ones out to subscribers (goroutine-safe).
type SnapshotHub struct {
	mu          sync.Mutex
	latest      []byte
	subscribers map[chan []byte]struct{}
}

// NewSnapshotHub creates an empty hub.
func NewSnapshotHub() *SnapshotHub {
	return &SnapshotHub{subscribers: make(map[chan []byte]struct{})}
}

// Publish encodes snap and offers it to every subscriber. Slow subscribers miss frames
// rather than stalling the simulation.
func (h *SnapshotHub) Publish(snap *sim.Snapshot) {
	b, err := json.Marshal(snap)
	if err != nil {
		logrus.Errorf("Encode snapshot at generation %d: %v", snap.Generation, err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = b
	for ch := range h.subscribers {
		select {
		case ch <- b:
		default:
		}
	}
}

// Latest returns the most recently published snapshot, or nil before the first one.
func (h *SnapshotHub) Latest() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

// Subscribe registers a buffered channel that first receives the latest snapshot, if any.
// The returned function unregisters it.
func (h *SnapshotHub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 8)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.latest != nil {
		ch <- h.latest
	}
	h.subscribers[ch] = struct{}{}
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subscribers, ch)
	}
}

// Subscribers returns the number of registered subscribers.
func (h *SnapshotHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// ObserverServer exposes a SnapshotHub to loopback clients.
type ObserverServer struct {
	hub      *SnapshotHub
	upgrader websocket.Upgrader
}

// NewObserverServer creates a server reading from hub.
func NewObserverServer(hub *SnapshotHub) *ObserverServer {
	return &ObserverServer{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // loopback only, see isLoopbackRemote
		},
	}
}

// Routes returns the handler tree: /snapshot and /ws.
func (s *ObserverServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/snapshot", s.SnapshotHandler())
	mux.HandleFunc("/ws", s.WSHandler())
	return mux
}

// SnapshotHandler serves the latest snapshot as JSON.
func (s *ObserverServer) SnapshotHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		latest := s.hub.Latest()
		if latest == nil {
			http.Error(rw, "no snapshot yet", http.StatusServiceUnavailable)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_, _ = rw.Write(latest)
	}
}

// WSHandler streams one text message per generation until the client disconnects.
func (s *ObserverServer) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		frames, unsubscribe := s.hub.Subscribe()
		defer unsubscribe()

		// Reader loop only detects the client going away; inbound messages are ignored.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-gone:
				return
			case b := <-frames:
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			}
		}
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
