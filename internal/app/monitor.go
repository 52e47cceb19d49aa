// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relabs-tech/cot_bridge/internal/dispatch"
)

const (
	clientBuffer = 16
	wsWriteWait  = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// Monitor serves the latest send attempt, a websocket stream of attempts
// and the Prometheus metrics.
type Monitor struct {
	log      *slog.Logger
	gatherer prometheus.Gatherer

	mu       sync.RWMutex
	last     dispatch.Record
	haveLast bool
	clients  map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan dispatch.Record
}

// NewMonitor exposes metrics from gatherer.
func NewMonitor(gatherer prometheus.Gatherer, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Monitor{log: logger, gatherer: gatherer, clients: make(map[*wsClient]struct{})}
}

// Observe stores r and fans it out. Slow clients lose records rather than
// stall the scheduler.
func (m *Monitor) Observe(r dispatch.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.last = r
	m.haveLast = true
	for c := range m.clients {
		select {
		case c.send <- r:
		default:
			m.log.Warn("monitor: client too slow, record dropped", "remote", c.conn.RemoteAddr().String())
		}
	}
}

// Handler routes /api/last, /ws and /metrics.
func (m *Monitor) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/last", m.handleLast)
	mux.HandleFunc("/ws", m.handleWS)
	mux.Handle("/metrics", promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
	return mux
}

// Serve listens on addr until ctx ends.
func (m *Monitor) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	m.log.Info("monitor: listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (m *Monitor) handleLast(w http.ResponseWriter, _ *http.Request) {
	m.mu.RLock()
	last, ok := m.last, m.haveLast
	m.mu.RUnlock()

	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(last); err != nil {
		m.log.Error("monitor: json encode error", "err", err)
	}
}

func (m *Monitor) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.Warn("monitor: websocket upgrade error", "err", err)
		return
	}
	defer conn.Close()

	c := &wsClient{conn: conn, send: make(chan dispatch.Record, clientBuffer)}
	m.mu.Lock()
	if m.haveLast {
		c.send <- m.last
	}
	m.clients[c] = struct{}{}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.clients, c)
		m.mu.Unlock()
	}()

	// Reads only detect the close; clients have nothing to say.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					m.log.Debug("monitor: websocket error", "err", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case rec := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(rec); err != nil {
				m.log.Debug("monitor: websocket write error", "err", err)
				return
			}
		case <-closed:
			return
		}
	}
}
