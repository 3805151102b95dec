package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/sourcegraph/conc"

	"github.com/ethereum-optimism/infra/jenkins-reporter/events"
	"github.com/ethereum-optimism/infra/jenkins-reporter/metrics"
)

const (
	maxRequestBodySize = 10 * 1024 * 1024
	closeGracePeriod   = time.Second
)

var errShuttingDown = errors.New("ingest server is shutting down")

// IngestServer receives lifecycle events over HTTP and websocket connections
// and forwards them, in arrival order per connection, to a single channel.
//
// POST /events accepts one event or an array of events.
// GET /events/ws upgrades to a websocket carrying one JSON event per message.
type IngestServer struct {
	log      log.Logger
	out      chan<- *events.Event
	upgrader websocket.Upgrader
	server   *http.Server
	listener net.Listener

	mu      sync.Mutex
	closed  bool
	closing chan struct{}
	conns   conc.WaitGroup
}

func NewIngestServer(logger log.Logger, out chan<- *events.Event) *IngestServer {
	s := &IngestServer{
		log:     logger.New("module", "service.ingest"),
		out:     out,
		closing: make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 1024,
			// test pages are served from the runner's own origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routes of the server wrapped in CORS handling.
func (s *IngestServer) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/events", s.handlePost).Methods(http.MethodPost)
	r.HandleFunc("/events/ws", s.handleWebsocket).Methods(http.MethodGet)
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}

// Start binds addr and serves in the background.
func (s *IngestServer) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = ln
	s.log.Info("Ingest server listening", "addr", ln.Addr().String())

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Ingest server failed", "err", err)
			metrics.RecordErrorDetails("ingest_server", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *IngestServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting events, closes open websockets and waits for every
// handler to return. No event is sent on the output channel afterwards.
func (s *IngestServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.closing)
	s.mu.Unlock()

	err := s.server.Shutdown(ctx)
	s.conns.Wait()
	return err
}

func (s *IngestServer) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	batch, err := decodeBatch(body)
	if err != nil {
		metrics.RecordErrorDetails("ingest_decode", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	for i, ev := range batch {
		if ev == nil {
			http.Error(w, fmt.Sprintf("event %d: %v", i, events.ErrMalformedEvent), http.StatusBadRequest)
			return
		}
		if err := ev.Validate(); err != nil {
			metrics.RecordErrorDetails("ingest_validate", err)
			http.Error(w, fmt.Sprintf("event %d: %v", i, err), http.StatusBadRequest)
			return
		}
	}

	for i, ev := range batch {
		if err := s.forward(r.Context(), ev); err != nil {
			s.log.Warn("Rejecting events", "accepted", i, "total", len(batch), "err", err)
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]int{"accepted": len(batch)})
}

func (s *IngestServer) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already replied
		s.log.Warn("Websocket upgrade failed", "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		closeWebsocket(conn, websocket.CloseGoingAway, errShuttingDown.Error())
		return
	}
	s.conns.Go(func() {
		s.readWebsocket(conn)
	})
}

func (s *IngestServer) readWebsocket(conn *websocket.Conn) {
	remote := conn.RemoteAddr().String()
	s.log.Debug("Websocket connected", "remote", remote)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-s.closing:
			closeWebsocket(conn, websocket.CloseGoingAway, errShuttingDown.Error())
		case <-stop:
		}
	}()

	defer conn.Close()
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("Websocket closed unexpectedly", "remote", remote, "err", err)
			}
			s.log.Debug("Websocket disconnected", "remote", remote)
			return
		}

		ev := &events.Event{}
		if err := json.Unmarshal(msg, ev); err != nil {
			s.log.Warn("Dropping undecodable websocket message", "remote", remote, "err", err)
			metrics.RecordErrorDetails("ingest_decode", err)
			continue
		}
		if err := ev.Validate(); err != nil {
			s.log.Warn("Dropping invalid websocket event", "remote", remote, "err", err)
			metrics.RecordErrorDetails("ingest_validate", err)
			continue
		}
		if err := s.forward(context.Background(), ev); err != nil {
			return
		}
	}
}

// forward hands ev to the output channel. Once Shutdown has begun it never
// sends, so the owner may close the channel after Shutdown returns.
func (s *IngestServer) forward(ctx context.Context, ev *events.Event) error {
	select {
	case <-s.closing:
		return errShuttingDown
	default:
	}
	select {
	case s.out <- ev:
		return nil
	case <-s.closing:
		return errShuttingDown
	case <-ctx.Done():
		return ctx.Err()
	}
}

// decodeBatch accepts either a single JSON event or an array of events.
func decodeBatch(body []byte) ([]*events.Event, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("empty request body")
	}
	if body[0] == '[' {
		var batch []*events.Event
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, fmt.Errorf("invalid event batch: %w", err)
		}
		return batch, nil
	}
	ev := &events.Event{}
	if err := json.Unmarshal(body, ev); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}
	return []*events.Event{ev}, nil
}

func closeWebsocket(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
	_ = conn.Close()
}
