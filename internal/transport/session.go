package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"docgen/pkg/logging"
)

const (
	// PingInterval is how often the session pings the proxy to detect a
	// dead connection (spec.md §4.1 "periodic ping").
	PingInterval = 25 * time.Second
	// PongGraceFactor is the multiple of PingInterval the session waits
	// for a pong before declaring the session disconnected.
	PongGraceFactor = 2
	// DefaultMaxInFlight bounds the number of outstanding commands before
	// send() starts blocking (spec.md §4.1 backpressure).
	DefaultMaxInFlight = 32
)

type waiter struct {
	replyCh chan Reply
}

// Session is a single registered connection to the MCP proxy for one
// application. It owns the correlation map; waiters only hold the channel
// they were handed, never a back-reference to Session, so there is no
// retain cycle to break (spec.md §9 "cyclic lifetimes").
type Session struct {
	application string

	mu    sync.RWMutex
	state State
	conn  *websocket.Conn

	writeMu sync.Mutex

	waitersMu sync.Mutex
	waiters   map[string]waiter

	inFlight chan struct{}

	lastPongMu sync.Mutex
	lastPong   time.Time

	closeOnce sync.Once
	doneCh    chan struct{}
}

// Connect performs the health probe, WebSocket upgrade, and registration
// handshake described in spec.md §4.1, and starts the background reader
// and liveness loops.
func Connect(ctx context.Context, wsURL, application string) (*Session, error) {
	healthURL, err := deriveHealthURL(wsURL)
	if err == nil {
		if herr := probeHealth(ctx, healthURL); herr != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransportUnavailable, herr)
		}
	}

	dialer := websocket.DefaultDialer
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransportUnavailable, err)
	}

	s := &Session{
		application: application,
		state:       StateConnecting,
		conn:        conn,
		waiters:     make(map[string]waiter),
		inFlight:    make(chan struct{}, DefaultMaxInFlight),
		doneCh:      make(chan struct{}),
		lastPong:    time.Now(),
	}

	if err := s.register(application); err != nil {
		conn.Close()
		return nil, err
	}

	s.mu.Lock()
	s.state = StateRegistered
	s.mu.Unlock()

	go s.readLoop()
	go s.pingLoop()

	logging.Info("Transport", "session registered for application %q", application)
	return s, nil
}

func (s *Session) register(application string) error {
	if err := s.conn.WriteJSON(registerFrame{Type: "register", Application: application}); err != nil {
		return fmt.Errorf("%w: %v", ErrTransportUnavailable, err)
	}
	_ = s.conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	defer s.conn.SetReadDeadline(time.Time{})

	var ack controlFrame
	if err := s.conn.ReadJSON(&ack); err != nil {
		return fmt.Errorf("%w: %v", ErrTransportUnavailable, err)
	}
	if ack.Status != string(StatusOK) {
		return fmt.Errorf("%w: %s", ErrRegistrationRejected, ack.Message)
	}
	return nil
}

// Send enqueues envelope, awaits the matching reply, and returns it.
func (s *Session) Send(ctx context.Context, envelope Envelope, timeout time.Duration) (*Reply, error) {
	if envelope.CorrelationID == "" {
		envelope.CorrelationID = uuid.NewString()
	}

	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()
	if state == StateClosed {
		return nil, ErrClosed
	}
	if state != StateRegistered {
		return nil, ErrDisconnected
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	select {
	case s.inFlight <- struct{}{}:
	case <-deadline.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.doneCh:
		return nil, ErrDisconnected
	}
	defer func() { <-s.inFlight }()

	w := waiter{replyCh: make(chan Reply, 1)}
	s.waitersMu.Lock()
	s.waiters[envelope.CorrelationID] = w
	s.waitersMu.Unlock()

	cleanup := func() {
		s.waitersMu.Lock()
		delete(s.waiters, envelope.CorrelationID)
		s.waitersMu.Unlock()
	}

	s.writeMu.Lock()
	err := s.conn.WriteJSON(envelope)
	s.writeMu.Unlock()
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("%w: %v", ErrDisconnected, err)
	}

	select {
	case reply := <-w.replyCh:
		if reply.Status == StatusError {
			return &reply, &ApplicationError{ErrorKind: reply.ErrorKind, Message: reply.Message}
		}
		return &reply, nil
	case <-deadline.C:
		cleanup()
		return nil, ErrTimeout
	case <-ctx.Done():
		cleanup()
		return nil, ctx.Err()
	case <-s.doneCh:
		cleanup()
		return nil, ErrDisconnected
	}
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Close gracefully shuts down the session, failing every in-flight waiter
// with ErrDisconnected.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = StateClosed
		s.mu.Unlock()
		close(s.doneCh)
		err = s.conn.Close()
		s.failAllWaiters()
	})
	return err
}

// failAllWaiters drops every outstanding waiter. The waiters themselves
// are woken by doneCh, which is closed before this runs, and return
// ErrDisconnected from Send.
func (s *Session) failAllWaiters() {
	s.waitersMu.Lock()
	defer s.waitersMu.Unlock()
	for id := range s.waiters {
		delete(s.waiters, id)
	}
}

func (s *Session) readLoop() {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			logging.Warn("Transport", "read loop ended for %q: %v", s.application, err)
			s.transitionDisconnected()
			return
		}
		s.dispatch(data)
	}
}

func (s *Session) dispatch(data []byte) {
	var peek controlFrame
	if err := json.Unmarshal(data, &peek); err == nil && peek.Type != "" {
		switch peek.Type {
		case "pong":
			s.lastPongMu.Lock()
			s.lastPong = time.Now()
			s.lastPongMu.Unlock()
		case "ping":
			s.writeMu.Lock()
			_ = s.conn.WriteJSON(controlFrame{Type: "pong"})
			s.writeMu.Unlock()
		default:
			logging.Warn("Transport", "unrecognized control frame type %q", peek.Type)
		}
		return
	}

	var reply Reply
	if err := json.Unmarshal(data, &reply); err != nil || reply.CorrelationID == "" {
		logging.Warn("Transport", "dropping unparseable frame: %s", string(data))
		return
	}

	s.waitersMu.Lock()
	w, ok := s.waiters[reply.CorrelationID]
	if ok {
		delete(s.waiters, reply.CorrelationID)
	}
	s.waitersMu.Unlock()

	if !ok {
		logging.Warn("Transport", "dropping reply with unknown correlationId %q (late or duplicate)", reply.CorrelationID)
		return
	}
	w.replyCh <- reply
}

func (s *Session) pingLoop() {
	ticker := time.NewTicker(PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.doneCh:
			return
		case <-ticker.C:
			s.lastPongMu.Lock()
			last := s.lastPong
			s.lastPongMu.Unlock()
			if time.Since(last) > PongGraceFactor*PingInterval {
				logging.Warn("Transport", "no pong from %q within grace period, disconnecting", s.application)
				s.transitionDisconnected()
				return
			}
			s.writeMu.Lock()
			err := s.conn.WriteJSON(controlFrame{Type: "ping"})
			s.writeMu.Unlock()
			if err != nil {
				s.transitionDisconnected()
				return
			}
		}
	}
}

func (s *Session) transitionDisconnected() {
	s.mu.Lock()
	already := s.state == StateDisconnected || s.state == StateClosed
	if !already {
		s.state = StateDisconnected
	}
	s.mu.Unlock()
	if already {
		return
	}
	s.closeOnce.Do(func() {
		close(s.doneCh)
		s.conn.Close()
		s.failAllWaiters()
	})
}

func probeHealth(ctx context.Context, healthURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// deriveHealthURL turns a ws(s):// proxy URL into the http(s):// /health
// endpoint described in spec.md §6.
func deriveHealthURL(wsURL string) (string, error) {
	switch {
	case strings.HasPrefix(wsURL, "wss://"):
		return "https://" + strings.TrimPrefix(trimPath(wsURL), "wss://") + "/health", nil
	case strings.HasPrefix(wsURL, "ws://"):
		return "http://" + strings.TrimPrefix(trimPath(wsURL), "ws://") + "/health", nil
	default:
		return "", fmt.Errorf("unrecognized scheme in %q", wsURL)
	}
}

func trimPath(u string) string {
	scheme := ""
	rest := u
	if idx := strings.Index(u, "://"); idx >= 0 {
		scheme = u[:idx+3]
		rest = u[idx+3:]
	}
	if idx := strings.Index(rest, "/"); idx >= 0 {
		rest = rest[:idx]
	}
	return scheme + rest
}
