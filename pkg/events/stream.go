// Package events delivers the live feed: a websocket stream with
// reconnecting backoff, plus a polling fallback over /events/latest.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ninja-pay/opsdash/pkg/adapter"
	"github.com/ninja-pay/opsdash/pkg/domain"
)

// Reconnect backoff bounds.
const (
	reconnectBaseDelay = 2000 * time.Millisecond
	reconnectMaxDelay  = 60000 * time.Millisecond
	reconnectMaxJitter = 500 * time.Millisecond
)

// Listener receives feed events.
type Listener func(event domain.StreamEvent)

// Stream maintains a websocket connection to the events feed and fans
// messages out to listeners. A failed connection is reported as a
// synthetic degraded service.metric event, then retried with capped
// exponential backoff.
type Stream struct {
	url     string
	logger  *slog.Logger
	dialer  *websocket.Dialer
	adapter *adapter.Adapter

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
	cancel    context.CancelFunc
	attempts  int
}

// NewStream creates a stream for url. Connect starts it.
func NewStream(url string, norm *adapter.Adapter, logger *slog.Logger) *Stream {
	if norm == nil {
		norm = adapter.New(false)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Stream{
		url:       url,
		logger:    logger,
		dialer:    websocket.DefaultDialer,
		adapter:   norm,
		listeners: map[int]Listener{},
	}
}

// Subscribe registers a listener and returns an unsubscribe func. The
// transport is ref-counted: the first listener starts the read loop and
// removing the last one stops it.
func (s *Stream) Subscribe(listener Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	first := len(s.listeners) == 1
	s.mu.Unlock()
	if first {
		s.Connect()
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			last := len(s.listeners) == 0
			s.mu.Unlock()
			if last {
				s.Disconnect()
			}
		})
	}
}

// Connect starts the read loop. Calling it on a running stream is a
// no-op; Subscribe already connects for the first listener.
func (s *Stream) Connect() {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.attempts = 0
	s.mu.Unlock()

	go s.run(ctx)
}

// Disconnect stops the read loop and disables reconnection.
func (s *Stream) Disconnect() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Stream) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		err := s.readLoop(ctx)
		if ctx.Err() != nil {
			return
		}

		delay := s.nextDelay()
		if err != nil {
			s.logger.Warn("events stream failed", "url", s.url, "error", err)
			s.dispatch(s.degradedEvent(delay))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay + time.Duration(rand.Int63n(int64(reconnectMaxJitter)))):
		}
	}
}

func (s *Stream) readLoop(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	s.mu.Lock()
	s.attempts = 0
	s.mu.Unlock()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var raw map[string]any
		if err := json.Unmarshal(message, &raw); err != nil {
			s.logger.Error("failed to parse event", "error", err)
			continue
		}
		s.dispatch(s.adapter.MapStreamEvent(raw))
	}
}

// nextDelay returns the capped exponential backoff for the current
// attempt and bumps the counter.
func (s *Stream) nextDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	delay := reconnectBaseDelay << s.attempts
	if delay > reconnectMaxDelay || delay <= 0 {
		delay = reconnectMaxDelay
	}
	s.attempts++
	return delay
}

func (s *Stream) dispatch(event domain.StreamEvent) {
	s.mu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, listener := range s.listeners {
		listeners = append(listeners, listener)
	}
	s.mu.Unlock()
	for _, listener := range listeners {
		listener(event)
	}
}

// degradedEvent synthesizes the service.metric event surfaced when the
// stream cannot connect.
func (s *Stream) degradedEvent(backoff time.Duration) domain.StreamEvent {
	now := time.Now().UTC().Format(time.RFC3339)
	return domain.StreamEvent{
		ID:   uuid.NewString(),
		Type: "service.metric",
		Payload: map[string]any{
			"service":    "events-stream",
			"status":     "degraded",
			"latencyP95": float64(backoff.Milliseconds()),
			"errorRate":  1,
			"throughput": 0,
			"updatedAt":  now,
		},
		OccurredAt: now,
	}
}
