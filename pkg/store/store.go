// Package store holds the shared dashboard state: filters, the latest
// metrics and health loads, and the live event feed.
package store

import (
	"sync"
	"time"

	"github.com/ninja-pay/opsdash/pkg/domain"
)

// DefaultDateRangeDays is how far back the default filter window reaches.
const DefaultDateRangeDays = 7

// maxStreamEvents bounds the event feed kept in memory.
const maxStreamEvents = 100

// MetricsState is the metrics slice of the store.
type MetricsState struct {
	Data    *domain.MetricsPayload
	Loading bool
	Error   string
}

// HealthState is the service-health slice of the store.
type HealthState struct {
	Services []domain.ServiceHealthSnapshot
	Loading  bool
	Error    string
}

// StreamState is the live feed slice of the store. Events are newest
// first.
type StreamState struct {
	Events    []domain.StreamEvent
	Connected bool
	LastError string
}

// Store is the dashboard state container. All methods are safe for
// concurrent use; subscribers are notified after every mutation.
type Store struct {
	mu      sync.RWMutex
	filters domain.FiltersState
	metrics MetricsState
	health  HealthState
	stream  StreamState

	subMu       sync.Mutex
	subscribers []chan struct{}

	now func() time.Time
}

// New creates a store with default filters.
func New() *Store {
	s := &Store{now: time.Now}
	s.filters = s.defaultFilters()
	return s
}

func (s *Store) defaultFilters() domain.FiltersState {
	to := s.now().UTC()
	from := to.AddDate(0, 0, -DefaultDateRangeDays)
	return domain.FiltersState{
		DateRange: domain.DateRange{
			From: from.Format(time.RFC3339),
			To:   to.Format(time.RFC3339),
		},
		Provider:    domain.FilterAll,
		Status:      domain.FilterAll,
		Environment: domain.FilterAll,
		Role:        "admin",
	}
}

// Subscribe returns a channel that receives a tick after every mutation.
// Slow subscribers miss intermediate ticks, never mutations.
func (s *Store) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.subMu.Unlock()
	return ch
}

func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Filters returns the current filter set.
func (s *Store) Filters() domain.FiltersState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

// SetFilters merges the given mutation into the filter set.
func (s *Store) SetFilters(mutate func(*domain.FiltersState)) {
	s.mu.Lock()
	mutate(&s.filters)
	s.mu.Unlock()
	s.notify()
}

// ResetFilters restores the defaults, including a fresh 7-day window.
func (s *Store) ResetFilters() {
	s.mu.Lock()
	s.filters = s.defaultFilters()
	s.mu.Unlock()
	s.notify()
}

// Metrics returns the metrics slice.
func (s *Store) Metrics() MetricsState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metrics
}

// SetMetrics merges the given mutation into the metrics slice.
func (s *Store) SetMetrics(mutate func(*MetricsState)) {
	s.mu.Lock()
	mutate(&s.metrics)
	s.mu.Unlock()
	s.notify()
}

// Health returns the service-health slice.
func (s *Store) Health() HealthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.health
}

// SetHealth merges the given mutation into the health slice.
func (s *Store) SetHealth(mutate func(*HealthState)) {
	s.mu.Lock()
	mutate(&s.health)
	s.mu.Unlock()
	s.notify()
}

// Stream returns the live feed slice.
func (s *Store) Stream() StreamState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stream
}

// SetStream merges the given mutation into the stream slice.
func (s *Store) SetStream(mutate func(*StreamState)) {
	s.mu.Lock()
	mutate(&s.stream)
	s.mu.Unlock()
	s.notify()
}

// PushEvent prepends an event to the feed, dropping the oldest past the
// buffer cap.
func (s *Store) PushEvent(event domain.StreamEvent) {
	s.mu.Lock()
	events := make([]domain.StreamEvent, 0, len(s.stream.Events)+1)
	events = append(events, event)
	events = append(events, s.stream.Events...)
	if len(events) > maxStreamEvents {
		events = events[:maxStreamEvents]
	}
	s.stream.Events = events
	s.mu.Unlock()
	s.notify()
}
