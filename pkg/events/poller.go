package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/ninja-pay/opsdash/pkg/store"
	"github.com/ninja-pay/opsdash/pkg/transport"
)

// Poller refreshes the feed from /events/latest, deduplicating against a
// ring so overlapping fetches never double-deliver.
type Poller struct {
	client *transport.Client
	store  *store.Store
	ring   *Ring
	logger *slog.Logger
}

// NewPoller wires a poller to the store.
func NewPoller(client *transport.Client, st *store.Store, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		client: client,
		store:  st,
		ring:   NewRing(0),
		logger: logger,
	}
}

// Ring exposes the delivered-event registry so other feed sources can
// share the same dedup window.
func (p *Poller) Ring() *Ring {
	return p.ring
}

// Poll fetches the latest events once, pushing unseen ones into the
// store newest last, and records the stream status.
func (p *Poller) Poll(ctx context.Context) error {
	events, err := p.client.GetLatestEvents(ctx)
	if err != nil {
		p.logger.Error("latest events fetch failed", "error", err)
		p.store.SetStream(func(s *store.StreamState) {
			s.Connected = false
			s.LastError = err.Error()
		})
		return err
	}

	for _, event := range events {
		if p.ring.Admit(event.ID) {
			p.store.PushEvent(event)
		}
	}
	p.store.SetStream(func(s *store.StreamState) {
		s.Connected = true
		s.LastError = ""
	})
	return nil
}

// Run polls at interval until ctx is done, marking the stream
// disconnected on the way out.
func (p *Poller) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	_ = p.Poll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.store.SetStream(func(s *store.StreamState) { s.Connected = false })
			return
		case <-ticker.C:
			_ = p.Poll(ctx)
		}
	}
}
