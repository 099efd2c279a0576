// Package opsdash is the data plane of the payments operator dashboard:
// a normalizing API client, the shared state store, the derivation engine
// and the live event feed, assembled from one configuration.
package opsdash

import (
	"log/slog"

	"github.com/ninja-pay/opsdash/pkg/auth"
	"github.com/ninja-pay/opsdash/pkg/config"
	"github.com/ninja-pay/opsdash/pkg/derive"
	"github.com/ninja-pay/opsdash/pkg/domain"
	"github.com/ninja-pay/opsdash/pkg/events"
	"github.com/ninja-pay/opsdash/pkg/store"
	"github.com/ninja-pay/opsdash/pkg/transport"
)

// Dashboard bundles the wired components.
type Dashboard struct {
	Config *config.Config
	Client *transport.Client
	Store  *store.Store
	Auth   *auth.Store
	Engine *derive.Engine
	Poller *events.Poller
	Stream *events.Stream

	logger *slog.Logger
}

// New wires a dashboard from the given configuration. A nil config is
// loaded from the environment. The persisted session, if any, is
// restored before the first request.
func New(cfg *config.Config, logger *slog.Logger) (*Dashboard, error) {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if logger == nil {
		logger = slog.Default()
	}

	transportCfg := transport.FromConfig(cfg)
	transportCfg.Logger = logger
	client := transport.NewClient(transportCfg)

	st := store.New()
	authStore := auth.NewStore(client, logger)
	authStore.Hydrate()

	return &Dashboard{
		Config: cfg,
		Client: client,
		Store:  st,
		Auth:   authStore,
		Engine: derive.NewEngine(client, st, logger),
		Poller: events.NewPoller(client, st, logger),
		Stream: events.NewStream(cfg.WSURL, client.Adapter(), logger),
		logger: logger,
	}, nil
}

// ConnectStream subscribes the store to the websocket feed, which starts
// the transport. Events pass through the poller's dedup ring, so a
// replay after a reconnect or an id the poller already delivered lands
// in the store once. The returned func tears the subscription down.
func (d *Dashboard) ConnectStream() func() {
	ring := d.Poller.Ring()
	return d.Stream.Subscribe(func(event domain.StreamEvent) {
		if ring.Admit(event.ID) {
			d.Store.PushEvent(event)
		}
	})
}
