package opsdash_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja-pay/opsdash"
	"github.com/ninja-pay/opsdash/pkg/config"
)

var upgrader = websocket.Upgrader{}

func TestConnectStreamDeliversReplayedEventsOnce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		send := func(id string) {
			_ = conn.WriteJSON(map[string]any{
				"id":          id,
				"type":        "payment.authorized",
				"occurred_at": "2026-08-20T10:00:00Z",
			})
		}
		// The server repeats an event, as a reconnect replay would.
		send("e-1")
		send("e-1")
		send("e-2")
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	cfg := &config.Config{
		APIBaseURL: "http://127.0.0.1:0",
		WSURL:      "ws" + strings.TrimPrefix(server.URL, "http"),
	}
	dash, err := opsdash.New(cfg, nil)
	require.NoError(t, err)

	disconnect := dash.ConnectStream()
	defer disconnect()

	require.Eventually(t, func() bool {
		events := dash.Store.Stream().Events
		return len(events) > 0 && events[0].ID == "e-2"
	}, 2*time.Second, 10*time.Millisecond)

	ids := make([]string, 0, 2)
	for _, event := range dash.Store.Stream().Events {
		ids = append(ids, event.ID)
	}
	// The repeated id landed in the store once, newest first.
	assert.Equal(t, []string{"e-2", "e-1"}, ids)
}
