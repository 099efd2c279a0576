package store_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja-pay/opsdash/pkg/domain"
	"github.com/ninja-pay/opsdash/pkg/store"
)

func TestDefaultFilters(t *testing.T) {
	s := store.New()
	filters := s.Filters()

	assert.Equal(t, domain.FilterAll, filters.Provider)
	assert.Equal(t, domain.FilterAll, filters.Status)
	assert.Equal(t, domain.FilterAll, filters.Environment)
	assert.Equal(t, "admin", filters.Role)

	from, err := time.Parse(time.RFC3339, filters.DateRange.From)
	require.NoError(t, err)
	to, err := time.Parse(time.RFC3339, filters.DateRange.To)
	require.NoError(t, err)
	assert.Equal(t, store.DefaultDateRangeDays, int(to.Sub(from).Hours()/24))
}

func TestSetAndResetFilters(t *testing.T) {
	s := store.New()

	s.SetFilters(func(f *domain.FiltersState) {
		f.Provider = "webpay"
		f.Status = "AUTHORIZED"
	})
	filters := s.Filters()
	assert.Equal(t, "webpay", filters.Provider)
	assert.Equal(t, "AUTHORIZED", filters.Status)

	s.ResetFilters()
	filters = s.Filters()
	assert.Equal(t, domain.FilterAll, filters.Provider)
	assert.Equal(t, domain.FilterAll, filters.Status)
}

func TestPushEventPrependsAndCaps(t *testing.T) {
	s := store.New()

	for i := 0; i < 150; i++ {
		s.PushEvent(domain.StreamEvent{ID: fmt.Sprintf("e-%d", i)})
	}

	events := s.Stream().Events
	require.Len(t, events, 100)
	// Newest first; the oldest fifty fell off.
	assert.Equal(t, "e-149", events[0].ID)
	assert.Equal(t, "e-50", events[99].ID)
}

func TestSubscribeNotifiesOnMutation(t *testing.T) {
	s := store.New()
	ch := s.Subscribe()

	s.SetMetrics(func(m *store.MetricsState) { m.Loading = true })

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no notification after mutation")
	}

	assert.True(t, s.Metrics().Loading)
}

func TestSlowSubscriberDoesNotBlockMutations(t *testing.T) {
	s := store.New()
	_ = s.Subscribe() // never drained

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			s.PushEvent(domain.StreamEvent{ID: fmt.Sprintf("e-%d", i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("mutations blocked on a slow subscriber")
	}
}

func TestStreamStateMutations(t *testing.T) {
	s := store.New()

	s.SetStream(func(st *store.StreamState) {
		st.Connected = true
		st.LastError = ""
	})
	assert.True(t, s.Stream().Connected)

	s.SetHealth(func(h *store.HealthState) {
		h.Services = []domain.ServiceHealthSnapshot{{ID: "executive"}}
	})
	require.Len(t, s.Health().Services, 1)
}
