package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/ninja-pay/opsdash/pkg/domain"
)

// GetServicesHealth polls every configured health endpoint concurrently.
// An unreachable or broken endpoint yields a down snapshot for that
// service instead of failing the whole fan-out.
func (c *Client) GetServicesHealth(ctx context.Context) []domain.ServiceHealthSnapshot {
	targets := c.healthTargets
	if len(targets) == 0 {
		return []domain.ServiceHealthSnapshot{}
	}

	snapshots := make([]domain.ServiceHealthSnapshot, len(targets))
	var wg sync.WaitGroup
	for i, target := range targets {
		i, target := i, target
		wg.Add(1)
		go func() {
			defer wg.Done()
			snapshots[i] = c.fetchHealthSnapshot(ctx, target.ID, target.Label, target.URL, target.Token)
		}()
	}
	wg.Wait()
	return snapshots
}

func (c *Client) fetchHealthSnapshot(ctx context.Context, id, label, rawURL, token string) domain.ServiceHealthSnapshot {
	raw, err := c.fetchHealthBody(ctx, rawURL, token)
	if err != nil {
		c.logger.Warn("health check failed", "service", id, "url", rawURL, "error", err)
		return c.adapter.DownSnapshot(id, label)
	}
	return c.adapter.NormalizeHealthSnapshot(id, label, raw)
}

func (c *Client) fetchHealthBody(ctx context.Context, rawURL, token string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("health check failed with status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}
