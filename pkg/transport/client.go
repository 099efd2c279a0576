// Package transport is the HTTP client for the dashboard APIs. Every
// fetch returns already-normalized records; callers never see raw server
// envelopes.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ninja-pay/opsdash/pkg/adapter"
	"github.com/ninja-pay/opsdash/pkg/config"
	"github.com/ninja-pay/opsdash/pkg/errors"
)

// Config holds the configuration for a Client.
type Config struct {
	BaseURL string
	// Token is the initial bearer token, usually restored from the auth store.
	Token string

	PaymentsBaseURL string
	PaymentsToken   string

	HealthTargets []config.HealthTarget

	// TrustMinorUnits disables major-unit detection on amounts. Set in
	// mock mode, where fixtures already emit minor units.
	TrustMinorUnits bool

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         config.DefaultAPIBaseURL,
		PaymentsBaseURL: config.DefaultPaymentsAPIBaseURL,
		PaymentsToken:   config.DefaultPaymentsAPIToken,
	}
}

// FromConfig builds a transport Config from loaded settings.
func FromConfig(cfg *config.Config) *Config {
	return &Config{
		BaseURL:         cfg.APIBaseURL,
		Token:           cfg.APIToken,
		PaymentsBaseURL: cfg.PaymentsAPIBaseURL,
		PaymentsToken:   cfg.PaymentsAPIToken,
		HealthTargets:   cfg.HealthTargets,
		TrustMinorUnits: cfg.MockMode,
	}
}

// Client talks to the executive API and the payments API.
type Client struct {
	baseURL         string
	paymentsBaseURL string
	paymentsToken   string
	healthTargets   []config.HealthTarget

	httpClient *http.Client
	adapter    *adapter.Adapter
	logger     *slog.Logger

	mu           sync.RWMutex
	token        string
	unauthorized func()
}

// NewClient creates a client with the given configuration.
func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:         strings.TrimSuffix(cfg.BaseURL, "/"),
		paymentsBaseURL: strings.TrimSuffix(cfg.PaymentsBaseURL, "/"),
		paymentsToken:   cfg.PaymentsToken,
		healthTargets:   cfg.HealthTargets,
		httpClient:      httpClient,
		adapter:         adapter.New(cfg.TrustMinorUnits),
		logger:          logger,
		token:           cfg.Token,
	}
}

// SetAuthToken installs or clears the bearer token for subsequent calls.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// OnUnauthorized registers a handler fired when any call comes back 401.
// The client clears its token before invoking the handler.
func (c *Client) OnUnauthorized(handler func()) {
	c.mu.Lock()
	c.unauthorized = handler
	c.mu.Unlock()
}

// Adapter exposes the response normalizer, mainly for the event stream.
func (c *Client) Adapter() *adapter.Adapter {
	return c.adapter
}

// get fetches path from the executive API and decodes the JSON body into
// a generic value.
func (c *Client) get(ctx context.Context, op, path string, query url.Values) (any, error) {
	return c.do(ctx, op, http.MethodGet, c.baseURL+path, query, nil, "")
}

func (c *Client) send(ctx context.Context, op, method, path string, body any) (any, error) {
	return c.do(ctx, op, method, c.baseURL+path, nil, body, "")
}

func (c *Client) do(ctx context.Context, op, method, rawURL string, query url.Values, body any, tokenOverride string) (any, error) {
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, errors.New(op, errors.KindValidation, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, errors.New(op, errors.KindTransport, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token := tokenOverride
	if token == "" {
		c.mu.RLock()
		token = c.token
		c.mu.RUnlock()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.New(op, errors.KindTransport, err)
	}
	defer resp.Body.Close()

	payload, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized && tokenOverride == "" {
		c.handleUnauthorized()
		return nil, errors.NewWithDetail(op, errors.KindAuth, errors.ErrUnauthorized, serverDetail(payload))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("status %d", resp.StatusCode)
		return nil, &statusError{
			err:    errors.NewWithDetail(op, errors.KindTransport, err, serverDetail(payload)),
			status: resp.StatusCode,
		}
	}
	if readErr != nil {
		return nil, errors.New(op, errors.KindTransport, readErr)
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, nil
	}

	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		c.logger.Warn("undecodable response", "op", op, "status", resp.StatusCode)
		return nil, errors.New(op, errors.KindDecode, errors.ErrDecode)
	}
	return decoded, nil
}

// Login exchanges credentials for a bearer token. The request carries no
// Authorization header; a stale token must not influence the outcome.
func (c *Client) Login(ctx context.Context, email, password string) (token, tokenType string, err error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", "", errors.New("login", errors.KindValidation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", "", errors.New("login", errors.KindTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", errors.New("login", errors.KindTransport, err)
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusUnauthorized {
		return "", "", errors.New("login", errors.KindAuth, errors.ErrInvalidCredentials)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("status %d", resp.StatusCode)
		return "", "", errors.NewWithDetail("login", errors.KindTransport, err, serverDetail(payload))
	}

	var decoded struct {
		AccessToken  string `json:"accessToken"`
		AccessToken2 string `json:"access_token"`
		TokenType    string `json:"tokenType"`
		TokenType2   string `json:"token_type"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", "", errors.New("login", errors.KindDecode, errors.ErrDecode)
	}
	token = decoded.AccessToken
	if token == "" {
		token = decoded.AccessToken2
	}
	tokenType = decoded.TokenType
	if tokenType == "" {
		tokenType = decoded.TokenType2
	}
	return token, tokenType, nil
}

func (c *Client) handleUnauthorized() {
	c.mu.Lock()
	c.token = ""
	handler := c.unauthorized
	c.mu.Unlock()
	if handler != nil {
		handler()
	}
}

// statusError carries the HTTP status alongside the classified error so
// callers can special-case e.g. 404.
type statusError struct {
	err    *errors.Error
	status int
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var se *statusError
	if stderrors.As(err, &se) {
		return se.status
	}
	return 0
}

// serverDetail pulls the human-readable message out of an error body.
func serverDetail(payload []byte) string {
	var body struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(payload, &body) != nil {
		return ""
	}
	switch {
	case body.Detail != "":
		return body.Detail
	case body.Message != "":
		return body.Message
	default:
		return body.Error
	}
}
