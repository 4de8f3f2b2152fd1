// Package session manages the authenticated backend connection: an explicit
// connect/disconnect lifecycle around a verified frappe.Client. Operations
// read the session through its accessors and never mutate it.
package session

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/tallyforge/erpd/internal/config"
	"github.com/tallyforge/erpd/internal/frappe"
	"github.com/tallyforge/erpd/internal/logging"
	"github.com/tallyforge/erpd/internal/result"
)

// Fixed auth-failure messages. Callers match on the error code; these texts
// are part of the public contract and must not drift.
const (
	msgConfigNotFound = "Authentication configuration not found"
)

// Session summarizes an established connection.
type Session struct {
	User    string `json:"user"`
	BaseURL string `json:"base_url"`
}

// Status reports the current connection state without exposing credentials.
type Status struct {
	Authenticated bool   `json:"authenticated"`
	User          string `json:"user,omitempty"`
	BaseURL       string `json:"base_url,omitempty"`
}

// state is the atomically-swapped connection triple. A non-nil state always
// carries a usable config and client.
type state struct {
	cfg    *config.ERPConfig
	client *frappe.Client
	user   string
}

// Manager owns the backend connection lifecycle. Safe for concurrent use.
type Manager struct {
	logger  *logging.Logger
	fileCfg *config.ERPConfig

	mu    sync.RWMutex
	state *state
}

// NewManager creates a manager. fileCfg supplies preconfigured connection
// defaults (may be nil); explicit connect parameters override it per field.
func NewManager(fileCfg *config.ERPConfig, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		logger:  logger,
		fileCfg: fileCfg,
	}
}

// Connect validates the resolved configuration, builds a backend client,
// verifies the credentials against the backend, and installs the session.
// A successful Connect replaces any previous session.
func (m *Manager) Connect(ctx context.Context, overrides *config.ERPConfig) result.Result[Session] {
	cfg := m.resolve(overrides)
	if cfg.BaseURL == "" {
		return result.Fail[Session](result.AuthFailed, msgConfigNotFound)
	}
	if cfg.AccessToken.Value() == "" && (cfg.APIKey == "" || cfg.APISecret.Value() == "") {
		return result.Fail[Session](result.AuthFailed, msgConfigNotFound)
	}

	client, err := newClient(ctx, cfg)
	if err != nil {
		return result.Fail[Session](result.AuthFailed, err.Error())
	}

	user, err := verify(ctx, client)
	if err != nil {
		if apiErr, ok := frappe.AsAPIError(err); ok && apiErr.Message != "" {
			return result.Fail[Session](result.AuthFailed, apiErr.Message)
		}
		return result.Fail[Session](result.AuthFailed, err.Error())
	}

	m.mu.Lock()
	m.state = &state{cfg: cfg, client: client, user: user}
	m.mu.Unlock()

	m.logger.Info(ctx, "backend session established",
		zap.String("user", user),
		zap.String("base_url", client.BaseURL()),
	)

	return result.Ok(Session{User: user, BaseURL: client.BaseURL()})
}

// Disconnect clears the session. Idempotent.
func (m *Manager) Disconnect(ctx context.Context) {
	m.mu.Lock()
	had := m.state != nil
	m.state = nil
	m.mu.Unlock()

	if had {
		m.logger.Info(ctx, "backend session closed")
	}
}

// Status reports the connection state.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state == nil {
		return Status{}
	}
	return Status{
		Authenticated: true,
		User:          m.state.user,
		BaseURL:       m.state.client.BaseURL(),
	}
}

// IsAuthenticated reports whether a verified session is installed.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state != nil
}

// Config returns the active connection config, or nil when disconnected.
func (m *Manager) Config() *config.ERPConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state == nil {
		return nil
	}
	return m.state.cfg
}

// Client returns the active backend client, or nil when disconnected.
func (m *Manager) Client() *frappe.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state == nil {
		return nil
	}
	return m.state.client
}

// resolve merges per-field overrides onto the preconfigured defaults.
// Non-empty override fields win.
func (m *Manager) resolve(overrides *config.ERPConfig) *config.ERPConfig {
	cfg := &config.ERPConfig{}
	if m.fileCfg != nil {
		*cfg = *m.fileCfg
	}
	if overrides == nil {
		return cfg
	}

	if overrides.BaseURL != "" {
		cfg.BaseURL = overrides.BaseURL
	}
	if overrides.APIKey != "" {
		cfg.APIKey = overrides.APIKey
	}
	if overrides.APISecret.IsSet() {
		cfg.APISecret = overrides.APISecret
	}
	if overrides.AccessToken.IsSet() {
		cfg.AccessToken = overrides.AccessToken
	}
	if overrides.Timeout.Duration() > 0 {
		cfg.Timeout = overrides.Timeout
	}
	return cfg
}

// newClient builds a frappe client for the config. An access token takes
// precedence and rides an oauth2 transport; otherwise key/secret token auth.
func newClient(ctx context.Context, cfg *config.ERPConfig) (*frappe.Client, error) {
	fc := frappe.Config{
		BaseURL:            cfg.BaseURL,
		Timeout:            cfg.Timeout.Duration(),
		RequestsPerSecond:  cfg.RequestsPerSecond,
		Burst:              cfg.RateBurst,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	if token := cfg.AccessToken.Value(); token != "" {
		if cfg.InsecureSkipVerify {
			base := &http.Client{Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			}}
			ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
		}
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient := oauth2.NewClient(ctx, ts)
		httpClient.Timeout = cfg.Timeout.Duration()
		if httpClient.Timeout == 0 {
			httpClient.Timeout = 30 * time.Second
		}
		fc.HTTPClient = httpClient
	} else {
		fc.APIKey = cfg.APIKey
		fc.APISecret = cfg.APISecret.Value()
	}

	return frappe.New(fc)
}

// verify confirms the credentials work by asking the backend who we are.
func verify(ctx context.Context, client *frappe.Client) (string, error) {
	raw, err := client.Call(ctx, "frappe.auth.get_logged_user", nil)
	if err != nil {
		return "", err
	}
	var user string
	if err := json.Unmarshal(raw, &user); err != nil {
		return "", err
	}
	return user, nil
}
