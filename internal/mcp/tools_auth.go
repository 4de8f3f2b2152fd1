package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tallyforge/erpd/internal/config"
	"github.com/tallyforge/erpd/internal/result"
	"github.com/tallyforge/erpd/internal/session"
)

type authConnectInput struct {
	URL         string `json:"url,omitempty" jsonschema:"Backend base URL; overrides the configured one"`
	APIKey      string `json:"api_key,omitempty" jsonschema:"API key for token authentication"`
	APISecret   string `json:"api_secret,omitempty" jsonschema:"API secret paired with the key"`
	AccessToken string `json:"access_token,omitempty" jsonschema:"OAuth2 bearer token; used instead of key and secret"`
}

type authDisconnectInput struct{}

type authStatusInput struct{}

// overrides converts connect parameters to a per-field config override.
// Empty fields fall through to the preconfigured connection settings.
func (in authConnectInput) overrides() *config.ERPConfig {
	return &config.ERPConfig{
		BaseURL:     in.URL,
		APIKey:      in.APIKey,
		APISecret:   config.Secret(in.APISecret),
		AccessToken: config.Secret(in.AccessToken),
	}
}

func (s *Server) registerAuthTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "auth_connect",
		Description: "Connect to the ERP backend and verify the credentials. Parameters override preconfigured connection settings; omit them to use the configuration file.",
	}, toolHandler(s, "auth_connect",
		func(ctx context.Context, args authConnectInput) result.Result[session.Session] {
			return s.sessions.Connect(ctx, args.overrides())
		},
		func(out *session.Session) string {
			return fmt.Sprintf("Connected to %s as %s", out.BaseURL, out.User)
		},
	))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "auth_disconnect",
		Description: "Disconnect from the ERP backend and drop the in-memory session. Safe to call when not connected.",
	}, toolHandler(s, "auth_disconnect",
		func(ctx context.Context, _ authDisconnectInput) result.Result[session.Status] {
			s.sessions.Disconnect(ctx)
			return result.Ok(s.sessions.Status())
		},
		func(*session.Status) string {
			return "Disconnected"
		},
	))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "auth_status",
		Description: "Report the current backend connection status without exposing credentials.",
	}, toolHandler(s, "auth_status",
		func(_ context.Context, _ authStatusInput) result.Result[session.Status] {
			return result.Ok(s.sessions.Status())
		},
		func(out *session.Status) string {
			if !out.Authenticated {
				return "Not connected"
			}
			return fmt.Sprintf("Connected to %s as %s", out.BaseURL, out.User)
		},
	))
}
