package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyforge/erpd/internal/erp"
	"github.com/tallyforge/erpd/internal/logging"
	"github.com/tallyforge/erpd/internal/session"
)

func newServerDeps(t *testing.T) (*erp.Service, *session.Manager) {
	t.Helper()

	sessions := session.NewManager(nil, logging.NewNop())
	ops, err := erp.NewService(sessions, logging.NewNop(), nil)
	require.NoError(t, err)
	return ops, sessions
}

func TestNewServer(t *testing.T) {
	ops, sessions := newServerDeps(t)

	t.Run("defaults", func(t *testing.T) {
		s, err := NewServer(nil, ops, sessions)
		require.NoError(t, err)
		assert.NotNil(t, s.mcp)
		assert.NotNil(t, s.metrics)
	})

	t.Run("requires_operation_service", func(t *testing.T) {
		_, err := NewServer(DefaultConfig(), nil, sessions)
		assert.Error(t, err)
	})

	t.Run("requires_session_manager", func(t *testing.T) {
		_, err := NewServer(DefaultConfig(), ops, nil)
		assert.Error(t, err)
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "erpd", cfg.Name)
	assert.Equal(t, "1.0.0", cfg.Version)
	assert.NotNil(t, cfg.Logger)
}

func TestServerClose(t *testing.T) {
	ops, sessions := newServerDeps(t)
	s, err := NewServer(nil, ops, sessions)
	require.NoError(t, err)

	assert.NoError(t, s.Close())
	assert.False(t, sessions.IsAuthenticated())
}
