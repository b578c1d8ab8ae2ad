package websocket

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLastConnectionWins(t *testing.T) {
	registry := NewRegistry()
	userID := uuid.New()

	first := NewClient(nil, userID)
	require.Nil(t, registry.Register(first))
	assert.Same(t, first, registry.Lookup(userID))

	// A second connection for the same identity displaces the first.
	second := NewClient(nil, userID)
	displaced := registry.Register(second)
	assert.Same(t, first, displaced)
	assert.Same(t, second, registry.Lookup(userID))
	assert.Equal(t, 1, registry.Count())
}

func TestRegistryUnregisterDisplacedSessionIsNoOp(t *testing.T) {
	registry := NewRegistry()
	userID := uuid.New()

	first := NewClient(nil, userID)
	registry.Register(first)
	second := NewClient(nil, userID)
	registry.Register(second)

	// Teardown of the old connection must not evict the new session.
	assert.False(t, registry.Unregister(first))
	assert.Same(t, second, registry.Lookup(userID))

	assert.True(t, registry.Unregister(second))
	assert.Nil(t, registry.Lookup(userID))
}

func TestRegistryOnlineIdentities(t *testing.T) {
	registry := NewRegistry()
	a, b := uuid.New(), uuid.New()
	registry.Register(NewClient(nil, a))
	registry.Register(NewClient(nil, b))

	ids := registry.OnlineIdentities()
	assert.ElementsMatch(t, []uuid.UUID{a, b}, ids)
}
