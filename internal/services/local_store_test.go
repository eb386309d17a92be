package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esmalte/pkg/esmaltetypes"
)

func newTestLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	store := NewLocalStore(filepath.Join(t.TempDir(), "history.json"))
	require.NoError(t, store.Initialize())
	return store
}

func TestLocalStore_SaveAndLoad(t *testing.T) {
	store := newTestLocalStore(t)
	now := time.Now().UTC()

	messages := []esmaltetypes.ChatMessage{
		{Role: esmaltetypes.RoleUser, Content: "quero um esmalte rosa", Timestamp: now},
		{Role: esmaltetypes.RoleAssistant, Content: "claro!", Timestamp: now},
	}
	require.NoError(t, store.Save(messages))

	loaded := store.Load()
	require.Len(t, loaded, 2)
	assert.Equal(t, "quero um esmalte rosa", loaded[0].Content)
	assert.Equal(t, esmaltetypes.RoleAssistant, loaded[1].Role)
}

func TestLocalStore_SaveReplacesSlot(t *testing.T) {
	store := newTestLocalStore(t)
	now := time.Now().UTC()

	require.NoError(t, store.Save([]esmaltetypes.ChatMessage{
		{Role: esmaltetypes.RoleUser, Content: "primeira", Timestamp: now},
		{Role: esmaltetypes.RoleAssistant, Content: "resposta", Timestamp: now},
	}))
	require.NoError(t, store.Save([]esmaltetypes.ChatMessage{
		{Role: esmaltetypes.RoleUser, Content: "segunda", Timestamp: now},
	}))

	loaded := store.Load()
	require.Len(t, loaded, 1)
	assert.Equal(t, "segunda", loaded[0].Content)
}

func TestLocalStore_LoadEmptyWhenMissing(t *testing.T) {
	store := newTestLocalStore(t)
	assert.Empty(t, store.Load())
}

func TestLocalStore_LoadEmptyWhenCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store := NewLocalStore(path)
	require.NoError(t, store.Initialize())
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	assert.Empty(t, store.Load())
}

func TestLocalStore_Clear(t *testing.T) {
	store := newTestLocalStore(t)
	require.NoError(t, store.Save([]esmaltetypes.ChatMessage{
		{Role: esmaltetypes.RoleUser, Content: "oi", Timestamp: time.Now().UTC()},
	}))

	require.NoError(t, store.Clear())
	assert.Empty(t, store.Load())

	// Clearing again must not fail.
	require.NoError(t, store.Clear())
}

func TestLocalStore_SaveRequiresInitialize(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "history.json"))
	err := store.Save([]esmaltetypes.ChatMessage{{Role: esmaltetypes.RoleUser, Content: "oi"}})
	assert.Error(t, err)
}
