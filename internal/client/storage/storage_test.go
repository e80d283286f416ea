package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/odizinne/gtacompta-storage/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileStore_RoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put("clients", []byte(`[{"name":"Acme"}]`)))

	got, err := store.Get("clients")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[{"name":"Acme"}]`), got)
}

func TestFileStore_MissingKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	got, err := store.Get("nothing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileStore_SanitizesKeys(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Put("../escape", []byte("x")))

	// The file lands inside the storage directory under a safe name.
	_, err = os.Stat(filepath.Join(dir, "___escape.json"))
	assert.NoError(t, err)
}

func TestLocal_LoadDegradesToEmpty(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	local := NewLocal(store, zap.NewNop())

	assert.Empty(t, local.LoadCollection("missing"))

	require.NoError(t, store.Put("broken", []byte("{not an array")))
	assert.Empty(t, local.LoadCollection("broken"))
}

func TestLocal_RoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	local := NewLocal(store, zap.NewNop())

	records := []models.Record{{"name": "Acme", "amount": float64(12)}}
	require.NoError(t, local.SaveCollection("clients", records))
	assert.Equal(t, records, local.LoadCollection("clients"))
}

func TestSettings_DefaultsAndRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	settings := LoadSettings(store)
	assert.Equal(t, DefaultSettings(), settings)
	assert.False(t, settings.UseRemote)

	settings.UseRemote = true
	settings.Host = "example.org:3000"
	settings.Username = "alice"
	require.NoError(t, SaveSettings(store, settings))

	assert.Equal(t, settings, LoadSettings(store))
}
