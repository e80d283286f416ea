package storage

import (
	"testing"

	"github.com/odizinne/gtacompta-storage/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBadgerStore_RoundTrip(t *testing.T) {
	store := newTestBadgerStore(t)

	require.NoError(t, store.Put("clients", []byte(`[{"name":"Acme"}]`)))

	got, err := store.Get("clients")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[{"name":"Acme"}]`), got)
}

func TestBadgerStore_MissingKey(t *testing.T) {
	store := newTestBadgerStore(t)

	got, err := store.Get("nothing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

// The two backends are interchangeable: data saved through one encoding
// loads identically through the other's code path.
func TestBackendsAgree(t *testing.T) {
	records := []models.Record{{"name": "Acme"}, {"name": "Globex"}}

	fileStore, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	badgerStore := newTestBadgerStore(t)

	for _, store := range []Store{fileStore, badgerStore} {
		local := NewLocal(store, zap.NewNop())
		require.NoError(t, local.SaveCollection("clients", records))
		assert.Equal(t, records, local.LoadCollection("clients"))
	}
}
