// Package storage provides the client's local persistence: a pluggable
// key-value Store with file and embedded-database backends, and
// collection load/save on top of it.
//
// Both backends hold the same raw JSON array bytes per collection, so
// data written through one encoding loads through the other.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/odizinne/gtacompta-storage/internal/models"
	"go.uber.org/zap"
)

// Store is a pluggable key-value store for local persistence.
type Store interface {
	// Get returns the value for key, or (nil, nil) if the key is absent.
	Get(key string) ([]byte, error)
	// Put stores value under key, replacing any previous value.
	Put(key string, value []byte) error
	// Close releases backend resources.
	Close() error
}

// FileStore keeps one file per key under a directory, the desktop
// encoding of local data.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) pathFor(key string) string {
	return filepath.Join(s.dir, models.SanitizeCollectionName(key)+".json")
}

// Get reads the file for key. A missing file is (nil, nil).
func (s *FileStore) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(s.pathFor(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Put writes the file for key.
func (s *FileStore) Put(key string, value []byte) error {
	return os.WriteFile(s.pathFor(key), value, 0o600)
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error { return nil }

// Local persists collections as JSON arrays in a Store.
type Local struct {
	store Store
	log   *zap.Logger
}

// NewLocal returns collection persistence over the given Store.
func NewLocal(store Store, log *zap.Logger) *Local {
	return &Local{store: store, log: log}
}

// LoadCollection returns the locally stored records of a collection.
// Missing or corrupted data degrades to an empty array.
func (l *Local) LoadCollection(collection string) []models.Record {
	data, err := l.store.Get(collection)
	if err != nil {
		l.log.Warn("failed to read local collection",
			zap.String("collection", collection), zap.Error(err))
		return []models.Record{}
	}
	if len(data) == 0 {
		return []models.Record{}
	}

	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		l.log.Warn("local collection is not a valid JSON array",
			zap.String("collection", collection), zap.Error(err))
		return []models.Record{}
	}
	if records == nil {
		records = []models.Record{}
	}
	return records
}

// SaveCollection serializes records and stores them under the
// collection name.
func (l *Local) SaveCollection(collection string, records []models.Record) error {
	if records == nil {
		records = []models.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("serialize collection %s: %w", collection, err)
	}
	if err := l.store.Put(collection, data); err != nil {
		return fmt.Errorf("store collection %s: %w", collection, err)
	}
	return nil
}
