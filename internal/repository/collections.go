package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/odizinne/gtacompta-storage/internal/models"
	"go.uber.org/zap"
)

// FileCollectionStore persists each collection as <dataDir>/<name>.json
// holding a raw JSON array. A save replaces the whole array; writes to
// the same collection are serialized by a per-collection lock.
type FileCollectionStore struct {
	dataDir string
	log     *zap.Logger
	locks   sync.Map // collection name -> *sync.Mutex
}

// NewFileCollectionStore returns a store rooted at dataDir, creating the
// directory if needed.
func NewFileCollectionStore(dataDir string, log *zap.Logger) (*FileCollectionStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	return &FileCollectionStore{dataDir: dataDir, log: log}, nil
}

// PathFor resolves a collection name to its file path. The name is
// sanitized first, so the result never escapes the data directory.
func (s *FileCollectionStore) PathFor(collection string) string {
	return filepath.Join(s.dataDir, models.SanitizeCollectionName(collection)+".json")
}

// Load returns the records of a collection. A missing, unreadable, or
// corrupted file degrades to an empty array; parse errors never
// propagate to the caller.
func (s *FileCollectionStore) Load(ctx context.Context, collection string) []models.Record {
	path := s.PathFor(collection)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("failed to read collection", zap.String("path", path), zap.Error(err))
		}
		return []models.Record{}
	}

	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		s.log.Warn("collection file is not a valid JSON array",
			zap.String("collection", collection), zap.Error(err))
		return []models.Record{}
	}
	if records == nil {
		records = []models.Record{}
	}
	return records
}

// Save serializes records and replaces the collection file. It writes to
// a temp file and renames it into place, so a failed write never leaves
// a truncated array behind. Returns false if anything fails.
func (s *FileCollectionStore) Save(ctx context.Context, collection string, records []models.Record) bool {
	if records == nil {
		records = []models.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		s.log.Error("failed to serialize collection",
			zap.String("collection", collection), zap.Error(err))
		return false
	}

	mu := s.lockFor(collection)
	mu.Lock()
	defer mu.Unlock()

	path := s.PathFor(collection)
	tmp, err := os.CreateTemp(s.dataDir, ".tmp-"+filepath.Base(path))
	if err != nil {
		s.log.Error("failed to create temp file", zap.Error(err))
		return false
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		s.log.Error("failed to write collection", zap.String("path", path), zap.Error(err))
		return false
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return false
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		s.log.Error("failed to replace collection file", zap.String("path", path), zap.Error(err))
		return false
	}
	return true
}

// Count returns the number of *.json files in the data directory, the
// collection count reported by /api/status.
func (s *FileCollectionStore) Count(ctx context.Context) int {
	matches, err := filepath.Glob(filepath.Join(s.dataDir, "*.json"))
	if err != nil {
		return 0
	}
	return len(matches)
}

func (s *FileCollectionStore) lockFor(collection string) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(models.SanitizeCollectionName(collection), &sync.Mutex{})
	return v.(*sync.Mutex)
}
