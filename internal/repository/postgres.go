// PostgreSQL-backed collection persistence, selected with --database-dsn.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/odizinne/gtacompta-storage/internal/models"
	"go.uber.org/zap"
)

// PostgresCollectionStore implements collection persistence against a
// PostgreSQL database. Each collection is one row holding its serialized
// array, preserving the whole-array last-write-wins model of the file
// store.
type PostgresCollectionStore struct {
	// DB is the database handle for executing queries.
	DB  *sql.DB
	log *zap.Logger
}

// NewPostgresCollectionStore creates a store using the provided *sql.DB.
// db must be a valid connection to a PostgreSQL instance.
func NewPostgresCollectionStore(db *sql.DB, log *zap.Logger) *PostgresCollectionStore {
	return &PostgresCollectionStore{DB: db, log: log}
}

// Load returns the records of a collection, degrading to an empty array
// when the row is missing or its payload does not parse.
func (s *PostgresCollectionStore) Load(ctx context.Context, collection string) []models.Record {
	name := models.SanitizeCollectionName(collection)

	var data []byte
	err := s.DB.QueryRowContext(
		ctx,
		`SELECT data FROM collections WHERE name = $1`,
		name,
	).Scan(&data)
	if err != nil {
		if err != sql.ErrNoRows {
			s.log.Warn("failed to load collection", zap.String("collection", name), zap.Error(err))
		}
		return []models.Record{}
	}

	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		s.log.Warn("stored collection is not a valid JSON array",
			zap.String("collection", name), zap.Error(err))
		return []models.Record{}
	}
	if records == nil {
		records = []models.Record{}
	}
	return records
}

// Save upserts the serialized array for a collection. Returns false on
// serialization or database failure.
func (s *PostgresCollectionStore) Save(ctx context.Context, collection string, records []models.Record) bool {
	if records == nil {
		records = []models.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		s.log.Error("failed to serialize collection", zap.Error(err))
		return false
	}

	name := models.SanitizeCollectionName(collection)
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO collections (name, data) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`, name, data)
	if err != nil {
		s.log.Error("failed to save collection", zap.String("collection", name), zap.Error(err))
		return false
	}
	return true
}

// Count returns the number of stored collections.
func (s *PostgresCollectionStore) Count(ctx context.Context) int {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM collections`).Scan(&n)
	if err != nil {
		s.log.Warn("failed to count collections", zap.Error(err))
		return 0
	}
	return n
}

// Ping verifies the database connection is usable.
func (s *PostgresCollectionStore) Ping(ctx context.Context) error {
	if err := s.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}
