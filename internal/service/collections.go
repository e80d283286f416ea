package service

import (
	"context"

	"github.com/odizinne/gtacompta-storage/internal/models"
)

// CollectionRepository defines the persistence operations needed by the
// collection service. Both the file store and the PostgreSQL store
// implement it.
type CollectionRepository interface {
	// Load returns the records of a collection, empty if absent.
	Load(ctx context.Context, collection string) []models.Record
	// Save replaces the whole collection; false signals a storage failure.
	Save(ctx context.Context, collection string, records []models.Record) bool
	// Count returns the number of stored collections.
	Count(ctx context.Context) int
}

// CollectionService implements collection operations by delegating to a
// CollectionRepository.
type CollectionService struct {
	repo CollectionRepository
}

// NewCollectionService constructs a CollectionService with the provided
// repository.
func NewCollectionService(repo CollectionRepository) *CollectionService {
	return &CollectionService{repo: repo}
}

// Load returns the records of a collection.
func (s *CollectionService) Load(ctx context.Context, collection string) []models.Record {
	return s.repo.Load(ctx, collection)
}

// Save replaces the whole collection with records.
func (s *CollectionService) Save(ctx context.Context, collection string, records []models.Record) bool {
	return s.repo.Save(ctx, collection, records)
}

// Count returns the number of stored collections.
func (s *CollectionService) Count(ctx context.Context) int {
	return s.repo.Count(ctx)
}
