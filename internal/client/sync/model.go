// Package sync gives each collection-backed model a uniform load/save
// operation targeting either local storage or the remote server, with
// graceful fallback when the remote side is unavailable.
package sync

import (
	"fmt"
	"sort"
	"strings"
	gosync "sync"

	"github.com/odizinne/gtacompta-storage/internal/models"
)

// Model is the contract every collection-backed data model implements.
// Each model owns exactly one collection name and is its exclusive
// writer; there are no cross-collection transactions.
type Model interface {
	// Collection returns the collection name this model owns.
	Collection() string
	// ToRecords serializes the full current record set.
	ToRecords() []models.Record
	// FromRecords replaces the model content with records.
	FromRecords(records []models.Record)
	// Clear drops all records.
	Clear()
	// SortBy sorts by the given column; selecting the current sort
	// column again flips the direction.
	SortBy(column int)
}

// TableModel is a generic Model over schemaless records. Columns map to
// record keys through sortKeys.
type TableModel struct {
	collection string
	sortKeys   []string

	mu         gosync.Mutex
	records    []models.Record
	sortColumn int
	ascending  bool
}

// NewTableModel returns an empty model for the given collection.
// sortKeys maps column indexes to record keys for sorting.
func NewTableModel(collection string, sortKeys []string) *TableModel {
	return &TableModel{
		collection: collection,
		sortKeys:   sortKeys,
		ascending:  true,
	}
}

// Collection returns the collection name this model owns.
func (m *TableModel) Collection() string { return m.collection }

// Len returns the number of records.
func (m *TableModel) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Add appends a record.
func (m *TableModel) Add(record models.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
}

// Remove deletes the record at index i, ignoring out-of-range indexes.
func (m *TableModel) Remove(i int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.records) {
		return
	}
	m.records = append(m.records[:i], m.records[i+1:]...)
}

// ToRecords serializes the full current record set.
func (m *TableModel) ToRecords() []models.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Record, len(m.records))
	copy(out, m.records)
	return out
}

// FromRecords replaces the model content with records and re-applies
// the current sort order.
func (m *TableModel) FromRecords(records []models.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make([]models.Record, len(records))
	copy(m.records, records)
	m.sortLocked()
}

// Clear drops all records.
func (m *TableModel) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
}

// SortBy sorts by column, flipping direction when the column is already
// the sort column.
func (m *TableModel) SortBy(column int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sortColumn == column {
		m.ascending = !m.ascending
	} else {
		m.sortColumn = column
		m.ascending = true
	}
	m.sortLocked()
}

func (m *TableModel) sortLocked() {
	if m.sortColumn < 0 || m.sortColumn >= len(m.sortKeys) {
		return
	}
	key := m.sortKeys[m.sortColumn]
	sort.SliceStable(m.records, func(i, j int) bool {
		less := compareValues(m.records[i][key], m.records[j][key]) < 0
		if !m.ascending {
			return !less
		}
		return less
	})
}

// compareValues orders two record values: numerically when both are
// numbers, lexicographically (case-insensitive) otherwise.
func compareValues(a, b any) int {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(
		strings.ToLower(fmt.Sprint(a)),
		strings.ToLower(fmt.Sprint(b)),
	)
}
