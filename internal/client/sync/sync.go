package sync

import (
	"context"
	"sync/atomic"

	"github.com/odizinne/gtacompta-storage/internal/client/remote"
	"github.com/odizinne/gtacompta-storage/internal/client/storage"
	"github.com/odizinne/gtacompta-storage/internal/models"
	"go.uber.org/zap"
)

// RemoteClient is the asynchronous remote API needed by the Syncer.
type RemoteClient interface {
	Load(ctx context.Context, collection string) <-chan remote.LoadResult
	Save(ctx context.Context, collection string, records []models.Record) <-chan remote.SaveResult
}

// Event reports the completion of a load or save for one collection.
type Event struct {
	Collection string
	Op         string // "load" or "save"
	Remote     bool
	Fallback   bool // remote load fell back to the local copy
	Err        error
}

// Syncer binds one Model to local storage and (optionally) the remote
// server. Loads guard against re-entrant invocation; saves are
// fire-and-forget on the remote path. Errors are logged and reported
// through Notify, never retained: the model silently keeps its prior
// in-memory content.
type Syncer struct {
	model  Model
	local  *storage.Local
	remote RemoteClient // nil when no remote endpoint is configured
	log    *zap.Logger

	loading atomic.Bool

	// Notify, when set, receives one Event per completed operation.
	Notify func(Event)
}

// NewSyncer constructs a Syncer for the given model. remoteClient may
// be nil; every remote operation then degrades to local storage.
func NewSyncer(model Model, local *storage.Local, remoteClient RemoteClient, log *zap.Logger) *Syncer {
	return &Syncer{model: model, local: local, remote: remoteClient, log: log}
}

// Model returns the model this Syncer drives.
func (s *Syncer) Model() Model { return s.model }

// Load refreshes the model from local or remote storage. A call while a
// previous load is still in flight is a no-op. The remote path is
// asynchronous and falls back to the local copy on transport failure or
// when no remote client is configured.
func (s *Syncer) Load(ctx context.Context, useRemote bool) {
	if !s.loading.CompareAndSwap(false, true) {
		s.log.Debug("load already in flight, skipping",
			zap.String("collection", s.model.Collection()))
		return
	}

	if !useRemote || s.remote == nil {
		s.loadLocal()
		s.loading.Store(false)
		s.emit(Event{Collection: s.model.Collection(), Op: "load"})
		return
	}

	ch := s.remote.Load(ctx, s.model.Collection())
	go func() {
		result := <-ch
		event := Event{Collection: s.model.Collection(), Op: "load", Remote: true}
		if result.Err != nil {
			s.log.Warn("remote load failed, falling back to local copy",
				zap.String("collection", s.model.Collection()),
				zap.String("requestID", result.RequestID),
				zap.Error(result.Err))
			s.loadLocal()
			event.Fallback = true
			event.Err = result.Err
		} else {
			s.model.Clear()
			s.model.FromRecords(result.Data)
		}
		s.loading.Store(false)
		s.emit(event)
	}()
}

// Save persists the full current record set. The remote path is
// fire-and-forget: the call returns immediately and the outcome arrives
// through Notify. A failed remote save does not write the local copy;
// only loads fall back.
func (s *Syncer) Save(ctx context.Context, useRemote bool) {
	records := s.model.ToRecords()

	if !useRemote || s.remote == nil {
		err := s.local.SaveCollection(s.model.Collection(), records)
		if err != nil {
			s.log.Error("local save failed",
				zap.String("collection", s.model.Collection()), zap.Error(err))
		}
		s.emit(Event{Collection: s.model.Collection(), Op: "save", Err: err})
		return
	}

	ch := s.remote.Save(ctx, s.model.Collection(), records)
	go func() {
		result := <-ch
		if result.Err != nil {
			s.log.Warn("remote save failed",
				zap.String("collection", s.model.Collection()),
				zap.String("requestID", result.RequestID),
				zap.Error(result.Err))
		}
		s.emit(Event{
			Collection: s.model.Collection(),
			Op:         "save",
			Remote:     true,
			Err:        result.Err,
		})
	}()
}

func (s *Syncer) emit(event Event) {
	if s.Notify != nil {
		s.Notify(event)
	}
}

func (s *Syncer) loadLocal() {
	records := s.local.LoadCollection(s.model.Collection())
	s.model.Clear()
	s.model.FromRecords(records)
}
