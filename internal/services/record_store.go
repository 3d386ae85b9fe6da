// Package services – RecordStore
//
// This file implements the RecordStore, the in-memory owner of the feedback
// sequence. Every mutation is followed by a full snapshot write through the
// configured Snapshotter, so the file (or table) on disk is always a complete,
// self-consistent copy of memory. There is no write-ahead log.
//
// Mutation happens only from the bot loop. Readers (the HTTP report API) may
// call All concurrently; a RWMutex keeps them from observing a half-applied
// reaction refresh.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tbourn/go-retrobot/internal/domain"
	"github.com/tbourn/go-retrobot/internal/observability"
	"github.com/tbourn/go-retrobot/internal/repo"
)

// Snapshotter persists and restores the full entry sequence.
//
// Load returns (nil, nil) when no snapshot exists yet, and an error wrapping
// repo.ErrCorrupt when one exists but cannot be parsed. Save must replace the
// previous snapshot as a whole.
type Snapshotter interface {
	Load(ctx context.Context) ([]domain.FeedbackEntry, error)
	Save(ctx context.Context, entries []domain.FeedbackEntry) error
}

// RecordStore owns the ordered, append-only feedback sequence.
type RecordStore struct {
	snap Snapshotter

	mu      sync.RWMutex
	entries []domain.FeedbackEntry
}

// NewRecordStore returns an empty store backed by snap. Call Load to restore
// the previous state.
func NewRecordStore(snap Snapshotter) *RecordStore {
	return &RecordStore{snap: snap}
}

// Load replaces the in-memory sequence with the persisted snapshot.
//
// A missing snapshot leaves the store empty. When the snapshot cannot be
// read the store is also left empty and the error is returned: a
// *StorageCorruptError for unparseable data, a wrapped I/O error otherwise.
// Callers are expected to log and carry on.
func (s *RecordStore) Load(ctx context.Context) error {
	loaded, err := s.snap.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	defer func() { observability.EntriesStored.Set(float64(len(s.entries))) }()

	if err != nil {
		if errors.Is(err, repo.ErrCorrupt) {
			return &StorageCorruptError{Err: err}
		}
		return fmt.Errorf("load feedback snapshot: %w", err)
	}
	s.entries = loaded
	return nil
}

// Append adds e to the end of the sequence and persists the full snapshot.
// If the write fails, e is removed again and a *PersistenceError is returned.
func (s *RecordStore) Append(ctx context.Context, e domain.FeedbackEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries)
	s.entries = append(s.entries, e)
	if err := s.snap.Save(ctx, s.entries); err != nil {
		s.entries[n] = domain.FeedbackEntry{}
		s.entries = s.entries[:n]
		return &PersistenceError{Err: err}
	}
	observability.EntriesStored.Set(float64(len(s.entries)))
	return nil
}

// All returns a copy of the sequence in insertion order.
func (s *RecordStore) All() []domain.FeedbackEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.FeedbackEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of stored entries.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Persist writes the full sequence, overwriting the previous snapshot.
// Repeating it after a failed attempt converges on the same state.
func (s *RecordStore) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.snap.Save(ctx, s.entries); err != nil {
		return &PersistenceError{Err: err}
	}
	return nil
}

// SetReactionCounts overwrites every entry's reaction count in one step.
// counts[i] belongs to the i-th entry; the lengths must match.
func (s *RecordStore) SetReactionCounts(counts []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(counts) != len(s.entries) {
		return fmt.Errorf("%w: %d counts for %d entries", ErrReactionCountMismatch, len(counts), len(s.entries))
	}
	for i, n := range counts {
		if n < 0 {
			n = 0
		}
		s.entries[i] = s.entries[i].WithReactions(n)
	}
	return nil
}
