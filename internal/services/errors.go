// Package services defines the feedback ledger: the record store, the
// reaction enricher, and the summary engine. This file centralizes the
// service-level error values so callers can match them with errors.Is/As.
//
// Translation into chat replies or HTTP status codes happens in the bot and
// handler layers.
package services

import (
	"errors"
	"fmt"
)

// ErrReactionCountMismatch is returned by RecordStore.SetReactionCounts when
// the number of counts does not match the number of stored entries.
var ErrReactionCountMismatch = errors.New("reaction counts do not match stored entries")

// StorageCorruptError reports a snapshot that exists but could not be parsed.
// Load leaves the store empty when it returns this error; startup continues.
type StorageCorruptError struct {
	Err error
}

func (e *StorageCorruptError) Error() string {
	return fmt.Sprintf("feedback snapshot unreadable: %v", e.Err)
}

func (e *StorageCorruptError) Unwrap() error { return e.Err }

// PersistenceError reports a failed snapshot write. When returned from
// Append, the entry has already been rolled back from memory.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist feedback snapshot: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
