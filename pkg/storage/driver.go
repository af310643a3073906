// Package storage persists completed question/answer exchanges.
package storage

import (
	"context"
)

// Driver defines the interface for persisting and retrieving entries in a
// storage backend.
type Driver interface {
	// Put stores a new entry and returns its local id. The id and, when
	// zero, CreatedAt are set on entry.
	Put(ctx context.Context, entry *Entry) (int64, error)

	// Get retrieves an entry by its local id.
	Get(ctx context.Context, id int64) (*Entry, error)

	// List returns the newest entries first. A limit of 0 returns all.
	List(ctx context.Context, limit int) ([]*Entry, error)

	// Search returns entries whose question, selected text or answer
	// contains query, case-insensitively, newest first.
	Search(ctx context.Context, query string, limit int) ([]*Entry, error)

	// Rate sets the rating and comment of an entry.
	Rate(ctx context.Context, id int64, rating int, comment string) error

	// Close closes the store and releases any resources.
	Close() error
}
