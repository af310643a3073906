// Package inmemory provides an in-memory storage driver.
package inmemory

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/synergyreader/synergy/pkg/storage"
)

// Driver implements storage.Driver using an in-memory slice.
type Driver struct {
	// mu is a read write sync mutex guarding entries and nextID
	mu sync.RWMutex

	// entries is ordered by ascending id
	entries []*storage.Entry
	nextID  int64
}

var _ storage.Driver = (*Driver)(nil)

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{nextID: 1}
}

// Put stores a copy of entry under a new id.
func (d *Driver) Put(_ context.Context, entry *storage.Entry) (int64, error) {
	if entry == nil {
		return 0, errors.New("cannot store nil entry")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	entry.ID = d.nextID
	d.nextID++
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	d.entries = append(d.entries, clone(entry))
	return entry.ID, nil
}

// Get retrieves an entry by id.
func (d *Driver) Get(_ context.Context, id int64) (*storage.Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if e := d.find(id); e != nil {
		return clone(e), nil
	}
	return nil, storage.NotFoundError{ID: id}
}

// List returns the newest entries first.
func (d *Driver) List(_ context.Context, limit int) ([]*storage.Entry, error) {
	return d.filter(limit, func(*storage.Entry) bool { return true }), nil
}

// Search returns entries containing query, newest first.
func (d *Driver) Search(_ context.Context, query string, limit int) ([]*storage.Entry, error) {
	q := strings.ToLower(query)
	return d.filter(limit, func(e *storage.Entry) bool {
		return strings.Contains(strings.ToLower(e.Question), q) ||
			strings.Contains(strings.ToLower(e.SelectedText), q) ||
			strings.Contains(strings.ToLower(e.Answer), q)
	}), nil
}

// Rate sets the rating and comment of an entry.
func (d *Driver) Rate(_ context.Context, id int64, rating int, comment string) error {
	if !storage.ValidRating(rating) {
		return storage.ErrInvalidRating
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	e := d.find(id)
	if e == nil {
		return storage.NotFoundError{ID: id}
	}
	e.Rating = &rating
	e.Comment = comment
	return nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}

func (d *Driver) find(id int64) *storage.Entry {
	i, ok := slices.BinarySearchFunc(d.entries, id, func(e *storage.Entry, id int64) int {
		switch {
		case e.ID < id:
			return -1
		case e.ID > id:
			return 1
		}
		return 0
	})
	if !ok {
		return nil
	}
	return d.entries[i]
}

func (d *Driver) filter(limit int, keep func(*storage.Entry) bool) []*storage.Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []*storage.Entry
	for i := len(d.entries) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		if keep(d.entries[i]) {
			out = append(out, clone(d.entries[i]))
		}
	}
	return out
}

func clone(e *storage.Entry) *storage.Entry {
	c := *e
	c.Errors = slices.Clone(e.Errors)
	if e.BackendID != nil {
		id := *e.BackendID
		c.BackendID = &id
	}
	if e.Rating != nil {
		r := *e.Rating
		c.Rating = &r
	}
	return &c
}
