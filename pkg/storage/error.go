package storage

import (
	"errors"
	"fmt"
)

// ErrInvalidRating is returned for ratings outside MinRating..MaxRating.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// NotFoundError is returned when an entry doesn't exist in the store.
type NotFoundError struct {
	ID int64
}

func (e NotFoundError) Error() string {
	if e.ID == 0 {
		return "entry not found"
	}

	return fmt.Sprintf("entry not found: %d", e.ID)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}
