package storage

import (
	"strconv"
	"time"

	"github.com/synergyreader/synergy/pkg/answer"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Entry is one recorded question/answer exchange.
type Entry struct {
	ID int64 `json:"id"`

	// BackendID is the id the backend announced with __ENTRY_ID__, if any.
	BackendID *int64 `json:"backend_id,omitempty"`

	Question     string          `json:"question"`
	SelectedText string          `json:"selected_text"`
	Answer       string          `json:"answer"`
	Model        string          `json:"model"`
	Context      *answer.Context `json:"context,omitempty"`
	Errors       []string        `json:"errors,omitempty"`

	Rating  *int   `json:"rating,omitempty"`
	Comment string `json:"comment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ValidRating reports whether r is an accepted star rating.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// Stats summarises a set of entries the way the backend's admin view
// summarises ratings.
type Stats struct {
	TotalEntries  int            `json:"total_entries"`
	TotalRatings  int            `json:"total_ratings"`
	AverageRating float64        `json:"average_rating"`
	Distribution  map[string]int `json:"distribution"`
	Failed        int            `json:"failed"`
}

// Summarize computes Stats over entries.
func Summarize(entries []*Entry) Stats {
	s := Stats{
		TotalEntries: len(entries),
		Distribution: map[string]int{},
	}
	for r := MinRating; r <= MaxRating; r++ {
		s.Distribution[strconv.Itoa(r)] = 0
	}

	sum := 0
	for _, e := range entries {
		if len(e.Errors) > 0 {
			s.Failed++
		}
		if e.Rating == nil {
			continue
		}
		s.TotalRatings++
		sum += *e.Rating
		s.Distribution[strconv.Itoa(*e.Rating)]++
	}
	if s.TotalRatings > 0 {
		s.AverageRating = float64(sum) / float64(s.TotalRatings)
	}

	return s
}
