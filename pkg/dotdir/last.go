package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	lastAskFile = "last_ask.json"
)

// LastAsk remembers the most recent answered question so follow-up commands
// (rate, correct) can refer to it as "last".
type LastAsk struct {
	// EntryID is the backend id announced by the answer stream.
	EntryID int64 `json:"entry_id"`

	Question string    `json:"question"`
	Model    string    `json:"model"`
	AskedAt  time.Time `json:"asked_at"`
}

// LoadLastAsk loads the saved LastAsk. Returns nil, nil if none was saved.
// If overrideDir is non-empty, it is used instead of the default location.
func (m *Manager) LoadLastAsk(overrideDir string) (*LastAsk, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, lastAskFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading last ask: %w", err)
	}

	last := &LastAsk{}
	if err := json.Unmarshal(data, last); err != nil {
		return nil, fmt.Errorf("parsing last ask: %w", err)
	}

	return last, nil
}

// SaveLastAsk persists last, replacing any previous one.
func (m *Manager) SaveLastAsk(last *LastAsk, overrideDir string) error {
	if last == nil {
		return errors.New("cannot save nil last ask")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(last, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling last ask: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, lastAskFile), data, 0o600); err != nil {
		return fmt.Errorf("writing last ask: %w", err)
	}

	return nil
}

// ClearLastAsk removes the saved LastAsk. Returns nil if there is none.
func (m *Manager) ClearLastAsk(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(dir, lastAskFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing last ask: %w", err)
	}

	return nil
}
