// Package credentials keeps one signed-in session per backend URL in
// credentials.toml, next to config.toml.
package credentials

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/synergyreader/synergy/pkg/dotdir"
)

const (
	credentialsFile = "credentials.toml"

	currentVersion = 1
)

// Manager reads and writes credentials.toml. Every call goes to disk, so
// separate commands always see each other's sign-ins.
type Manager struct {
	path string
}

// NewManager resolves credentials.toml inside the .synergy/ directory;
// override replaces the usual lookup.
func NewManager(override string) (*Manager, error) {
	path, err := dotdir.NewManager().Path(override, credentialsFile)
	if err != nil {
		return nil, err
	}
	return &Manager{path: path}, nil
}

// Load returns the stored credentials, or an empty set when the file does
// not exist yet.
func (m *Manager) Load() (*Credentials, error) {
	creds := &Credentials{Version: currentVersion}

	data, err := os.ReadFile(m.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading credentials: %w", err)
	default:
		if err := toml.Unmarshal(data, creds); err != nil {
			return nil, fmt.Errorf("parsing credentials: %w", err)
		}
		if creds.Version > currentVersion {
			return nil, fmt.Errorf("credentials version %d is newer than this build supports", creds.Version)
		}
	}

	if creds.Sessions == nil {
		creds.Sessions = make(map[string]Session)
	}
	return creds, nil
}

// Save writes creds with owner-only permissions.
func (m *Manager) Save(creds *Credentials) error {
	if creds == nil {
		return errors.New("cannot save nil credentials")
	}
	creds.Version = currentVersion

	data, err := toml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

// SetSession stores s as the session for backend, replacing any other.
func (m *Manager) SetSession(backend string, s Session) error {
	if s.Token == "" {
		return errors.New("cannot save a session without a token")
	}
	return m.update(func(c *Credentials) {
		c.Sessions[normalize(backend)] = s
	})
}

// GetSession returns the session for backend, or nil when signed out.
func (m *Manager) GetSession(backend string) (*Session, error) {
	creds, err := m.Load()
	if err != nil {
		return nil, err
	}

	if s, ok := creds.Sessions[normalize(backend)]; ok {
		return &s, nil
	}
	return nil, nil
}

// Token returns the token for backend, or "" when signed out.
func (m *Manager) Token(backend string) (string, error) {
	s, err := m.GetSession(backend)
	if err != nil || s == nil {
		return "", err
	}
	return s.Token, nil
}

// RemoveSession signs backend out. Removing a missing session is not an
// error.
func (m *Manager) RemoveSession(backend string) error {
	return m.update(func(c *Credentials) {
		delete(c.Sessions, normalize(backend))
	})
}

// ListBackends returns the signed-in backends, sorted.
func (m *Manager) ListBackends() ([]string, error) {
	creds, err := m.Load()
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(creds.Sessions)), nil
}

// GetTarget returns the credentials file path.
func (m *Manager) GetTarget() string {
	return m.path
}

func (m *Manager) update(fn func(*Credentials)) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}
	fn(creds)
	return m.Save(creds)
}

// normalize makes "http://host:5000/" and "http://host:5000" the same key.
func normalize(backend string) string {
	return strings.TrimRight(strings.TrimSpace(backend), "/")
}
