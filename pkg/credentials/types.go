package credentials

import "time"

// Credentials represents the stored sessions in credentials.toml, keyed by
// backend URL.
type Credentials struct {
	Version  int                `toml:"version"`
	Sessions map[string]Session `toml:"sessions"`
}

// Session is the signed-in user of one backend.
type Session struct {
	Username string    `toml:"username"`
	Token    string    `toml:"token"`
	SavedAt  time.Time `toml:"saved_at"`
}
