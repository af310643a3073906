// Package dotdir locates the .synergy directory that holds config.toml,
// credentials.toml, the last-ask record and the local entry database.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirName is the directory looked up in the working directory and in $HOME.
const DirName = ".synergy"

// HomeEnv, when set, names the directory to use before any lookup.
const HomeEnv = "SYNERGY_HOME"

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target resolves, creates and returns the absolute synergy directory:
// overrideDir if given, then $SYNERGY_HOME, then ./.synergy if it already
// exists, then ~/.synergy.
func (m *Manager) Target(overrideDir string) (string, error) {
	dir, err := m.resolve(overrideDir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating synergy directory %s: %w", dir, err)
	}
	return filepath.Abs(dir)
}

// Path returns name inside Target(overrideDir).
func (m *Manager) Path(overrideDir, name string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func (m *Manager) resolve(overrideDir string) (string, error) {
	if overrideDir != "" {
		return overrideDir, nil
	}
	if env := os.Getenv(HomeEnv); env != "" {
		return env, nil
	}

	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, DirName)
		if info, err := os.Stat(local); err == nil && info.IsDir() {
			return local, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}
