// Package installer manages the persisted install state under the data home
// (XDG_DATA_HOME): the installed client script and the version marker beside
// it. Installs are atomic so a failed or interrupted update can never leave a
// half-written script behind.
package installer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ScriptName is the installed client's file name.
	ScriptName = "letsencrypt-auto"

	stateSubdir   = "letsencrypt"
	versionMarker = "installed-version"
)

type State struct {
	root string
}

// New returns the install state rooted at dataHome. An empty dataHome falls
// back to the XDG default under the user's home directory.
func New(dataHome string) (*State, error) {
	if strings.TrimSpace(dataHome) == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("determine data home: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return &State{root: filepath.Join(dataHome, stateSubdir)}, nil
}

// Dir returns the state directory.
func (s *State) Dir() string { return s.root }

// ScriptPath returns the path of the installed client script.
func (s *State) ScriptPath() string { return filepath.Join(s.root, ScriptName) }

// InstalledVersion returns the recorded version, or "" when nothing is
// installed yet.
func (s *State) InstalledVersion() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.root, versionMarker)) // #nosec G304 -- path within our state dir
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read version marker: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Install writes the verified script and records its version. The content
// goes to a temp file in the state directory first and is renamed over the
// target, so the installed script is replaced all-or-nothing.
func (s *State) Install(content []byte, version string) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create state dir %s: %w", s.root, err)
	}

	tmp, err := os.CreateTemp(s.root, ScriptName+".tmp-*")
	if err != nil {
		return fmt.Errorf("stage install: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write staged script: %w", err)
	}
	if err := tmp.Chmod(0o755); err != nil { // #nosec G302 -- installed client must be executable
		tmp.Close()
		return fmt.Errorf("chmod staged script: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close staged script: %w", err)
	}
	if err := os.Rename(tmpName, s.ScriptPath()); err != nil {
		return fmt.Errorf("install %s: %w", ScriptName, err)
	}

	marker := filepath.Join(s.root, versionMarker)
	if err := os.WriteFile(marker, []byte(version+"\n"), 0o644); err != nil {
		return fmt.Errorf("record installed version: %w", err)
	}
	return nil
}
