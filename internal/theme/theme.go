// Package theme persists the light/dark/system display preference in the
// local state file shared by the CLI and dashboard.
package theme

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
)

// Theme is a display preference
type Theme string

const (
	Light  Theme = "light"
	Dark   Theme = "dark"
	System Theme = "system"
)

// Key is the local state key the preference is stored under
const Key = "theme"

const (
	stateFile = "local.json"
	lockFile  = "local.json.lock"
)

// ErrInvalidTheme is returned for values other than light, dark or system
var ErrInvalidTheme = errors.New("invalid theme")

// hasDarkBackground is swapped in tests
var hasDarkBackground = lipgloss.HasDarkBackground

// Parse validates a stored or user-supplied value
func Parse(s string) (Theme, error) {
	switch t := Theme(s); t {
	case Light, Dark, System:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q (want light, dark or system)", ErrInvalidTheme, s)
}

// Valid reports whether t is one of the known themes
func (t Theme) Valid() bool {
	_, err := Parse(string(t))
	return err == nil
}

// Next cycles light -> dark -> system -> light
func (t Theme) Next() Theme {
	switch t {
	case Light:
		return Dark
	case Dark:
		return System
	default:
		return Light
	}
}

// Resolve maps System to the terminal's actual background.
func (t Theme) Resolve() Theme {
	if t != System {
		return t
	}
	if hasDarkBackground() {
		return Dark
	}
	return Light
}

// Store reads and writes local.json in a directory, leaving other keys alone.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir (usually config.ConfigDir()).
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the state file location
func (s *Store) Path() string {
	return filepath.Join(s.dir, stateFile)
}

// Get returns the stored theme. A missing file or key yields System; an
// unrecognized stored value also falls back to System.
func (s *Store) Get() (Theme, error) {
	state, err := s.load()
	if err != nil {
		return System, err
	}
	raw, ok := state[Key]
	if !ok {
		return System, nil
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return System, nil
	}
	t, err := Parse(v)
	if err != nil {
		return System, nil
	}
	return t, nil
}

// Set stores t
func (s *Store) Set(t Theme) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, t)
	}
	return s.withLock(func() error {
		state, err := s.load()
		if err != nil {
			return err
		}
		data, err := json.Marshal(string(t))
		if err != nil {
			return err
		}
		state[Key] = data
		return s.save(state)
	})
}

// Cycle advances the stored theme and returns the new value
func (s *Store) Cycle() (Theme, error) {
	var next Theme
	err := s.withLock(func() error {
		state, err := s.load()
		if err != nil {
			return err
		}
		cur := System
		if raw, ok := state[Key]; ok {
			var v string
			if json.Unmarshal(raw, &v) == nil {
				if t, err := Parse(v); err == nil {
					cur = t
				}
			}
		}
		next = cur.Next()
		data, _ := json.Marshal(string(next))
		state[Key] = data
		return s.save(state)
	})
	return next, err
}

func (s *Store) load() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, err
	}

	state := map[string]json.RawMessage{}
	if len(data) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Path(), err)
	}
	return state, nil
}

// save writes the state using atomic write (temp file + rename)
func (s *Store) save(state map[string]json.RawMessage) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "local-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, s.Path())
}

// withLock serializes read-modify-write of local.json across processes
func (s *Store) withLock(fn func() error) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(s.dir, lockFile), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := lock(f); err != nil {
		return err
	}
	defer unlock(f)

	return fn()
}
