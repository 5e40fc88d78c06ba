package keymap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// Config is the keymap.json override file. Bindings maps a binding name to
// the keys that trigger it; an empty list disables the binding.
//
//	{"bindings": {"refresh": ["r", "ctrl+r"], "theme": []}}
type Config struct {
	Bindings map[string][]string `json:"bindings"`
}

// ConfigPath returns the path to the keymap config file
func ConfigPath(configDir string) string {
	return filepath.Join(configDir, "keymap.json")
}

// LoadConfig reads path. A missing file is an empty config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{Bindings: map[string][]string{}}, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if cfg.Bindings == nil {
		cfg.Bindings = map[string][]string{}
	}
	return &cfg, nil
}

// SaveConfig writes cfg to path, creating its directory.
func SaveConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// byName maps config names to the bindings they override.
func (k *KeyMap) byName() map[string]*key.Binding {
	return map[string]*key.Binding{
		"quit":        &k.Quit,
		"help":        &k.Help,
		"theme":       &k.Theme,
		"next-panel":  &k.NextPanel,
		"prev-panel":  &k.PrevPanel,
		"down":        &k.Down,
		"up":          &k.Up,
		"top":         &k.Top,
		"bottom":      &k.Bottom,
		"open":        &k.Open,
		"refresh":     &k.Refresh,
		"close":       &k.Close,
		"scroll-down": &k.ScrollDown,
		"scroll-up":   &k.ScrollUp,
	}
}

// Names lists the binding names keymap.json accepts.
func (k *KeyMap) Names() []string {
	names := make([]string, 0, 16)
	for n := range k.byName() {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Apply overrides bindings from cfg. Unknown names are reported together
// after every known one has been applied.
func (k *KeyMap) Apply(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	named := k.byName()
	var unknown []string
	for name, keys := range cfg.Bindings {
		b, ok := named[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		if len(keys) == 0 {
			b.SetEnabled(false)
			continue
		}
		b.SetKeys(keys...)
		b.SetHelp(strings.Join(keys, "/"), b.Help().Desc)
		b.SetEnabled(true)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown bindings %s (valid: %s)", strings.Join(unknown, ", "), strings.Join(k.Names(), ", "))
	}
	return nil
}

// ExampleConfig is what --write-keymap saves.
func ExampleConfig() *Config {
	return &Config{
		Bindings: map[string][]string{
			"refresh": {"r", "ctrl+r"},
			"quit":    {"q", "ctrl+q"},
			"close":   {"esc", "backspace"},
		},
	}
}
