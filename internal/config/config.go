// Package config persists per-directory user settings in .byot/config.json.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/marcus/byot/internal/features"
)

const (
	Dir        = ".byot"
	configFile = ".byot/config.json"
	lockFile   = ".byot/config.json.lock"

	// DefaultPresetDB is the preset database path relative to the base dir.
	DefaultPresetDB = ".byot/presets.db"
	// DefaultOutput is where the configurator writes code by default.
	DefaultOutput = "treap.cpp"
)

// Settings is the on-disk user configuration.
type Settings struct {
	// LastConfig is the configuration the configurator last settled on.
	LastConfig *features.Config `json:"last_config,omitempty"`
	// Indent, when set, is the tab_char choice new sessions start with.
	Indent string `json:"indent,omitempty"`
	// PresetDB overrides the preset database path.
	PresetDB string `json:"preset_db,omitempty"`
	// Catalog points at a custom catalog file.
	Catalog string `json:"catalog,omitempty"`
	// Output is the default file for written code.
	Output string `json:"output,omitempty"`
}

// Load reads the settings from disk. A missing file yields empty settings.
func Load(baseDir string) (*Settings, error) {
	configPath := filepath.Join(baseDir, configFile)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &Settings{}, nil
		}
		return nil, errors.Wrap(err, "read settings")
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrapf(err, "parse %s", configPath)
	}
	return &s, nil
}

// Save writes the settings to disk using atomic write (temp file + rename)
func Save(baseDir string, s *Settings) error {
	configPath := filepath.Join(baseDir, configFile)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "config-*.json.tmp")
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

	return os.Rename(tmpName, configPath)
}

// withConfigLock serializes read-modify-write cycles on config.json across
// processes.
func withConfigLock(baseDir string, fn func() error) error {
	lockPath := filepath.Join(baseDir, lockFile)

	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := lock(f); err != nil {
		return errors.Wrap(err, "lock settings")
	}
	defer unlock(f)

	return fn()
}

// Update loads the settings, applies fn and saves the result under the
// settings lock.
func Update(baseDir string, fn func(*Settings) error) error {
	return withConfigLock(baseDir, func() error {
		s, err := Load(baseDir)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
		return Save(baseDir, s)
	})
}

// SetLastConfig remembers cfg as the last configurator state.
func SetLastConfig(baseDir string, cfg features.Config) error {
	return Update(baseDir, func(s *Settings) error {
		c := cfg.Clone()
		s.LastConfig = &c
		return nil
	})
}

// GetLastConfig returns the last configurator state, if any.
func GetLastConfig(baseDir string) (features.Config, bool, error) {
	s, err := Load(baseDir)
	if err != nil {
		return features.Config{}, false, err
	}
	if s.LastConfig == nil {
		return features.Config{}, false, nil
	}
	return *s.LastConfig, true, nil
}

// SetIndent stores the default tab_char choice.
func SetIndent(baseDir, indent string) error {
	return Update(baseDir, func(s *Settings) error {
		s.Indent = indent
		return nil
	})
}

// PresetDBPath returns the preset database path for baseDir.
func PresetDBPath(baseDir string) (string, error) {
	s, err := Load(baseDir)
	if err != nil {
		return filepath.Join(baseDir, DefaultPresetDB), err
	}
	if s.PresetDB == "" {
		return filepath.Join(baseDir, DefaultPresetDB), nil
	}
	if filepath.IsAbs(s.PresetDB) {
		return s.PresetDB, nil
	}
	return filepath.Join(baseDir, s.PresetDB), nil
}

// OutputPath returns the default output file for baseDir.
func OutputPath(baseDir string) string {
	s, err := Load(baseDir)
	if err != nil || s.Output == "" {
		return filepath.Join(baseDir, DefaultOutput)
	}
	if filepath.IsAbs(s.Output) {
		return s.Output
	}
	return filepath.Join(baseDir, s.Output)
}
