package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

// DefaultReceiveBase is the high-bank offset of the router receive buffer.
const DefaultReceiveBase = 0x8000

// SettingsFile is looked up in the working directory when --config is not given.
const SettingsFile = "neurasm.toml"

// Settings are tool defaults read from neurasm.toml. Command-line flags
// take precedence over every field.
type Settings struct {
	OutputDir   string `toml:"output_dir"`
	Manifest    string `toml:"manifest"`
	ReceiveBase int64  `toml:"receive_base"`
	Jobs        int    `toml:"jobs"`
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		OutputDir:   "out",
		ReceiveBase: DefaultReceiveBase,
		Jobs:        1,
	}
}

// LoadSettings reads a settings file over the defaults. A missing file is
// not an error when optional is set.
func LoadSettings(path string, optional bool) (Settings, error) {
	s := DefaultSettings()
	buff, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("reading settings: %w", err)
	}
	if err := toml.Unmarshal(buff, &s); err != nil {
		return s, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	if s.Jobs < 1 {
		s.Jobs = 1
	}
	if s.ReceiveBase == 0 {
		s.ReceiveBase = DefaultReceiveBase
	}
	return s, nil
}
