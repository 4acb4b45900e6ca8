// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Assess     AssessConfig     `toml:"assess"`
	Progress   ProgressConfig   `toml:"progress"`
	Practice   PracticeConfig   `toml:"practice"`
	Store      StoreConfig      `toml:"store"`
	Transcribe TranscribeConfig `toml:"transcribe"`
	Catalog    CatalogConfig    `toml:"catalog"`
	Log        LogConfig        `toml:"log"`
}

// AssessConfig maps scoring settings.
type AssessConfig struct {
	ReadingLevel           *int     `toml:"reading-level"`
	TargetWPM              *float64 `toml:"target-wpm"`
	PronunciationThreshold *float64 `toml:"pronunciation-threshold"`
	Corrections            *int     `toml:"corrections"`
}

// ProgressConfig maps history window settings.
type ProgressConfig struct {
	Last        *int `toml:"last"`
	CurveWindow *int `toml:"curve-window"`
	FocusTop    *int `toml:"focus-top"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	WordList   *string  `toml:"wordlist"`
	Words      *int     `toml:"words"`
	WeakFactor *float64 `toml:"weak-factor"`
}

// StoreConfig maps database settings.
type StoreConfig struct {
	Path *string `toml:"path"`
}

// TranscribeConfig maps speech-to-text settings.
type TranscribeConfig struct {
	URL      *string `toml:"url"`
	Model    *string `toml:"model"`
	Language *string `toml:"language"`
	Timeout  *string `toml:"timeout"`
}

// TimeoutDuration parses Timeout. Unset yields zero.
func (t TranscribeConfig) TimeoutDuration() (time.Duration, error) {
	if t.Timeout == nil || strings.TrimSpace(*t.Timeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(*t.Timeout))
	if err != nil {
		return 0, fmt.Errorf("invalid transcribe timeout: %w", err)
	}
	return d, nil
}

// CatalogConfig points at a custom phonics catalog.
type CatalogConfig struct {
	Path *string `toml:"path"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an
// error; unknown keys are.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return FileConfig{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}
