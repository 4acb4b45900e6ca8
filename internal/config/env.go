package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override file values.
const (
	EnvDB         = "UMEED_DB"
	EnvWhisperURL = "UMEED_WHISPER_URL"
	EnvLogLevel   = "UMEED_LOG_LEVEL"
	EnvConfig     = "UMEED_CONFIG"
)

// LoadDotEnv loads .env files into the process environment. Missing files are
// skipped and variables already set are left alone.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// ApplyEnv overlays environment overrides onto cfg. getenv is usually os.Getenv.
func ApplyEnv(cfg *FileConfig, getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	set := func(target **string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*target = &v
		}
	}
	set(&cfg.Store.Path, EnvDB)
	set(&cfg.Transcribe.URL, EnvWhisperURL)
	set(&cfg.Log.Level, EnvLogLevel)
}

// ConfigPath returns UMEED_CONFIG when set, else the XDG default.
func ConfigPath(getenv func(string) string) string {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(EnvConfig)); v != "" {
		return v
	}
	return DefaultConfigPath()
}
