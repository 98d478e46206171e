// Package config loads application settings from viper, the environment and .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-insights/internal/common"
	"github.com/Veraticus/spice-insights/internal/llm"
)

// Configuration keys.
const (
	KeyGeminiAPIKey   = "gemini.api_key"
	KeyGeminiEndpoint = "gemini.endpoint"
	KeyGeminiTimeout  = "gemini.timeout"
	KeyGeminiRPM      = "gemini.requests_per_minute"
	KeyDatabasePath   = "database.path"
	KeyLogLevel       = "logging.level"
	KeyLogFormat      = "logging.format"
	KeyRetries        = "analysis.retries"
)

// EnvPrefix namespaces environment overrides (INSIGHTS_DATABASE_PATH, ...).
const EnvPrefix = "INSIGHTS"

// DefaultDatabasePath is where analyses are archived unless configured.
const DefaultDatabasePath = "~/.local/share/insights/insights.db"

// Settings is the resolved, immutable configuration handed to constructors.
type Settings struct {
	DatabasePath string
	LogLevel     string
	LogFormat    string
	Gemini       llm.Config
	Retries      int
}

// Configure sets defaults and environment bindings on v.
// GEMINI_API_KEY is honored alongside INSIGHTS_GEMINI_API_KEY.
func Configure(v *viper.Viper) {
	v.SetDefault(KeyGeminiEndpoint, llm.DefaultEndpoint)
	v.SetDefault(KeyGeminiTimeout, llm.DefaultTimeout)
	v.SetDefault(KeyGeminiRPM, 0)
	v.SetDefault(KeyDatabasePath, DefaultDatabasePath)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyRetries, 0)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv(KeyGeminiAPIKey, EnvPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY")
}

// Load resolves Settings from v. Configure must have been called first.
func Load(v *viper.Viper) (Settings, error) {
	timeout := v.GetDuration(KeyGeminiTimeout)
	if timeout < 0 {
		return Settings{}, fmt.Errorf("%w: %s must not be negative", common.ErrInvalidConfig, KeyGeminiTimeout)
	}

	retries := v.GetInt(KeyRetries)
	if retries < 0 {
		return Settings{}, fmt.Errorf("%w: %s must not be negative", common.ErrInvalidConfig, KeyRetries)
	}

	rpm := v.GetInt(KeyGeminiRPM)
	if rpm < 0 {
		return Settings{}, fmt.Errorf("%w: %s must not be negative", common.ErrInvalidConfig, KeyGeminiRPM)
	}

	dbPath := ExpandPath(v.GetString(KeyDatabasePath))
	if dbPath == "" {
		dbPath = ExpandPath(DefaultDatabasePath)
	}

	return Settings{
		Gemini: llm.Config{
			APIKey:            strings.TrimSpace(v.GetString(KeyGeminiAPIKey)),
			Endpoint:          v.GetString(KeyGeminiEndpoint),
			Timeout:           timeout,
			RequestsPerMinute: rpm,
		},
		DatabasePath: dbPath,
		LogLevel:     v.GetString(KeyLogLevel),
		LogFormat:    v.GetString(KeyLogFormat),
		Retries:      retries,
	}, nil
}

// LoadDotEnv loads variables from each existing .env file. Missing files are
// skipped and variables already in the environment win.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		path = ExpandPath(path)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// ExpandPath expands a leading ~ and $VAR references in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}

	return os.ExpandEnv(path)
}
