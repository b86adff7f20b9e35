// Package config provides layered configuration for qrdeck.
//
// Values are resolved in order: built-in defaults, the YAML config file,
// then QRDECK_* environment variables. A .env file in the working
// directory is loaded into the environment first.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/qrdeck/qrdeck/internal/validate"
)

const (
	// AppName is the directory name under the XDG config home.
	AppName = "qrdeck"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "QRDECK_"
	// ConfigPathEnvVar overrides the config file location.
	ConfigPathEnvVar = "QRDECK_CONFIG"
	// DatabaseEnvVar overrides storage.path; ":memory:" selects in-memory mode.
	DatabaseEnvVar = "QRDECK_DATABASE"
	// DefaultEnvFile is loaded from the working directory when present.
	DefaultEnvFile = ".env"
)

// Config is the effective qrdeck configuration.
type Config struct {
	Backend       BackendConfig       `koanf:"backend"`
	Identity      IdentityConfig      `koanf:"identity"`
	Customization CustomizationConfig `koanf:"customization"`
	Storage       StorageConfig       `koanf:"storage"`
	QR            QRConfig            `koanf:"qr"`
	Server        ServerConfig        `koanf:"server"`

	// Source is the config file that was read, empty when none was.
	Source string `koanf:"-"`
}

// BackendConfig configures the project service client.
type BackendConfig struct {
	URL     string        `koanf:"url" validate:"required,http_url"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
	Breaker BreakerConfig `koanf:"breaker"`
}

// BreakerConfig configures the client circuit breaker.
type BreakerConfig struct {
	MaxFailures uint32        `koanf:"max_failures" validate:"min=1"`
	OpenTimeout time.Duration `koanf:"open_timeout" validate:"gt=0"`
}

// IdentityConfig selects how project keys resolve.
type IdentityConfig struct {
	Strategy string `koanf:"strategy" validate:"oneof=explicit derived"`
}

// CustomizationConfig selects where colors are stored.
type CustomizationConfig struct {
	Mode string `koanf:"mode" validate:"oneof=server local"`
}

// StorageConfig configures the local store.
type StorageConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// QRConfig configures rendering.
type QRConfig struct {
	Size int    `koanf:"size" validate:"min=64,max=2048"`
	Mode string `koanf:"mode" validate:"oneof=tracked direct"`
}

// ServerConfig configures the reference backend.
type ServerConfig struct {
	Addr               string `koanf:"addr" validate:"required"`
	PublicURL          string `koanf:"public_url" validate:"omitempty,http_url"`
	TrackRatePerMinute int    `koanf:"track_rate_per_minute" validate:"min=1"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:     "https://legendbackend.onrender.com",
			Timeout: 10 * time.Second,
			Breaker: BreakerConfig{
				MaxFailures: 5,
				OpenTimeout: 30 * time.Second,
			},
		},
		Identity:      IdentityConfig{Strategy: "explicit"},
		Customization: CustomizationConfig{Mode: "server"},
		Storage: StorageConfig{
			Path: filepath.Join(xdg.DataHome, AppName, "db"),
		},
		QR: QRConfig{
			Size: 256,
			Mode: "tracked",
		},
		Server: ServerConfig{
			Addr:               ":8080",
			TrackRatePerMinute: 60,
		},
	}
}

// Options controls where Load looks.
type Options struct {
	// File is an explicit config file; it must exist.
	File string
	// EnvFile is a dotenv file; missing files are ignored.
	EnvFile string
}

// Load resolves the configuration.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path, err := findConfigFile(opts.File)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Source = path
	cfg.applyDatabaseOverride()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultFile returns the config file location under the XDG config home.
func DefaultFile() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

func findConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("config file %s (from %s): %w", envPath, ConfigPathEnvVar, err)
		}
		return envPath, nil
	}
	if path := DefaultFile(); fileExists(path) {
		return path, nil
	}
	return "", nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// envTransformFunc maps QRDECK_BACKEND__BREAKER__MAX_FAILURES to
// backend.breaker.max_failures. Variables handled elsewhere are dropped.
func envTransformFunc(key string) string {
	switch key {
	case ConfigPathEnvVar, DatabaseEnvVar:
		return ""
	}
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// applyDatabaseOverride honours QRDECK_DATABASE the way the CLI always has.
func (c *Config) applyDatabaseOverride() {
	db := os.Getenv(DatabaseEnvVar)
	switch db {
	case "":
	case ":memory:":
		c.Storage.InMemory = true
	default:
		c.Storage.Path = db
	}
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Flatten returns the configuration as dotted keys, for display.
func (c *Config) Flatten() map[string]any {
	k := koanf.New(".")
	_ = k.Load(structs.Provider(c, "koanf"), nil)
	return k.All()
}

// Keys returns the dotted keys of Flatten in sorted order.
func (c *Config) Keys() []string {
	flat := c.Flatten()
	keys := make([]string, 0, len(flat))
	for key := range flat {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
