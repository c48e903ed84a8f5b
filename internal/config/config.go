// Package config loads and exposes application configuration (TOML).
package config

import (
	"fmt"
	"maps"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath       = "config.toml"
	DefaultHTTPAddr         = ":8080"
	DefaultJWTExpiresIn     = "24h"
	DefaultPGHost           = "127.0.0.1"
	DefaultPGPort           = 5432
	DefaultPGUser           = "postgres"
	DefaultPGDatabase       = "mediabridge"
	DefaultPGSSLMode        = "disable"
	DefaultStorageRoot      = "data/uploads"
	DefaultPublicBaseURL    = "/uploads/"
	DefaultDownloadTimeout  = 30 * time.Second
	DefaultDownloadMaxBytes = 64 << 20
	DefaultMaxRedirects     = 3
	DefaultUserAgent        = "mediabridge/1.0"
)

// DefaultMimeExtensions is the MIME allow-list used to pick an extension when
// the source URL carries none.
var DefaultMimeExtensions = map[string]string{
	"text/plain":         "txt",
	"text/csv":           "csv",
	"application/msword": "doc",
	"image/jpg":          "jpg",
	"image/jpeg":         "jpeg",
	"image/gif":          "gif",
	"image/png":          "png",
	"video/mp4":          "mp4",
}

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	Auth     AuthConfig     `toml:"auth"`
	Postgres PostgresConfig `toml:"postgres"`
	Storage  StorageConfig  `toml:"storage"`
	Download DownloadConfig `toml:"download"`
	Media    MediaConfig    `toml:"media"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP server listen address.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// AuthConfig holds JWT secret and token expiry (e.g. 24h).
type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host     string `toml:"host" validate:"required"`
	Port     int    `toml:"port" validate:"min=1,max=65535"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database" validate:"required"`
	SSLMode  string `toml:"sslmode"`
}

// StorageConfig holds the local media root and the public URL prefix that maps onto it.
type StorageConfig struct {
	Root          string `toml:"root" validate:"required"`
	PublicBaseURL string `toml:"public_base_url"`
	TempDir       string `toml:"temp_dir"`
}

// DownloadConfig bounds remote fetches.
type DownloadConfig struct {
	Timeout      Duration `toml:"timeout"`
	MaxBytes     int64    `toml:"max_bytes" validate:"min=0"`
	MaxRedirects int      `toml:"max_redirects" validate:"min=0"`
	UserAgent    string   `toml:"user_agent"`
}

// MediaConfig holds the MIME -> extension allow-list.
type MediaConfig struct {
	MimeExtensions map[string]string `toml:"mime_extensions"`
}

// Duration decodes TOML strings such as "30s" into a time.Duration.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// Load reads and parses the TOML config file at path and applies default values for missing fields.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpiresIn,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Storage: StorageConfig{
			Root:          DefaultStorageRoot,
			PublicBaseURL: DefaultPublicBaseURL,
		},
		Download: DownloadConfig{
			Timeout:      Duration{DefaultDownloadTimeout},
			MaxBytes:     DefaultDownloadMaxBytes,
			MaxRedirects: DefaultMaxRedirects,
			UserAgent:    DefaultUserAgent,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return cfg, err
		}
	} else if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	if len(cfg.Media.MimeExtensions) == 0 {
		cfg.Media.MimeExtensions = maps.Clone(DefaultMimeExtensions)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
