// Package config loads proxysheet's TOML configuration file.
//
// The file lives at $XDG_CONFIG_HOME/proxysheet/config.toml (falling back to
// ~/.config/proxysheet/config.toml). Every key is optional:
//
//	[export]
//	page_size      = 18
//	max_bytes      = 26214400
//	policy         = "best-effort"   # or "strict"
//	border_size    = 37.5
//	corner_radius  = 46
//	universal_back = "~/proxies/back.png"
//	output_dir     = "sheets"
//	marker         = "my-deck"       # QR label in the top margin; empty disables
//
//	[scryfall]
//	base_url   = "https://api.scryfall.com"
//	user_agent = "my-proxies/1.0"
//	image_size = "large"             # large, normal, small or png
//
//	[cache]
//	backend   = "file"               # file, sqlite, redis or none
//	dir       = "~/.cache/proxysheet"
//	ttl       = "24h"
//	redis_url = "redis://localhost:6379/0"
//
//	[server]
//	addr           = ":8080"
//	max_body_bytes = 67108864
//	max_concurrent = 2               # sheet requests composed at once
package config

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/proxysheet/pkg/errors"
	"github.com/matzehuels/proxysheet/pkg/integrations/scryfall"
	"github.com/matzehuels/proxysheet/pkg/sheet/encode"
	"github.com/matzehuels/proxysheet/pkg/sheet/raster"
)

const appName = "proxysheet"

// Defaults for values not covered by the packages they configure.
const (
	DefaultCacheTTL      = 24 * time.Hour
	DefaultAddr          = ":8080"
	DefaultMaxBodyBytes  = 64 << 20
	DefaultMaxConcurrent = 2
	DefaultOutputDir     = "."
)

// Config is the full configuration file.
type Config struct {
	Export   Export   `toml:"export"`
	Scryfall Scryfall `toml:"scryfall"`
	Cache    Cache    `toml:"cache"`
	Server   Server   `toml:"server"`
}

// Export configures sheet composition.
type Export struct {
	PageSize      int     `toml:"page_size"`
	MaxBytes      int64   `toml:"max_bytes"`
	Policy        string  `toml:"policy"`
	BorderSize    float64 `toml:"border_size"`
	CornerRadius  float64 `toml:"corner_radius"`
	UniversalBack string  `toml:"universal_back"`
	OutputDir     string  `toml:"output_dir"`
	Workers       int     `toml:"workers"`
	Marker        string  `toml:"marker"`
}

// Scryfall configures the card catalog client.
type Scryfall struct {
	BaseURL   string `toml:"base_url"`
	UserAgent string `toml:"user_agent"`
	ImageSize string `toml:"image_size"`
}

// Cache configures the card and image cache.
type Cache struct {
	Backend  string        `toml:"backend"`
	Dir      string        `toml:"dir"`
	TTL      time.Duration `toml:"ttl"`
	RedisURL string        `toml:"redis_url"`
}

// Cache backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// ResolvedBackend returns the backend to open. An empty backend means
// redis when a redis_url is set and file otherwise.
func (c Cache) ResolvedBackend() string {
	if c.Backend != "" {
		return c.Backend
	}
	if c.RedisURL != "" {
		return BackendRedis
	}
	return BackendFile
}

// Server configures the HTTP API.
type Server struct {
	Addr          string `toml:"addr"`
	MaxBodyBytes  int64  `toml:"max_body_bytes"`
	MaxConcurrent int    `toml:"max_concurrent"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	style := raster.DefaultStyle()
	return Config{
		Export: Export{
			MaxBytes:     encode.DefaultMaxBytes,
			Policy:       encode.BestEffort.String(),
			BorderSize:   style.BorderSize,
			CornerRadius: style.CornerRadius,
			OutputDir:    DefaultOutputDir,
		},
		Scryfall: Scryfall{
			BaseURL:   scryfall.DefaultBaseURL,
			ImageSize: string(scryfall.SizeLarge),
		},
		Cache: Cache{
			TTL: DefaultCacheTTL,
		},
		Server: Server{
			Addr:          DefaultAddr,
			MaxBodyBytes:  DefaultMaxBodyBytes,
			MaxConcurrent: DefaultMaxConcurrent,
		},
	}
}

// Path returns the default config file location.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the config file at path on top of [Default]. An empty path
// means [Path], and a missing default file is not an error. Unknown keys
// are rejected so that typos do not go unnoticed.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && stderrors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		if stderrors.Is(err, fs.ErrNotExist) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return cfg, errors.New(errors.ErrCodeInvalidInput, "config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	cfg.Export.UniversalBack = expandHome(cfg.Export.UniversalBack)
	cfg.Export.OutputDir = expandHome(cfg.Export.OutputDir)
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	return cfg, cfg.Validate()
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	if c.Export.PageSize < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "export.page_size must not be negative")
	}
	if c.Export.MaxBytes < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "export.max_bytes must not be negative")
	}
	if _, err := encode.ParsePolicy(c.Export.Policy); err != nil {
		return err
	}
	if c.Export.BorderSize < 0 || c.Export.CornerRadius < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "export border values must not be negative")
	}
	if _, ok := scryfall.ParseSize(c.Scryfall.ImageSize); !ok {
		return errors.New(errors.ErrCodeInvalidInput, "scryfall.image_size %q is not one of large, normal, small, png", c.Scryfall.ImageSize)
	}
	if c.Scryfall.BaseURL != "" {
		if err := errors.ValidateURL(c.Scryfall.BaseURL); err != nil {
			return err
		}
	}
	switch c.Cache.Backend {
	case "", BackendFile, BackendSQLite, BackendNone:
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache.backend redis requires cache.redis_url")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "cache.backend %q is not one of file, sqlite, redis, none", c.Cache.Backend)
	}
	if c.Server.MaxBodyBytes < 0 || c.Server.MaxConcurrent < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "server limits must not be negative")
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache.ttl must not be negative")
	}
	return nil
}

// Style returns the configured border style.
func (c Config) Style() raster.Style {
	s := raster.DefaultStyle()
	s.BorderSize = c.Export.BorderSize
	s.CornerRadius = c.Export.CornerRadius
	return s
}

func expandHome(p string) string {
	rest, ok := strings.CutPrefix(p, "~/")
	if !ok {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, rest)
}
