// Package config loads flowview settings.
//
// Settings come from three places, later ones winning:
//
//  1. built-in defaults ([Default])
//  2. a TOML file, $XDG_CONFIG_HOME/flowview/config.toml unless a path is given
//  3. FLOWVIEW_* environment variables, after loading a .env file from the
//     working directory if one exists
//
// A missing default file is not an error; a missing explicit file is.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/flowview/pkg/errors"
	"github.com/matzehuels/flowview/pkg/model"
)

const appName = "flowview"

// Cache backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Layout engines.
const (
	EngineLayered  = "layered"
	EngineGraphviz = "graphviz"
)

// Config is the complete flowview configuration.
type Config struct {
	Viewer ViewerConfig `toml:"viewer"`
	Layout LayoutConfig `toml:"layout"`
	Model  model.Config `toml:"model"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// ViewerConfig sizes the main surface and the minimap.
type ViewerConfig struct {
	Width        float64  `toml:"width"`
	Height       float64  `toml:"height"`
	Scale        string   `toml:"scale"`
	MinimapScale float64  `toml:"minimap_scale"`
	SettleDelay  Duration `toml:"settle_delay"`
}

// LayoutConfig selects the layout engine.
type LayoutConfig struct {
	Engine         string  `toml:"engine"`
	NodeSeparation float64 `toml:"node_separation"`
	RankSeparation float64 `toml:"rank_separation"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	Entries       int      `toml:"entries"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	Prefix        string   `toml:"prefix"`
	TTL           Duration `toml:"ttl"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
	MaxBodyBytes int64    `toml:"max_body_bytes"`
}

// Duration is a time.Duration written as a string such as "1s" or "168h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Viewer: ViewerConfig{
			Width:        1024,
			Height:       768,
			Scale:        "auto",
			MinimapScale: 0.3,
			SettleDelay:  Duration{time.Second},
		},
		Layout: LayoutConfig{
			Engine:         EngineLayered,
			NodeSeparation: 30,
			RankSeparation: 60,
		},
		Model: model.DefaultConfig(),
		Cache: CacheConfig{
			Backend:   BackendFile,
			Entries:   512,
			RedisAddr: "localhost:6379",
			Prefix:    appName,
			TTL:       Duration{7 * 24 * time.Hour},
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  Duration{30 * time.Second},
			WriteTimeout: Duration{60 * time.Second},
			MaxBodyBytes: 4 << 20,
		},
	}
}

// Dir returns the configuration directory ($XDG_CONFIG_HOME/flowview).
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, appName)
}

// Path returns the default configuration file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// CacheDir returns the file cache directory ($XDG_CACHE_HOME/flowview).
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Load reads the configuration. An empty path means the default file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = Path()
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		switch {
		case os.IsNotExist(err) && !explicit:
		case os.IsNotExist(err):
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		default:
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated and numeric settings.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case BackendFile, BackendMemory, BackendRedis, BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q (must be one of: file, memory, redis, none)", c.Cache.Backend)
	}
	switch c.Layout.Engine {
	case EngineLayered, EngineGraphviz:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown layout engine %q (must be one of: layered, graphviz)", c.Layout.Engine)
	}
	if c.Viewer.Width <= 0 || c.Viewer.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "viewer size must be positive, got %gx%g", c.Viewer.Width, c.Viewer.Height)
	}
	if c.Viewer.MinimapScale <= 0 || c.Viewer.MinimapScale > 1 {
		return errors.New(errors.ErrCodeInvalidInput, "minimap_scale must be in (0, 1], got %g", c.Viewer.MinimapScale)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	var firstErr error
	fail := func(key string, err error) {
		if firstErr == nil {
			firstErr = errors.Wrap(errors.ErrCodeInvalidInput, err, "FLOWVIEW_%s", key)
		}
	}
	str := func(key string, dst *string) {
		if v, ok := lookup("FLOWVIEW_" + key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *float64) {
		v, ok := lookup("FLOWVIEW_" + key)
		if !ok || v == "" {
			return
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			fail(key, err)
			return
		}
		*dst = f
	}
	integer := func(key string, dst *int) {
		v, ok := lookup("FLOWVIEW_" + key)
		if !ok || v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			fail(key, err)
			return
		}
		*dst = n
	}
	dur := func(key string, dst *Duration) {
		v, ok := lookup("FLOWVIEW_" + key)
		if !ok || v == "" {
			return
		}
		if err := dst.UnmarshalText([]byte(v)); err != nil {
			fail(key, err)
		}
	}

	num("WIDTH", &c.Viewer.Width)
	num("HEIGHT", &c.Viewer.Height)
	str("SCALE", &c.Viewer.Scale)
	num("MINIMAP_SCALE", &c.Viewer.MinimapScale)
	dur("SETTLE_DELAY", &c.Viewer.SettleDelay)
	str("ENGINE", &c.Layout.Engine)
	str("CACHE_BACKEND", &c.Cache.Backend)
	str("CACHE_DIR", &c.Cache.Dir)
	integer("CACHE_ENTRIES", &c.Cache.Entries)
	str("REDIS_ADDR", &c.Cache.RedisAddr)
	str("REDIS_PASSWORD", &c.Cache.RedisPassword)
	integer("REDIS_DB", &c.Cache.RedisDB)
	dur("CACHE_TTL", &c.Cache.TTL)
	str("SERVER_ADDR", &c.Server.Addr)

	c.Cache.Backend = strings.ToLower(c.Cache.Backend)
	c.Layout.Engine = strings.ToLower(c.Layout.Engine)
	return firstErr
}

// String renders the configuration as TOML.
func (c *Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return b.String()
}
