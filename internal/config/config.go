// Package config loads process configuration from the environment, after an
// optional .env file. The result is validated once and never changes.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	LogLevel string
	Backend  BackendConfig
	Cache    CacheConfig
	Format   FormatConfig
	Server   ServerConfig
}

type BackendConfig struct {
	URL        string        `validate:"required,url"`
	APIKey     string        `validate:"-"`
	Timeout    time.Duration `validate:"gt=0"`
	MaxRetries int           `validate:"gte=0,lte=10"`
}

type CacheConfig struct {
	Enabled bool
	MaxSize int           `validate:"required_if=Enabled true,gte=0"`
	TTL     time.Duration `validate:"required_if=Enabled true,gte=0"`
	// Remote is the shared tier behind the in-memory cache: none or redis.
	Remote    string `validate:"oneof=none redis"`
	RedisAddr string `validate:"omitempty,hostname_port"`
	Prefix    string
}

type FormatConfig struct {
	// CharacterLimit of 0 disables truncation.
	CharacterLimit int `validate:"gte=0"`
}

type ServerConfig struct {
	// OpsAddr serves health, metrics and cache stats; empty disables it.
	OpsAddr     string        `validate:"omitempty,hostname_port"`
	ToolTimeout time.Duration `validate:"gt=0"`
}

// Load reads the environment. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.LookupEnv)
}

// FromEnv builds and validates a Config from lookup.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	r := reader{lookup: lookup}

	cfg := &Config{
		Env:      r.str("ENV", "production"),
		LogLevel: r.str("LOG_LEVEL", "info"),
		Backend: BackendConfig{
			URL:        strings.TrimRight(r.str("COGEX_BACKEND_URL", "https://discovery.indra.bio"), "/"),
			APIKey:     r.str("COGEX_API_KEY", ""),
			Timeout:    r.duration("BACKEND_TIMEOUT", 30*time.Second),
			MaxRetries: r.integer("BACKEND_MAX_RETRIES", 2),
		},
		Cache: CacheConfig{
			Enabled:   r.boolean("CACHE_ENABLED", true),
			MaxSize:   r.integer("CACHE_MAX_SIZE", 1000),
			TTL:       time.Duration(r.integer("CACHE_TTL_SECONDS", 3600)) * time.Second,
			Remote:    strings.ToLower(r.str("CACHE_REMOTE", "none")),
			RedisAddr: r.str("REDIS_ADDR", "127.0.0.1:6379"),
			Prefix:    r.str("CACHE_PREFIX", "cogex"),
		},
		Format: FormatConfig{
			CharacterLimit: r.integer("CHARACTER_LIMIT", 25000),
		},
		Server: ServerConfig{
			OpsAddr:     r.optional("OPS_ADDR", ":9090"),
			ToolTimeout: r.duration("TOOL_TIMEOUT", 60*time.Second),
		},
	}

	if len(r.errs) > 0 {
		return nil, errors.Newf("config: invalid environment: %s", strings.Join(r.errs, "; "))
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return errors.Wrap(err, "config validation failed")
	}
	return nil
}

// reader collects parse errors instead of silently falling back to defaults.
type reader struct {
	lookup func(string) (string, bool)
	errs   []string
}

func (r *reader) raw(key string) (string, bool) {
	v, ok := r.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// optional is str for settings where a present but empty value means off.
func (r *reader) optional(key, def string) string {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	return strings.TrimSpace(v)
}

func (r *reader) str(key, def string) string {
	if v, ok := r.raw(key); ok {
		return v
	}
	return def
}

func (r *reader) integer(key string, def int) int {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func (r *reader) boolean(key string, def bool) bool {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %q is not a boolean", key, v))
		return def
	}
	return b
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %q is not a duration", key, v))
		return def
	}
	return d
}
