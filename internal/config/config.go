// Package config loads application configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration values. It is read once at process
// start and handed to the components that need it.
type Config struct {
	Env             string // environment mode (e.g. "development", "production"); informational only
	ServiceName     string // name attached to every log record
	Port            string // HTTP port to listen on
	LogLevel        string // debug, info, warn or error
	LogFormat       string // json or pretty
	BodyLimit       string // maximum request body size, echo notation ("1M", "512K")
	ShutdownTimeout time.Duration
	Cache           CacheConfig
	Redis           RedisConfig
}

// Addr is the listen address derived from Port.
func (c Config) Addr() string {
	return ":" + c.Port
}

// Load reads an optional .env file from the working directory and then
// resolves every setting from the environment, falling back to defaults.
// Variables already present in the environment win over the .env file.
func Load() (Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an
// error.
func LoadFile(path string) (Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", path, err)
	}
	return fromViper(newViper()), nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	// APP_ENV is the native name; PYTHON_ENV is still honoured for
	// deployments that predate the rename.
	_ = v.BindEnv("app_env", "APP_ENV", "PYTHON_ENV")

	v.SetDefault("app_env", "development")
	v.SetDefault("service_name", "message-service")
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("body_limit", "1M")
	v.SetDefault("shutdown_timeout", "10s")

	v.SetDefault("cache_enabled", "false")
	v.SetDefault("cache_methods", "POST")
	v.SetDefault("cache_ttl", "5m")
	v.SetDefault("cache_key_strategy", KeyMethodRouteBody)
	v.SetDefault("cache_prefix", "cache")
	v.SetDefault("cache_max_body_bytes", "1048576")

	v.SetDefault("redis_db", "0")
	v.SetDefault("redis_tls", "false")
	return v
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Env:             v.GetString("app_env"),
		ServiceName:     v.GetString("service_name"),
		Port:            v.GetString("port"),
		LogLevel:        strings.ToLower(v.GetString("log_level")),
		LogFormat:       strings.ToLower(v.GetString("log_format")),
		BodyLimit:       v.GetString("body_limit"),
		ShutdownTimeout: durOr(v.GetString("shutdown_timeout"), 10*time.Second),
		Cache:           loadCacheConfig(v),
		Redis:           loadRedisConfig(v),
	}
}

// Helpers below never fail: malformed values fall back to the default.

func durOr(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func intOr(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

func boolOr(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}
