package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cache key strategies understood by the response cache middleware.
const (
	KeyRoute            = "route"
	KeyRouteQuery       = "route_query"
	KeyMethodRoute      = "method_route"
	KeyMethodRouteQuery = "method_route_query"
	KeyMethodRouteBody  = "method_route_body"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching is
// disabled. Methods lists the HTTP methods to cache; KeyStrategy selects
// which parts of the request contribute to the cache key.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

func loadCacheConfig(v *viper.Viper) CacheConfig {
	return CacheConfig{
		Enabled:      boolOr(v.GetString("cache_enabled"), false),
		Methods:      parseMethods(v.GetString("cache_methods")),
		TTL:          durOr(v.GetString("cache_ttl"), 5*time.Minute),
		KeyStrategy:  strings.ToLower(v.GetString("cache_key_strategy")),
		Prefix:       v.GetString("cache_prefix"),
		MaxBodyBytes: intOr(v.GetString("cache_max_body_bytes"), 1<<20),
	}
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
