package services

import (
	"log/slog"
	"net/http"

	"linkgate/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewConfiguredLocator builds the provider chain from cfg: the local MaxMind
// database when one is configured, then the primary and secondary HTTP
// services. rdb may be nil; the cache is used only with a positive
// GEO_CACHE_TTL. The returned MaxMindProvider is nil when disabled and still
// needs Init.
func NewConfiguredLocator(cfg config.Config, logger *slog.Logger, rdb *redis.Client) (*GeoLocator, *MaxMindProvider) {
	client := &http.Client{Timeout: cfg.GeoTimeout}

	var providers []GeoProvider
	var maxmind *MaxMindProvider
	if mm := NewMaxMindProvider(cfg, logger); mm.Enabled() {
		maxmind = mm
		providers = append(providers, mm)
	}
	if cfg.GeoPrimaryURL != "" {
		providers = append(providers, NewIPAPIProvider(client, cfg.GeoPrimaryURL))
	}
	if cfg.GeoSecondaryURL != "" {
		providers = append(providers, NewIPAPIComProvider(client, cfg.GeoSecondaryURL))
	}

	var cache GeoCache
	if rdb != nil && cfg.GeoCacheTTL > 0 {
		cache = NewRedisGeoCache(rdb, cfg.GeoCacheTTL, logger)
	}

	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	logger.Info("GeoIP: provider chain configured", "providers", names, "cache", cache != nil)

	return NewGeoLocator(logger, cfg.GeoTimeout, cache, providers...), maxmind
}
