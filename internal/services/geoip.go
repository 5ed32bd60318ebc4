package services

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

const DefaultGeoTimeout = 5 * time.Second

type Location struct {
	Country string `json:"country"`
	City    string `json:"city"`
}

var (
	localLocation   = Location{Country: "Local", City: "Local"}
	unknownLocation = Location{Country: Unknown, City: Unknown}
)

// Locator resolves a client IP to a coarse location. Implementations never
// fail; lookups that cannot be answered return Unknown.
type Locator interface {
	Locate(ctx context.Context, ip string) Location
}

// GeoProvider is one lookup backend in the fallback chain.
type GeoProvider interface {
	Name() string
	Lookup(ctx context.Context, ip string) (Location, error)
}

// GeoCache stores successful lookups keyed by IP.
type GeoCache interface {
	Get(ctx context.Context, ip string) (Location, bool)
	Set(ctx context.Context, ip string, loc Location)
}

type GeoLocator struct {
	logger    *slog.Logger
	providers []GeoProvider
	timeout   time.Duration
	cache     GeoCache
}

// NewGeoLocator queries providers in order, each call bounded by timeout.
// cache may be nil.
func NewGeoLocator(logger *slog.Logger, timeout time.Duration, cache GeoCache, providers ...GeoProvider) *GeoLocator {
	if timeout <= 0 {
		timeout = DefaultGeoTimeout
	}
	return &GeoLocator{
		logger:    logger,
		providers: providers,
		timeout:   timeout,
		cache:     cache,
	}
}

func IsLocalAddress(ip string) bool {
	switch ip {
	case "", "127.0.0.1", "::1", "localhost":
		return true
	}
	return false
}

func (g *GeoLocator) Locate(ctx context.Context, ip string) Location {
	ip = strings.TrimSpace(ip)
	if IsLocalAddress(ip) {
		return localLocation
	}

	if g.cache != nil {
		if loc, ok := g.cache.Get(ctx, ip); ok {
			return loc
		}
	}

	for _, p := range g.providers {
		loc, err := g.lookup(ctx, p, ip)
		if err != nil {
			g.logger.Debug("GeoIP: provider failed", "provider", p.Name(), "ip", ip, "error", err)
			continue
		}
		if g.cache != nil {
			g.cache.Set(ctx, ip, loc)
		}
		return loc
	}

	return unknownLocation
}

func (g *GeoLocator) lookup(ctx context.Context, p GeoProvider, ip string) (loc Location, err error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("GeoIP: provider panicked", "provider", p.Name(), "panic", r)
			err = errProviderPanic
		}
	}()

	loc, err = p.Lookup(ctx, ip)
	if err != nil {
		return Location{}, err
	}
	return normalizeLocation(loc), nil
}

func normalizeLocation(loc Location) Location {
	return Location{
		Country: orUnknown(truncate(strings.TrimSpace(loc.Country), maxAnalyticsFieldLen)),
		City:    orUnknown(truncate(strings.TrimSpace(loc.City), maxAnalyticsFieldLen)),
	}
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
