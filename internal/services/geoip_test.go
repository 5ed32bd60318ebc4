package services

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"linkgate/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name  string
	loc   Location
	err   error
	calls atomic.Int32
	fn    func(ctx context.Context) (Location, error)
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Lookup(ctx context.Context, _ string) (Location, error) {
	p.calls.Add(1)
	if p.fn != nil {
		return p.fn(ctx)
	}
	return p.loc, p.err
}

func jsonServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestGeoLocator_LocalAddresses(t *testing.T) {
	p := &stubProvider{name: "stub", loc: Location{Country: "France", City: "Paris"}}
	g := NewGeoLocator(slog.Default(), time.Second, nil, p)

	for _, ip := range []string{"", "127.0.0.1", "::1", "localhost"} {
		assert.Equal(t, Location{Country: "Local", City: "Local"}, g.Locate(context.Background(), ip))
	}
	assert.Zero(t, p.calls.Load())
}

func TestGeoLocator_Chain(t *testing.T) {
	ctx := context.Background()

	t.Run("Primary answers", func(t *testing.T) {
		primary := &stubProvider{name: "a", loc: Location{Country: "United States", City: "Mountain View"}}
		secondary := &stubProvider{name: "b", loc: Location{Country: "Other", City: "Other"}}
		g := NewGeoLocator(slog.Default(), time.Second, nil, primary, secondary)

		assert.Equal(t, Location{Country: "United States", City: "Mountain View"}, g.Locate(ctx, "8.8.8.8"))
		assert.Zero(t, secondary.calls.Load())
	})

	t.Run("Falls back to secondary", func(t *testing.T) {
		primary := &stubProvider{name: "a", err: errors.New("down")}
		secondary := &stubProvider{name: "b", loc: Location{Country: "Germany", City: "Berlin"}}
		g := NewGeoLocator(slog.Default(), time.Second, nil, primary, secondary)

		assert.Equal(t, Location{Country: "Germany", City: "Berlin"}, g.Locate(ctx, "8.8.8.8"))
	})

	t.Run("All fail", func(t *testing.T) {
		primary := &stubProvider{name: "a", err: errors.New("down")}
		secondary := &stubProvider{name: "b", err: errors.New("down")}
		g := NewGeoLocator(slog.Default(), time.Second, nil, primary, secondary)

		assert.Equal(t, Location{Country: Unknown, City: Unknown}, g.Locate(ctx, "8.8.8.8"))
	})

	t.Run("Panicking provider is skipped", func(t *testing.T) {
		primary := &stubProvider{name: "a", fn: func(context.Context) (Location, error) { panic("boom") }}
		secondary := &stubProvider{name: "b", loc: Location{Country: "Japan", City: "Tokyo"}}
		g := NewGeoLocator(slog.Default(), time.Second, nil, primary, secondary)

		assert.Equal(t, Location{Country: "Japan", City: "Tokyo"}, g.Locate(ctx, "8.8.8.8"))
	})

	t.Run("Blank and long fields are normalized", func(t *testing.T) {
		p := &stubProvider{name: "a", loc: Location{Country: strings.Repeat("x", 150), City: "  "}}
		g := NewGeoLocator(slog.Default(), time.Second, nil, p)

		loc := g.Locate(ctx, "8.8.8.8")
		assert.Len(t, loc.Country, maxAnalyticsFieldLen)
		assert.Equal(t, Unknown, loc.City)
	})

	t.Run("Slow provider hits the timeout", func(t *testing.T) {
		slow := &stubProvider{name: "slow", fn: func(ctx context.Context) (Location, error) {
			<-ctx.Done()
			return Location{}, ctx.Err()
		}}
		g := NewGeoLocator(slog.Default(), 20*time.Millisecond, nil, slow)

		start := time.Now()
		assert.Equal(t, Location{Country: Unknown, City: Unknown}, g.Locate(ctx, "8.8.8.8"))
		assert.Less(t, time.Since(start), time.Second)
	})
}

func TestIPAPIProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		srv, _ := jsonServer(t, http.StatusOK, `{"ip":"8.8.8.8","city":"Mountain View","country_name":"United States"}`)
		p := NewIPAPIProvider(srv.Client(), srv.URL+"/%s/json/")

		loc, err := p.Lookup(ctx, "8.8.8.8")
		require.NoError(t, err)
		assert.Equal(t, Location{Country: "United States", City: "Mountain View"}, loc)
	})

	t.Run("Error body", func(t *testing.T) {
		srv, _ := jsonServer(t, http.StatusOK, `{"error":true,"reason":"RateLimited"}`)
		p := NewIPAPIProvider(srv.Client(), srv.URL+"/%s/json/")

		_, err := p.Lookup(ctx, "8.8.8.8")
		assert.Error(t, err)
	})

	t.Run("Non-200", func(t *testing.T) {
		srv, _ := jsonServer(t, http.StatusTooManyRequests, `{}`)
		p := NewIPAPIProvider(srv.Client(), srv.URL+"/%s/json/")

		_, err := p.Lookup(ctx, "8.8.8.8")
		assert.Error(t, err)
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		srv, _ := jsonServer(t, http.StatusOK, `not json`)
		p := NewIPAPIProvider(srv.Client(), srv.URL+"/%s/json/")

		_, err := p.Lookup(ctx, "8.8.8.8")
		assert.Error(t, err)
	})
}

func TestIPAPIComProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		srv, _ := jsonServer(t, http.StatusOK, `{"status":"success","country":"Canada","city":"Toronto"}`)
		p := NewIPAPIComProvider(srv.Client(), srv.URL+"/json/%s")

		loc, err := p.Lookup(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.Equal(t, Location{Country: "Canada", City: "Toronto"}, loc)
	})

	t.Run("Fail status", func(t *testing.T) {
		srv, _ := jsonServer(t, http.StatusOK, `{"status":"fail","message":"private range"}`)
		p := NewIPAPIComProvider(srv.Client(), srv.URL+"/json/%s")

		_, err := p.Lookup(ctx, "10.0.0.1")
		assert.Error(t, err)
	})
}

func TestGeoLocator_HTTPFallback(t *testing.T) {
	primarySrv, primaryHits := jsonServer(t, http.StatusInternalServerError, `{}`)
	secondarySrv, secondaryHits := jsonServer(t, http.StatusOK, `{"status":"success","country":"Brazil","city":"São Paulo"}`)

	g := NewGeoLocator(slog.Default(), time.Second, nil,
		NewIPAPIProvider(primarySrv.Client(), primarySrv.URL+"/%s/json/"),
		NewIPAPIComProvider(secondarySrv.Client(), secondarySrv.URL+"/json/%s"),
	)

	assert.Equal(t, Location{Country: "Brazil", City: "São Paulo"}, g.Locate(context.Background(), "200.1.1.1"))
	assert.Equal(t, int32(1), primaryHits.Load())
	assert.Equal(t, int32(1), secondaryHits.Load())
}

func TestRedisGeoCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisGeoCache(rdb, time.Hour, slog.Default())

	p := &stubProvider{name: "a", loc: Location{Country: "Kenya", City: "Nairobi"}}
	g := NewGeoLocator(slog.Default(), time.Second, cache, p)
	ctx := context.Background()

	assert.Equal(t, Location{Country: "Kenya", City: "Nairobi"}, g.Locate(ctx, "41.0.0.1"))
	assert.Equal(t, Location{Country: "Kenya", City: "Nairobi"}, g.Locate(ctx, "41.0.0.1"))
	assert.Equal(t, int32(1), p.calls.Load())
	assert.True(t, mr.Exists("geo:41.0.0.1"))
	assert.Equal(t, time.Hour, mr.TTL("geo:41.0.0.1"))

	t.Run("Failures are not cached", func(t *testing.T) {
		failing := &stubProvider{name: "a", err: errors.New("down")}
		g := NewGeoLocator(slog.Default(), time.Second, cache, failing)

		assert.Equal(t, Unknown, g.Locate(ctx, "41.0.0.2").Country)
		assert.False(t, mr.Exists("geo:41.0.0.2"))
	})

	t.Run("Redis down degrades to providers", func(t *testing.T) {
		mr.Close()
		assert.Equal(t, "Kenya", g.Locate(ctx, "41.0.0.3").Country)
	})
}

type mockGeoIPReader struct {
	cityFunc func(ip net.IP) (*geoip2.City, error)
	closed   bool
}

func (m *mockGeoIPReader) City(ip net.IP) (*geoip2.City, error) { return m.cityFunc(ip) }
func (m *mockGeoIPReader) Metadata() maxminddb.Metadata        { return maxminddb.Metadata{} }
func (m *mockGeoIPReader) Close() error {
	m.closed = true
	return nil
}

func TestMaxMindProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("No database", func(t *testing.T) {
		p := NewMaxMindProvider(config.Config{}, slog.Default())
		assert.False(t, p.Enabled())

		p.Init()
		_, err := p.Lookup(ctx, "8.8.8.8")
		assert.ErrorIs(t, err, errGeoDBUnavailable)
	})

	t.Run("Enabled with credentials", func(t *testing.T) {
		p := NewMaxMindProvider(config.Config{MaxMindAccountID: "1", MaxMindLicenseKey: "k"}, slog.Default())
		assert.True(t, p.Enabled())
	})

	t.Run("Lookup from reader", func(t *testing.T) {
		p := NewMaxMindProvider(config.Config{}, slog.Default())
		p.geoReader = &mockGeoIPReader{cityFunc: func(net.IP) (*geoip2.City, error) {
			rec := &geoip2.City{}
			rec.Country.Names = map[string]string{"en": "Germany"}
			rec.Country.IsoCode = "DE"
			rec.City.Names = map[string]string{"en": "Berlin"}
			return rec, nil
		}}

		loc, err := p.Lookup(ctx, "5.6.7.8")
		require.NoError(t, err)
		assert.Equal(t, Location{Country: "Germany", City: "Berlin"}, loc)
	})

	t.Run("ISO code when no English name", func(t *testing.T) {
		p := NewMaxMindProvider(config.Config{}, slog.Default())
		p.geoReader = &mockGeoIPReader{cityFunc: func(net.IP) (*geoip2.City, error) {
			rec := &geoip2.City{}
			rec.Country.IsoCode = "FR"
			return rec, nil
		}}

		loc, err := p.Lookup(ctx, "5.6.7.8")
		require.NoError(t, err)
		assert.Equal(t, "FR", loc.Country)
		assert.Empty(t, loc.City)
	})

	t.Run("Empty record falls through to the next provider", func(t *testing.T) {
		p := NewMaxMindProvider(config.Config{}, slog.Default())
		p.geoReader = &mockGeoIPReader{cityFunc: func(net.IP) (*geoip2.City, error) {
			return &geoip2.City{}, nil
		}}

		_, err := p.Lookup(ctx, "5.6.7.8")
		assert.ErrorIs(t, err, errGeoNoRecord)

		next := &stubProvider{name: "next", loc: Location{Country: "Japan", City: "Tokyo"}}
		locator := NewGeoLocator(slog.Default(), time.Second, nil, p, next)
		assert.Equal(t, Location{Country: "Japan", City: "Tokyo"}, locator.Locate(ctx, "5.6.7.8"))
		assert.Equal(t, int32(1), next.calls.Load())
	})

	t.Run("Invalid IP and reader error", func(t *testing.T) {
		p := NewMaxMindProvider(config.Config{}, slog.Default())
		p.geoReader = &mockGeoIPReader{cityFunc: func(net.IP) (*geoip2.City, error) {
			return nil, errors.New("lookup failed")
		}}

		_, err := p.Lookup(ctx, "not-an-ip")
		assert.Error(t, err)
		_, err = p.Lookup(ctx, "5.6.7.8")
		assert.Error(t, err)
	})

	t.Run("Reload closes the previous reader", func(t *testing.T) {
		p := NewMaxMindProvider(config.Config{}, slog.Default())
		old := &mockGeoIPReader{}
		p.geoReader = old

		p.reloadReader("/nonexistent/GeoLite2-City.mmdb")
		assert.True(t, old.closed)
		assert.Nil(t, p.geoReader)
	})

	t.Run("Updater returns without credentials", func(t *testing.T) {
		p := NewMaxMindProvider(config.Config{}, slog.Default())
		done := make(chan struct{})
		go func() {
			p.StartUpdaterWithInterval(ctx, time.Millisecond)
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("updater did not return")
		}
	})
}
