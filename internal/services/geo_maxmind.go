package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"linkgate/internal/config"

	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"
)

var (
	errGeoDBUnavailable = errors.New("geoip database not loaded")
	errGeoNoRecord      = errors.New("address not in geoip database")
)

type geoReader interface {
	City(ip net.IP) (*geoip2.City, error)
	Metadata() maxminddb.Metadata
	Close() error
}

// MaxMindProvider answers lookups from a local GeoLite2 City database kept
// fresh by geoipupdate. Until a database is loaded every lookup fails, so
// the locator moves on to the next provider.
type MaxMindProvider struct {
	cfg       config.Config
	logger    *slog.Logger
	geoReader geoReader
	geoLock   sync.RWMutex
}

func NewMaxMindProvider(cfg config.Config, logger *slog.Logger) *MaxMindProvider {
	return &MaxMindProvider{
		cfg:    cfg,
		logger: logger,
	}
}

func (s *MaxMindProvider) Name() string { return "maxmind" }

// Enabled reports whether a database is configured, either through
// credentials for geoipupdate or an existing file.
func (s *MaxMindProvider) Enabled() bool {
	if s.cfg.MaxMindAccountID != "" && s.cfg.MaxMindLicenseKey != "" {
		return true
	}
	if s.cfg.MaxMindDBPath == "" {
		return false
	}
	_, err := os.Stat(s.cfg.MaxMindDBPath)
	return err == nil
}

func (s *MaxMindProvider) Init() {
	dbPath := s.cfg.MaxMindDBPath
	if _, err := os.Stat(dbPath); err == nil {
		s.reloadReader(dbPath)
		return
	}

	if s.cfg.MaxMindAccountID == "" || s.cfg.MaxMindLicenseKey == "" {
		s.logger.Warn("GeoIP: MaxMind credentials not set and no database present. Local lookups disabled.")
		return
	}

	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		s.logger.Error("GeoIP: Failed to create directory", "dir", dbDir, "error", err)
		return
	}

	s.logger.Info("GeoIP: Database missing, downloading...")
	if err := s.updateGeoDB(); err != nil {
		s.logger.Error("GeoIP: Initial download failed", "error", err)
		return
	}

	s.reloadReader(dbPath)
}

func (s *MaxMindProvider) StartUpdater(ctx context.Context) {
	s.StartUpdaterWithInterval(ctx, 24*time.Hour)
}

func (s *MaxMindProvider) StartUpdaterWithInterval(ctx context.Context, interval time.Duration) {
	if s.cfg.MaxMindAccountID == "" {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.logger.Info("GeoIP: Running scheduled update...")
			if err := s.updateGeoDB(); err != nil {
				s.logger.Error("GeoIP: Update failed", "error", err)
				continue
			}
			s.reloadReader(s.cfg.MaxMindDBPath)
		case <-ctx.Done():
			s.logger.Info("GeoIP: Updater stopping")
			return
		}
	}
}

func (s *MaxMindProvider) updateGeoDB() error {
	dbDir := filepath.Dir(s.cfg.MaxMindDBPath)
	confPath := filepath.Join(dbDir, "GeoIP.conf")

	content := fmt.Sprintf("AccountID %s\nLicenseKey %s\nEditionIDs %s\nDatabaseDirectory %s\n",
		s.cfg.MaxMindAccountID, s.cfg.MaxMindLicenseKey, s.cfg.MaxMindEditionIDs, dbDir)

	if err := os.WriteFile(confPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write GeoIP.conf: %w", err)
	}
	defer os.Remove(confPath)

	cmd := exec.Command("geoipupdate", "-v", "-f", confPath, "-d", dbDir)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("geoipupdate failed: %w, output: %s", err, string(output))
	}

	s.logger.Info("GeoIP: Database updated successfully")
	return nil
}

func (s *MaxMindProvider) reloadReader(path string) {
	s.geoLock.Lock()
	defer s.geoLock.Unlock()

	if s.geoReader != nil {
		s.geoReader.Close()
		s.geoReader = nil
	}

	reader, err := geoip2.Open(path)
	if err != nil {
		s.logger.Error("GeoIP: Failed to open database", "path", path, "error", err)
		return
	}
	s.geoReader = reader

	meta := reader.Metadata()
	s.logger.Info("GeoIP: Loaded database", "type", meta.DatabaseType, "epoch", meta.BuildEpoch)
}

func (s *MaxMindProvider) Lookup(_ context.Context, ipStr string) (Location, error) {
	s.geoLock.RLock()
	defer s.geoLock.RUnlock()

	if s.geoReader == nil {
		return Location{}, errGeoDBUnavailable
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return Location{}, fmt.Errorf("invalid ip %q", ipStr)
	}

	record, err := s.geoReader.City(ip)
	if err != nil {
		return Location{}, fmt.Errorf("city lookup: %w", err)
	}

	var loc Location
	if name, ok := record.Country.Names["en"]; ok {
		loc.Country = name
	} else {
		loc.Country = record.Country.IsoCode
	}
	loc.City = record.City.Names["en"]
	if loc.Country == "" && loc.City == "" {
		return Location{}, errGeoNoRecord
	}

	return loc, nil
}
