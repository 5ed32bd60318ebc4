package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppEnv        string `mapstructure:"APP_ENV"`
	Port          string `mapstructure:"PORT"`
	BaseURL       string `mapstructure:"BASE_URL"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	RedisURL      string `mapstructure:"REDIS_URL"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	SessionSecret string `mapstructure:"SESSION_SECRET"`

	MaxMindAccountID  string `mapstructure:"MAXMIND_ACCOUNT_ID"`
	MaxMindLicenseKey string `mapstructure:"MAXMIND_LICENSE_KEY"`
	MaxMindEditionIDs string `mapstructure:"MAXMIND_EDITION_IDS"`
	MaxMindDBPath     string `mapstructure:"GEOIP_DB_PATH"`

	// Lookup URL templates, %s is replaced by the client IP.
	GeoPrimaryURL   string        `mapstructure:"GEO_PRIMARY_URL"`
	GeoSecondaryURL string        `mapstructure:"GEO_SECONDARY_URL"`
	GeoTimeout      time.Duration `mapstructure:"GEO_TIMEOUT"`
	GeoCacheTTL     time.Duration `mapstructure:"GEO_CACHE_TTL"`

	PasswordVerifyTTL time.Duration `mapstructure:"PASSWORD_VERIFY_TTL"`
	ShortCodeLength   int           `mapstructure:"SHORT_CODE_LENGTH"`
	RateLimitRPS      float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int           `mapstructure:"RATE_LIMIT_BURST"`
}

func LoadConfig() (config Config, err error) {
	viper.SetDefault("APP_ENV", "local")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("BASE_URL", "")
	viper.SetDefault("DATABASE_URL", "sqlite://linkgate.db")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("SESSION_SECRET", "insecure-dev-session-secret-change-me")
	viper.SetDefault("MAXMIND_ACCOUNT_ID", "")
	viper.SetDefault("MAXMIND_LICENSE_KEY", "")
	viper.SetDefault("GEOIP_DB_PATH", "./geoip/GeoLite2-City.mmdb")
	viper.SetDefault("MAXMIND_EDITION_IDS", "GeoLite2-City")
	viper.SetDefault("GEO_PRIMARY_URL", "https://ipapi.co/%s/json/")
	viper.SetDefault("GEO_SECONDARY_URL", "http://ip-api.com/json/%s")
	viper.SetDefault("GEO_TIMEOUT", 5*time.Second)
	viper.SetDefault("GEO_CACHE_TTL", time.Duration(0))
	viper.SetDefault("PASSWORD_VERIFY_TTL", time.Hour)
	viper.SetDefault("SHORT_CODE_LENGTH", 6)
	viper.SetDefault("RATE_LIMIT_RPS", 5)
	viper.SetDefault("RATE_LIMIT_BURST", 10)

	viper.AutomaticEnv()

	err = viper.Unmarshal(&config)
	if err != nil {
		log.Printf("unable to decode into struct, %v", err)
		return
	}

	return
}
