package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the runtime configuration of the server and its jobs.
type Config struct {
	Port          string
	DatabaseURL   string
	RedisURL      string
	JWTSecret     string
	MigrationsDir string

	AmadeusBaseURL      string
	AmadeusClientID     string
	AmadeusClientSecret string
	ProviderTimeout     time.Duration
	OfferCacheTTL       time.Duration

	Location *time.Location

	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPass      string
	MailFrom      string
	MailFromName  string
	MailBatchSize int

	MailFlushSchedule  string
	MailPurgeSchedule  string
	PriceCheckSchedule string
	PriceDropThreshold float64
}

var required = []string{
	"DATABASE_URL",
	"REDIS_URL",
	"JWT_SECRET",
	"AMADEUS_CLIENT_ID",
	"AMADEUS_CLIENT_SECRET",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("AMADEUS_BASE_URL", "https://test.api.amadeus.com")
	v.SetDefault("PROVIDER_TIMEOUT", "30s")
	v.SetDefault("OFFER_CACHE_TTL", "15m")
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASS", "")
	v.SetDefault("MAIL_FROM", "no-reply@tripwise.local")
	v.SetDefault("MAIL_FROM_NAME", "Tripwise")
	v.SetDefault("MAIL_BATCH_SIZE", 50)
	v.SetDefault("MAIL_FLUSH_SCHEDULE", "0 * * * * *")
	v.SetDefault("MAIL_PURGE_SCHEDULE", "0 0 0 * * *")
	v.SetDefault("PRICE_CHECK_SCHEDULE", "0 0 */6 * * *")
	v.SetDefault("PRICE_DROP_THRESHOLD", 0.05)
}

// Load reads the given env files (".env" when none are given; a missing file
// is ignored) and then the process environment. Variables already set in the
// environment win over file values.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading env file: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var missing []string
	for _, key := range required {
		if strings.TrimSpace(v.GetString(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	loc, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", v.GetString("TIMEZONE"), err)
	}

	cfg := &Config{
		Port:          v.GetString("PORT"),
		DatabaseURL:   v.GetString("DATABASE_URL"),
		RedisURL:      v.GetString("REDIS_URL"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		MigrationsDir: v.GetString("MIGRATIONS_DIR"),

		AmadeusBaseURL:      v.GetString("AMADEUS_BASE_URL"),
		AmadeusClientID:     v.GetString("AMADEUS_CLIENT_ID"),
		AmadeusClientSecret: v.GetString("AMADEUS_CLIENT_SECRET"),
		ProviderTimeout:     v.GetDuration("PROVIDER_TIMEOUT"),
		OfferCacheTTL:       v.GetDuration("OFFER_CACHE_TTL"),

		Location: loc,

		SMTPHost:      v.GetString("SMTP_HOST"),
		SMTPPort:      v.GetInt("SMTP_PORT"),
		SMTPUser:      v.GetString("SMTP_USER"),
		SMTPPass:      v.GetString("SMTP_PASS"),
		MailFrom:      v.GetString("MAIL_FROM"),
		MailFromName:  v.GetString("MAIL_FROM_NAME"),
		MailBatchSize: v.GetInt("MAIL_BATCH_SIZE"),

		MailFlushSchedule:  v.GetString("MAIL_FLUSH_SCHEDULE"),
		MailPurgeSchedule:  v.GetString("MAIL_PURGE_SCHEDULE"),
		PriceCheckSchedule: v.GetString("PRICE_CHECK_SCHEDULE"),
		PriceDropThreshold: v.GetFloat64("PRICE_DROP_THRESHOLD"),
	}

	if cfg.ProviderTimeout <= 0 {
		return nil, fmt.Errorf("PROVIDER_TIMEOUT must be positive, got %q", v.GetString("PROVIDER_TIMEOUT"))
	}
	if cfg.PriceDropThreshold <= 0 || cfg.PriceDropThreshold >= 1 {
		return nil, fmt.Errorf("PRICE_DROP_THRESHOLD must be between 0 and 1, got %v", cfg.PriceDropThreshold)
	}

	return cfg, nil
}
