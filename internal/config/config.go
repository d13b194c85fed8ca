package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/platform/db"
)

type Config struct {
	Port            string        `mapstructure:"PORT"`
	Env             string        `mapstructure:"ENV"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32         `mapstructure:"DB_MIN_CONNS"`
	DBConnLifetime  time.Duration `mapstructure:"DB_MAX_CONN_LIFETIME"`
	RedisURL        string        `mapstructure:"REDIS_URL"`
	AuthIssuer      string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience    string        `mapstructure:"AUTH_AUDIENCE"`
	AuthSigningKey  string        `mapstructure:"AUTH_SIGNING_KEY"`
	CORSOrigins     []string      `mapstructure:"CORS_ORIGINS"`
	Timezone        string        `mapstructure:"TIMEZONE"`
	MailProvider    string        `mapstructure:"MAIL_PROVIDER"`
	SendGridAPIKey  string        `mapstructure:"SENDGRID_API_KEY"`
	MailFromAddress string        `mapstructure:"MAIL_FROM_ADDRESS"`
	MailFromName    string        `mapstructure:"MAIL_FROM_NAME"`
	SMTPURL         string        `mapstructure:"SMTP_URL"`
	MailTimeout     time.Duration `mapstructure:"MAIL_TIMEOUT"`
	ReminderLockTTL time.Duration `mapstructure:"REMINDER_LOCK_TTL"`
	OTPTTL          time.Duration `mapstructure:"OTP_TTL"`
	PublicRateRPS   float64       `mapstructure:"PUBLIC_RATE_LIMIT_RPS"`
	PublicRateBurst int           `mapstructure:"PUBLIC_RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_MAX_CONN_LIFETIME", "30m")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("TIMEZONE", "Asia/Manila")
	v.SetDefault("MAIL_PROVIDER", "log")
	v.SetDefault("MAIL_FROM_NAME", "City Health Office")
	v.SetDefault("MAIL_TIMEOUT", "15s")
	v.SetDefault("REMINDER_LOCK_TTL", "10m")
	v.SetDefault("OTP_TTL", "10m")
	v.SetDefault("PUBLIC_RATE_LIMIT_RPS", 0.2)
	v.SetDefault("PUBLIC_RATE_LIMIT_BURST", 5)

	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "DB_MAX_CONN_LIFETIME", "REDIS_URL",
		"AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_SIGNING_KEY", "CORS_ORIGINS", "TIMEZONE",
		"MAIL_PROVIDER", "SENDGRID_API_KEY", "MAIL_FROM_ADDRESS", "MAIL_FROM_NAME",
		"SMTP_URL", "MAIL_TIMEOUT", "REMINDER_LOCK_TTL", "OTP_TTL",
		"PUBLIC_RATE_LIMIT_RPS", "PUBLIC_RATE_LIMIT_BURST",
	} {
		v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

// PoolOptions returns the database pool settings.
func (c *Config) PoolOptions() db.PoolOptions {
	return db.PoolOptions{
		URL:             c.DatabaseURL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: c.DBConnLifetime,
		TimeZone:        c.Timezone,
	}
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Location returns the time zone used to turn timestamps into calendar days.
// Report due dates are civil dates in the city's zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Validate checks the settings that only matter once a component is wired:
// mail provider credentials, the zone name, and token verification outside
// development.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("TIMEZONE %q is not a valid zone: %w", c.Timezone, err)
	}

	switch c.MailProvider {
	case "log":
	case "sendgrid":
		if c.SendGridAPIKey == "" {
			return fmt.Errorf("SENDGRID_API_KEY is required when MAIL_PROVIDER is \"sendgrid\"")
		}
		if c.MailFromAddress == "" {
			return fmt.Errorf("MAIL_FROM_ADDRESS is required when MAIL_PROVIDER is \"sendgrid\"")
		}
	case "smtp":
		if c.SMTPURL == "" {
			return fmt.Errorf("SMTP_URL is required when MAIL_PROVIDER is \"smtp\"")
		}
	default:
		return fmt.Errorf("MAIL_PROVIDER must be \"log\", \"sendgrid\", or \"smtp\", got %q", c.MailProvider)
	}

	if c.MailTimeout <= 0 {
		return fmt.Errorf("MAIL_TIMEOUT must be positive, got %s", c.MailTimeout)
	}

	if !c.IsDev() && c.AuthSigningKey == "" && c.AuthIssuer == "" {
		return fmt.Errorf(
			"AUTH_SIGNING_KEY or AUTH_ISSUER must be set when ENV=%q; "+
				"refusing to start without token verification", c.Env)
	}

	return nil
}
