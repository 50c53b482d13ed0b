package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

const minSecretLength = 32

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	// Driver selects the backing store: "postgres" or "memory".
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

type RedisConfig struct {
	// Addr is empty when no Redis is configured; the API rate limiter
	// then falls back to its in-process store.
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	ExpiryDays int
}

// RateLimitConfig carries the per-endpoint limiter bounds. Registration is
// stricter than login; the API limit applies to every request.
type RateLimitConfig struct {
	LoginMaxAttempts    int
	LoginWindow         time.Duration
	RegisterMaxAttempts int
	RegisterWindow      time.Duration
	APIMaxRequests      int
	APIWindow           time.Duration
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode)
}

func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_ISSUER", "debandi-store")
	viper.SetDefault("JWT_EXPIRY_DAYS", 7)
	viper.SetDefault("RATELIMIT_LOGIN_MAX", 5)
	viper.SetDefault("RATELIMIT_LOGIN_WINDOW", "15m")
	viper.SetDefault("RATELIMIT_REGISTER_MAX", 3)
	viper.SetDefault("RATELIMIT_REGISTER_WINDOW", "1h")
	viper.SetDefault("RATELIMIT_API_MAX", 100)
	viper.SetDefault("RATELIMIT_API_WINDOW", "1m")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
			Env:  viper.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Driver:   viper.GetString("DB_DRIVER"),
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("JWT_SECRET"),
			Issuer:     viper.GetString("JWT_ISSUER"),
			ExpiryDays: viper.GetInt("JWT_EXPIRY_DAYS"),
		},
		RateLimit: RateLimitConfig{
			LoginMaxAttempts:    viper.GetInt("RATELIMIT_LOGIN_MAX"),
			LoginWindow:         viper.GetDuration("RATELIMIT_LOGIN_WINDOW"),
			RegisterMaxAttempts: viper.GetInt("RATELIMIT_REGISTER_MAX"),
			RegisterWindow:      viper.GetDuration("RATELIMIT_REGISTER_WINDOW"),
			APIMaxRequests:      viper.GetInt("RATELIMIT_API_MAX"),
			APIWindow:           viper.GetDuration("RATELIMIT_API_WINDOW"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the server must not start with. There is
// deliberately no fallback signing secret: a missing or short JWT_SECRET is
// a startup failure, not a silent default.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength)
	}
	if c.JWT.ExpiryDays <= 0 {
		return fmt.Errorf("JWT_EXPIRY_DAYS must be positive")
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "memory" {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.RateLimit.LoginMaxAttempts <= 0 || c.RateLimit.RegisterMaxAttempts <= 0 {
		return fmt.Errorf("rate limit attempt counts must be positive")
	}
	return nil
}
