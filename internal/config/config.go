package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every environment-derived setting, resolved once at startup.
// Handlers and services receive it by value and never read the environment
// themselves.
type Config struct {
	Port string `envconfig:"PORT" default:"8080"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName     string `envconfig:"DB_NAME" default:"aegisciso"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	JWTSecret   string        `envconfig:"JWT_SECRET" default:"default_super_secret_key"`
	SessionTTL  time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	RefreshTTL  time.Duration `envconfig:"REFRESH_TTL" default:"168h"`
	ReleaseMode bool          `envconfig:"RELEASE_MODE" default:"false"`

	SovereignAIURL string        `envconfig:"SOVEREIGN_AI_URL" default:"http://localhost:8000"`
	AITimeout      time.Duration `envconfig:"AI_TIMEOUT" default:"5s"`
	DemoMode       bool          `envconfig:"AI_DEMO_MODE" default:"true"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://localhost:3001,http://localhost:3002,http://localhost:3003"`
}

// Load builds the Config from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.ReleaseMode && cfg.JWTSecret == "default_super_secret_key" {
		return Config{}, fmt.Errorf("JWT_SECRET is required in release mode")
	}
	return cfg, nil
}

// DSN assembles the Postgres connection string.
func (c Config) DSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}
