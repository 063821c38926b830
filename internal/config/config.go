package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Q-Builder"`
		Port int    `envconfig:"PORT" default:"8080"`
		Env  string `envconfig:"APP_ENV" default:"development"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"qbuilder"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Auth struct {
		// DevTenantID is used for every request when JWTSecret is empty.
		DevTenantID int64  `envconfig:"AUTH_DEV_TENANT_ID" default:"1"`
		JWTSecret   string `envconfig:"JWT_SECRET"`
		Issuer      string `envconfig:"JWT_ISSUER" default:"q-builder"`
	}

	CORS struct {
		AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	}

	PDF struct {
		// FontDir holds the TTF files. Empty means the built-in core fonts,
		// which cannot shape Hebrew and are only meant for development.
		FontDir     string `envconfig:"PDF_FONT_DIR"`
		FontRegular string `envconfig:"PDF_FONT_REGULAR" default:"NotoSansHebrew-Regular.ttf"`
		FontBold    string `envconfig:"PDF_FONT_BOLD" default:"NotoSansHebrew-Bold.ttf"`
		Author      string `envconfig:"PDF_AUTHOR" default:"Q-Builder"`

		CacheDir      string        `envconfig:"PDF_CACHE_DIR" default:"./cache/pdf"`
		Retention     time.Duration `envconfig:"PDF_CACHE_RETENTION" default:"24h"`
		SweepInterval time.Duration `envconfig:"PDF_CACHE_SWEEP_INTERVAL" default:"1h"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.Auth.JWTSecret == "" && cfg.App.Env == "production" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	return &cfg, nil
}
