package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	AppName    string `env:"APP_NAME" envDefault:"PrintShop API"`
	AppDomain  string `env:"APP_DOMAIN" envDefault:"localhost"`
	Env        string `env:"APP_ENV" envDefault:"development"`
	Port       string `env:"PORT" envDefault:"3000"`
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"*"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`

	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	SeedAdminEmail    string `env:"SEED_ADMIN_EMAIL" envDefault:"admin@printshop.local"`
	SeedAdminPassword string `env:"SEED_ADMIN_PASSWORD"`
}

type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"`
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            string        `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER" envDefault:"postgres"`
	Password        string        `env:"DB_PASSWORD"`
	Name            string        `env:"DB_NAME" envDefault:"printshop"`
	SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"100"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
	LogQueries      bool          `env:"DB_LOG_QUERIES" envDefault:"false"`
}

// DSN prefers DATABASE_URL and falls back to the discrete DB_* settings.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type JWTConfig struct {
	Secret              string        `env:"JWT_SECRET,required"`
	Expiry              time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
	ImpersonationExpiry time.Duration `env:"IMPERSONATION_EXPIRY" envDefault:"1h"`
	Issuer              string        `env:"JWT_ISSUER" envDefault:"printshop-api"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Enabled reports whether a Redis server was configured.
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if len(cfg.JWT.Secret) < 16 {
		return nil, fmt.Errorf("config: JWT_SECRET must be at least 16 characters")
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }
