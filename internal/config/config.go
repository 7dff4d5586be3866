package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

var ErrInvalidConfig = errors.New("config invalid")

type Config struct {
	HTTP      HTTPConfig
	Auth      AuthConfig
	Hasher    HasherConfig
	Storage   StorageConfig
	Postgres  PostgresConfig
	Log       LogConfig
	Telemetry TelemetryConfig
}

type HTTPConfig struct {
	Addr               string        `env:"HTTP_ADDR" envDefault:":5050"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	ShutdownTimeout    time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// AuthConfig holds the two signing configurations. The legacy names
// JWT_SECRET and RT_SECRET are accepted when the primary names are unset.
type AuthConfig struct {
	AccessSecret      string        `env:"ACCESS_SECRET"`
	RefreshSecret     string        `env:"REFRESH_SECRET"`
	AccessTokenTTL    time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL   time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"24h"`
	SerializeSessions bool          `env:"AUTH_SERIALIZE_SESSIONS" envDefault:"true"`
}

type HasherConfig struct {
	MemoryKiB   uint32 `env:"ARGON2_MEMORY_KIB" envDefault:"65536"`
	Iterations  uint32 `env:"ARGON2_ITERATIONS" envDefault:"1"`
	Parallelism uint8  `env:"ARGON2_PARALLELISM" envDefault:"4"`
}

type StorageConfig struct {
	Driver string `env:"STORAGE_DRIVER" envDefault:"postgres"`
}

type PostgresConfig struct {
	DatabaseURL string `env:"DATABASE_URL"`
	Host        string `env:"PGHOST" envDefault:"localhost"`
	Port        string `env:"PGPORT" envDefault:"5432"`
	User        string `env:"PGUSER"`
	Password    string `env:"PGPASSWORD"`
	Database    string `env:"PGDATABASE"`
	SSLMode     string `env:"PGSSLMODE" envDefault:"disable"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type TelemetryConfig struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	Endpoint    string `env:"OTEL_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"bookmark-notes"`
}

// Load reads an optional .env file, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse builds a Config from the process environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.Auth.AccessSecret == "" {
		cfg.Auth.AccessSecret = os.Getenv("JWT_SECRET")
	}
	if cfg.Auth.RefreshSecret == "" {
		cfg.Auth.RefreshSecret = os.Getenv("RT_SECRET")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Auth.AccessSecret == "" {
		return fmt.Errorf("%w: ACCESS_SECRET (or JWT_SECRET) is required", ErrInvalidConfig)
	}
	if c.Auth.RefreshSecret == "" {
		return fmt.Errorf("%w: REFRESH_SECRET (or RT_SECRET) is required", ErrInvalidConfig)
	}
	if c.Auth.AccessSecret == c.Auth.RefreshSecret {
		return fmt.Errorf("%w: access and refresh secrets must differ", ErrInvalidConfig)
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("%w: token TTLs must be positive", ErrInvalidConfig)
	}
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("%w: unknown STORAGE_DRIVER %q", ErrInvalidConfig, c.Storage.Driver)
	}
	return nil
}

// URL returns DATABASE_URL when set, otherwise a DSN assembled from the PG* variables.
func (p PostgresConfig) URL() (string, error) {
	if p.DatabaseURL != "" {
		return p.DatabaseURL, nil
	}
	if p.User == "" || p.Database == "" {
		return "", fmt.Errorf("%w: missing DATABASE_URL or PGUSER/PGDATABASE", ErrInvalidConfig)
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(p.Host, p.Port),
		Path:   p.Database,
	}
	if p.Password == "" {
		u.User = url.User(p.User)
	} else {
		u.User = url.UserPassword(p.User, p.Password)
	}
	q := u.Query()
	q.Set("sslmode", p.SSLMode)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Origins drops blank entries from CORS_ALLOWED_ORIGINS.
func (h HTTPConfig) Origins() []string {
	out := make([]string, 0, len(h.CORSAllowedOrigins))
	for _, origin := range h.CORSAllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
