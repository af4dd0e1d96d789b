package config

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"clinic-app-go/pkg/logger"
	"github.com/sethvargo/go-envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	HTTPPort string `env:"HTTP_PORT, default=8080"`
	Env      string `env:"ENV, default=production"`

	Log       LogConfig
	DB        DBConfig
	Session   SessionConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS, default=*"`
	// TrustedProxies lists peers (IPs or CIDRs) whose forwarding headers are
	// believed. Empty means the socket peer is always the client.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL, default=info"`
	Format string `env:"LOG_FORMAT, default=json"`
}

type DBConfig struct {
	Driver          string        `env:"DB_DRIVER, default=postgres"`
	DSN             string        `env:"DB_DSN"`
	Host            string        `env:"DB_HOST, default=localhost"`
	Port            string        `env:"DB_PORT, default=5432"`
	User            string        `env:"DB_USER, default=postgres"`
	Password        string        `env:"DB_PASSWORD, default=postgres"`
	Name            string        `env:"DB_NAME, default=clinic"`
	SSLMode         string        `env:"DB_SSLMODE, default=disable"`
	TimeZone        string        `env:"DB_TIMEZONE, default=UTC"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS, default=10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS, default=5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME, default=30m"`
}

type SessionConfig struct {
	Secret       string        `env:"SESSION_SECRET"`
	TTL          time.Duration `env:"SESSION_TTL, default=24h"`
	CookieName   string        `env:"SESSION_COOKIE_NAME, default=clinic_session"`
	CookieSecure bool          `env:"SESSION_COOKIE_SECURE, default=false"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB, default=0"`
	Timeout  time.Duration `env:"REDIS_TIMEOUT, default=5s"`
}

func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

type RateLimitConfig struct {
	Requests int           `env:"RATE_LIMIT_REQUESTS, default=100"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW, default=1m"`
}

// developmentSecret signs sessions only when ENV=development is set
// explicitly and no secret is configured.
const developmentSecret = "clinic-development-secret"

func Load(ctx context.Context, log logger.Logger) (Config, error) {
	if err := loadDotEnv(log); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}

	if cfg.Session.Secret == "" && cfg.IsDevelopment() {
		log.Warn("config: SESSION_SECRET not set, using development secret")
		cfg.Session.Secret = developmentSecret
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsDevelopment() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), EnvDevelopment)
}

func (c Config) Validate() error {
	var errs []error
	switch c.DB.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER: unsupported driver %q", c.DB.Driver))
	}
	if c.DB.Driver == DriverSQLite && c.DB.DSN == "" {
		errs = append(errs, errors.New("DB_DSN: required for sqlite"))
	}
	if c.Session.Secret == "" {
		errs = append(errs, errors.New("SESSION_SECRET: required"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL: must be positive"))
	}
	if c.RateLimit.Requests <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS: must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW: must be positive"))
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address becomes a
// single-host prefix.
func (c Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		if strings.Contains(value, "/") {
			prefix, err := netip.ParsePrefix(value)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: invalid prefix %q: %w", value, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(value)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: invalid address %q: %w", value, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}
