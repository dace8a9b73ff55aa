package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth  AuthConfig
	Mongo MongoConfig
	Redis RedisConfig
	Mail  MailConfig
	Web   WebConfig
}

type AuthConfig struct {
	JWTSecret     string        `env:"JWT_SECRET, required"`
	TokenTTL      time.Duration `env:"TOKEN_TTL,       default=24h"`
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL, default=1h"`
	BcryptCost    int           `env:"BCRYPT_COST,     default=10"`
	AppBaseURL    string        `env:"APP_BASE_URL,    default=http://localhost:3000"`
	// ErrorPolicy is "collapsed" (every auth failure is a generic 400) or "detailed".
	ErrorPolicy                 string        `env:"ERROR_POLICY,                  default=collapsed"`
	PromotorRequireVerification bool          `env:"PROMOTOR_REQUIRE_VERIFICATION, default=false"`
	LoginMaxAttempts            int           `env:"LOGIN_MAX_ATTEMPTS,            default=5"`
	LoginWindow                 time.Duration `env:"LOGIN_WINDOW,                  default=15m"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=ticketing"`
	// AuditRetention expires auth_events entries; zero keeps them forever.
	AuditRetention time.Duration `env:"AUDIT_RETENTION, default=2160h"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type MailConfig struct {
	// An empty SMTPHost logs mails instead of sending them.
	SMTPHost     string        `env:"SMTP_HOST"`
	SMTPPort     int           `env:"SMTP_PORT,     default=587"`
	SMTPUsername string        `env:"SMTP_USERNAME"`
	SMTPPassword string        `env:"SMTP_PASSWORD"`
	From         string        `env:"MAIL_FROM,     default=no-reply@eventix.local"`
	Timeout      time.Duration `env:"MAIL_TIMEOUT,  default=10s"`
	Async        bool          `env:"MAIL_ASYNC,    default=false"`
	Workers      int           `env:"MAIL_WORKERS,  default=4"`
}

type WebConfig struct {
	Port       string `env:"WEB_PORT,     default=3000"`
	APIBaseURL string `env:"API_BASE_URL, default=http://localhost:8080"`
}

// IsProduction reports whether cookies must carry the Secure flag.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
// A missing JWT_SECRET is a fatal misconfiguration.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith is Load with an explicit lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FrontendConfig is the subset read by the web frontend, which never holds
// the signing secret.
type FrontendConfig struct {
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
	Web      WebConfig
}

func (c *FrontendConfig) IsProduction() bool {
	return c.Env == "production"
}

// LoadFrontend reads FrontendConfig from the environment.
func LoadFrontend(ctx context.Context, l envconfig.Lookuper) (*FrontendConfig, error) {
	var cfg FrontendConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, err
	}
	return &cfg, nil
}
