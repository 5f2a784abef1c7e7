package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	BodyLimit string `env:"BODY_LIMIT, default=50M"`

	// FrontendOrigin is the CORS origin and the base of password-reset links.
	FrontendOrigin string `env:"FRONTEND_ORIGIN, default=http://localhost:3000"`
	AdminEmail     string `env:"ADMIN_EMAIL"`
	// EnforceListingQuota turns the per-account-type listing limit into a hard check.
	EnforceListingQuota bool `env:"ENFORCE_LISTING_QUOTA, default=false"`
	// AuthRateLimit is requests per second per client IP on /auth.
	AuthRateLimit float64 `env:"AUTH_RATE_LIMIT, default=5"`
	LoginWorkers  int     `env:"LOGIN_WORKERS, default=4"`

	JWT      JWTConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Identity IdentityConfig
	S3       S3Config
	Mail     MailConfig
}

type JWTConfig struct {
	Secret    string        `env:"JWT_SECRET, required"`
	ExpiresIn time.Duration `env:"JWT_EXPIRES_IN, default=168h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=marketplace"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// IdentityConfig points at the external OAuth provider's backend API.
type IdentityConfig struct {
	APIURL    string `env:"IDENTITY_API_URL, default=https://api.clerk.com/v1"`
	SecretKey string `env:"IDENTITY_SECRET_KEY"`
}

type S3Config struct {
	Region        string `env:"S3_REGION,          default=us-east-1"`
	Bucket        string `env:"S3_BUCKET"`
	AccessKey     string `env:"S3_ACCESS_KEY"`
	SecretKey     string `env:"S3_SECRET_KEY"`
	Endpoint      string `env:"S3_ENDPOINT"`
	PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`
}

// MailConfig selects SES delivery when From is set; otherwise reset links
// are only logged.
type MailConfig struct {
	Region    string `env:"MAIL_REGION,     default=us-east-1"`
	AccessKey string `env:"MAIL_ACCESS_KEY"`
	SecretKey string `env:"MAIL_SECRET_KEY"`
	From      string `env:"MAIL_FROM"`
}

func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from l. Tests pass envconfig.MapLookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	return &cfg, nil
}
