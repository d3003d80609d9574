package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port     int    `envconfig:"PORT" default:"3000"`
	BuildSHA string `envconfig:"BUILD_SHA" default:"dev"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`

	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile       string `envconfig:"LOG_FILE" default:""`
	LogMaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"100"`
	LogMaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"3"`
	LogMaxAgeDays int    `envconfig:"LOG_MAX_AGE_DAYS" default:"7"`

	DatabaseURL string `envconfig:"DATABASE_URL" default:"sqlite://app.db"`

	APIPrefix          string   `envconfig:"API_PREFIX" default:"/v1"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	TrustProxyHeaders  bool     `envconfig:"TRUST_PROXY_HEADERS" default:"false"`

	RateLimitEnabled bool   `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	RateLimitBackend string `envconfig:"RATE_LIMIT_BACKEND" default:"memory"`
	RedisURL         string `envconfig:"REDIS_URL" default:""`

	// Per-minute thresholds for each route class.
	RateLimitHealth      int `envconfig:"RATE_LIMIT_HEALTH" default:"30"`
	RateLimitDefault     int `envconfig:"RATE_LIMIT_DEFAULT" default:"60"`
	RateLimitPostsRead   int `envconfig:"RATE_LIMIT_POSTS_READ" default:"100"`
	RateLimitPostsWrite  int `envconfig:"RATE_LIMIT_POSTS_WRITE" default:"30"`
	RateLimitPostsDelete int `envconfig:"RATE_LIMIT_POSTS_DELETE" default:"20"`
	RateLimitMetrics     int `envconfig:"RATE_LIMIT_METRICS" default:"60"`
}

// Load reads an optional dotenv file (".env" unless envFiles are given) and
// then environment variables into a Config struct. Variables already present
// in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if err := loadDotenv(envFiles); err != nil {
		return nil, err
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotenv(files []string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("loading env files: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	switch c.RateLimitBackend {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required when RATE_LIMIT_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown RATE_LIMIT_BACKEND %q", c.RateLimitBackend)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT %d out of range", c.Port)
	}
	return nil
}
