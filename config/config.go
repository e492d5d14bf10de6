package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is loaded from the environment. Secrets have no defaults on
// purpose: the process refuses to start without them.
type Config struct {
	Env  string `env:"ENV" env-default:"development"`
	Port string `env:"PORT" env-default:"8080"`

	DBURL string `env:"DB_URL" env-required:"true"`

	AccessTokenSecret  string        `env:"ACCESS_TOKEN_SECRET" env-required:"true"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET" env-required:"true"`
	AccessTokenExpiry  time.Duration `env:"ACCESS_TOKEN_EXPIRY" env-default:"1h"`
	RefreshTokenExpiry time.Duration `env:"REFRESH_TOKEN_EXPIRY" env-default:"24h"`

	MaxFailedAttempts   int `env:"MAX_FAILED_ATTEMPTS" env-default:"5"`
	FailedLoginWindowMS int `env:"FAILED_LOGIN_WINDOW_MS" env-default:"900000"`
	FailedLoginBlockMS  int `env:"FAILED_LOGIN_BLOCK_MS" env-default:"900000"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`
	AuthUIRedirect     string `env:"AUTH_UI_REDIRECT" env-default:"/"`

	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat   string `env:"LOG_FORMAT" env-default:"text"`
	ServiceName string `env:"SERVICE_NAME" env-default:"auth-gateway"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// FailedLoginWindow is the sliding window within which failed login
// attempts accumulate.
func (c *Config) FailedLoginWindow() time.Duration {
	return time.Duration(c.FailedLoginWindowMS) * time.Millisecond
}

// FailedLoginBlock is how long a client stays blocked once it crosses
// MaxFailedAttempts.
func (c *Config) FailedLoginBlock() time.Duration {
	return time.Duration(c.FailedLoginBlockMS) * time.Millisecond
}
