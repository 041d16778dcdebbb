package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/vasapolrittideah/notes-api/shared/discovery"
	"github.com/vasapolrittideah/notes-api/shared/logger"
	"github.com/vasapolrittideah/notes-api/shared/mailer"
	"github.com/vasapolrittideah/notes-api/shared/telemetry"
)

// Config is the complete configuration of the notes service.
type Config struct {
	Server        ServerConfig           `envPrefix:"SERVER_"`
	Mongo         MongoConfig            `envPrefix:"MONGO_"`
	Token         TokenConfig            `envPrefix:"TOKEN_"`
	OTP           OTPConfig              `envPrefix:"OTP_"`
	PasswordReset PasswordResetConfig    `envPrefix:"PASSWORD_RESET_"`
	SMTP          mailer.Config          `envPrefix:"SMTP_"`
	Google        GoogleConfig           `envPrefix:"GOOGLE_"`
	Consul        discovery.ConsulConfig `envPrefix:"CONSUL_"`
	OTel          telemetry.Config       `envPrefix:"OTEL_"`
	Log           logger.Config          `envPrefix:"LOG_"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

type ServerConfig struct {
	Host            string        `env:"HOST"`
	Port            int           `env:"PORT"             envDefault:"8080"`
	HealthGRPCPort  int           `env:"HEALTH_GRPC_PORT" envDefault:"9090"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type MongoConfig struct {
	URI      string `env:"URI"`
	Database string `env:"DATABASE" envDefault:"notes"`
}

// RedactedURI returns the connection string without credentials, for logging.
func (c MongoConfig) RedactedURI() string {
	u, err := url.Parse(c.URI)
	if err != nil {
		return "<invalid uri>"
	}

	return u.Redacted()
}

type TokenConfig struct {
	Secret               string        `env:"SECRET"`
	Issuer               string        `env:"ISSUER"                  envDefault:"notes-api"`
	SessionExpiresIn     time.Duration `env:"SESSION_EXPIRES_IN"      envDefault:"24h"`
	LongSessionExpiresIn time.Duration `env:"LONG_SESSION_EXPIRES_IN" envDefault:"720h"`
}

type OTPConfig struct {
	ExpiresIn   time.Duration `env:"EXPIRES_IN"   envDefault:"10m"`
	MaxAttempts int           `env:"MAX_ATTEMPTS" envDefault:"5"`
}

type PasswordResetConfig struct {
	ExpiresIn time.Duration `env:"EXPIRES_IN" envDefault:"15m"`
	URL       string        `env:"URL"        envDefault:"http://localhost:3000/reset-password"`
}

// GoogleConfig enables Google sign-in when ClientID is set.
type GoogleConfig struct {
	ClientID string `env:"CLIENT_ID"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	return finalize(cfg)
}

// LoadFromMap reads the configuration from the given variables only.
func LoadFromMap(environment map[string]string) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Environment: environment})
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	return finalize(cfg)
}

func finalize(cfg Config) (*Config, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Mongo.URI == "" {
		return errors.New("missing MONGO_URI environment variable")
	}
	if c.Token.Secret == "" {
		return errors.New("missing TOKEN_SECRET environment variable")
	}
	if len(c.Token.Secret) < 32 {
		return errors.New("TOKEN_SECRET must be at least 32 characters")
	}
	if c.Token.SessionExpiresIn <= 0 || c.Token.LongSessionExpiresIn <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.OTP.ExpiresIn <= 0 {
		return errors.New("OTP_EXPIRES_IN must be positive")
	}
	if c.OTP.MaxAttempts < 0 {
		return errors.New("OTP_MAX_ATTEMPTS must not be negative")
	}
	if c.PasswordReset.ExpiresIn <= 0 {
		return errors.New("PASSWORD_RESET_EXPIRES_IN must be positive")
	}
	if u, err := url.Parse(c.PasswordReset.URL); err != nil || !u.IsAbs() {
		return errors.New("PASSWORD_RESET_URL must be an absolute URL")
	}
	if c.Server.Port <= 0 || c.Server.HealthGRPCPort <= 0 {
		return errors.New("server ports must be positive")
	}
	if c.Server.Port == c.Server.HealthGRPCPort {
		return errors.New("SERVER_PORT and SERVER_HEALTH_GRPC_PORT must differ")
	}

	return c.SMTP.Validate()
}
