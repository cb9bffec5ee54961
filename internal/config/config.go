package config

import (
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"

	"authd/internal/gormw"
	"authd/internal/token"
)

var (
	logger = log.With().Str("component", "config").Logger()
)

const secretEnv = "AUTHD_SECRET"

type TokenConfig struct {
	// Secret is the symmetric signing secret. Falls back to the
	// AUTHD_SECRET env var; there is no default.
	Secret string `yaml:"secret"`

	// Algorithm is the signing algorithm, HS256 by default.
	Algorithm string `yaml:"algorithm"`

	AccessTokenTTL  int `yaml:"access_token_ttl"`  // seconds
	RefreshTokenTTL int `yaml:"refresh_token_ttl"` // seconds
}

func (c *TokenConfig) AccessTokenTTLDuration() time.Duration {
	return time.Duration(c.AccessTokenTTL) * time.Second
}

func (c *TokenConfig) RefreshTokenTTLDuration() time.Duration {
	return time.Duration(c.RefreshTokenTTL) * time.Second
}

func (c *TokenConfig) applyDefaults() {
	if c.Secret == "" {
		c.Secret = os.Getenv(secretEnv)
	}
	if c.Algorithm == "" {
		c.Algorithm = "HS256"
	}
	if c.AccessTokenTTL <= 0 {
		c.AccessTokenTTL = 300
	}
	if c.RefreshTokenTTL <= 0 {
		c.RefreshTokenTTL = 86400
	}
}

func (c *TokenConfig) Validate() {
	c.applyDefaults()

	if c.Secret == "" {
		logger.Fatal().Msgf("TokenConfig: Secret is missing, set it in config or %s", secretEnv)
	}
	if !token.SupportedAlgorithms().Contains(c.Algorithm) {
		logger.Fatal().Msgf("TokenConfig: unsupported algorithm %q", c.Algorithm)
	}
}

type Config struct {
	Port    uint   `yaml:"port"`
	GinMode string `yaml:"gin_mode"`

	// MaxLoginFailures before a username is throttled, 5 by default.
	MaxLoginFailures uint32 `yaml:"max_login_failures"`

	Token TokenConfig  `yaml:"token"`
	DB    gormw.Config `yaml:"db"`
}

func LoadConfig(path string) *Config {
	cfg := &Config{}

	file, err := os.Open(path)
	if err != nil {
		logger.Fatal().Err(err).Msgf("failed to open config file: %s", path)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		logger.Fatal().Err(err).Msg("failed to decode config file")
	}

	cfg.validate()

	return cfg
}

func (c *Config) validate() {
	if c.Port == 0 {
		logger.Fatal().Msg("Port is missing")
	}

	if c.GinMode == "" {
		logger.Fatal().Msg("GinMode is missing")
	}

	if c.MaxLoginFailures == 0 {
		c.MaxLoginFailures = 5
	}

	c.Token.Validate()
}
