package taskmate

import (
	"os"
	"strconv"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

// EnvConfig is the env-backed Config implementation. Zero values fall back
// to sane defaults; only the signing key is mandatory.
type EnvConfig struct {
	SigningKey      string
	SigningMethod   string
	ContextKey      string
	TokenExpiration int
	TokenLookup     string
	AuthScheme      string
	Issuer          string
	Audience        []string
	ExemptPaths     []string
	ExemptPrefixes  []string

	DatabaseDSN   string
	ListenAddress string
}

// LoadConfig reads configuration from the environment, loading a local
// .env file first when present.
func LoadConfig() (*EnvConfig, error) {
	_ = godotenv.Load()

	cfg := &EnvConfig{
		SigningKey:      getEnv("AUTH_SIGNING_KEY", ""),
		SigningMethod:   getEnv("AUTH_SIGNING_METHOD", "HS256"),
		ContextKey:      getEnv("AUTH_CONTEXT_KEY", "user"),
		TokenExpiration: getEnvAsInt("AUTH_TOKEN_EXPIRATION", 24),
		TokenLookup:     getEnv("AUTH_TOKEN_LOOKUP", "header:Authorization"),
		AuthScheme:      getEnv("AUTH_SCHEME", "Bearer"),
		Issuer:          getEnv("AUTH_ISSUER", "taskmate"),
		Audience:        getEnvAsList("AUTH_AUDIENCE", []string{"taskmate"}),
		ExemptPaths:     getEnvAsList("AUTH_EXEMPT_PATHS", nil),
		ExemptPrefixes:  getEnvAsList("AUTH_EXEMPT_PREFIXES", nil),
		DatabaseDSN:     getEnv("DATABASE_DSN", "file:taskmate.db?cache=shared&_pragma=foreign_keys(1)"),
		ListenAddress:   getEnv("LISTEN_ADDRESS", ":9876"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required settings
func (c *EnvConfig) Validate() error {
	if c.SigningKey == "" {
		return errors.New("AUTH_SIGNING_KEY is required", errors.CategoryValidation)
	}
	if c.TokenExpiration <= 0 {
		return errors.New("AUTH_TOKEN_EXPIRATION must be a positive hour count", errors.CategoryValidation)
	}
	return nil
}

func (c *EnvConfig) GetSigningKey() string       { return c.SigningKey }
func (c *EnvConfig) GetSigningMethod() string    { return c.SigningMethod }
func (c *EnvConfig) GetContextKey() string       { return c.ContextKey }
func (c *EnvConfig) GetTokenExpiration() int     { return c.TokenExpiration }
func (c *EnvConfig) GetTokenLookup() string      { return c.TokenLookup }
func (c *EnvConfig) GetAuthScheme() string       { return c.AuthScheme }
func (c *EnvConfig) GetIssuer() string           { return c.Issuer }
func (c *EnvConfig) GetAudience() []string       { return c.Audience }
func (c *EnvConfig) GetExemptPaths() []string    { return c.ExemptPaths }
func (c *EnvConfig) GetExemptPrefixes() []string { return c.ExemptPrefixes }

var _ Config = (*EnvConfig)(nil)

func getEnv(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return value
}

func getEnvAsList(key string, def []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
