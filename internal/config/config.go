// Package config loads the server configuration from YAML with environment
// overrides. Defaults are applied before validation so a minimal file is
// enough for development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr            string `yaml:"addr"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	// Issuer is the public base URL, also used as the `iss` claim.
	Issuer string `yaml:"issuer"`

	Storage struct {
		// postgres | memory
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Driver string `yaml:"driver"`
		Redis  struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
		Prefix string `yaml:"prefix"`
	} `yaml:"cache"`

	Security struct {
		// Key for the HMAC applied to tokens before they touch storage.
		TokenHMACSecret string `yaml:"token_hmac_secret"`
		SigningKeyPath  string `yaml:"signing_key_path"`
	} `yaml:"security"`

	Tokens struct {
		CodeTTL    string `yaml:"code_ttl"`
		AccessTTL  string `yaml:"access_ttl"`
		RefreshTTL string `yaml:"refresh_ttl"`
		IDTokenTTL string `yaml:"id_token_ttl"`
	} `yaml:"tokens"`

	Consent struct {
		// Where the authorize endpoint sends the browser to collect consent.
		UIBaseURL    string `yaml:"ui_base_url"`
		ChallengeTTL string `yaml:"challenge_ttl"`
	} `yaml:"consent"`

	Federation struct {
		// Issuers whose ID tokens the github_oidc_id_token grant accepts.
		TrustedIssuers []string `yaml:"trusted_issuers"`
		// Expected `aud` of incoming assertions.
		Audience string `yaml:"audience"`
	} `yaml:"federation"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		Web     struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"web"`
	} `yaml:"rate"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "15s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "postgres"
	}
	if c.Storage.Postgres.MaxConns == 0 {
		c.Storage.Postgres.MaxConns = 10
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "authd"
	}
	if c.Tokens.CodeTTL == "" {
		c.Tokens.CodeTTL = "60s"
	}
	if c.Tokens.AccessTTL == "" {
		c.Tokens.AccessTTL = "1h"
	}
	if c.Tokens.RefreshTTL == "" {
		c.Tokens.RefreshTTL = "720h" // 30d
	}
	if c.Tokens.IDTokenTTL == "" {
		c.Tokens.IDTokenTTL = "15m"
	}
	if c.Consent.ChallengeTTL == "" {
		c.Consent.ChallengeTTL = "10m"
	}
	if len(c.Federation.TrustedIssuers) == 0 {
		c.Federation.TrustedIssuers = []string{"https://token.actions.githubusercontent.com"}
	}
	if c.Rate.Web.Limit == 0 {
		c.Rate.Web.Limit = 30
	}
	if c.Rate.Web.Window == "" {
		c.Rate.Web.Window = "1m"
	}

	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Issuer) == "" {
		return errors.New("config: issuer is required")
	}
	if strings.TrimSpace(c.Security.TokenHMACSecret) == "" {
		return errors.New("config: security.token_hmac_secret is required")
	}
	if c.Storage.Driver == "postgres" && strings.TrimSpace(c.Storage.DSN) == "" {
		return errors.New("config: storage.dsn is required for the postgres driver")
	}
	for name, s := range map[string]string{
		"server.read_timeout":      c.Server.ReadTimeout,
		"server.write_timeout":     c.Server.WriteTimeout,
		"server.shutdown_timeout":  c.Server.ShutdownTimeout,
		"tokens.code_ttl":          c.Tokens.CodeTTL,
		"tokens.access_ttl":        c.Tokens.AccessTTL,
		"tokens.refresh_ttl":       c.Tokens.RefreshTTL,
		"tokens.id_token_ttl":      c.Tokens.IDTokenTTL,
		"consent.challenge_ttl":    c.Consent.ChallengeTTL,
		"rate.web.window":          c.Rate.Web.Window,
		"postgres.conn_max_lifet.": c.Storage.Postgres.ConnMaxLifetime,
	} {
		if s == "" {
			continue
		}
		if _, err := time.ParseDuration(s); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	return nil
}

// IsProd reports whether the prod safety switches must be on.
func (c *Config) IsProd() bool {
	return strings.EqualFold(c.App.Env, "prod")
}

// Duration returns an already-validated duration string as time.Duration.
func Duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// ---- env helpers ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides lets the environment win over the YAML file. Secrets are
// normally injected this way instead of living on disk.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("ISSUER_URL"); ok {
		c.Issuer = v
	}
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("CACHE_DRIVER"); ok {
		c.Cache.Driver = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("TOKEN_HMAC_SECRET"); ok {
		c.Security.TokenHMACSecret = v
	}
	if v, ok := getEnvStr("SIGNING_KEY_PATH"); ok {
		c.Security.SigningKeyPath = v
	}
	if v, ok := getEnvStr("CONSENT_UI_BASE_URL"); ok {
		c.Consent.UIBaseURL = v
	}
	if v, ok := getEnvCSV("FEDERATION_TRUSTED_ISSUERS"); ok {
		c.Federation.TrustedIssuers = v
	}
	if v, ok := getEnvStr("FEDERATION_AUDIENCE"); ok {
		c.Federation.Audience = v
	}
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
}
