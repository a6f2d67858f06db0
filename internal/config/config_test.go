package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_DefaultsAndValidation(t *testing.T) {
	p := writeFile(t, `
issuer: https://auth.packlane.dev
storage:
  driver: memory
security:
  token_hmac_secret: test-secret
`)
	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Server.Addr != ":8080" {
		t.Errorf("addr default = %q", c.Server.Addr)
	}
	if c.Tokens.AccessTTL != "1h" || c.Tokens.RefreshTTL != "720h" {
		t.Errorf("ttl defaults = %q / %q", c.Tokens.AccessTTL, c.Tokens.RefreshTTL)
	}
	if got := c.Federation.TrustedIssuers; len(got) != 1 || got[0] != "https://token.actions.githubusercontent.com" {
		t.Errorf("trusted issuers default = %v", got)
	}
}

func TestLoad_MissingIssuer(t *testing.T) {
	p := writeFile(t, `
storage:
  driver: memory
security:
  token_hmac_secret: s
`)
	if _, err := Load(p); err == nil {
		t.Fatal("expected validation error for missing issuer")
	}
}

func TestLoad_BadDuration(t *testing.T) {
	p := writeFile(t, `
issuer: https://auth.packlane.dev
storage:
  driver: memory
security:
  token_hmac_secret: s
tokens:
  access_ttl: not-a-duration
`)
	if _, err := Load(p); err == nil {
		t.Fatal("expected duration parse error")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("TOKEN_HMAC_SECRET", "from-env")
	t.Setenv("FEDERATION_TRUSTED_ISSUERS", "https://a.example, https://b.example")

	p := writeFile(t, `
issuer: https://auth.packlane.dev
storage:
  driver: memory
security:
  token_hmac_secret: file-secret
`)
	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Server.Addr != ":9999" {
		t.Errorf("addr = %q", c.Server.Addr)
	}
	if c.Security.TokenHMACSecret != "from-env" {
		t.Errorf("secret = %q", c.Security.TokenHMACSecret)
	}
	if len(c.Federation.TrustedIssuers) != 2 || c.Federation.TrustedIssuers[1] != "https://b.example" {
		t.Errorf("issuers = %v", c.Federation.TrustedIssuers)
	}
}
