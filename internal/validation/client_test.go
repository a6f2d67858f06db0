package validation

import "testing"

func TestValidClientID(t *testing.T) {
	valids := []string{"cli", "packlane-web", "ci_publisher", "a1b"}
	for _, v := range valids {
		if !ValidClientID(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}
	invalids := []string{"", "ab", "-lead", "trail-", "UPPER", "has space", mkLen("a", 65)}
	for _, v := range invalids {
		if ValidClientID(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}

func TestValidRedirectURI(t *testing.T) {
	valids := []string{
		"https://app.example.com/callback",
		"https://app.example.com/cb?flow=signin",
		"http://localhost:8910/cb",
		"http://127.0.0.1/cb",
	}
	for _, v := range valids {
		if !ValidRedirectURI(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}
	invalids := []string{
		"",
		"/relative",
		"ftp://example.com/cb",
		"http://example.com/cb",               // plain http on a non-loopback host
		"https://app.example.com/cb#fragment", // fragment
		"javascript:alert(1)",                 // no host
	}
	for _, v := range invalids {
		if ValidRedirectURI(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}

func TestValidGrantType(t *testing.T) {
	for _, g := range []string{"authorization_code", "refresh_token", "web", "github_oidc_id_token"} {
		if !ValidGrantType(g) {
			t.Fatalf("expected valid: %q", g)
		}
	}
	for _, g := range []string{"", "password", "client_credentials", "implicit"} {
		if ValidGrantType(g) {
			t.Fatalf("expected invalid: %q", g)
		}
	}
}
