package validation

import (
	"net/url"
	"regexp"
)

// clientIDRe: lowercase alnum plus - and _, 3..64 chars. The public
// client_id shows up in URLs and logs, so keep the charset tight.
var clientIDRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{1,62}[a-z0-9]$`)

// ValidClientID reports whether id is an acceptable public client id.
func ValidClientID(id string) bool {
	return clientIDRe.MatchString(id)
}

// ValidRedirectURI reports whether uri is acceptable as a registered
// redirect target: absolute, no fragment, and either https or a loopback
// http address (native-app style, RFC 8252).
func ValidRedirectURI(uri string) bool {
	u, err := url.Parse(uri)
	if err != nil {
		return false
	}
	if !u.IsAbs() || u.Host == "" || u.Fragment != "" {
		return false
	}
	switch u.Scheme {
	case "https":
		return true
	case "http":
		host := u.Hostname()
		return host == "localhost" || host == "127.0.0.1" || host == "::1"
	default:
		return false
	}
}

// Known grant types.
var knownGrantTypes = map[string]struct{}{
	"authorization_code":   {},
	"refresh_token":        {},
	"web":                  {},
	"github_oidc_id_token": {},
}

// ValidGrantType reports whether the grant type is one this server issues.
func ValidGrantType(g string) bool {
	_, ok := knownGrantTypes[g]
	return ok
}
