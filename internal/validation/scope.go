package validation

import (
	"regexp"
	"sort"
	"strings"
)

// Scope name rules:
// - Lowercase only.
// - Start and end with [a-z0-9].
// - Middle chars may include [a-z0-9:_.-].
// - Length 1..64.
// - Excludes semicolon and whitespace explicitly.
//
// Examples valid: openid, email, packages:read, org.billing-read
// Examples invalid: ;hack, BAD, bad space, :leader, trailer:, "", 65+ chars.
var scopeNameRe = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9:_\.-]{0,62}[a-z0-9])?$`)

// ValidScopeName returns true if the scope name matches the allowed pattern.
func ValidScopeName(name string) bool {
	return scopeNameRe.MatchString(name)
}

// ParseScope splits a space-delimited scope parameter into a de-duplicated,
// sorted list. Returns ok=false when any entry fails ValidScopeName.
func ParseScope(raw string) (scopes []string, ok bool) {
	fields := strings.Fields(raw)
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if !ValidScopeName(f) {
			return nil, false
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		scopes = append(scopes, f)
	}
	sort.Strings(scopes)
	return scopes, true
}

// JoinScope renders a scope list as the space-delimited wire form.
func JoinScope(scopes []string) string {
	return strings.Join(scopes, " ")
}

// ScopeSubset reports whether every entry of sub is present in super.
func ScopeSubset(sub, super []string) bool {
	have := make(map[string]struct{}, len(super))
	for _, s := range super {
		have[s] = struct{}{}
	}
	for _, s := range sub {
		if _, ok := have[s]; !ok {
			return false
		}
	}
	return true
}

// ScopeContains reports whether scopes includes name.
func ScopeContains(scopes []string, name string) bool {
	for _, s := range scopes {
		if s == name {
			return true
		}
	}
	return false
}

// ScopeUnion merges two scope lists, de-duplicated and sorted.
func ScopeUnion(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
