package validation

import (
	"reflect"
	"testing"
)

func TestValidScopeName_Valid(t *testing.T) {
	valids := []string{
		"a",
		"ab",
		"openid",
		"packages:read",
		"org.billing-read",
		"a_b-c.d:scope2",
		mkLen("a", 62) + "b", // 64 chars total with alnum ends
	}
	for _, v := range valids {
		if !ValidScopeName(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}
}

func TestValidScopeName_Invalid(t *testing.T) {
	invalids := []string{
		"",               // empty
		":lead",          // starts with non-alnum
		"trail:",         // ends with non-alnum
		"bad space",      // space
		"UPPER",          // uppercase
		"semicolon;hack", // semicolon
		mkLen("a", 65),   // > 64
	}
	for _, v := range invalids {
		if ValidScopeName(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}

func TestParseScope(t *testing.T) {
	got, ok := ParseScope("  openid email openid packages:read ")
	if !ok {
		t.Fatal("expected ok")
	}
	want := []string{"email", "openid", "packages:read"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}

	if _, ok := ParseScope("openid BAD"); ok {
		t.Fatal("expected not ok for invalid entry")
	}

	got, ok = ParseScope("")
	if !ok || got != nil {
		t.Fatalf("empty scope should parse to nil, got %v ok=%v", got, ok)
	}
}

func TestScopeSubset(t *testing.T) {
	super := []string{"openid", "email", "profile"}
	if !ScopeSubset([]string{"email"}, super) {
		t.Fatal("subset expected")
	}
	if !ScopeSubset(nil, super) {
		t.Fatal("empty set is a subset")
	}
	if ScopeSubset([]string{"email", "admin"}, super) {
		t.Fatal("superset must not pass")
	}
}

func TestScopeUnion(t *testing.T) {
	got := ScopeUnion([]string{"openid", "email"}, []string{"email", "profile"})
	want := []string{"email", "openid", "profile"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

// mkLen builds a string of exactly total chars starting with prefix.
func mkLen(prefix string, total int) string {
	if total <= len(prefix) {
		return prefix[:total]
	}
	out := make([]byte, total)
	copy(out, prefix)
	for i := len(prefix); i < total; i++ {
		out[i] = 'a'
	}
	return string(out)
}
