// Package token mints and classifies the opaque secrets this server hands
// out: authorization codes, access tokens and refresh tokens.
//
// Wire format: prefix + 37 random chars [A-Za-z0-9] + 6 char base62
// checksum of the random part (CRC32). The checksum lets a caller or a
// leaked-secret scanner detect truncation and classify a string without a
// database round-trip; it is not a security control. Only the keyed
// HMAC-SHA256 hash of a token is ever persisted.
package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"
)

// Kind identifies what a minted secret is for. Each kind carries a
// distinct prefix so a string can be classified on sight.
type Kind string

const (
	KindAuthCode          Kind = "auth_code"
	KindAccessIndividual  Kind = "access_individual"
	KindAccessOrg         Kind = "access_organization"
	KindRefreshIndividual Kind = "refresh_individual"
	KindRefreshOrg        Kind = "refresh_organization"
)

// Prefixes are four chars ending in underscore, GitHub-token style.
var kindPrefix = map[Kind]string{
	KindAuthCode:          "plc_",
	KindAccessIndividual:  "pla_",
	KindAccessOrg:         "plo_",
	KindRefreshIndividual: "plr_",
	KindRefreshOrg:        "plg_",
}

var prefixKind = func() map[string]Kind {
	m := make(map[string]Kind, len(kindPrefix))
	for k, p := range kindPrefix {
		m[p] = k
	}
	return m
}()

const (
	randomLen   = 37
	checksumLen = 6
	alphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	base62      = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// ErrMalformed is returned for input that is not a well-formed token:
// unknown prefix, wrong length, bad charset or checksum mismatch.
// Malformed input is rejected before any hash or database work.
var ErrMalformed = errors.New("malformed token")

// Codec mints tokens and computes their at-rest hashes.
type Codec struct {
	secret []byte
}

// NewCodec builds a codec keyed with the server-wide HMAC secret.
func NewCodec(secret []byte) *Codec {
	return &Codec{secret: secret}
}

// Mint generates a fresh token of the given kind and returns both the
// plaintext (returned to the caller exactly once) and the hash to store.
func (c *Codec) Mint(kind Kind) (plaintext, hash string, err error) {
	prefix, ok := kindPrefix[kind]
	if !ok {
		return "", "", fmt.Errorf("unknown token kind %q", kind)
	}
	random, err := randomAlnum(randomLen)
	if err != nil {
		return "", "", err
	}
	plaintext = prefix + random + checksum(random)
	return plaintext, c.Hash(plaintext), nil
}

// Hash computes the keyed HMAC-SHA256 digest of a plaintext token,
// base64url without padding. This is the only representation persisted.
func (c *Codec) Hash(plaintext string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(plaintext))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Classify validates the shape of a presented token and returns its kind.
// Returns ErrMalformed for anything that could not have been minted here,
// so lookups for garbage input never reach the store.
func Classify(plaintext string) (Kind, error) {
	if len(plaintext) != 4+randomLen+checksumLen {
		return "", ErrMalformed
	}
	kind, ok := prefixKind[plaintext[:4]]
	if !ok {
		return "", ErrMalformed
	}
	random := plaintext[4 : 4+randomLen]
	for i := 0; i < len(random); i++ {
		if !isAlnum(random[i]) {
			return "", ErrMalformed
		}
	}
	want := checksum(random)
	got := plaintext[4+randomLen:]
	if subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		return "", ErrMalformed
	}
	return kind, nil
}

// IsAccess reports whether the kind is one of the access token kinds.
func (k Kind) IsAccess() bool {
	return k == KindAccessIndividual || k == KindAccessOrg
}

// IsRefresh reports whether the kind is one of the refresh token kinds.
func (k Kind) IsRefresh() bool {
	return k == KindRefreshIndividual || k == KindRefreshOrg
}

// AccessKindFor returns the access token kind for a principal variant.
func AccessKindFor(organization bool) Kind {
	if organization {
		return KindAccessOrg
	}
	return KindAccessIndividual
}

// RefreshKindFor returns the refresh token kind for a principal variant.
func RefreshKindFor(organization bool) Kind {
	if organization {
		return KindRefreshOrg
	}
	return KindRefreshIndividual
}

// ConstantTimeEqual compares two strings without leaking a timing signal.
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// checksum computes the 6-char base62 CRC32 (IEEE) of the random part,
// zero-padded on the left.
func checksum(random string) string {
	sum := crc32.ChecksumIEEE([]byte(random))
	var buf [checksumLen]byte
	for i := checksumLen - 1; i >= 0; i-- {
		buf[i] = base62[sum%62]
		sum /= 62
	}
	return string(buf[:])
}

// randomAlnum returns n chars drawn uniformly from [A-Za-z0-9].
func randomAlnum(n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)
	buf := make([]byte, n*2)
	for sb.Len() < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			// Rejection sampling keeps the draw uniform over 62 symbols.
			if b < 62*4 {
				sb.WriteByte(alphabet[b%62])
				if sb.Len() == n {
					break
				}
			}
		}
	}
	return sb.String(), nil
}

func isAlnum(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// RandomOpaque returns nBytes of entropy as base64url without padding.
// Used for short-lived artifacts that never leave the server boundary,
// like consent challenge handles.
func RandomOpaque(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SHA256Base64URL returns sha256(input) as unpadded base64url. Used for
// PKCE S256 verification and at_hash computation, not for storage.
func SHA256Base64URL(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
