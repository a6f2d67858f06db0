// Package jwt signs the OIDC ID tokens this server issues (RS256) and
// publishes the matching JWKS document. Access tokens are opaque and never
// pass through here.
package jwt

import (
	"crypto/sha256"
	"encoding/base64"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Issuer signs ID tokens with the active key.
type Issuer struct {
	Iss        string
	Key        *SigningKey
	DefaultTTL time.Duration
}

func NewIssuer(iss string, key *SigningKey) *Issuer {
	return &Issuer{
		Iss:        iss,
		Key:        key,
		DefaultTTL: 15 * time.Minute,
	}
}

// IssueIDToken signs an OIDC ID token. extra carries the optional claims
// (nonce, name, email, at_hash); the standard registered claims are set
// here and cannot be overridden.
func (i *Issuer) IssueIDToken(sub, aud string, extra map[string]any, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	if ttl <= 0 {
		ttl = i.DefaultTTL
	}
	exp := now.Add(ttl)

	claims := jwtv5.MapClaims{}
	for k, v := range extra {
		claims[k] = v
	}
	claims["iss"] = i.Iss
	claims["sub"] = sub
	claims["aud"] = aud
	claims["iat"] = now.Unix()
	claims["nbf"] = now.Unix()
	claims["exp"] = exp.Unix()

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
	tk.Header["kid"] = i.Key.KID
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(i.Key.Private)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Keyfunc returns a jwt.Keyfunc for verifying tokens this server signed.
func (i *Issuer) Keyfunc() jwtv5.Keyfunc {
	return func(t *jwtv5.Token) (any, error) {
		return &i.Key.Private.PublicKey, nil
	}
}

// ATHash computes at_hash = base64url(left-most 128 bits of SHA-256(token)).
func ATHash(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return base64.RawURLEncoding.EncodeToString(sum[:len(sum)/2])
}
