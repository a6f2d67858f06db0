package jwt

import (
	"encoding/base64"
	"math/big"
)

type jwk struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKS is the key-set document served at the jwks_uri.
type JWKS struct {
	Keys []jwk `json:"keys"`
}

// PublicJWKS exposes the active signing key's public half.
func (i *Issuer) PublicJWKS() JWKS {
	pub := &i.Key.Private.PublicKey
	return JWKS{
		Keys: []jwk{{
			Kty: "RSA",
			Use: "sig",
			Alg: "RS256",
			Kid: i.Key.KID,
			N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	}
}
