package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
)

// SigningKey is the server's active RS256 key pair.
type SigningKey struct {
	KID     string
	Private *rsa.PrivateKey
}

// LoadSigningKey reads a PKCS#1 or PKCS#8 RSA private key in PEM form.
func LoadSigningKey(path string) (*SigningKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("jwt: read signing key: %w", err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("jwt: no PEM block in %s", path)
	}

	var key *rsa.PrivateKey
	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		var parsed any
		parsed, err = x509.ParsePKCS8PrivateKey(block.Bytes)
		if err == nil {
			var ok bool
			key, ok = parsed.(*rsa.PrivateKey)
			if !ok {
				err = fmt.Errorf("not an RSA key")
			}
		}
	default:
		err = fmt.Errorf("unexpected PEM type %q", block.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("jwt: parse signing key: %w", err)
	}

	return &SigningKey{KID: keyID(key), Private: key}, nil
}

// GenerateSigningKey creates an ephemeral 2048-bit key. Development only:
// tokens do not survive a restart since the JWKS changes.
func GenerateSigningKey() (*SigningKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("jwt: generate signing key: %w", err)
	}
	return &SigningKey{KID: keyID(key), Private: key}, nil
}

// keyID derives a stable kid from the public modulus fingerprint.
func keyID(key *rsa.PrivateKey) string {
	sum := sha256.Sum256(key.PublicKey.N.Bytes())
	return base64.RawURLEncoding.EncodeToString(sum[:8])
}
