package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/packlane/authd/internal/metrics"
)

// FederatedClaims is what the federated grant needs from a verified
// third-party ID token.
type FederatedClaims struct {
	Issuer  string
	Subject string
	JTI     string
	Expiry  time.Time

	// RepositoryOwnerID is GitHub's numeric owner id, the claim this
	// server maps to a local organization.
	RepositoryOwnerID string
}

// AssertionVerifier validates an externally-issued ID token. Implemented
// by remoteVerifier in production and faked in tests.
type AssertionVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*FederatedClaims, error)
}

// remoteVerifier verifies assertions against each trusted issuer's
// published key set. go-oidc caches keys and refetches on an unknown kid,
// and it fails closed: no reachable key set, no verified token.
type remoteVerifier struct {
	audience string
	timeout  time.Duration

	mu        sync.Mutex
	verifiers map[string]*oidc.IDTokenVerifier // by issuer
	trusted   map[string]bool
}

// NewRemoteVerifier builds the production verifier. Only issuers on the
// allow-list are ever contacted.
func NewRemoteVerifier(trustedIssuers []string, audience string) AssertionVerifier {
	trusted := make(map[string]bool, len(trustedIssuers))
	for _, iss := range trustedIssuers {
		trusted[iss] = true
	}
	return &remoteVerifier{
		audience:  audience,
		timeout:   10 * time.Second,
		verifiers: map[string]*oidc.IDTokenVerifier{},
		trusted:   trusted,
	}
}

func (v *remoteVerifier) Verify(ctx context.Context, rawIDToken string) (*FederatedClaims, error) {
	iss, err := unverifiedIssuer(rawIDToken)
	if err != nil {
		return nil, err
	}
	if !v.trusted[iss] {
		return nil, fmt.Errorf("issuer %q is not trusted", iss)
	}

	verifier, err := v.verifierFor(ctx, iss)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	start := time.Now()
	idToken, err := verifier.Verify(ctx, rawIDToken)
	metrics.FederatedKeyFetchLatency.Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return nil, err
	}

	var claims struct {
		JTI               string `json:"jti"`
		RepositoryOwnerID string `json:"repository_owner_id"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, err
	}
	return &FederatedClaims{
		Issuer:            idToken.Issuer,
		Subject:           idToken.Subject,
		JTI:               claims.JTI,
		Expiry:            idToken.Expiry,
		RepositoryOwnerID: claims.RepositoryOwnerID,
	}, nil
}

func (v *remoteVerifier) verifierFor(ctx context.Context, issuer string) (*oidc.IDTokenVerifier, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if ver, ok := v.verifiers[issuer]; ok {
		return ver, nil
	}
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, err
	}
	ver := provider.Verifier(&oidc.Config{ClientID: v.audience})
	v.verifiers[issuer] = ver
	return ver, nil
}

// unverifiedIssuer reads the iss claim without verifying the signature,
// only to select the key set. Nothing else is trusted before Verify.
func unverifiedIssuer(raw string) (string, error) {
	payload, err := parseJWTSegment(raw)
	if err != nil {
		return "", err
	}
	var claims struct {
		Issuer string `json:"iss"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", err
	}
	if claims.Issuer == "" {
		return "", errors.New("assertion has no issuer")
	}
	return claims.Issuer, nil
}
