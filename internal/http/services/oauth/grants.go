package oauth

import (
	"context"
	"errors"
	"time"

	"github.com/packlane/authd/internal/domain/repository"
	jwtx "github.com/packlane/authd/internal/jwt"
	"github.com/packlane/authd/internal/metrics"
	"github.com/packlane/authd/internal/observability/logger"
	tokens "github.com/packlane/authd/internal/security/token"
	"github.com/packlane/authd/internal/validation"
)

// TokenRequest is the parsed form body of the token endpoint, plus the
// client credentials however they arrived (Basic header or body).
type TokenRequest struct {
	GrantType    string
	ClientID     string
	ClientSecret string

	// authorization_code
	Code         string
	RedirectURI  string
	CodeVerifier string

	// refresh_token
	RefreshToken string
	Scope        string

	// web
	SessionToken string
	SubType      string
	Sub          string

	// github_oidc_id_token
	IDToken string

	// RemoteAddr keys the rate limiter for the web grant.
	RemoteAddr string
}

// TokenResponse is the RFC 6749 §5.1 success body.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
}

// GrantHandler is one grant_type implementation. Handlers receive an
// already-authenticated client whose registration allows the grant type;
// everything past that point is theirs.
type GrantHandler interface {
	// Name returns the grant_type value this handler serves.
	Name() string

	// Exchange validates the grant-specific inputs and issues tokens.
	Exchange(ctx context.Context, client *repository.Client, req *TokenRequest) (*TokenResponse, error)
}

// TokenService fronts the token endpoint: client authentication, grant
// dispatch, outcome metrics.
type TokenService struct {
	auth     *ClientAuthenticator
	handlers map[string]GrantHandler
}

func NewTokenService(auth *ClientAuthenticator, handlers ...GrantHandler) *TokenService {
	m := make(map[string]GrantHandler, len(handlers))
	for _, h := range handlers {
		m[h.Name()] = h
	}
	return &TokenService{auth: auth, handlers: m}
}

func (s *TokenService) Exchange(ctx context.Context, req *TokenRequest) (*TokenResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("oauth.token"),
		logger.GrantType(req.GrantType),
		logger.ClientID(req.ClientID),
	)
	ctx = logger.ToContext(ctx, log)

	resp, err := s.exchange(ctx, req)
	outcome := "ok"
	if err != nil {
		outcome = err.Error()
	}
	metrics.GrantRequests.WithLabelValues(req.GrantType, outcome).Inc()
	return resp, err
}

func (s *TokenService) exchange(ctx context.Context, req *TokenRequest) (*TokenResponse, error) {
	if req.GrantType == "" {
		return nil, ErrInvalidRequest
	}
	h, ok := s.handlers[req.GrantType]
	if !ok {
		return nil, ErrUnsupportedGrantType
	}

	client, err := s.auth.Authenticate(ctx, req.ClientID, req.ClientSecret)
	if err != nil {
		return nil, err
	}
	if !client.AllowsGrantType(req.GrantType) {
		logger.From(ctx).Warn("grant type not registered for client")
		return nil, ErrUnauthorizedClient
	}
	return h.Exchange(ctx, client, req)
}

// resolveClientScope parses a requested scope string against a client's
// registration. No scope parameter means the client's registered default;
// an unknown or malformed scope is an error, never silently dropped.
func resolveClientScope(client *repository.Client, raw string) ([]string, error) {
	if raw == "" {
		return append([]string(nil), client.Scopes...), nil
	}
	scopes, ok := validation.ParseScope(raw)
	if !ok || len(scopes) == 0 {
		return nil, ErrInvalidScope
	}
	if !client.AllowsScope(scopes) {
		return nil, ErrInvalidScope
	}
	return scopes, nil
}

// Issuer bundles the shared issuance machinery every handler needs: mint
// opaque tokens, persist their hashes, sign ID tokens.
type Issuer struct {
	codec      *tokens.Codec
	tokens     repository.TokenRepository
	accounts   repository.AccountDirectory
	signer     *jwtx.Issuer
	accessTTL  time.Duration
	refreshTTL time.Duration
	idTokenTTL time.Duration
}

// IssuerDeps wires an Issuer.
type IssuerDeps struct {
	Codec      *tokens.Codec
	Tokens     repository.TokenRepository
	Accounts   repository.AccountDirectory
	Signer     *jwtx.Issuer
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	IDTokenTTL time.Duration
}

func NewIssuer(d IssuerDeps) *Issuer {
	return &Issuer{
		codec:      d.Codec,
		tokens:     d.Tokens,
		accounts:   d.Accounts,
		signer:     d.Signer,
		accessTTL:  d.AccessTTL,
		refreshTTL: d.RefreshTTL,
		idTokenTTL: d.IDTokenTTL,
	}
}

// issueOpts controls one issuance.
type issueOpts struct {
	withRefresh bool
	// accessTTL overrides the default when > 0 (federated grant bound).
	accessTTL time.Duration
	// nonce persisted on the row (federated jti replay guard).
	rowNonce string
	// idNonce echoed into the ID token when openid is granted.
	idNonce string
}

// issue mints the tokens for (client, principal, scopes), persists the row
// and builds the response. Plaintext secrets exist only in the response.
func (i *Issuer) issue(ctx context.Context, client *repository.Client, p repository.Principal, scopes []string, opts issueOpts) (*TokenResponse, error) {
	org := p.Kind == repository.PrincipalOrganization
	now := time.Now().UTC()

	accessTTL := i.accessTTL
	if opts.accessTTL > 0 {
		accessTTL = opts.accessTTL
	}

	accessPlain, accessHash, err := i.codec.Mint(tokens.AccessKindFor(org))
	if err != nil {
		return nil, ErrServerError
	}

	row := &repository.Token{
		AccessTokenHash: accessHash,
		ClientID:        client.ClientID,
		SubType:         p.Kind,
		SubID:           p.ID,
		Scopes:          scopes,
		Nonce:           opts.rowNonce,
		IssuedAt:        now,
		AccessExpiresAt: now.Add(accessTTL),
	}

	var refreshPlain string
	if opts.withRefresh {
		var refreshHash string
		refreshPlain, refreshHash, err = i.codec.Mint(tokens.RefreshKindFor(org))
		if err != nil {
			return nil, ErrServerError
		}
		exp := now.Add(i.refreshTTL)
		row.RefreshTokenHash = refreshHash
		row.RefreshExpiresAt = &exp
	}

	if err := i.tokens.Create(ctx, row); err != nil {
		if opts.rowNonce != "" && errors.Is(err, repository.ErrConflict) {
			// The unique nonce index lost a race: another exchange of the
			// same assertion already minted. Replays are invalid_grant.
			return nil, ErrInvalidGrant
		}
		logger.From(ctx).Error("token persist failed", logger.Err(err))
		return nil, ErrServerError
	}

	resp := &TokenResponse{
		AccessToken:  accessPlain,
		TokenType:    "Bearer",
		ExpiresIn:    int64(accessTTL / time.Second),
		RefreshToken: refreshPlain,
		Scope:        validation.JoinScope(scopes),
	}

	if validation.ScopeContains(scopes, "openid") {
		idToken, err := i.signIDToken(ctx, client, p, scopes, accessPlain, opts.idNonce)
		if err != nil {
			return nil, ErrServerError
		}
		resp.IDToken = idToken
	}
	return resp, nil
}

// signIDToken builds the OIDC ID token. Identity attributes are gated by
// their own scopes: name needs profile, email needs email. Organization
// principals only ever expose their name.
func (i *Issuer) signIDToken(ctx context.Context, client *repository.Client, p repository.Principal, scopes []string, accessPlain, nonce string) (string, error) {
	extra := map[string]any{
		"at_hash": jwtx.ATHash(accessPlain),
	}
	if nonce != "" {
		extra["nonce"] = nonce
	}

	switch p.Kind {
	case repository.PrincipalIndividual:
		ind, err := i.accounts.IndividualByID(ctx, p.ID)
		if err != nil {
			return "", err
		}
		if validation.ScopeContains(scopes, "profile") {
			extra["name"] = ind.Name
		}
		if validation.ScopeContains(scopes, "email") {
			extra["email"] = ind.Email
		}
	case repository.PrincipalOrganization:
		org, err := i.accounts.OrganizationByID(ctx, p.ID)
		if err != nil {
			return "", err
		}
		if validation.ScopeContains(scopes, "profile") {
			extra["name"] = org.Name
		}
	}

	signed, _, err := i.signer.IssueIDToken(p.ID, client.ClientID, extra, i.idTokenTTL)
	return signed, err
}
