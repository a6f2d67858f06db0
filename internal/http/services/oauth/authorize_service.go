package oauth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/packlane/authd/internal/cache"
	"github.com/packlane/authd/internal/domain/repository"
	"github.com/packlane/authd/internal/metrics"
	"github.com/packlane/authd/internal/observability/logger"
	tokens "github.com/packlane/authd/internal/security/token"
)

// AuthorizeRequest is the parsed authorization endpoint request. The
// acting individual comes from the first-party session middleware, not
// from the query string.
type AuthorizeRequest struct {
	ResponseType        string
	ClientID            string
	RedirectURI         string
	Scope               string
	State               string
	Nonce               string
	CodeChallenge       string
	CodeChallengeMethod string
	Prompt              string
	SubType             string
	Sub                 string

	IndividualID string
}

// AuthorizeResult is either an issued code (redirect back to the client)
// or a pending consent step the UI must resolve.
type AuthorizeResult struct {
	// Code-issued outcome.
	Code        string
	RedirectURI string
	State       string

	// Consent-pending outcome.
	ConsentPending bool
	ChallengeID    string
	ConsentScopes  []string
	ClientName     string
}

// consentChallenge is the cached state between the authorize request and
// the user's approval. Consumed at most once via GetDelete.
type consentChallenge struct {
	ClientID            string                   `json:"client_id"`
	SubType             repository.PrincipalKind `json:"sub_type"`
	SubID               string                   `json:"sub_id"`
	Scopes              []string                 `json:"scopes"`
	RedirectURI         string                   `json:"redirect_uri"`
	State               string                   `json:"state,omitempty"`
	Nonce               string                   `json:"nonce,omitempty"`
	CodeChallenge       string                   `json:"code_challenge,omitempty"`
	CodeChallengeMethod string                   `json:"code_challenge_method,omitempty"`
}

// AuthorizeService runs the authorization code flow up to code issuance.
type AuthorizeService struct {
	Auth      *ClientAuthenticator
	Resolver  *PrincipalResolver
	Consents  repository.ConsentRepository
	AuthCodes repository.AuthCodeRepository
	Codec     *tokens.Codec
	Cache     cache.Client

	CodeTTL      time.Duration
	ChallengeTTL time.Duration
	// NonceTTL bounds the per-client nonce replay window.
	NonceTTL time.Duration
}

// Authorize validates the request and either issues a code immediately
// (first-party client, or scope already consented) or parks a consent
// challenge for the UI.
func (s *AuthorizeService) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("oauth.authorize"),
		logger.ClientID(req.ClientID),
	)
	ctx = logger.ToContext(ctx, log)

	res, err := s.authorize(ctx, req)
	outcome := "ok"
	switch {
	case err != nil:
		outcome = err.Error()
	case res.ConsentPending:
		outcome = "consent_pending"
	}
	metrics.AuthorizeRequests.WithLabelValues(outcome).Inc()
	return res, err
}

func (s *AuthorizeService) authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResult, error) {
	if req.ResponseType != "code" {
		return nil, ErrInvalidRequest
	}

	client, err := s.Auth.Resolve(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}
	if req.RedirectURI == "" || !client.AllowsRedirectURI(req.RedirectURI) {
		// Unvalidated redirect targets never receive an error redirect;
		// the controller renders this one directly. Nothing else may be
		// checked before this: any later error redirects to the URI.
		return nil, ErrInvalidRequest
	}
	if !client.AllowsGrantType("authorization_code") {
		return nil, ErrUnauthorizedClient
	}

	scopes, err := resolveClientScope(client, req.Scope)
	if err != nil {
		return nil, err
	}

	if err := s.validatePKCE(client, req.CodeChallenge, req.CodeChallengeMethod); err != nil {
		return nil, err
	}

	if req.Prompt != "" && req.Prompt != "none" {
		return nil, ErrInvalidRequest
	}

	p, err := s.Resolver.Resolve(ctx, client, repository.PrincipalKind(req.SubType), req.Sub, req.IndividualID)
	if err != nil {
		if err == ErrLoginRequired && req.Prompt != "none" {
			// Without prompt=none the UI may send the user to log in; the
			// error still surfaces, the controller decides the redirect.
			return nil, ErrLoginRequired
		}
		return nil, err
	}

	// OIDC nonce replay: a nonce may be used once per client.
	if req.Nonce != "" {
		ok, err := s.Cache.Add(ctx, "nonce:"+client.ClientID+":"+req.Nonce, "1", s.nonceTTL())
		if err != nil {
			logger.From(ctx).Error("nonce guard failed", logger.Err(err))
			return nil, ErrServerError
		}
		if !ok {
			logger.From(ctx).Warn("nonce replay rejected")
			return nil, ErrInvalidRequest
		}
	}

	// Consent decision.
	if client.FirstParty {
		// First-party clients skip the consent screen entirely; the grant
		// is recorded so later prompt=none requests see it.
		if _, err := s.Consents.UpsertUnion(ctx, p, client.ClientID, scopes); err != nil {
			logger.From(ctx).Error("consent upsert failed", logger.Err(err))
			return nil, ErrServerError
		}
		return s.issueCode(ctx, client, p, scopes, req)
	}

	covered := false
	if consent, err := s.Consents.Get(ctx, p, client.ClientID); err == nil {
		covered = consent.Covers(scopes)
	} else if !repository.IsNotFound(err) {
		logger.From(ctx).Error("consent lookup failed", logger.Err(err))
		return nil, ErrServerError
	}

	if covered {
		return s.issueCode(ctx, client, p, scopes, req)
	}
	if req.Prompt == "none" {
		return nil, ErrConsentRequired
	}
	return s.parkChallenge(ctx, client, p, scopes, req)
}

// Approve consumes a pending consent challenge, records the consent and
// issues the code. The approving individual must be the one the challenge
// was created for (or, for an organization principal, an acting admin).
func (s *AuthorizeService) Approve(ctx context.Context, challengeID, individualID string) (*AuthorizeResult, error) {
	ch, client, err := s.takeChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	p := repository.Principal{Kind: ch.SubType, ID: ch.SubID}
	if ch.SubType == repository.PrincipalIndividual && ch.SubID != individualID {
		return nil, ErrAccessDenied
	}
	if _, err := s.Resolver.Resolve(ctx, client, ch.SubType, orgSub(p), individualID); err != nil {
		return nil, err
	}

	if _, err := s.Consents.UpsertUnion(ctx, p, client.ClientID, ch.Scopes); err != nil {
		logger.From(ctx).Error("consent upsert failed", logger.Err(err))
		return nil, ErrServerError
	}
	return s.issueCode(ctx, client, p, ch.Scopes, AuthorizeRequest{
		RedirectURI:         ch.RedirectURI,
		State:               ch.State,
		Nonce:               ch.Nonce,
		CodeChallenge:       ch.CodeChallenge,
		CodeChallengeMethod: ch.CodeChallengeMethod,
	})
}

// Deny consumes a pending challenge and reports the refusal. The
// controller redirects back to the client with access_denied.
func (s *AuthorizeService) Deny(ctx context.Context, challengeID string) (redirectURI, state string, err error) {
	ch, _, err := s.takeChallenge(ctx, challengeID)
	if err != nil {
		return "", "", err
	}
	return ch.RedirectURI, ch.State, ErrAccessDenied
}

func (s *AuthorizeService) validatePKCE(client *repository.Client, challenge, method string) error {
	if challenge == "" {
		if method != "" {
			return ErrInvalidRequest
		}
		// Public clients cannot be told apart by a secret at exchange
		// time; PKCE is their binding and is mandatory.
		if client.AuthMethod == repository.AuthMethodNone {
			return ErrInvalidRequest
		}
		return nil
	}
	switch method {
	case "", repository.ChallengeMethodPlain, repository.ChallengeMethodS256:
		return nil
	default:
		return ErrInvalidRequest
	}
}

func (s *AuthorizeService) issueCode(ctx context.Context, client *repository.Client, p repository.Principal, scopes []string, req AuthorizeRequest) (*AuthorizeResult, error) {
	plain, hash, err := s.Codec.Mint(tokens.KindAuthCode)
	if err != nil {
		return nil, ErrServerError
	}
	now := time.Now().UTC()

	method := req.CodeChallengeMethod
	if req.CodeChallenge != "" && method == "" {
		method = repository.ChallengeMethodPlain
	}

	code := &repository.AuthorizationCode{
		CodeHash:            hash,
		ClientID:            client.ClientID,
		SubType:             p.Kind,
		SubID:               p.ID,
		Scopes:              scopes,
		RedirectURI:         req.RedirectURI,
		Nonce:               req.Nonce,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: method,
		CreatedAt:           now,
		ExpiresAt:           now.Add(s.CodeTTL),
	}
	if err := s.AuthCodes.Create(ctx, code); err != nil {
		logger.From(ctx).Error("code persist failed", logger.Err(err))
		return nil, ErrServerError
	}
	return &AuthorizeResult{
		Code:        plain,
		RedirectURI: req.RedirectURI,
		State:       req.State,
	}, nil
}

func (s *AuthorizeService) parkChallenge(ctx context.Context, client *repository.Client, p repository.Principal, scopes []string, req AuthorizeRequest) (*AuthorizeResult, error) {
	id, err := tokens.RandomOpaque(24)
	if err != nil {
		return nil, ErrServerError
	}
	ch := consentChallenge{
		ClientID:            client.ClientID,
		SubType:             p.Kind,
		SubID:               p.ID,
		Scopes:              scopes,
		RedirectURI:         req.RedirectURI,
		State:               req.State,
		Nonce:               req.Nonce,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
	}
	raw, err := json.Marshal(ch)
	if err != nil {
		return nil, ErrServerError
	}
	if err := s.Cache.Set(ctx, "consent:"+id, string(raw), s.ChallengeTTL); err != nil {
		logger.From(ctx).Error("challenge store failed", logger.Err(err))
		return nil, ErrServerError
	}
	return &AuthorizeResult{
		ConsentPending: true,
		ChallengeID:    id,
		ConsentScopes:  scopes,
		ClientName:     client.Name,
	}, nil
}

// takeChallenge consumes a challenge exactly once and re-resolves its
// client, which must still exist and be live.
func (s *AuthorizeService) takeChallenge(ctx context.Context, challengeID string) (*consentChallenge, *repository.Client, error) {
	if challengeID == "" {
		return nil, nil, ErrInvalidRequest
	}
	raw, err := s.Cache.GetDelete(ctx, "consent:"+challengeID)
	if err != nil {
		if cache.IsNotFound(err) {
			return nil, nil, ErrInvalidRequest
		}
		return nil, nil, ErrServerError
	}
	var ch consentChallenge
	if err := json.Unmarshal([]byte(raw), &ch); err != nil {
		return nil, nil, ErrInvalidRequest
	}
	client, err := s.Auth.Resolve(ctx, ch.ClientID)
	if err != nil {
		return nil, nil, err
	}
	return &ch, client, nil
}

func (s *AuthorizeService) nonceTTL() time.Duration {
	if s.NonceTTL > 0 {
		return s.NonceTTL
	}
	return time.Hour
}

// orgSub returns the sub parameter PrincipalResolver expects when
// re-resolving a parked principal: the org id for organization principals,
// empty for individuals.
func orgSub(p repository.Principal) string {
	if p.Kind == repository.PrincipalOrganization {
		return p.ID
	}
	return ""
}
