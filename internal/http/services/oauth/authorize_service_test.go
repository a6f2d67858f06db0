package oauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packlane/authd/internal/domain/repository"
)

func TestAuthorize_FirstPartyAutoConsent(t *testing.T) {
	e := newEnv(t)
	e.createClient(t, clientOpts{
		clientID:   "packlane-web",
		authMethod: repository.AuthMethodBasic,
		grantTypes: []string{"authorization_code"},
		firstParty: true,
	})

	res, err := e.authz.Authorize(context.Background(), AuthorizeRequest{
		ResponseType: "code", ClientID: "packlane-web", RedirectURI: redirectURI,
		Scope: "openid email", State: "st", IndividualID: testIndividualID,
	})
	require.NoError(t, err)
	assert.False(t, res.ConsentPending, "first-party skips the consent screen")
	assert.NotEmpty(t, res.Code)
	assert.Equal(t, "st", res.State)

	// The bypass still records the grant.
	consent, err := e.store.Consents().Get(context.Background(),
		repository.IndividualPrincipal(testIndividualID), "packlane-web")
	require.NoError(t, err)
	assert.True(t, consent.Covers([]string{"openid", "email"}))
}

func TestAuthorize_ThirdPartyConsentFlow(t *testing.T) {
	e := newEnv(t)
	e.createClient(t, clientOpts{
		clientID:   "third-party",
		authMethod: repository.AuthMethodBasic,
		grantTypes: []string{"authorization_code"},
	})
	ctx := context.Background()

	// No prior consent: the flow parks a challenge.
	res, err := e.authz.Authorize(ctx, AuthorizeRequest{
		ResponseType: "code", ClientID: "third-party", RedirectURI: redirectURI,
		Scope: "openid packages:read", State: "st-1", IndividualID: testIndividualID,
	})
	require.NoError(t, err)
	require.True(t, res.ConsentPending)
	require.NotEmpty(t, res.ChallengeID)
	assert.ElementsMatch(t, []string{"openid", "packages:read"}, res.ConsentScopes)

	// Approval issues the code and records consent.
	approved, err := e.authz.Approve(ctx, res.ChallengeID, testIndividualID)
	require.NoError(t, err)
	assert.NotEmpty(t, approved.Code)
	assert.Equal(t, "st-1", approved.State)

	// A challenge is one-shot.
	_, err = e.authz.Approve(ctx, res.ChallengeID, testIndividualID)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	// Same scope again: consent already covers it, instant code.
	res2, err := e.authz.Authorize(ctx, AuthorizeRequest{
		ResponseType: "code", ClientID: "third-party", RedirectURI: redirectURI,
		Scope: "openid packages:read", IndividualID: testIndividualID,
	})
	require.NoError(t, err)
	assert.False(t, res2.ConsentPending)
}

func TestAuthorize_PromptNoneSemantics(t *testing.T) {
	e := newEnv(t)
	e.createClient(t, clientOpts{
		clientID:   "third-party",
		authMethod: repository.AuthMethodBasic,
		grantTypes: []string{"authorization_code"},
	})
	ctx := context.Background()

	// prompt=none with no consent at all.
	_, err := e.authz.Authorize(ctx, AuthorizeRequest{
		ResponseType: "code", ClientID: "third-party", RedirectURI: redirectURI,
		Scope: "openid", Prompt: "none", IndividualID: testIndividualID,
	})
	assert.ErrorIs(t, err, ErrConsentRequired)

	// Grant openid, then prompt=none for the granted scope succeeds.
	res, err := e.authz.Authorize(ctx, AuthorizeRequest{
		ResponseType: "code", ClientID: "third-party", RedirectURI: redirectURI,
		Scope: "openid", IndividualID: testIndividualID,
	})
	require.NoError(t, err)
	_, err = e.authz.Approve(ctx, res.ChallengeID, testIndividualID)
	require.NoError(t, err)

	ok, err := e.authz.Authorize(ctx, AuthorizeRequest{
		ResponseType: "code", ClientID: "third-party", RedirectURI: redirectURI,
		Scope: "openid", Prompt: "none", IndividualID: testIndividualID,
	})
	require.NoError(t, err)
	assert.False(t, ok.ConsentPending)
	assert.NotEmpty(t, ok.Code)

	// One additional unconsented scope with prompt=none fails again.
	_, err = e.authz.Authorize(ctx, AuthorizeRequest{
		ResponseType: "code", ClientID: "third-party", RedirectURI: redirectURI,
		Scope: "openid email", Prompt: "none", IndividualID: testIndividualID,
	})
	assert.ErrorIs(t, err, ErrConsentRequired)

	// prompt=none without an authenticated individual.
	_, err = e.authz.Authorize(ctx, AuthorizeRequest{
		ResponseType: "code", ClientID: "third-party", RedirectURI: redirectURI,
		Scope: "openid", Prompt: "none",
	})
	assert.ErrorIs(t, err, ErrLoginRequired)
}

func TestAuthorize_Deny(t *testing.T) {
	e := newEnv(t)
	e.createClient(t, clientOpts{
		clientID:   "third-party",
		authMethod: repository.AuthMethodBasic,
		grantTypes: []string{"authorization_code"},
	})
	ctx := context.Background()

	res, err := e.authz.Authorize(ctx, AuthorizeRequest{
		ResponseType: "code", ClientID: "third-party", RedirectURI: redirectURI,
		Scope: "openid", State: "st-deny", IndividualID: testIndividualID,
	})
	require.NoError(t, err)
	require.True(t, res.ConsentPending)

	uri, state, err := e.authz.Deny(ctx, res.ChallengeID)
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Equal(t, redirectURI, uri)
	assert.Equal(t, "st-deny", state)

	// Refusal records no consent.
	_, err = e.store.Consents().Get(ctx, repository.IndividualPrincipal(testIndividualID), "third-party")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAuthorize_Validation(t *testing.T) {
	e := newEnv(t)
	e.createClient(t, clientOpts{
		clientID:   "web-app",
		authMethod: repository.AuthMethodBasic,
		grantTypes: []string{"authorization_code"},
		firstParty: true,
	})
	ctx := context.Background()
	base := AuthorizeRequest{
		ResponseType: "code", ClientID: "web-app", RedirectURI: redirectURI,
		Scope: "openid", IndividualID: testIndividualID,
	}

	r := base
	r.ResponseType = "token"
	_, err := e.authz.Authorize(ctx, r)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	r = base
	r.ClientID = "ghost"
	_, err = e.authz.Authorize(ctx, r)
	assert.ErrorIs(t, err, ErrInvalidClient)

	// Unregistered redirect URIs never get a code, exact match only.
	for _, uri := range []string{"https://evil.example/cb", redirectURI + "/extra", ""} {
		r = base
		r.RedirectURI = uri
		_, err = e.authz.Authorize(ctx, r)
		assert.ErrorIs(t, err, ErrInvalidRequest, "uri %q", uri)
	}

	// Unknown scope is an error, not silently dropped.
	r = base
	r.Scope = "openid not:registered"
	_, err = e.authz.Authorize(ctx, r)
	assert.ErrorIs(t, err, ErrInvalidScope)

	// Bad challenge method.
	r = base
	r.CodeChallenge = "abc"
	r.CodeChallengeMethod = "S512"
	_, err = e.authz.Authorize(ctx, r)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	// Method without challenge.
	r = base
	r.CodeChallengeMethod = "S256"
	_, err = e.authz.Authorize(ctx, r)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestAuthorize_RedirectValidatedBeforeGrantType(t *testing.T) {
	e := newEnv(t)
	e.createClient(t, clientOpts{
		clientID:   "session-only",
		authMethod: repository.AuthMethodBasic,
		grantTypes: []string{"web"},
		firstParty: true,
	})
	ctx := context.Background()

	// A client without the authorization_code grant and an unregistered
	// redirect URI must fail on the redirect URI: invalid_request renders
	// directly, so the unvalidated target never sees an error redirect.
	_, err := e.authz.Authorize(ctx, AuthorizeRequest{
		ResponseType: "code", ClientID: "session-only",
		RedirectURI: "https://evil.example/phish",
		Scope:       "openid", IndividualID: testIndividualID,
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	// With the registered redirect URI the grant-type refusal surfaces.
	_, err = e.authz.Authorize(ctx, AuthorizeRequest{
		ResponseType: "code", ClientID: "session-only", RedirectURI: redirectURI,
		Scope: "openid", IndividualID: testIndividualID,
	})
	assert.ErrorIs(t, err, ErrUnauthorizedClient)
}

func TestAuthorize_PublicClientRequiresPKCE(t *testing.T) {
	e := newEnv(t)
	e.createClient(t, clientOpts{
		clientID:   "public-cli",
		authMethod: repository.AuthMethodNone,
		grantTypes: []string{"authorization_code"},
		firstParty: true,
	})
	ctx := context.Background()

	_, err := e.authz.Authorize(ctx, AuthorizeRequest{
		ResponseType: "code", ClientID: "public-cli", RedirectURI: redirectURI,
		Scope: "openid", IndividualID: testIndividualID,
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	res, err := e.authz.Authorize(ctx, AuthorizeRequest{
		ResponseType: "code", ClientID: "public-cli", RedirectURI: redirectURI,
		Scope: "openid", IndividualID: testIndividualID,
		CodeChallenge: "a-challenge", CodeChallengeMethod: "S256",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Code)
}

func TestAuthorize_NonceReplayPerClient(t *testing.T) {
	e := newEnv(t)
	e.createClient(t, clientOpts{
		clientID:   "app-a",
		authMethod: repository.AuthMethodBasic,
		grantTypes: []string{"authorization_code"},
		firstParty: true,
	})
	e.createClient(t, clientOpts{
		clientID:   "app-b",
		authMethod: repository.AuthMethodBasic,
		grantTypes: []string{"authorization_code"},
		firstParty: true,
	})
	ctx := context.Background()

	req := AuthorizeRequest{
		ResponseType: "code", ClientID: "app-a", RedirectURI: redirectURI,
		Scope: "openid", Nonce: "n-1", IndividualID: testIndividualID,
	}
	_, err := e.authz.Authorize(ctx, req)
	require.NoError(t, err)

	// Same nonce, same client: replay.
	_, err = e.authz.Authorize(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	// Same nonce on a different client is fine; the guard is per-client.
	req.ClientID = "app-b"
	_, err = e.authz.Authorize(ctx, req)
	assert.NoError(t, err)
}

func TestAuthorize_OrganizationPrincipal(t *testing.T) {
	e := newEnv(t)
	e.createClient(t, clientOpts{
		clientID:   "org-console",
		authMethod: repository.AuthMethodBasic,
		grantTypes: []string{"authorization_code"},
		firstParty: true,
		defaultSub: repository.PrincipalOrganization,
	})
	ctx := context.Background()

	res, err := e.authz.Authorize(ctx, AuthorizeRequest{
		ResponseType: "code", ClientID: "org-console", RedirectURI: redirectURI,
		Scope: "packages:write", Sub: testOrgID, IndividualID: testIndividualID,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Code)

	// The code carries the organization principal.
	code, err := e.store.AuthCodes().Consume(ctx, e.codec.Hash(res.Code), "org-console")
	require.NoError(t, err)
	assert.Equal(t, repository.PrincipalOrganization, code.SubType)
	assert.Equal(t, testOrgID, code.SubID)
}
