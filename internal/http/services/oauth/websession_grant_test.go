package oauth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packlane/authd/internal/domain/repository"
	tokens "github.com/packlane/authd/internal/security/token"
)

func webClient(t *testing.T, e *env) *repository.Client {
	t.Helper()
	return e.createClient(t, clientOpts{
		clientID:   "packlane-web",
		authMethod: repository.AuthMethodBasic,
		grantTypes: []string{"web"},
		firstParty: true,
	})
}

func TestWebGrant_IndividualExchange(t *testing.T) {
	e := newEnv(t)
	webClient(t, e)
	e.seedSession(t, "sess-token-1", testIndividualID, time.Hour)

	resp, err := e.tokens.Exchange(context.Background(), &TokenRequest{
		GrantType: "web", ClientID: "packlane-web", ClientSecret: clientSecret,
		SessionToken: "sess-token-1", Scope: "packages:read",
	})
	require.NoError(t, err)
	assert.Empty(t, resp.RefreshToken, "web grant never issues a refresh token")
	assert.Empty(t, resp.IDToken)

	kind, err := tokens.Classify(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, tokens.KindAccessIndividual, kind)
}

func TestWebGrant_OrganizationExchange(t *testing.T) {
	e := newEnv(t)
	webClient(t, e)
	e.seedSession(t, "sess-token-2", testIndividualID, time.Hour)

	resp, err := e.tokens.Exchange(context.Background(), &TokenRequest{
		GrantType: "web", ClientID: "packlane-web", ClientSecret: clientSecret,
		SessionToken: "sess-token-2", SubType: "organization", Sub: testOrgID,
		Scope: "packages:write",
	})
	require.NoError(t, err)

	kind, err := tokens.Classify(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, tokens.KindAccessOrg, kind)

	row, err := e.store.Tokens().GetByAccessHash(context.Background(), e.codec.Hash(resp.AccessToken))
	require.NoError(t, err)
	assert.Equal(t, repository.PrincipalOrganization, row.SubType)
	assert.Equal(t, testOrgID, row.SubID)
}

func TestWebGrant_SubTypeRules(t *testing.T) {
	e := newEnv(t)
	webClient(t, e)
	e.seedSession(t, "sess-token-3", testIndividualID, time.Hour)

	// individual + sub is a contradiction.
	_, err := e.tokens.Exchange(context.Background(), &TokenRequest{
		GrantType: "web", ClientID: "packlane-web", ClientSecret: clientSecret,
		SessionToken: "sess-token-3", SubType: "individual", Sub: testIndividualID,
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	// organization without sub.
	_, err = e.tokens.Exchange(context.Background(), &TokenRequest{
		GrantType: "web", ClientID: "packlane-web", ClientSecret: clientSecret,
		SessionToken: "sess-token-3", SubType: "organization",
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	// organization the session's individual does not administer: the
	// answer is the same whether or not the org exists.
	for _, sub := range []string{"33333333-3333-3333-3333-333333333333", "no-such-org"} {
		_, err = e.tokens.Exchange(context.Background(), &TokenRequest{
			GrantType: "web", ClientID: "packlane-web", ClientSecret: clientSecret,
			SessionToken: "sess-token-3", SubType: "organization", Sub: sub,
		})
		assert.ErrorIs(t, err, ErrInvalidSub)
	}
}

func TestWebGrant_SessionValidity(t *testing.T) {
	e := newEnv(t)
	webClient(t, e)

	// Unknown session token.
	_, err := e.tokens.Exchange(context.Background(), &TokenRequest{
		GrantType: "web", ClientID: "packlane-web", ClientSecret: clientSecret,
		SessionToken: "never-issued",
	})
	assert.ErrorIs(t, err, ErrInvalidGrant)

	// Expired session.
	e.seedSession(t, "sess-expired", testIndividualID, -time.Minute)
	_, err = e.tokens.Exchange(context.Background(), &TokenRequest{
		GrantType: "web", ClientID: "packlane-web", ClientSecret: clientSecret,
		SessionToken: "sess-expired",
	})
	assert.ErrorIs(t, err, ErrInvalidGrant)

	// Revoked session.
	now := time.Now().UTC()
	revoked := now.Add(-time.Minute)
	e.store.SeedSession(repository.WebSession{
		ID: "ws-revoked", TokenHash: e.codec.Hash("sess-revoked"),
		IndividualID: testIndividualID,
		CreatedAt:    now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour), RevokedAt: &revoked,
	})
	_, err = e.tokens.Exchange(context.Background(), &TokenRequest{
		GrantType: "web", ClientID: "packlane-web", ClientSecret: clientSecret,
		SessionToken: "sess-revoked",
	})
	assert.ErrorIs(t, err, ErrInvalidGrant)
}

func TestWebGrant_RequiresConfidentialClient(t *testing.T) {
	e := newEnv(t)
	e.createClient(t, clientOpts{
		clientID:   "public-cli",
		authMethod: repository.AuthMethodNone,
		grantTypes: []string{"web"},
	})
	e.seedSession(t, "sess-token-4", testIndividualID, time.Hour)

	_, err := e.tokens.Exchange(context.Background(), &TokenRequest{
		GrantType: "web", ClientID: "public-cli",
		SessionToken: "sess-token-4",
	})
	assert.ErrorIs(t, err, ErrInvalidClient)
}
