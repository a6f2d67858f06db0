package oauth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/packlane/authd/internal/cache"
	"github.com/packlane/authd/internal/domain/repository"
	jwtx "github.com/packlane/authd/internal/jwt"
	"github.com/packlane/authd/internal/rate"
	"github.com/packlane/authd/internal/security/secrethash"
	tokens "github.com/packlane/authd/internal/security/token"
	"github.com/packlane/authd/internal/store/memory"
)

// Light argon2id parameters so the suite does not burn minutes hashing.
var testHashParams = secrethash.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

const (
	testIndividualID = "11111111-1111-1111-1111-111111111111"
	testOrgID        = "22222222-2222-2222-2222-222222222222"
	testOwnerID      = "9001"
	clientSecret     = "s3cret-value"
)

type env struct {
	store  *memory.Store
	cache  cache.Client
	codec  *tokens.Codec
	signer *jwtx.Issuer

	auth     *ClientAuthenticator
	resolver *PrincipalResolver
	authz    *AuthorizeService
	issue    *Issuer

	verifier *fakeVerifier
	tokens   *TokenService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	st := memory.New()
	st.SeedIndividual(repository.Individual{ID: testIndividualID, Name: "Ada Lovelace", Email: "ada@example.com"})
	st.SeedOrganization(repository.Organization{ID: testOrgID, Name: "Acme Registry", GitHubOwnerID: testOwnerID})
	st.SeedOrgAdmin(testOrgID, testIndividualID)

	c, err := cache.New(cache.Config{Driver: "memory", Prefix: "test"})
	require.NoError(t, err)

	key, err := jwtx.GenerateSigningKey()
	require.NoError(t, err)
	signer := jwtx.NewIssuer("https://auth.packlane.dev", key)

	codec := tokens.NewCodec([]byte("test-hmac-secret"))
	auth := &ClientAuthenticator{Clients: st.Clients()}
	resolver := &PrincipalResolver{Accounts: st.Accounts()}

	iss := &Issuer{
		codec:      codec,
		tokens:     st.Tokens(),
		accounts:   st.Accounts(),
		signer:     signer,
		accessTTL:  time.Hour,
		refreshTTL: 24 * time.Hour,
		idTokenTTL: 15 * time.Minute,
	}

	verifier := &fakeVerifier{}
	svc := NewTokenService(auth,
		&AuthCodeGrant{AuthCodes: st.AuthCodes(), Issuer: iss},
		&RefreshGrant{Tokens: st.Tokens(), Issuer: iss},
		&WebSessionGrant{
			Auth: auth, Resolver: resolver, Sessions: st.Sessions(),
			Issuer: iss, Limiter: rate.Unlimited{},
		},
		&GitHubOIDCGrant{Verifier: verifier, Accounts: st.Accounts(), Tokens: st.Tokens(), Issuer: iss},
	)

	return &env{
		store:  st,
		cache:  c,
		codec:  codec,
		signer: signer,
		auth:   auth,

		resolver: resolver,
		authz: &AuthorizeService{
			Auth:         auth,
			Resolver:     resolver,
			Consents:     st.Consents(),
			AuthCodes:    st.AuthCodes(),
			Codec:        codec,
			Cache:        c,
			CodeTTL:      time.Minute,
			ChallengeTTL: 10 * time.Minute,
		},
		issue:    iss,
		verifier: verifier,
		tokens:   svc,
	}
}

type clientOpts struct {
	clientID   string
	authMethod string
	grantTypes []string
	scopes     []string
	redirects  []string
	firstParty bool
	defaultSub repository.PrincipalKind
}

func (e *env) createClient(t *testing.T, o clientOpts) *repository.Client {
	t.Helper()
	if o.scopes == nil {
		o.scopes = []string{"openid", "profile", "email", "packages:read", "packages:write"}
	}
	if o.redirects == nil {
		o.redirects = []string{"https://app.packlane.dev/callback"}
	}
	var secretHash string
	if o.authMethod != repository.AuthMethodNone {
		h, err := secrethash.Hash(testHashParams, clientSecret)
		require.NoError(t, err)
		secretHash = h
	}
	c := &repository.Client{
		ClientID:       o.clientID,
		Name:           "Test " + o.clientID,
		SecretHash:     secretHash,
		RedirectURIs:   o.redirects,
		GrantTypes:     o.grantTypes,
		AuthMethod:     o.authMethod,
		Scopes:         o.scopes,
		FirstParty:     o.firstParty,
		DefaultSubType: o.defaultSub,
	}
	require.NoError(t, e.store.Clients().Create(context.Background(), c))
	return c
}

// mintCode runs the authorize step with a first-party client and returns
// the plaintext code.
func (e *env) mintCode(t *testing.T, req AuthorizeRequest) string {
	t.Helper()
	res, err := e.authz.Authorize(context.Background(), req)
	require.NoError(t, err)
	require.False(t, res.ConsentPending)
	require.NotEmpty(t, res.Code)
	return res.Code
}

func (e *env) seedSession(t *testing.T, plain string, individualID string, expiresIn time.Duration) {
	t.Helper()
	now := time.Now().UTC()
	e.store.SeedSession(repository.WebSession{
		ID:           "ws-" + individualID,
		TokenHash:    e.codec.Hash(plain),
		IndividualID: individualID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(expiresIn),
	})
}

// fakeVerifier lets federated-grant tests hand back arbitrary claims
// without a network key fetch.
type fakeVerifier struct {
	claims *FederatedClaims
	err    error
}

func (f *fakeVerifier) Verify(context.Context, string) (*FederatedClaims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}
