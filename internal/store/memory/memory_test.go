package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packlane/authd/internal/domain/repository"
)

func TestAuthCodeConsume_ExactlyOnce(t *testing.T) {
	s := New()
	ctx := context.Background()

	code := &repository.AuthorizationCode{
		CodeHash:  "h1",
		ClientID:  "cli",
		SubType:   repository.PrincipalIndividual,
		SubID:     "u1",
		Scopes:    []string{"packages:read"},
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Minute),
	}
	require.NoError(t, s.AuthCodes().Create(ctx, code))

	var wg sync.WaitGroup
	wins := make(chan *repository.AuthorizationCode, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c, err := s.AuthCodes().Consume(ctx, "h1", "cli"); err == nil {
				wins <- c
			}
		}()
	}
	wg.Wait()
	close(wins)

	n := 0
	for range wins {
		n++
	}
	assert.Equal(t, 1, n, "exactly one consumer must win")
}

func TestAuthCodeConsume_WrongClient(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.AuthCodes().Create(ctx, &repository.AuthorizationCode{
		CodeHash: "h2", ClientID: "cli-a",
		ExpiresAt: time.Now().Add(time.Minute),
	}))

	_, err := s.AuthCodes().Consume(ctx, "h2", "cli-b")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// The row survives a mismatched-client attempt.
	c, err := s.AuthCodes().Consume(ctx, "h2", "cli-a")
	require.NoError(t, err)
	assert.Equal(t, "cli-a", c.ClientID)
}

func TestTokenRevokeRefresh_RaceLoser(t *testing.T) {
	s := New()
	ctx := context.Background()
	tk := &repository.Token{
		AccessTokenHash:  "a1",
		RefreshTokenHash: "r1",
		ClientID:         "cli",
		SubType:          repository.PrincipalIndividual,
		SubID:            "u1",
		IssuedAt:         time.Now(),
		AccessExpiresAt:  time.Now().Add(time.Hour),
	}
	require.NoError(t, s.Tokens().Create(ctx, tk))
	require.NotEmpty(t, tk.ID)

	now := time.Now()
	require.NoError(t, s.Tokens().RevokeRefresh(ctx, tk.ID, now))
	assert.ErrorIs(t, s.Tokens().RevokeRefresh(ctx, tk.ID, now), repository.ErrAlreadyConsumed)
	assert.ErrorIs(t, s.Tokens().RevokeRefresh(ctx, "missing", now), repository.ErrNotFound)
}

func TestTokenRevokeAccess_Idempotent(t *testing.T) {
	s := New()
	ctx := context.Background()
	tk := &repository.Token{AccessTokenHash: "a2", ClientID: "cli", SubType: repository.PrincipalOrganization, SubID: "o1"}
	require.NoError(t, s.Tokens().Create(ctx, tk))

	now := time.Now()
	require.NoError(t, s.Tokens().RevokeAccess(ctx, tk.ID, now))
	require.NoError(t, s.Tokens().RevokeAccess(ctx, tk.ID, now))

	got, err := s.Tokens().GetByAccessHash(ctx, "a2")
	require.NoError(t, err)
	require.NotNil(t, got.AccessRevokedAt)
}

func TestNonceSeen(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Tokens().Create(ctx, &repository.Token{
		AccessTokenHash: "a3", ClientID: "cli", Nonce: "jti-1",
	}))

	seen, err := s.Tokens().NonceSeen(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = s.Tokens().NonceSeen(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestConsentUpsertUnion_Grows(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := repository.IndividualPrincipal("u1")

	c, err := s.Consents().UpsertUnion(ctx, p, "cli", []string{"openid", "packages:read"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"openid", "packages:read"}, c.Scopes)

	c, err = s.Consents().UpsertUnion(ctx, p, "cli", []string{"packages:write"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"openid", "packages:read", "packages:write"}, c.Scopes)

	got, err := s.Consents().Get(ctx, p, "cli")
	require.NoError(t, err)
	assert.True(t, got.Covers([]string{"openid", "packages:write"}))
}

func TestClientLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()
	c := &repository.Client{
		ClientID:   "pack-cli",
		Name:       "Packlane CLI",
		AuthMethod: repository.AuthMethodNone,
		GrantTypes: []string{"authorization_code", "refresh_token"},
	}
	require.NoError(t, s.Clients().Create(ctx, c))
	assert.ErrorIs(t, s.Clients().Create(ctx, &repository.Client{ClientID: "pack-cli"}), repository.ErrConflict)

	require.NoError(t, s.Clients().SoftDelete(ctx, "pack-cli"))

	// Soft-deleted clients are still readable so callers can reject them.
	got, err := s.Clients().GetByClientID(ctx, "pack-cli")
	require.NoError(t, err)
	assert.NotNil(t, got.DeletedAt)

	assert.ErrorIs(t, s.Clients().Update(ctx, c), repository.ErrNotFound)
}
