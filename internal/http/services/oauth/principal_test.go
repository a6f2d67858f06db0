package oauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packlane/authd/internal/domain/repository"
)

func TestPrincipalResolver(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	client := &repository.Client{ClientID: "c", DefaultSubType: repository.PrincipalIndividual}

	t.Run("individual", func(t *testing.T) {
		p, err := e.resolver.Resolve(ctx, client, repository.PrincipalIndividual, "", testIndividualID)
		require.NoError(t, err)
		assert.Equal(t, repository.IndividualPrincipal(testIndividualID), p)
	})

	t.Run("individual with sub is a contradiction", func(t *testing.T) {
		_, err := e.resolver.Resolve(ctx, client, repository.PrincipalIndividual, testIndividualID, testIndividualID)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("defaults to client sub type", func(t *testing.T) {
		p, err := e.resolver.Resolve(ctx, client, "", "", testIndividualID)
		require.NoError(t, err)
		assert.Equal(t, repository.PrincipalIndividual, p.Kind)
	})

	t.Run("organization admin", func(t *testing.T) {
		p, err := e.resolver.Resolve(ctx, client, repository.PrincipalOrganization, testOrgID, testIndividualID)
		require.NoError(t, err)
		assert.Equal(t, repository.OrganizationPrincipal(testOrgID), p)
	})

	t.Run("organization requires sub", func(t *testing.T) {
		_, err := e.resolver.Resolve(ctx, client, repository.PrincipalOrganization, "", testIndividualID)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("opaque invalid_sub", func(t *testing.T) {
		// An unrelated individual gets the same answer for an org they
		// do not administer, for one that does not exist, and for a sub
		// that is not even id-shaped. No storage error may leak the
		// difference.
		e.store.SeedIndividual(repository.Individual{ID: "other-ind", Name: "Eve"})
		for _, sub := range []string{
			testOrgID,
			"33333333-3333-3333-3333-333333333333",
			"org-42",
			"'; DROP TABLE organizations;--",
		} {
			_, err := e.resolver.Resolve(ctx, client, repository.PrincipalOrganization, sub, "other-ind")
			assert.ErrorIs(t, err, ErrInvalidSub, "sub %q", sub)
		}
	})

	t.Run("unknown individual", func(t *testing.T) {
		_, err := e.resolver.Resolve(ctx, client, repository.PrincipalIndividual, "", "ghost")
		assert.ErrorIs(t, err, ErrInvalidSub)
	})

	t.Run("no authenticated individual", func(t *testing.T) {
		_, err := e.resolver.Resolve(ctx, client, repository.PrincipalIndividual, "", "")
		assert.ErrorIs(t, err, ErrLoginRequired)
	})

	t.Run("bogus sub type", func(t *testing.T) {
		_, err := e.resolver.Resolve(ctx, client, "robot", "", testIndividualID)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})
}
