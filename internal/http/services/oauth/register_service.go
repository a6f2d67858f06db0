package oauth

import (
	"context"

	"github.com/packlane/authd/internal/domain/repository"
	"github.com/packlane/authd/internal/observability/logger"
	"github.com/packlane/authd/internal/security/secrethash"
	tokens "github.com/packlane/authd/internal/security/token"
	"github.com/packlane/authd/internal/validation"
)

// ClientRegistration is the metadata a registering client submits.
type ClientRegistration struct {
	ClientID       string
	Name           string
	RedirectURIs   []string
	GrantTypes     []string
	AuthMethod     string
	Scopes         []string
	DefaultSubType string
}

// RegisteredClient is the one-time response to a successful registration:
// the secret and registration access token appear here in plaintext and
// nowhere else, ever.
type RegisteredClient struct {
	Client                  *repository.Client
	ClientSecret            string
	RegistrationAccessToken string
}

// RegisterService validates client metadata shape and persists new
// clients. Business rules about who may register live outside this core.
type RegisterService struct {
	Clients    repository.ClientRepository
	HashParams secrethash.Params
}

// Register validates and creates a client. Secret-bearing auth methods get
// a generated secret; every client gets a registration access token for
// later self-service updates.
func (s *RegisterService) Register(ctx context.Context, reg ClientRegistration) (*RegisteredClient, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("oauth.register"),
		logger.ClientID(reg.ClientID),
	)

	if err := validateRegistration(&reg); err != nil {
		return nil, err
	}

	regToken, err := tokens.RandomOpaque(32)
	if err != nil {
		return nil, ErrServerError
	}
	regTokenHash, err := secrethash.Hash(s.HashParams, regToken)
	if err != nil {
		return nil, ErrServerError
	}

	var secret, secretHash string
	if reg.AuthMethod != repository.AuthMethodNone {
		if secret, err = tokens.RandomOpaque(32); err != nil {
			return nil, ErrServerError
		}
		if secretHash, err = secrethash.Hash(s.HashParams, secret); err != nil {
			return nil, ErrServerError
		}
	}

	c := &repository.Client{
		ClientID:              reg.ClientID,
		Name:                  reg.Name,
		SecretHash:            secretHash,
		RegistrationTokenHash: regTokenHash,
		RedirectURIs:          reg.RedirectURIs,
		GrantTypes:            reg.GrantTypes,
		AuthMethod:            reg.AuthMethod,
		Scopes:                reg.Scopes,
		DefaultSubType:        repository.PrincipalKind(reg.DefaultSubType),
	}
	if err := s.Clients.Create(ctx, c); err != nil {
		if err == repository.ErrConflict {
			return nil, ErrInvalidRequest
		}
		log.Error("client create failed", logger.Err(err))
		return nil, ErrServerError
	}
	log.Info("client registered")

	return &RegisteredClient{
		Client:                  c,
		ClientSecret:            secret,
		RegistrationAccessToken: regToken,
	}, nil
}

// Update replaces a client's mutable metadata after verifying the
// registration access token.
func (s *RegisterService) Update(ctx context.Context, clientID, regToken string, reg ClientRegistration) (*repository.Client, error) {
	c, err := s.authorizeRegistration(ctx, clientID, regToken)
	if err != nil {
		return nil, err
	}
	reg.ClientID = clientID
	reg.AuthMethod = c.AuthMethod
	if err := validateRegistration(&reg); err != nil {
		return nil, err
	}
	c.Name = reg.Name
	c.RedirectURIs = reg.RedirectURIs
	c.GrantTypes = reg.GrantTypes
	c.Scopes = reg.Scopes
	c.DefaultSubType = repository.PrincipalKind(reg.DefaultSubType)
	if err := s.Clients.Update(ctx, c); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidClient
		}
		return nil, ErrServerError
	}
	return c, nil
}

// Delete soft-deletes a client. Its rows stay so outstanding tokens remain
// revocable and auditable.
func (s *RegisterService) Delete(ctx context.Context, clientID, regToken string) error {
	if _, err := s.authorizeRegistration(ctx, clientID, regToken); err != nil {
		return err
	}
	if err := s.Clients.SoftDelete(ctx, clientID); err != nil {
		if repository.IsNotFound(err) {
			return ErrInvalidClient
		}
		return ErrServerError
	}
	return nil
}

func (s *RegisterService) authorizeRegistration(ctx context.Context, clientID, regToken string) (*repository.Client, error) {
	if clientID == "" || regToken == "" {
		return nil, ErrInvalidClient
	}
	c, err := s.Clients.GetByClientID(ctx, clientID)
	if err != nil || c.DeletedAt != nil {
		return nil, ErrInvalidClient
	}
	if !secrethash.Verify(regToken, c.RegistrationTokenHash) {
		return nil, ErrInvalidClient
	}
	return c, nil
}

// validateRegistration checks the shape of the submitted metadata and
// fills the defaultable fields.
func validateRegistration(reg *ClientRegistration) error {
	if !validation.ValidClientID(reg.ClientID) || reg.Name == "" {
		return ErrInvalidRequest
	}
	switch reg.AuthMethod {
	case repository.AuthMethodBasic, repository.AuthMethodPost, repository.AuthMethodNone:
	default:
		return ErrInvalidRequest
	}
	if len(reg.GrantTypes) == 0 {
		return ErrInvalidRequest
	}
	needsRedirect := false
	for _, g := range reg.GrantTypes {
		if !validation.ValidGrantType(g) {
			return ErrInvalidRequest
		}
		if g == "authorization_code" {
			needsRedirect = true
		}
	}
	if needsRedirect && len(reg.RedirectURIs) == 0 {
		return ErrInvalidRequest
	}
	for _, u := range reg.RedirectURIs {
		if !validation.ValidRedirectURI(u) {
			return ErrInvalidRequest
		}
	}
	for _, sc := range reg.Scopes {
		if !validation.ValidScopeName(sc) {
			return ErrInvalidRequest
		}
	}
	switch reg.DefaultSubType {
	case "":
		reg.DefaultSubType = string(repository.PrincipalIndividual)
	case string(repository.PrincipalIndividual), string(repository.PrincipalOrganization):
	default:
		return ErrInvalidRequest
	}
	return nil
}
