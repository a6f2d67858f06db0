package oauth

import (
	"context"
	"time"

	"github.com/packlane/authd/internal/domain/repository"
	"github.com/packlane/authd/internal/observability/logger"
	tokens "github.com/packlane/authd/internal/security/token"
	"github.com/packlane/authd/internal/validation"
)

// Introspection is the RFC 7662 response body. Inactive tokens carry
// nothing but active:false, whatever the reason.
type Introspection struct {
	Active   bool   `json:"active"`
	ClientID string `json:"client_id,omitempty"`
	Scope    string `json:"scope,omitempty"`
	SubType  string `json:"sub_type,omitempty"`
	Sub      string `json:"sub,omitempty"`
	Exp      int64  `json:"exp,omitempty"`
	Iat      int64  `json:"iat,omitempty"`
}

// IntrospectService answers resource-server token checks.
type IntrospectService struct {
	Auth   *ClientAuthenticator
	Tokens repository.TokenRepository
	Codec  *tokens.Codec
}

var inactive = &Introspection{Active: false}

// Introspect classifies the presented string by its prefix and looks up
// the matching hash column. The token_type_hint parameter is accepted but
// the prefix always wins. Callers must already be authenticated clients.
func (s *IntrospectService) Introspect(ctx context.Context, clientID, clientSecret, presented string) (*Introspection, error) {
	if _, err := s.Auth.Authenticate(ctx, clientID, clientSecret); err != nil {
		return nil, err
	}

	kind, err := tokens.Classify(presented)
	if err != nil {
		// Malformed input is just an inactive token, not an error.
		return inactive, nil
	}

	now := time.Now().UTC()
	hash := s.Codec.Hash(presented)

	var row *repository.Token
	var usable bool
	var exp time.Time
	switch {
	case kind.IsAccess():
		row, err = s.Tokens.GetByAccessHash(ctx, hash)
		if err == nil {
			usable = row.AccessUsable(now)
			exp = row.AccessExpiresAt
		}
	case kind.IsRefresh():
		row, err = s.Tokens.GetByRefreshHash(ctx, hash)
		if err == nil {
			usable = row.RefreshUsable(now)
			if row.RefreshExpiresAt != nil {
				exp = *row.RefreshExpiresAt
			}
		}
	default:
		// Authorization codes are not introspectable.
		return inactive, nil
	}
	if err != nil {
		if repository.IsNotFound(err) {
			return inactive, nil
		}
		logger.From(ctx).Error("introspection lookup failed", logger.Err(err))
		return nil, ErrServerError
	}
	if !usable {
		return inactive, nil
	}

	return &Introspection{
		Active:   true,
		ClientID: row.ClientID,
		Scope:    validation.JoinScope(row.Scopes),
		SubType:  string(row.SubType),
		Sub:      row.SubID,
		Exp:      exp.Unix(),
		Iat:      row.IssuedAt.Unix(),
	}, nil
}
