package oauth

import (
	"context"

	"github.com/google/uuid"

	"github.com/packlane/authd/internal/domain/repository"
	"github.com/packlane/authd/internal/observability/logger"
)

// PrincipalResolver maps an authenticated individual plus the requested
// sub_type/sub parameters onto a tagged principal. The organization arm is
// re-verified on every call; admin membership is never cached across
// requests.
type PrincipalResolver struct {
	Accounts repository.AccountDirectory
}

// Resolve applies the sub_type rules:
//
//	individual:   principal is the authenticated individual; a sub
//	              parameter is a contradiction and fails invalid_request.
//	organization: sub is required and must name an organization the
//	              individual currently administers. Both "no such org" and
//	              "not an admin" collapse into the same opaque invalid_sub.
//
// An empty subType falls back to the client's default.
func (r *PrincipalResolver) Resolve(ctx context.Context, client *repository.Client, subType repository.PrincipalKind, sub, individualID string) (repository.Principal, error) {
	if individualID == "" {
		return repository.Principal{}, ErrLoginRequired
	}
	if subType == "" {
		subType = client.DefaultSubType
	}
	if subType == "" {
		subType = repository.PrincipalIndividual
	}
	if !subType.Valid() {
		return repository.Principal{}, ErrInvalidRequest
	}

	switch subType {
	case repository.PrincipalIndividual:
		if sub != "" {
			return repository.Principal{}, ErrInvalidRequest
		}
		if _, err := r.Accounts.IndividualByID(ctx, individualID); err != nil {
			if repository.IsNotFound(err) {
				return repository.Principal{}, ErrInvalidSub
			}
			return repository.Principal{}, ErrServerError
		}
		return repository.IndividualPrincipal(individualID), nil

	default: // organization
		if sub == "" {
			return repository.Principal{}, ErrInvalidRequest
		}
		// sub is caller-supplied and lands in UUID columns; a malformed
		// value must look exactly like an unknown org, not surface a
		// storage type error.
		if _, err := uuid.Parse(sub); err != nil {
			return repository.Principal{}, ErrInvalidSub
		}
		ok, err := r.Accounts.IsOrganizationAdmin(ctx, sub, individualID)
		if err != nil {
			logger.From(ctx).Error("admin membership check failed", logger.Err(err))
			return repository.Principal{}, ErrServerError
		}
		if !ok {
			return repository.Principal{}, ErrInvalidSub
		}
		if _, err := r.Accounts.OrganizationByID(ctx, sub); err != nil {
			if repository.IsNotFound(err) {
				return repository.Principal{}, ErrInvalidSub
			}
			return repository.Principal{}, ErrServerError
		}
		return repository.OrganizationPrincipal(sub), nil
	}
}
