// Package oauth contains the services of the OAuth2/OIDC domain: the
// authorize flow, the token endpoint grants, introspection, revocation and
// client registration.
package oauth

import "errors"

// Protocol errors, one per RFC 6749 / OIDC error code. Services return
// these (optionally wrapped) and the controllers translate them into the
// wire responses; nothing else crosses the service boundary.
//
// ErrInvalidClient and ErrInvalidGrant are deliberately generic: an
// unknown client and a bad secret look identical, as do an expired code
// and a forged one.
var (
	ErrInvalidRequest       = errors.New("invalid_request")
	ErrInvalidClient        = errors.New("invalid_client")
	ErrInvalidGrant         = errors.New("invalid_grant")
	ErrInvalidScope         = errors.New("invalid_scope")
	ErrUnauthorizedClient   = errors.New("unauthorized_client")
	ErrUnsupportedGrantType = errors.New("unsupported_grant_type")
	ErrAccessDenied         = errors.New("access_denied")
	ErrLoginRequired        = errors.New("login_required")
	ErrConsentRequired      = errors.New("consent_required")
	ErrInvalidSub           = errors.New("invalid_sub")
	ErrSlowDown             = errors.New("slow_down")
	ErrServerError          = errors.New("server_error")
)
