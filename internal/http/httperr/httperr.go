// Package httperr maps the service-level protocol errors onto RFC 6749
// wire responses: JSON bodies for the token-style endpoints, error
// redirects for the authorize endpoint.
package httperr

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	svc "github.com/packlane/authd/internal/http/services/oauth"
)

// Body is the RFC 6749 §5.2 error document.
type Body struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

var statusByError = map[error]int{
	svc.ErrInvalidRequest:       http.StatusBadRequest,
	svc.ErrInvalidClient:        http.StatusUnauthorized,
	svc.ErrInvalidGrant:         http.StatusBadRequest,
	svc.ErrInvalidScope:         http.StatusBadRequest,
	svc.ErrUnauthorizedClient:   http.StatusBadRequest,
	svc.ErrUnsupportedGrantType: http.StatusBadRequest,
	svc.ErrAccessDenied:         http.StatusForbidden,
	svc.ErrLoginRequired:        http.StatusUnauthorized,
	svc.ErrConsentRequired:      http.StatusForbidden,
	svc.ErrInvalidSub:           http.StatusBadRequest,
	svc.ErrSlowDown:             http.StatusTooManyRequests,
	svc.ErrServerError:          http.StatusInternalServerError,
}

// WriteJSON renders err as the RFC error body. Unknown errors collapse
// into server_error so internals never leak.
func WriteJSON(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := svc.ErrServerError.Error()
	for e, s := range statusByError {
		if errors.Is(err, e) {
			status, code = s, e.Error()
			break
		}
	}
	if errors.Is(err, svc.ErrInvalidClient) {
		w.Header().Set("WWW-Authenticate", `Basic realm="token"`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Body{Error: code})
}

// Redirect sends an RFC 6749 §4.1.2.1 error redirect back to an already
// validated redirect URI.
func Redirect(w http.ResponseWriter, r *http.Request, redirectURI, state string, err error) {
	code := svc.ErrServerError.Error()
	for e := range statusByError {
		if errors.Is(err, e) {
			code = e.Error()
			break
		}
	}
	u, perr := url.Parse(redirectURI)
	if perr != nil {
		WriteJSON(w, svc.ErrInvalidRequest)
		return
	}
	q := u.Query()
	q.Set("error", code)
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusFound)
}
