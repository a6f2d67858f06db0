// Package oauth contains the controllers of the OAuth2 endpoints. They
// parse and render the wire format; every decision lives in the services.
package oauth

import (
	"encoding/json"
	"net/http"

	"github.com/packlane/authd/internal/http/httperr"
	svc "github.com/packlane/authd/internal/http/services/oauth"
)

const maxFormBodySize = 64 * 1024

// TokenController handles POST /oauth2/token.
type TokenController struct {
	Service *svc.TokenService
}

func (c *TokenController) Token(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBodySize)
	if err := r.ParseForm(); err != nil {
		httperr.WriteJSON(w, svc.ErrInvalidRequest)
		return
	}

	req := &svc.TokenRequest{
		GrantType:    r.PostForm.Get("grant_type"),
		ClientID:     r.PostForm.Get("client_id"),
		ClientSecret: r.PostForm.Get("client_secret"),
		Code:         r.PostForm.Get("code"),
		RedirectURI:  r.PostForm.Get("redirect_uri"),
		CodeVerifier: r.PostForm.Get("code_verifier"),
		RefreshToken: r.PostForm.Get("refresh_token"),
		Scope:        r.PostForm.Get("scope"),
		SessionToken: r.PostForm.Get("session_token"),
		SubType:      r.PostForm.Get("sub_type"),
		Sub:          r.PostForm.Get("sub"),
		IDToken:      r.PostForm.Get("id_token"),
		RemoteAddr:   r.RemoteAddr,
	}
	// HTTP Basic wins over body credentials.
	if id, secret, ok := r.BasicAuth(); ok {
		req.ClientID, req.ClientSecret = id, secret
	}

	resp, err := c.Service.Exchange(r.Context(), req)
	if err != nil {
		httperr.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
