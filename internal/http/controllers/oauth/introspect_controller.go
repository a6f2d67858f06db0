package oauth

import (
	"net/http"

	"github.com/packlane/authd/internal/http/httperr"
	svc "github.com/packlane/authd/internal/http/services/oauth"
)

// IntrospectController handles POST /oauth2/introspect (RFC 7662).
type IntrospectController struct {
	Service *svc.IntrospectService
}

func (c *IntrospectController) Introspect(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBodySize)
	if err := r.ParseForm(); err != nil {
		httperr.WriteJSON(w, svc.ErrInvalidRequest)
		return
	}
	clientID, clientSecret := clientCredentials(r)

	// token_type_hint is accepted but ignored: the prefix decides.
	res, err := c.Service.Introspect(r.Context(), clientID, clientSecret, r.PostForm.Get("token"))
	if err != nil {
		httperr.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// clientCredentials reads the client auth pair, Basic header first.
func clientCredentials(r *http.Request) (id, secret string) {
	if id, secret, ok := r.BasicAuth(); ok {
		return id, secret
	}
	return r.PostForm.Get("client_id"), r.PostForm.Get("client_secret")
}
