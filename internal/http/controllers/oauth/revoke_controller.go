package oauth

import (
	"net/http"

	"github.com/packlane/authd/internal/http/httperr"
	svc "github.com/packlane/authd/internal/http/services/oauth"
)

// RevokeController handles POST /oauth2/revoke (RFC 7009).
type RevokeController struct {
	Service *svc.RevokeService
}

func (c *RevokeController) Revoke(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBodySize)
	if err := r.ParseForm(); err != nil {
		httperr.WriteJSON(w, svc.ErrInvalidRequest)
		return
	}
	clientID, clientSecret := clientCredentials(r)

	if err := c.Service.Revoke(r.Context(), clientID, clientSecret, r.PostForm.Get("token")); err != nil {
		// Client auth failures surface; everything about the token itself
		// is a 200 per RFC 7009.
		httperr.WriteJSON(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
