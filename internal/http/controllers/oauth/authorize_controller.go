package oauth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	dto "github.com/packlane/authd/internal/http/dto/oauth"
	"github.com/packlane/authd/internal/http/httperr"
	"github.com/packlane/authd/internal/http/middlewares"
	svc "github.com/packlane/authd/internal/http/services/oauth"
)

// AuthorizeController handles GET/POST /oauth2/authorize and the consent
// decision endpoint backing the consent UI.
type AuthorizeController struct {
	Service *svc.AuthorizeService

	// ConsentUIBaseURL is where pending challenges send the browser.
	// Empty means the JSON prompt is returned directly (API clients,
	// tests, development).
	ConsentUIBaseURL string
}

func (c *AuthorizeController) Authorize(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httperr.WriteJSON(w, svc.ErrInvalidRequest)
		return
	}
	q := r.Form

	req := svc.AuthorizeRequest{
		ResponseType:        q.Get("response_type"),
		ClientID:            q.Get("client_id"),
		RedirectURI:         q.Get("redirect_uri"),
		Scope:               q.Get("scope"),
		State:               q.Get("state"),
		Nonce:               q.Get("nonce"),
		CodeChallenge:       q.Get("code_challenge"),
		CodeChallengeMethod: q.Get("code_challenge_method"),
		Prompt:              q.Get("prompt"),
		SubType:             q.Get("sub_type"),
		Sub:                 q.Get("sub"),
		IndividualID:        middlewares.IndividualID(r.Context()),
	}

	res, err := c.Service.Authorize(r.Context(), req)
	if err != nil {
		c.writeAuthorizeError(w, r, req, err)
		return
	}
	if res.ConsentPending {
		c.renderConsent(w, r, res)
		return
	}
	redirectWithCode(w, r, res)
}

// Decide handles the consent UI's verdict on a parked challenge.
func (c *AuthorizeController) Decide(w http.ResponseWriter, r *http.Request) {
	var body dto.ConsentDecision
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBodySize)).Decode(&body); err != nil {
		httperr.WriteJSON(w, svc.ErrInvalidRequest)
		return
	}

	if !body.Approve {
		uri, state, err := c.Service.Deny(r.Context(), body.Challenge)
		if errors.Is(err, svc.ErrAccessDenied) && uri != "" {
			httperr.Redirect(w, r, uri, state, svc.ErrAccessDenied)
			return
		}
		httperr.WriteJSON(w, err)
		return
	}

	res, err := c.Service.Approve(r.Context(), body.Challenge, middlewares.IndividualID(r.Context()))
	if err != nil {
		httperr.WriteJSON(w, err)
		return
	}
	redirectWithCode(w, r, res)
}

// writeAuthorizeError follows RFC 6749 §4.1.2.1: protocol errors redirect
// back to the client when the redirect URI itself validated, and render
// directly when it did not (or when the problem is the redirect URI).
func (c *AuthorizeController) writeAuthorizeError(w http.ResponseWriter, r *http.Request, req svc.AuthorizeRequest, err error) {
	switch {
	case errors.Is(err, svc.ErrInvalidClient), errors.Is(err, svc.ErrInvalidRequest), errors.Is(err, svc.ErrServerError):
		httperr.WriteJSON(w, err)
	default:
		httperr.Redirect(w, r, req.RedirectURI, req.State, err)
	}
}

func (c *AuthorizeController) renderConsent(w http.ResponseWriter, r *http.Request, res *svc.AuthorizeResult) {
	if c.ConsentUIBaseURL != "" {
		u, err := url.Parse(c.ConsentUIBaseURL)
		if err == nil {
			q := u.Query()
			q.Set("challenge", res.ChallengeID)
			u.RawQuery = q.Encode()
			http.Redirect(w, r, u.String(), http.StatusFound)
			return
		}
	}
	writeJSON(w, http.StatusOK, dto.ConsentPrompt{
		Challenge:  res.ChallengeID,
		ClientName: res.ClientName,
		Scopes:     res.ConsentScopes,
	})
}

func redirectWithCode(w http.ResponseWriter, r *http.Request, res *svc.AuthorizeResult) {
	u, err := url.Parse(res.RedirectURI)
	if err != nil {
		httperr.WriteJSON(w, svc.ErrServerError)
		return
	}
	q := u.Query()
	q.Set("code", res.Code)
	if res.State != "" {
		q.Set("state", res.State)
	}
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusFound)
}
