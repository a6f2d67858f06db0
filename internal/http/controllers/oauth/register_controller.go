package oauth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	dto "github.com/packlane/authd/internal/http/dto/oauth"
	"github.com/packlane/authd/internal/http/httperr"
	svc "github.com/packlane/authd/internal/http/services/oauth"
)

// RegisterController handles client self-registration and the
// registration-token-protected update/delete operations.
type RegisterController struct {
	Service *svc.RegisterService
}

func (c *RegisterController) Register(w http.ResponseWriter, r *http.Request) {
	var body dto.RegisterRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBodySize)).Decode(&body); err != nil {
		httperr.WriteJSON(w, svc.ErrInvalidRequest)
		return
	}
	out, err := c.Service.Register(r.Context(), registrationFromDTO(body))
	if err != nil {
		httperr.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.RegisterResponse{
		ClientID:                out.Client.ClientID,
		ClientSecret:            out.ClientSecret,
		RegistrationAccessToken: out.RegistrationAccessToken,
		Name:                    out.Client.Name,
		RedirectURIs:            out.Client.RedirectURIs,
		GrantTypes:              out.Client.GrantTypes,
		AuthMethod:              out.Client.AuthMethod,
		Scopes:                  out.Client.Scopes,
		DefaultSubType:          string(out.Client.DefaultSubType),
	})
}

func (c *RegisterController) Update(w http.ResponseWriter, r *http.Request) {
	var body dto.RegisterRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBodySize)).Decode(&body); err != nil {
		httperr.WriteJSON(w, svc.ErrInvalidRequest)
		return
	}
	clientID := chi.URLParam(r, "clientID")
	got, err := c.Service.Update(r.Context(), clientID, bearerToken(r), registrationFromDTO(body))
	if err != nil {
		httperr.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.RegisterResponse{
		ClientID:       got.ClientID,
		Name:           got.Name,
		RedirectURIs:   got.RedirectURIs,
		GrantTypes:     got.GrantTypes,
		AuthMethod:     got.AuthMethod,
		Scopes:         got.Scopes,
		DefaultSubType: string(got.DefaultSubType),
	})
}

func (c *RegisterController) Delete(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	if err := c.Service.Delete(r.Context(), clientID, bearerToken(r)); err != nil {
		httperr.WriteJSON(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func registrationFromDTO(body dto.RegisterRequest) svc.ClientRegistration {
	return svc.ClientRegistration{
		ClientID:       body.ClientID,
		Name:           body.Name,
		RedirectURIs:   body.RedirectURIs,
		GrantTypes:     body.GrantTypes,
		AuthMethod:     body.AuthMethod,
		Scopes:         body.Scopes,
		DefaultSubType: body.DefaultSubType,
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
