// Package oauth contains the DTOs of the OAuth2 endpoints.
package oauth

// RegisterRequest is the client self-registration body.
type RegisterRequest struct {
	ClientID       string   `json:"client_id"`
	Name           string   `json:"name"`
	RedirectURIs   []string `json:"redirect_uris,omitempty"`
	GrantTypes     []string `json:"grant_types"`
	AuthMethod     string   `json:"token_endpoint_auth_method"`
	Scopes         []string `json:"scope,omitempty"`
	DefaultSubType string   `json:"default_sub_type,omitempty"`
}

// RegisterResponse returns the plaintext credentials exactly once.
type RegisterResponse struct {
	ClientID                string   `json:"client_id"`
	ClientSecret            string   `json:"client_secret,omitempty"`
	RegistrationAccessToken string   `json:"registration_access_token"`
	Name                    string   `json:"name"`
	RedirectURIs            []string `json:"redirect_uris,omitempty"`
	GrantTypes              []string `json:"grant_types"`
	AuthMethod              string   `json:"token_endpoint_auth_method"`
	Scopes                  []string `json:"scope,omitempty"`
	DefaultSubType          string   `json:"default_sub_type"`
}

// ConsentPrompt is what the consent UI renders for a pending challenge.
type ConsentPrompt struct {
	Challenge  string   `json:"challenge"`
	ClientName string   `json:"client_name"`
	Scopes     []string `json:"scopes"`
}

// ConsentDecision is the approval or refusal posted by the consent UI.
type ConsentDecision struct {
	Challenge string `json:"challenge"`
	Approve   bool   `json:"approve"`
}
