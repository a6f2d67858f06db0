// Package oidc exposes the OpenID Connect discovery surface.
package oidc

import (
	"encoding/json"
	"net/http"

	svc "github.com/packlane/authd/internal/http/services/oidc"
)

// DiscoveryController serves the well-known metadata and key documents.
type DiscoveryController struct {
	Service *svc.DiscoveryService
}

func (c *DiscoveryController) Configuration(w http.ResponseWriter, r *http.Request) {
	writeCacheable(w, c.Service.Discovery())
}

func (c *DiscoveryController) JWKS(w http.ResponseWriter, r *http.Request) {
	writeCacheable(w, c.Service.JWKS())
}

func writeCacheable(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_ = json.NewEncoder(w).Encode(v)
}
