// Package router wires the controllers onto the HTTP mux.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	oauthctrl "github.com/packlane/authd/internal/http/controllers/oauth"
	oidcctrl "github.com/packlane/authd/internal/http/controllers/oidc"
	"github.com/packlane/authd/internal/http/middlewares"
	"github.com/packlane/authd/internal/store"
)

// Deps carries everything the routes need. Controllers left nil are not
// mounted, which keeps partial wiring possible in tests.
type Deps struct {
	Authorize  *oauthctrl.AuthorizeController
	Token      *oauthctrl.TokenController
	Introspect *oauthctrl.IntrospectController
	Revoke     *oauthctrl.RevokeController
	Register   *oauthctrl.RegisterController
	Discovery  *oidcctrl.DiscoveryController

	Session *middlewares.SessionAuth
	Store   store.Store
}

// New builds the server mux. Token-bearing endpoints get no-store headers,
// the authorize and consent endpoints additionally resolve the first-party
// web session.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middlewares.RequestLogger)

	r.Route("/oauth2", func(r chi.Router) {
		r.Use(middlewares.NoStore)

		if deps.Authorize != nil {
			r.Group(func(r chi.Router) {
				if deps.Session != nil {
					r.Use(deps.Session.Middleware)
				}
				r.Get("/authorize", deps.Authorize.Authorize)
				r.Post("/authorize", deps.Authorize.Authorize)
				r.Post("/consent", deps.Authorize.Decide)
			})
		}
		if deps.Token != nil {
			r.Post("/token", deps.Token.Token)
		}
		if deps.Introspect != nil {
			r.Post("/introspect", deps.Introspect.Introspect)
		}
		if deps.Revoke != nil {
			r.Post("/revoke", deps.Revoke.Revoke)
		}
		if deps.Register != nil {
			r.Post("/register", deps.Register.Register)
			r.Put("/register/{clientID}", deps.Register.Update)
			r.Delete("/register/{clientID}", deps.Register.Delete)
		}
	})

	if deps.Discovery != nil {
		r.Get("/.well-known/openid-configuration", deps.Discovery.Configuration)
		r.Get("/.well-known/jwks.json", deps.Discovery.JWKS)
	}

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", healthHandler(deps.Store))

	return r
}

func healthHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if st != nil {
			if err := st.Ping(r.Context()); err != nil {
				http.Error(w, "storage unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	}
}
