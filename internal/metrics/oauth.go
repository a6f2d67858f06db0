package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OAuth-related Prometheus metrics. Defined in a standalone package so the
// grant handlers and the HTTP layer can share them without import cycles.

var (
	GrantRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_grant_requests_total",
		Help: "Token endpoint requests by grant type and outcome",
	}, []string{"grant_type", "outcome"})

	AuthorizeRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_authorize_requests_total",
		Help: "Authorize endpoint requests by outcome",
	}, []string{"outcome"})

	TokensRevoked = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_tokens_revoked_total",
		Help: "Tokens revoked by token type",
	}, []string{"token_type"})

	FederatedKeyFetchLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "oauth_federated_key_fetch_latency_ms",
		Help:    "Latency of federated issuer signing-key fetches in milliseconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)

// RegisterOAuth registers the OAuth metrics on the given registry (or the
// default if nil). Double registration is tolerated so tests can rebuild
// the wiring freely.
func RegisterOAuth(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		GrantRequests,
		AuthorizeRequests,
		TokensRevoked,
		FederatedKeyFetchLatency,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
