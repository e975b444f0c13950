package observ

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthFailuresTotal counts rejected authentications by taxonomy kind
	// (unauthenticated, inactive, missing_credentials).
	AuthFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notevault",
			Name:      "auth_failures_total",
			Help:      "Total number of rejected authentication attempts",
		},
		[]string{"reason"},
	)

	// TokensIssuedTotal counts successful logins.
	TokensIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "notevault",
			Name:      "tokens_issued_total",
			Help:      "Total number of access tokens minted",
		},
	)

	// HashingFallbackTotal counts bcrypt failures that were absorbed by
	// the argon2id fallback. Anything above zero needs an operator.
	HashingFallbackTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "notevault",
			Name:      "hashing_fallback_total",
			Help:      "Total number of password hashes produced by the fallback algorithm",
		},
	)

	// TenantCacheTotal counts tenant cache lookups by result (hit, miss, error).
	TenantCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notevault",
			Name:      "tenant_cache_total",
			Help:      "Total number of tenant cache lookups",
		},
		[]string{"result"},
	)
)

// RecordAuthFailure records one rejected authentication.
func RecordAuthFailure(reason string) {
	AuthFailuresTotal.WithLabelValues(reason).Inc()
}
