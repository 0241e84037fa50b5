package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Sign-in pipeline Prometheus metrics. Defined in a standalone package so the
// HTTP server and the auth service can share them without an import cycle.

var (
	SignInOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oidc_signin_outcomes_total",
		Help: "Completed OIDC sign-in attempts by outcome",
	}, []string{"outcome"})

	AccessCheckDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "access_check_duration_seconds",
		Help:    "Latency of the external access-control API call",
		Buckets: prometheus.DefBuckets,
	})
)

// Register registers the sign-in metrics on the given registry (or the
// default registry if nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{SignInOutcomes, AccessCheckDuration} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
