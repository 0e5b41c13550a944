package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wanderbook",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingCommits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wanderbook",
			Name:      "booking_commits_total",
			Help:      "Booking commit attempts by outcome.",
		},
		[]string{"outcome"},
	)

	promoValidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wanderbook",
			Name:      "promo_validations_total",
			Help:      "Promo code validations by verdict.",
		},
		[]string{"verdict"},
	)

	reportExports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wanderbook",
			Name:      "report_exports_total",
			Help:      "Booking report exports by result.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingCommits, promoValidations, reportExports)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncBookingCommit counts a commit attempt outcome (confirmed,
// insufficient_capacity, promo_exhausted, validation_error, error).
func IncBookingCommit(outcome string) {
	bookingCommits.WithLabelValues(outcome).Inc()
}

// IncPromoValidation counts a validation verdict.
func IncPromoValidation(verdict string) {
	promoValidations.WithLabelValues(verdict).Inc()
}

// IncReportExport counts a report export result.
func IncReportExport(result string) {
	reportExports.WithLabelValues(result).Inc()
}
