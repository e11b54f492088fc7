package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DonationMetrics holds the campaign's Prometheus collectors.
type DonationMetrics struct {
	DonationsInitiatedTotal prometheus.CounterVec
	DonationsCompletedTotal prometheus.CounterVec
	DonationsFailedTotal    prometheus.CounterVec

	DonationAmountCompletedTotal prometheus.CounterVec

	WebhookEventsTotal        prometheus.CounterVec
	NotificationFailuresTotal prometheus.Counter

	CheckoutSessionDuration prometheus.Histogram
}

// NewDonationMetrics registers the collectors on the given registerer.
// Tests pass a fresh registry so instances never collide.
func NewDonationMetrics(reg prometheus.Registerer) *DonationMetrics {
	factory := promauto.With(reg)

	return &DonationMetrics{
		DonationsInitiatedTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "donations_initiated_total",
				Help: "Total number of checkout sessions created",
			},
			[]string{"currency"},
		),

		DonationsCompletedTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "donations_completed_total",
				Help: "Total number of donations confirmed by the processor",
			},
			[]string{"currency"},
		),

		DonationsFailedTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "donations_failed_total",
				Help: "Total number of checkout sessions that expired unpaid",
			},
			[]string{"currency"},
		),

		DonationAmountCompletedTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "donation_amount_completed_total",
				Help: "Total completed donation amount in whole currency units",
			},
			[]string{"currency"},
		),

		WebhookEventsTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_events_total",
				Help: "Webhook deliveries by event type and outcome",
			},
			[]string{"event_type", "outcome"},
		),

		NotificationFailuresTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "notification_failures_total",
				Help: "Confirmation emails that could not be delivered",
			},
		),

		CheckoutSessionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "checkout_session_duration_seconds",
				Help:    "Time spent creating a hosted checkout session",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
	}
}

// RecordDonationInitiated records a created checkout session.
func (m *DonationMetrics) RecordDonationInitiated(currency string) {
	m.DonationsInitiatedTotal.WithLabelValues(currency).Inc()
}

// RecordDonationCompleted records a processor-confirmed donation.
func (m *DonationMetrics) RecordDonationCompleted(currency string, amount float64) {
	m.DonationsCompletedTotal.WithLabelValues(currency).Inc()
	m.DonationAmountCompletedTotal.WithLabelValues(currency).Add(amount)
}

// RecordDonationFailed records an expired checkout session.
func (m *DonationMetrics) RecordDonationFailed(currency string) {
	m.DonationsFailedTotal.WithLabelValues(currency).Inc()
}

// RecordWebhookEvent records one delivery with its processing outcome.
func (m *DonationMetrics) RecordWebhookEvent(eventType, outcome string) {
	m.WebhookEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

// RecordNotificationFailure records a confirmation email failure.
func (m *DonationMetrics) RecordNotificationFailure() {
	m.NotificationFailuresTotal.Inc()
}

// RecordCheckoutSessionDuration records gateway latency for session creation.
func (m *DonationMetrics) RecordCheckoutSessionDuration(seconds float64) {
	m.CheckoutSessionDuration.Observe(seconds)
}
