package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	payments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_payments_total",
			Help: "Payment lifecycle events by outcome",
		},
		[]string{"outcome"},
	)

	ticketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticketing_tickets_issued_total",
			Help: "Tickets created by successful payments",
		},
	)

	scans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_scans_total",
			Help: "Scan attempts by result",
		},
		[]string{"result"},
	)

	emails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_emails_total",
			Help: "Outgoing emails by kind and status",
		},
		[]string{"kind", "status"},
	)

	scanClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticketing_scan_feed_clients",
			Help: "Connected live scan feed clients",
		},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticketing_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "code"},
	)
)

// Payment outcomes.
const (
	PaymentInitiated    = "initiated"
	PaymentGatewayError = "gateway_error"
	PaymentSucceeded    = "succeeded"
	PaymentFailed       = "failed"
	PaymentReplayed     = "replayed"
)

func TrackPayment(outcome string) {
	payments.WithLabelValues(outcome).Inc()
}

func TrackTicketsIssued(n int) {
	ticketsIssued.Add(float64(n))
}

func TrackScan(result string) {
	scans.WithLabelValues(result).Inc()
}

func TrackEmail(kind string, err error) {
	status := "sent"
	if err != nil {
		status = "failed"
	}
	emails.WithLabelValues(kind, status).Inc()
}

func ScanClientConnected() {
	scanClients.Inc()
}

func ScanClientDisconnected() {
	scanClients.Dec()
}

func ObserveRequest(method, route string, code int, d time.Duration) {
	requestDuration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(d.Seconds())
}
