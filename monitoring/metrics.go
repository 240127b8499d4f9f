package monitoring

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	participationOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "participation_operations_total",
			Help: "Join/cancel/rating operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	surveySubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_submissions_total",
			Help: "Survey submissions by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	availabilityChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "availability_checks_total",
			Help: "Availability evaluations by result",
		},
		[]string{"result"},
	)

	ticketIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Issued participation credentials",
		},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "participation_operation_duration_seconds",
			Help:    "Duration of participation operations",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation"},
	)
)

type Monitor struct{}

func NewMonitor() *Monitor {
	return &Monitor{}
}

// TrackParticipation records a join/cancel/rating outcome. The outcome
// label is the status code string (OK, ALREADY_EXISTS, ...).
func (m *Monitor) TrackParticipation(operation, outcome string) {
	participationOps.WithLabelValues(operation, outcome).Inc()
}

func (m *Monitor) TrackSurveySubmission(surveyType, outcome string) {
	surveySubmissions.WithLabelValues(strings.ToLower(surveyType), outcome).Inc()
}

func (m *Monitor) TrackAvailabilityCheck(available bool) {
	result := "closed"
	if available {
		result = "open"
	}
	availabilityChecks.WithLabelValues(result).Inc()
}

func (m *Monitor) TrackTicketIssued() {
	ticketIssued.Inc()
}

func (m *Monitor) TrackDuration(operation string, d time.Duration) {
	operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}
