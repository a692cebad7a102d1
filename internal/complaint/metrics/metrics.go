package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the complaint module.
// Tracks lifecycle counts and the submit critical path duration.
type Metrics struct {
	ComplaintsSubmitted prometheus.Counter
	ComplaintsResolved  prometheus.Counter
	ComplaintsWithdrawn prometheus.Counter
	LimitRejections     prometheus.Counter
	IdentityReveals     prometheus.Counter
	SubmitDuration      prometheus.Histogram
}

// New creates a new Metrics instance with all complaint module metrics registered.
func New() *Metrics {
	return &Metrics{
		ComplaintsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "redressal_complaints_submitted_total",
			Help: "Total number of complaints submitted",
		}),
		ComplaintsResolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "redressal_complaints_resolved_total",
			Help: "Total number of complaints resolved",
		}),
		ComplaintsWithdrawn: promauto.NewCounter(prometheus.CounterOpts{
			Name: "redressal_complaints_withdrawn_total",
			Help: "Total number of complaints withdrawn by their submitter",
		}),
		LimitRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "redressal_limit_rejections_total",
			Help: "Total number of submissions rejected by the active-complaint cap",
		}),
		IdentityReveals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "redressal_identity_reveals_total",
			Help: "Total number of completed anonymous identity reveals",
		}),
		SubmitDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "redressal_submit_duration_seconds",
			Help:    "Duration of Submit operations (cap check, insert, timeline, vault)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementSubmitted records a successful complaint submission.
func (m *Metrics) IncrementSubmitted() { m.ComplaintsSubmitted.Inc() }

// IncrementResolved records a transition into resolved.
func (m *Metrics) IncrementResolved() { m.ComplaintsResolved.Inc() }

// IncrementWithdrawn records a withdrawal.
func (m *Metrics) IncrementWithdrawn() { m.ComplaintsWithdrawn.Inc() }

// IncrementLimitRejections records a submission rejected by the cap.
func (m *Metrics) IncrementLimitRejections() { m.LimitRejections.Inc() }

// IncrementIdentityReveals records a completed reveal.
func (m *Metrics) IncrementIdentityReveals() { m.IdentityReveals.Inc() }

// ObserveSubmit records the duration of a Submit operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSubmit(start time.Time) {
	m.SubmitDuration.Observe(time.Since(start).Seconds())
}
