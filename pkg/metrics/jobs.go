package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics records housekeeping job runs and the outbox backlog they observe.
type JobMetrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
	backlog  *prometheus.GaugeVec
}

func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_job_duration_seconds",
		Help:    "Duration of housekeeping jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_job_runs_total",
		Help: "Housekeeping job executions by result.",
	}, []string{"job", "result"})
	backlog := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "storefront_outbox_backlog",
		Help: "Undelivered outbox rows by state.",
	}, []string{"state"})
	reg.MustRegister(duration, runs, backlog)
	return &JobMetrics{duration: duration, runs: runs, backlog: backlog}
}

func (j *JobMetrics) ObserveDuration(job string, duration time.Duration) {
	if j == nil || j.duration == nil {
		return
	}
	j.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

func (j *JobMetrics) IncSuccess(job string) {
	if j == nil || j.runs == nil {
		return
	}
	j.runs.WithLabelValues(normalizeLabel(job), "success").Inc()
}

func (j *JobMetrics) IncFailure(job string) {
	if j == nil || j.runs == nil {
		return
	}
	j.runs.WithLabelValues(normalizeLabel(job), "failure").Inc()
}

// SetBacklog publishes the pending and parked outbox row counts.
func (j *JobMetrics) SetBacklog(pending, parked int64) {
	if j == nil || j.backlog == nil {
		return
	}
	j.backlog.WithLabelValues("pending").Set(float64(pending))
	j.backlog.WithLabelValues("parked").Set(float64(parked))
}
