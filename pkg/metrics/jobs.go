package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics records metadata for scheduled worker jobs.
type JobMetrics struct {
	duration      *prometheus.HistogramVec
	success       *prometheus.CounterVec
	failure       *prometheus.CounterVec
	itemsChecked  *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// NewJobMetrics registers the worker job metrics on the provided registerer.
func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of worker jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_success",
		Help: "Successful worker job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failure",
		Help: "Failed worker job executions.",
	}, []string{"job"})
	itemsChecked := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_items_checked_total",
		Help: "Watch list items inspected by worker jobs.",
	}, []string{"job"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_notifications_created_total",
		Help: "Notifications generated by worker jobs.",
	}, []string{"job"})
	reg.MustRegister(duration, success, failure, itemsChecked, notifications)
	return &JobMetrics{
		duration:      duration,
		success:       success,
		failure:       failure,
		itemsChecked:  itemsChecked,
		notifications: notifications,
	}
}

// ObserveDuration records the duration for the named job.
func (j *JobMetrics) ObserveDuration(job string, duration time.Duration) {
	if j == nil || j.duration == nil {
		return
	}
	j.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (j *JobMetrics) IncSuccess(job string) {
	if j == nil || j.success == nil {
		return
	}
	j.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (j *JobMetrics) IncFailure(job string) {
	if j == nil || j.failure == nil {
		return
	}
	j.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// AddItemsChecked records how many watch list items a run inspected.
func (j *JobMetrics) AddItemsChecked(job string, count int) {
	if j == nil || j.itemsChecked == nil || count <= 0 {
		return
	}
	j.itemsChecked.WithLabelValues(normalizeLabel(job)).Add(float64(count))
}

// AddNotificationsCreated records how many notifications a run produced.
func (j *JobMetrics) AddNotificationsCreated(job string, count int) {
	if j == nil || j.notifications == nil || count <= 0 {
		return
	}
	j.notifications.WithLabelValues(normalizeLabel(job)).Add(float64(count))
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
