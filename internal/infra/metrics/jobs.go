package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(jobsCreatedTotal, jobsProcessedTotal, leaseAcquisitionsTotal, jobsStuckTotal)
}

var jobsCreatedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "jobs_created_total",
		Help: "Total number of jobs created, labeled by service.",
	},
	[]string{"service"},
)

var jobsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "jobs_processed_total",
		Help: "Total number of job runs completed, labeled by status.",
	},
	[]string{"status"}, // 'completed', 'failed', 'dropped'
)

var leaseAcquisitionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "job_lease_acquisitions_total",
		Help: "Lease acquisition attempts, labeled by outcome.",
	},
	[]string{"outcome"}, // 'acquired', 'unavailable', 'error'
)

// jobsStuckTotal counts completions where both the primary save and the
// error-path retry failed. A job on this path stays non-terminal; the
// counter is the alert signal for it.
var jobsStuckTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "jobs_stuck_completions_total",
		Help: "Completions abandoned after the persistence retry also failed.",
	},
)

func IncJobCreated(service string)  { jobsCreatedTotal.WithLabelValues(norm(service)).Inc() }
func IncJobProcessed(status string) { jobsProcessedTotal.WithLabelValues(norm(status)).Inc() }
func IncLeaseAcquisition(outcome string) {
	leaseAcquisitionsTotal.WithLabelValues(norm(outcome)).Inc()
}
func IncJobStuck() { jobsStuckTotal.Inc() }

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
