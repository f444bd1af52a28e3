package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(retentionDeletedTotal, retentionFileCleanupFailures) }

var retentionDeletedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "retention_jobs_deleted_total",
		Help: "Job rows removed by retention cleanup.",
	},
)

var retentionFileCleanupFailures = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "retention_file_cleanup_failures_total",
		Help: "Per-job output file cleanups that failed after row deletion.",
	},
)

func AddRetentionDeleted(n int)       { retentionDeletedTotal.Add(float64(n)) }
func IncRetentionFileCleanupFailure() { retentionFileCleanupFailures.Inc() }
