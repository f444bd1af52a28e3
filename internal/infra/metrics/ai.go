package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(aiTokensIn, aiTokensOut, aiCallLatencyMs, embeddingCallsTotal) }

var aiTokensIn = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ai_tokens_in",
		Help: "Sum of prompt (input) tokens per model.",
	},
	[]string{"model"},
)

var aiTokensOut = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ai_tokens_out",
		Help: "Sum of completion (output) tokens per model.",
	},
	[]string{"model"},
)

var aiCallLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "ai_calls_latency_ms",
		Help:    "AI call latency distribution in milliseconds.",
		Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
	},
	[]string{"kind", "model", "success"}, // kind: 'chat' | 'embed'
)

var embeddingCallsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "embedding_calls_total",
		Help: "Embedding API calls, labeled by model and success.",
	},
	[]string{"model", "success"},
)

func ObserveChatUsage(model string, tokensIn, tokensOut, latencyMs int, success bool) {
	aiTokensIn.WithLabelValues(norm(model)).Add(float64(tokensIn))
	aiTokensOut.WithLabelValues(norm(model)).Add(float64(tokensOut))
	aiCallLatencyMs.WithLabelValues("chat", norm(model), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}

func ObserveEmbedding(model string, latencyMs int, success bool) {
	embeddingCallsTotal.WithLabelValues(norm(model), strconv.FormatBool(success)).Inc()
	aiCallLatencyMs.WithLabelValues("embed", norm(model), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}
