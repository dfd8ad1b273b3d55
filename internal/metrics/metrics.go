package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global metrics we care about. Registered on the default registry so
// promhttp picks up the Go runtime collectors as well.
var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokens_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	LLMPings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokens_llm_pings_total",
			Help: "LLM Ping calls",
		},
		[]string{"provider", "outcome"}, // outcome=ok|error
	)

	LLMChats = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokens_llm_chats_total",
			Help: "LLM Chat calls",
		},
		[]string{"provider", "outcome"},
	)

	LLMChatDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tokens_llm_chat_seconds",
			Help:    "LLM Chat duration seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)

	CacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokens_cache_ops_total",
			Help: "Response cache operations",
		},
		[]string{"op", "outcome"}, // op=get|put outcome=hit|miss|ok|error
	)
)

func init() {
	prometheus.MustRegister(HTTPRequests, LLMPings, LLMChats, LLMChatDur, CacheOps)
}

// Handler exposes all metrics in Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
