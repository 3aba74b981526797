package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CollectionRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cortexsi_collection_runs_total",
		Help: "Total unified collection runs",
	})
	CollectionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cortexsi_collection_duration_seconds",
		Help:    "Unified collection duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	MessagesCollected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cortexsi_messages_collected_total",
		Help: "Messages returned by collectors, before spam filtering",
	}, []string{"source"})
	CollectorFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cortexsi_collector_failures_total",
		Help: "Collectors that failed or panicked and were left out of a run",
	}, []string{"source"})
	RequestErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cortexsi_request_errors_total",
		Help: "Upstream requests that failed inside a collector",
	}, []string{"source"})
	SpamRemoved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cortexsi_spam_removed_total",
		Help: "Messages dropped by the spam filter",
	})
)

func init() {
	prometheus.MustRegister(CollectionRuns, CollectionDuration, MessagesCollected,
		CollectorFailures, RequestErrors, SpamRemoved)
}

// Handler serves /metrics and /health.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return mux
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090"). An empty
// addr does nothing. The returned server can be shut down by the caller.
func StartServer(addr string, onError func(error)) *http.Server {
	if addr == "" {
		return nil
	}
	srv := &http.Server{Addr: addr, Handler: Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) && onError != nil {
			onError(err)
		}
	}()
	return srv
}

// ObserveCollection records a run duration
func ObserveCollection(start time.Time) {
	CollectionRuns.Inc()
	CollectionDuration.Observe(time.Since(start).Seconds())
}

func IncRequestError(source string)     { RequestErrors.WithLabelValues(source).Inc() }
func IncCollectorFailure(source string) { CollectorFailures.WithLabelValues(source).Inc() }
func AddMessages(source string, n int)  { MessagesCollected.WithLabelValues(source).Add(float64(n)) }
func AddSpamRemoved(n int)              { SpamRemoved.Add(float64(n)) }
