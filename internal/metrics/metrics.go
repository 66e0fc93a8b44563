// Package metrics exposes the storefront's Prometheus instruments.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "perfumery"

var (
	// httpRequests counts finished requests.
	// Labels: method, route (the mux pattern), code
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by route and status code",
	}, []string{"method", "route", "code"})

	// httpDuration measures request latency.
	// Labels: method, route
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// logins counts login attempts.
	// Labels: result (success, failure, throttled)
	logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Total login attempts by result",
	}, []string{"result"})

	// comments counts reviews posted.
	comments = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "catalog",
		Name:      "comments_total",
		Help:      "Total reviews posted",
	})

	// adminActions counts dashboard mutations.
	// Labels: entity (user, perfume, brand), action (create, update, delete, block, unblock, image)
	adminActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "admin",
		Name:      "actions_total",
		Help:      "Total admin dashboard mutations",
	}, []string{"entity", "action"})

	// descriptions measures description drafting latency.
	// Labels: status (success, error)
	descriptions = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "copywriter",
		Name:      "duration_seconds",
		Help:      "Description drafting latency in seconds",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"status"})
)

// Login result labels.
const (
	LoginSuccess   = "success"
	LoginFailure   = "failure"
	LoginThrottled = "throttled"
)

func ObserveRequest(method, route string, code int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func RecordLogin(result string) {
	logins.WithLabelValues(result).Inc()
}

func RecordComment() {
	comments.Inc()
}

func RecordAdminAction(entity, action string) {
	adminActions.WithLabelValues(entity, action).Inc()
}

func ObserveDescription(err error, elapsed time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	descriptions.WithLabelValues(status).Observe(elapsed.Seconds())
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
