package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// httpRequests counts handled requests.
	// Labels: method, route (gin full path), status
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "homease",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "homease",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// modelLatency measures generative model calls.
	// Labels: operation (analyze, visualize, detect, segment), status (success, error)
	modelLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "homease",
		Subsystem: "gemini",
		Name:      "call_duration_seconds",
		Help:      "Gemini call latency in seconds",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"operation", "status"})

	assessments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "homease",
		Subsystem: "assessments",
		Name:      "total",
		Help:      "Assessment submissions by final status",
	}, []string{"status"})

	// webhookEvents counts processed Stripe events.
	// Labels: type, outcome (applied, duplicate, ignored, error)
	webhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "homease",
		Subsystem: "stripe",
		Name:      "webhook_events_total",
		Help:      "Stripe webhook events by type and outcome",
	}, []string{"type", "outcome"})

	arFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "homease",
		Subsystem: "ar",
		Name:      "frames_total",
		Help:      "AR frames by outcome (ok, rejected, rate_limited, error)",
	}, []string{"outcome"})
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveModelCall records the latency of a Gemini call started at start.
func ObserveModelCall(operation string, start time.Time, err error) {
	modelLatency.WithLabelValues(operation, status(err)).Observe(time.Since(start).Seconds())
}

func AssessmentCompleted(finalStatus string) {
	assessments.WithLabelValues(finalStatus).Inc()
}

func WebhookEvent(eventType, outcome string) {
	webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

func ARFrame(outcome string) {
	arFrames.WithLabelValues(outcome).Inc()
}

// Middleware records request counts and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpLatency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
