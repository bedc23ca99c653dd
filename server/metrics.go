package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// metrics holds the Prometheus collectors of one server. Each server has
// its own registry.
type metrics struct {
	registry         *prometheus.Registry
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	fetchFailures    prometheus.Counter
	videosAdded      prometheus.Counter
}

func newMetrics(videosLoaded func() int) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vidcat_api_request_duration_seconds",
				Help:    "HTTP request duration in seconds, by endpoint and method.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint", "method", "status"},
		),
		requestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vidcat_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		}),
		fetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vidcat_source_fetch_failures_total",
			Help: "Failed fetches against the video source.",
		}),
		videosAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vidcat_videos_added_total",
			Help: "Videos appended to the collection by load-more requests.",
		}),
	}

	loaded := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "vidcat_videos_loaded",
			Help: "Number of videos in the in-memory collection.",
		},
		func() float64 { return float64(videosLoaded()) },
	)

	m.registry.MustRegister(
		m.requestDuration,
		m.requestsInFlight,
		m.fetchFailures,
		m.videosAdded,
		loaded,
		collectors.NewGoCollector(),
	)
	return m
}

// middleware records request duration and in-flight count.
func (m *metrics) middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// Fiber reuses the underlying buffers; copy before Next.
		endpoint := sanitizeEndpoint(string([]byte(c.Path())))
		method := string([]byte(c.Method()))

		m.requestsInFlight.Inc()
		defer m.requestsInFlight.Dec()
		start := time.Now()

		err := c.Next()

		status := strconv.Itoa(responseStatus(c, err))
		m.requestDuration.WithLabelValues(endpoint, method, status).Observe(time.Since(start).Seconds())

		return err
	}
}

// handler serves the registry through Fiber.
func (m *metrics) handler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}

// endpoints are the fixed routes reported under their own label.
var endpoints = map[string]struct{}{
	"/health/live":       {},
	"/api/videos":        {},
	"/api/videos/more":   {},
	"/api/videos/reload": {},
	"/api/channels":      {},
	"/api/topics":        {},
}

// unmatchedEndpoint labels every path that matches no route.
const unmatchedEndpoint = "unmatched"

// sanitizeEndpoint maps a request path to its route pattern so label
// cardinality stays bounded.
func sanitizeEndpoint(path string) string {
	if _, ok := endpoints[path]; ok {
		return path
	}
	if rest, ok := strings.CutPrefix(path, "/api/videos/"); ok && rest != "" && !strings.Contains(rest, "/") {
		return "/api/videos/:id"
	}
	return unmatchedEndpoint
}
