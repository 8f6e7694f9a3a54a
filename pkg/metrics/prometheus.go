package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var defaultMetricPath = "/metrics"

// Logger is the minimal logging surface the middleware needs.
type Logger interface {
	Errorf(format string, v ...interface{})
}

// URLLabelMappingFn controls the cardinality of the "url" label; map
// parameterized routes to their template (gin's FullPath) rather than the
// raw request path.
type URLLabelMappingFn func(c *gin.Context) string

// Prometheus instruments a gin engine with request count/latency metrics
// and exposes the scrape endpoint, optionally on a separate listen address
// so /metrics stays out of the service access log.
type Prometheus struct {
	reqCnt *prometheus.CounterVec
	reqDur *prometheus.HistogramVec

	listenAddress string
	router        *gin.Engine

	MetricsPath       string
	URLLabelMappingFn URLLabelMappingFn

	logger Logger
}

type Options struct {
	Subsystem         string
	MetricsPath       string
	URLLabelMappingFn URLLabelMappingFn
	Logger            Logger
}

func NewPrometheus(opts Options) *Prometheus {
	p := &Prometheus{
		MetricsPath:       opts.MetricsPath,
		URLLabelMappingFn: opts.URLLabelMappingFn,
		logger:            opts.Logger,
	}
	if p.MetricsPath == "" {
		p.MetricsPath = defaultMetricPath
	}
	if p.URLLabelMappingFn == nil {
		p.URLLabelMappingFn = func(c *gin.Context) string { return c.Request.URL.Path }
	}

	p.reqCnt = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: opts.Subsystem,
			Name:      "req_total",
			Help:      "How many HTTP requests processed, partitioned by status code, method and url.",
		},
		[]string{"code", "method", "url"},
	)
	p.reqDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Subsystem: opts.Subsystem,
			Name:      "req_dur_ms",
			Help:      "The HTTP request latencies in milliseconds.",
			Buckets:   HistogramBuckets,
		},
		[]string{"code", "method", "url"},
	)
	for _, c := range []prometheus.Collector{p.reqCnt, p.reqDur} {
		if err := prometheus.Register(c); err != nil && p.logger != nil {
			p.logger.Errorf("metric could not be registered: %v", err)
		}
	}
	return p
}

// SetListenAddress exposes /metrics on its own address instead of the
// instrumented engine.
func (p *Prometheus) SetListenAddress(address string) {
	p.listenAddress = address
	if p.listenAddress != "" {
		p.router = gin.New()
	}
}

// Use attaches the middleware to the engine and wires the scrape endpoint.
func (p *Prometheus) Use(e *gin.Engine) {
	e.Use(p.HandlerFunc())
	if p.listenAddress != "" {
		p.router.GET(p.MetricsPath, gin.WrapH(promhttp.Handler()))
		go func() {
			if err := p.router.Run(p.listenAddress); err != nil && p.logger != nil {
				p.logger.Errorf("metrics server error: %v", err)
			}
		}()
		return
	}
	e.GET(p.MetricsPath, gin.WrapH(promhttp.Handler()))
}

// HandlerFunc records per-request metrics.
func (p *Prometheus) HandlerFunc() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == p.MetricsPath {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		url := p.URLLabelMappingFn(c)
		elapsed := float64(time.Since(start).Milliseconds())

		p.reqDur.WithLabelValues(status, c.Request.Method, url).Observe(elapsed)
		p.reqCnt.WithLabelValues(status, c.Request.Method, url).Inc()
	}
}
