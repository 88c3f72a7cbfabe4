// Package metrics records upload outcomes as Prometheus metrics.
//
// Each [Collector] owns its registry rather than using the global default.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/desertthunder/colorize/internal/shared"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess    = "success"
	OutcomeValidation = "validation"
	OutcomeTimeout    = "timeout"
	OutcomeTransport  = "transport"
	OutcomeService    = "service"
	OutcomeMalformed  = "malformed"
	OutcomeCanceled   = "canceled"
	OutcomeOther      = "other"
)

// Config configures a [Collector].
type Config struct {
	Namespace string
	Buckets   []float64
}

// Option mutates a [Config].
type Option func(*Config)

// WithNamespace sets the metrics namespace (default "colorize").
func WithNamespace(ns string) Option {
	return func(c *Config) { c.Namespace = ns }
}

// WithBuckets sets the upload duration histogram buckets.
func WithBuckets(b []float64) Option {
	return func(c *Config) { c.Buckets = b }
}

// Collector holds the client's counters and histograms.
type Collector struct {
	registry   *prometheus.Registry
	uploads    *prometheus.CounterVec
	duration   prometheus.Histogram
	bytes      prometheus.Counter
	rejections *prometheus.CounterVec
}

// New creates a Collector with its own registry.
func New(opts ...Option) *Collector {
	cfg := Config{
		Namespace: "colorize",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "uploads_total",
			Help:      "Colorize requests by outcome",
		}, []string{"outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "upload_duration_seconds",
			Help:      "Time from submission until the backend responded or the request failed",
			Buckets:   cfg.Buckets,
		}),
		bytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Image bytes submitted to the backend",
		}),
		rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "rejected_files_total",
			Help:      "Files rejected by local validation",
		}, []string{"reason"}),
	}
}

// ObserveUpload records one finished submission.
func (c *Collector) ObserveUpload(err error, elapsed time.Duration, size int64) {
	if c == nil {
		return
	}
	c.uploads.WithLabelValues(Outcome(err)).Inc()
	c.duration.Observe(elapsed.Seconds())
	c.bytes.Add(float64(size))
}

// ObserveRejection records a file refused before any network activity.
func (c *Collector) ObserveRejection(err error) {
	if c == nil {
		return
	}
	c.rejections.WithLabelValues(Reason(err)).Inc()
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Outcome maps a submission error to its label.
func Outcome(err error) string {
	var (
		verr *shared.ValidationError
		terr *shared.TransportError
		serr *shared.ServiceError
	)
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.As(err, &verr):
		return OutcomeValidation
	case errors.As(err, &terr):
		if terr.Timeout {
			return OutcomeTimeout
		}
		if errors.Is(terr.Err, context.Canceled) {
			return OutcomeCanceled
		}
		return OutcomeTransport
	case errors.As(err, &serr):
		return OutcomeService
	case errors.Is(err, shared.ErrMalformedResponse):
		return OutcomeMalformed
	case errors.Is(err, context.Canceled):
		return OutcomeCanceled
	default:
		return OutcomeOther
	}
}

// Reason maps a validation error to its label.
func Reason(err error) string {
	switch {
	case errors.Is(err, shared.ErrNotImage):
		return "not_image"
	case errors.Is(err, shared.ErrFileTooLarge):
		return "too_large"
	case errors.Is(err, shared.ErrNoFile):
		return "no_file"
	default:
		return "unreadable"
	}
}
