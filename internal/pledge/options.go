// Package pledge holds the three view models behind the page: the submission
// form, the live statistics aggregator and the pledge wall.
package pledge

import (
	"time"

	"github.com/csg33k/pledge-wall/internal/platform/logger"
	"github.com/csg33k/pledge-wall/internal/platform/metrics"
)

// DefaultSubmitTimeout bounds a single insert request.
const DefaultSubmitTimeout = 10 * time.Second

type options struct {
	log           *logger.Logger
	metrics       *metrics.Metrics
	submitTimeout time.Duration
}

type Option func(*options)

func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithSubmitTimeout overrides DefaultSubmitTimeout. Non-positive values are ignored.
func WithSubmitTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.submitTimeout = d
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		log:           logger.Nop(),
		submitTimeout: DefaultSubmitTimeout,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
