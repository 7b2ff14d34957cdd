package services

import (
	"github.com/dmitrijs2005/voxkeeper/internal/client/metrics"
	"github.com/dmitrijs2005/voxkeeper/internal/logging"
	"github.com/jonboulle/clockwork"
)

// deps are the ambient collaborators shared by every service.
type deps struct {
	log     logging.Logger
	metrics *metrics.Metrics
	clock   clockwork.Clock
}

// Option configures logging, metrics or time for a service.
type Option func(*deps)

func WithLogger(l logging.Logger) Option {
	return func(d *deps) {
		if l != nil {
			d.log = l
		}
	}
}

// WithMetrics enables Prometheus collectors. Without it nothing is recorded.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *deps) {
		d.metrics = m
	}
}

func WithClock(c clockwork.Clock) Option {
	return func(d *deps) {
		if c != nil {
			d.clock = c
		}
	}
}

func newDeps(opts []Option) deps {
	d := deps{
		log:   logging.NewDiscard(),
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}
