package live

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/c360/feedbridge/errors"
	"github.com/c360/feedbridge/metric"
)

const (
	defaultQueueCapacity  = 4096
	defaultEnqueueTimeout = 5 * time.Second
	defaultStartTimeout   = 30 * time.Second
	defaultShutdownGrace  = 10 * time.Second
)

// settings holds the tunables a Client is built with.
type settings struct {
	queueCapacity  int
	enqueueTimeout time.Duration
	startTimeout   time.Duration
	shutdownGrace  time.Duration
	handler        ExceptionHandler
	logger         *slog.Logger
	registry       *metric.MetricsRegistry
}

func defaultSettings() settings {
	return settings{
		queueCapacity:  defaultQueueCapacity,
		enqueueTimeout: defaultEnqueueTimeout,
		startTimeout:   defaultStartTimeout,
		shutdownGrace:  defaultShutdownGrace,
		logger:         slog.New(slog.DiscardHandler),
	}
}

// ClientOption is a functional option for configuring the Client
type ClientOption func(*settings) error

// WithQueueCapacity sets the pull queue capacity in records
func WithQueueCapacity(n int) ClientOption {
	return func(s *settings) error {
		if n <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig,
				"live.Client", "WithQueueCapacity", fmt.Sprintf("capacity %d", n))
		}
		s.queueCapacity = n
		return nil
	}
}

// WithEnqueueTimeout sets how long the delivery goroutine may block on a
// full pull queue before the record is dropped and a backpressure error
// raised. Zero means block indefinitely until the pull consumer makes
// room or the stream closes.
func WithEnqueueTimeout(d time.Duration) ClientOption {
	return func(s *settings) error {
		if d < 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig,
				"live.Client", "WithEnqueueTimeout", fmt.Sprintf("timeout %s", d))
		}
		s.enqueueTimeout = d
		return nil
	}
}

// WithStartTimeout bounds how long Start waits for session metadata
func WithStartTimeout(d time.Duration) ClientOption {
	return func(s *settings) error {
		if d <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig,
				"live.Client", "WithStartTimeout", fmt.Sprintf("timeout %s", d))
		}
		s.startTimeout = d
		return nil
	}
}

// WithShutdownGrace bounds how long Stop waits for the delivery
// goroutine to finish
func WithShutdownGrace(d time.Duration) ClientOption {
	return func(s *settings) error {
		if d <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig,
				"live.Client", "WithShutdownGrace", fmt.Sprintf("grace %s", d))
		}
		s.shutdownGrace = d
		return nil
	}
}

// WithExceptionHandler sets the handler consulted on every stream error
func WithExceptionHandler(h ExceptionHandler) ClientOption {
	return func(s *settings) error {
		s.handler = h
		return nil
	}
}

// WithLogger sets the structured logger; the default discards everything
func WithLogger(l *slog.Logger) ClientOption {
	return func(s *settings) error {
		if l == nil {
			return errors.WrapInvalid(errors.ErrInvalidConfig,
				"live.Client", "WithLogger", "nil logger")
		}
		s.logger = l
		return nil
	}
}

// WithMetrics exposes the client's metrics through the given registry
func WithMetrics(r *metric.MetricsRegistry) ClientOption {
	return func(s *settings) error {
		if r == nil {
			return errors.WrapInvalid(errors.ErrInvalidConfig,
				"live.Client", "WithMetrics", "nil registry")
		}
		s.registry = r
		return nil
	}
}
