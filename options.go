package ftgs

type options struct {
	logger   *Logger
	profiler Profiler
	metrics  MetricsCollector
}

// Option configures a Worker.
type Option func(*options)

// WithLogger configures structured logging. Nil disables logging.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithProfiler configures the named-slot timer hook called around
// pass phases. Nil disables profiling.
func WithProfiler(p Profiler) Option {
	return func(o *options) {
		if p == nil {
			p = NoopProfiler{}
		}
		o.profiler = p
	}
}

// WithMetricsCollector configures operational metrics collection.
// Nil disables collection.
func WithMetricsCollector(m MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = NoopMetricsCollector{}
		}
		o.metrics = m
	}
}
