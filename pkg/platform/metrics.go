package platform

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsConfig configures bridge metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "viewbridge").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures bridge metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithRegisterer sets the Prometheus registry.
func WithRegisterer(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics counts slot traffic for a ViewRegistry. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	updates        *prometheus.CounterVec
	dropped        *prometheus.CounterVec
	notifications  *prometheus.CounterVec
	decodeErrors   *prometheus.CounterVec
	events         prometheus.Counter
	instantiations *prometheus.CounterVec
	liveViews      prometheus.Gauge
}

// NewMetrics creates and registers bridge metrics.
// Registration fails if the same metrics are already registered on the
// chosen registry.
func NewMetrics(opts ...MetricsOption) (*Metrics, error) {
	cfg := MetricsConfig{
		Namespace: "viewbridge",
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: cfg.ConstLabels,
		}, labels)
	}

	m := &Metrics{
		updates:       counterVec("updates_total", "Slot values stored, by slot.", "slot"),
		dropped:       counterVec("dropped_updates_total", "Host pushes to a view name with no live instance, by slot.", "slot"),
		notifications: counterVec("notifications_total", "Observer notifications delivered, by slot.", "slot"),
		decodeErrors:  counterVec("decode_errors_total", "JSON payloads degraded to an empty value, by slot.", "slot"),
		events: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "events_total",
			Help:        "Named events emitted by views.",
			ConstLabels: cfg.ConstLabels,
		}),
		instantiations: counterVec("instantiations_total", "View instantiation attempts, by result.", "result"),
		liveViews: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "live_views",
			Help:        "View instances currently bound to a data store.",
			ConstLabels: cfg.ConstLabels,
		}),
	}

	if cfg.Registry != nil {
		for _, c := range []prometheus.Collector{
			m.updates, m.dropped, m.notifications, m.decodeErrors,
			m.events, m.instantiations, m.liveViews,
		} {
			if err := cfg.Registry.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) recordUpdate(slot SlotKind, observers int) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(slot.String()).Inc()
	if observers > 0 {
		m.notifications.WithLabelValues(slot.String()).Add(float64(observers))
	}
}

func (m *Metrics) recordNotification(slot SlotKind) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(slot.String()).Inc()
}

func (m *Metrics) recordDropped(slot SlotKind) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(slot.String()).Inc()
}

func (m *Metrics) recordDecodeError(slot SlotKind) {
	if m == nil {
		return
	}
	m.decodeErrors.WithLabelValues(slot.String()).Inc()
}

func (m *Metrics) recordEvent() {
	if m == nil {
		return
	}
	m.events.Inc()
}

func (m *Metrics) recordInstantiation(result string) {
	if m == nil {
		return
	}
	m.instantiations.WithLabelValues(result).Inc()
}

func (m *Metrics) setLiveViews(n int) {
	if m == nil {
		return
	}
	m.liveViews.Set(float64(n))
}
