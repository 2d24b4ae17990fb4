package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics counts checkout operations and merchant resolution outcomes.
type CheckoutMetrics struct {
	operations *prometheus.CounterVec
	resolution *prometheus.CounterVec
}

var (
	checkoutMetricsOnce sync.Once
	checkoutMetrics     *CheckoutMetrics
)

// Checkout returns the process-wide checkout metrics, registering them on
// first use.
func Checkout() *CheckoutMetrics {
	return CheckoutWithConfig(Config{})
}

func CheckoutWithConfig(cfg Config) *CheckoutMetrics {
	checkoutMetricsOnce.Do(func() {
		checkoutMetrics = newCheckoutMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return checkoutMetrics
}

func ResetCheckoutMetricsForTest() {
	checkoutMetricsOnce = sync.Once{}
	checkoutMetrics = nil
}

func newCheckoutMetrics(registerer prometheus.Registerer, cfg Config) *CheckoutMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "wavepay"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	operations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "wavepay_checkout_operations_total",
			Help:        "Checkout operations by name and normalized result.",
			ConstLabels: constLabels,
		},
		[]string{"operation", "result"},
	)
	resolution := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "wavepay_merchant_resolution_total",
			Help:        "Aggregated merchant resolution outcomes.",
			ConstLabels: constLabels,
		},
		[]string{"outcome"},
	)

	for _, collector := range []prometheus.Collector{operations, resolution} {
		if err := registerer.Register(collector); err != nil {
			if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
				switch existing := already.ExistingCollector.(type) {
				case *prometheus.CounterVec:
					if collector == operations {
						operations = existing
					} else {
						resolution = existing
					}
				}
				continue
			}
		}
	}

	return &CheckoutMetrics{
		operations: operations,
		resolution: resolution,
	}
}

// IncOperation counts one checkout operation with its result label.
func (m *CheckoutMetrics) IncOperation(operation, result string) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(operation, result).Inc()
}

// IncResolution counts one merchant resolution outcome
// (hit, miss, created, degraded, error).
func (m *CheckoutMetrics) IncResolution(outcome string) {
	if m == nil || m.resolution == nil {
		return
	}
	m.resolution.WithLabelValues(outcome).Inc()
}
