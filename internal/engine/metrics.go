package engine

import (
	"context"
	"encoding/json"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/xela07ax/mdm-merge-console/internal/domain"
)

type Metrics struct {
	// Latency: от Loading до терминального состояния
	OperationDuration *prometheus.HistogramVec

	// Traffic: сколько операций стартовало
	OperationsTotal *prometheus.CounterVec

	// Errors: классификация отказов (validation, network, http, decode, internal)
	ErrorTotal *prometheus.CounterVec

	// Saturation: 1, пока операция в полете
	InFlight prometheus.Gauge

	// Сколько запусков отклонено, потому что автомат был занят
	RejectedTotal prometheus.Counter

	// Состояние Circuit Breaker (0 - closed, 1 - half-open, 2 - open)
	CircuitBreakerState *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - если реестр не передан, пишем в локальный
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		OperationDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mdm_console_operation_duration_seconds",
			Help:    "Histogram of operation latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"operation", "phase"}),

		OperationsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "mdm_console_operations_total",
			Help: "Total number of started operations.",
		}, []string{"operation"}),

		ErrorTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "mdm_console_errors_total",
			Help: "Total number of failed operations by error kind.",
		}, []string{"operation", "kind"}),

		InFlight: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "mdm_console_operation_in_flight",
			Help: "1 while an operation is loading.",
		}),

		RejectedTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "mdm_console_rejected_total",
			Help: "Operations rejected because another one was in flight.",
		}),

		CircuitBreakerState: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "mdm_console_circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open).",
		}, []string{"breaker"}),
	}
}

// Observer превращает переходы автомата в метрики.
func (m *Metrics) Observer() Observer {
	return func(prev, next domain.Lifecycle) {
		op := string(next.Operation)
		switch {
		case next.IsLoading():
			m.OperationsTotal.WithLabelValues(op).Inc()
			m.InFlight.Set(1)
		case next.IsTerminal():
			m.InFlight.Set(0)
			m.OperationDuration.WithLabelValues(op, string(next.Phase)).Observe(next.Duration().Seconds())
		}
	}
}

// Instrument считает ошибки work по видам. Lifecycle хранит только текст,
// поэтому классификация делается до того, как ошибка превратится в строку.
func (m *Metrics) Instrument(op domain.Operation, work Work) Work {
	return func(ctx context.Context) (json.RawMessage, error) {
		payload, err := work(ctx)
		if err != nil {
			m.ErrorTotal.WithLabelValues(string(op), ErrorKind(err)).Inc()
		}
		return payload, err
	}
}
