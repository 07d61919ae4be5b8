package engine

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"github.com/xela07ax/mdm-merge-console/internal/connectors"
	"github.com/xela07ax/mdm-merge-console/internal/domain"
	"go.uber.org/zap"
)

// Sender отправляет одну операцию бэкенду.
type Sender interface {
	Send(ctx context.Context, op domain.Operation, pathParams map[string]string, query url.Values, body any) (json.RawMessage, error)
}

type BreakerSettings struct {
	MaxRequests uint32        // пробных запросов в half-open
	Interval    time.Duration // период сброса счетчиков в closed
	Timeout     time.Duration // через сколько open переходит в half-open
	Failures    uint32        // подряд сетевых отказов до открытия
}

// ReliabilityWrapper предохранитель перед транспортом. Ретраев нет:
// при недоступном бэкенде пользователь получает отказ сразу, а не через таймаут.
type ReliabilityWrapper struct {
	next Sender
	cb   *gobreaker.CircuitBreaker
}

func NewReliabilityWrapper(next Sender, s BreakerSettings, metrics *Metrics, logger *zap.Logger) *ReliabilityWrapper {
	logger = logger.Named("breaker")
	if s.Failures == 0 {
		s.Failures = 5
	}
	failures := s.Failures

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "mdm-backend",
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// HTTP 4xx/5xx и битый JSON значат, что бэкенд жив
		IsSuccessful: func(err error) bool {
			return err == nil || !connectors.IsNetwork(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			if metrics != nil {
				metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	})

	return &ReliabilityWrapper{next: next, cb: cb}
}

func (w *ReliabilityWrapper) Send(ctx context.Context, op domain.Operation, pathParams map[string]string, query url.Values, body any) (json.RawMessage, error) {
	res, err := w.cb.Execute(func() (interface{}, error) {
		return w.next.Send(ctx, op, pathParams, query, body)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		route, _ := domain.RouteFor(op)
		return nil, &connectors.TransportError{Kind: connectors.KindNetwork, Operation: op, Method: route.Method, URL: route.Path, Err: err}
	}
	if err != nil {
		return nil, err
	}
	return res.(json.RawMessage), nil
}

func (w *ReliabilityWrapper) State() gobreaker.State { return w.cb.State() }
