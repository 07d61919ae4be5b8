package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/xela07ax/mdm-merge-console/internal/domain"
	"github.com/xela07ax/mdm-merge-console/internal/infra"
	"go.uber.org/zap"
)

// Work описывает одну асинхронную операцию. Controller не знает, что внутри:
// одиночный запрос, композиция сервисов или заглушка в тестах.
type Work func(ctx context.Context) (json.RawMessage, error)

// Observer получает каждый переход автомата (prev -> next).
// Вызывается синхронно под защитой от гонок, поэтому должен быть быстрым.
type Observer func(prev, next domain.Lifecycle)

type Option func(*Controller)

// WithObserver подписывает наблюдателя. Набор наблюдателей фиксируется при создании.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observers = append(c.observers, o) }
}

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller конечный автомат жизненного цикла запроса.
// В каждый момент в полете не больше одной операции.
type Controller struct {
	mu        sync.Mutex
	state     domain.Lifecycle
	observers []Observer
	now       func() time.Time
	logger    *zap.Logger
}

func NewController(logger *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		state:  domain.Idle(),
		now:    time.Now,
		logger: logger.Named("lifecycle"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Current возвращает копию текущего состояния.
func (c *Controller) Current() domain.Lifecycle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start атомарно переводит автомат в Loading и запускает work в горутине.
// Если операция уже в полете, возвращает *domain.ConcurrencyError и ничего не меняет.
// Терминальное состояние приходит в канал (буферизован, закрывается после отправки).
func (c *Controller) Start(ctx context.Context, op domain.Operation, work Work) (<-chan domain.Lifecycle, error) {
	c.mu.Lock()
	if err := c.state.CanTransitionTo(domain.PhaseLoading); err != nil {
		running := c.state.Operation
		c.mu.Unlock()
		return nil, &domain.ConcurrencyError{Running: running, Requested: op}
	}
	prev := c.state
	c.state = domain.Loading(op, c.now())
	next := c.state
	c.notify(prev, next)
	c.mu.Unlock()

	ctx, traceID := infra.EnsureTraceID(ctx)
	c.logger.Debug("operation started", zap.String("op", string(op)), zap.String("trace_id", traceID))

	done := make(chan domain.Lifecycle, 1)
	go func() {
		defer close(done)
		payload, err := c.execute(ctx, work)
		done <- c.settle(payload, err)
	}()
	return done, nil
}

// Run Start плюс ожидание результата.
func (c *Controller) Run(ctx context.Context, op domain.Operation, work Work) (domain.Lifecycle, error) {
	done, err := c.Start(ctx, op, work)
	if err != nil {
		return c.Current(), err
	}
	return <-done, nil
}

// execute превращает панику в ошибку: автомат не должен застрять в Loading.
func (c *Controller) execute(ctx context.Context, work Work) (payload json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("operation panicked", zap.Any("panic", r))
			payload, err = nil, fmt.Errorf("internal error: %v", r)
		}
	}()
	return work(ctx)
}

func (c *Controller) settle(payload json.RawMessage, err error) domain.Lifecycle {
	c.mu.Lock()
	defer c.mu.Unlock()

	failure := ""
	if err != nil {
		failure = err.Error()
		if failure == "" {
			failure = "unknown error"
		}
	}
	prev := c.state
	c.state = prev.Settle(payload, failure, c.now())
	c.notify(prev, c.state)

	if err != nil {
		c.logger.Warn("operation failed",
			zap.String("op", string(prev.Operation)),
			zap.String("kind", ErrorKind(err)),
			zap.Error(err))
	} else {
		c.logger.Info("operation succeeded",
			zap.String("op", string(prev.Operation)),
			zap.Duration("took", c.state.Duration()))
	}
	return c.state
}

func (c *Controller) notify(prev, next domain.Lifecycle) {
	for _, o := range c.observers {
		o(prev, next)
	}
}
