package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/xela07ax/mdm-merge-console/internal/domain"
	"go.uber.org/zap"
)

// WaitReady опрашивает HEALTH, пока бэкенд не ответит 2xx.
// Это единственное место, где есть повторы: пользовательские операции
// исполняются ровно один раз.
func WaitReady(ctx context.Context, sender Sender, attempts uint, delay time.Duration, logger *zap.Logger) error {
	if attempts == 0 {
		return nil
	}
	logger = logger.Named("readiness")

	var try uint
	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	)

	err := r.Do(func() error {
		try++
		_, err := sender.Send(ctx, domain.OpHealth, nil, nil, nil)
		if err != nil {
			logger.Warn("backend is not ready", zap.Uint("attempt", try), zap.Error(err))
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("backend not ready after %d attempts: %w", try, err)
	}
	logger.Info("backend is ready", zap.Uint("attempts", try))
	return nil
}
