// Package stores holds helpers shared by the storage backends under it.
package stores

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// DefaultConnectTimeout bounds how long Connect keeps retrying.
const DefaultConnectTimeout = 30 * time.Second

// Connect calls dial with exponential backoff until it succeeds, ctx is done
// or budget has elapsed. It is meant for bootstrapping only; request paths
// never retry.
func Connect[T any](ctx context.Context, logger *zap.Logger, name string, budget time.Duration, dial func(ctx context.Context) (T, error)) (T, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if budget <= 0 {
		budget = DefaultConnectTimeout
	}
	attempt := 0
	return backoff.Retry(ctx, func() (T, error) {
		attempt++
		return dial(ctx)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(budget),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Warn("store not reachable, retrying",
				zap.String("store", name),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(err))
		}),
	)
}
