package service

import (
	"context"
	"hungrypanda/hub-api/internal/store"
	"time"

	"go.uber.org/zap"
)

// TokenCleanup periodically removes magic links that expired without being
// redeemed. It stops once ctx is cancelled.
func TokenCleanup(ctx context.Context, t time.Duration, links store.MagicLinks) {
	ticker := time.NewTicker(t)

	zap.L().Debug("Token cleanup attached", zap.Duration("tick_every", t))

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				zap.L().Debug("Token cleanup stopped")
				return
			case now := <-ticker.C:
				n, err := links.DeleteExpired(ctx, now)
				if err != nil {
					zap.L().Error("Failed to cleanup expired magic links", zap.Error(err))
					continue
				}

				if n > 0 {
					zap.L().Debug("Cleaned up expired magic links", zap.Int64("count", n))
				}
			}
		}
	}()
}
