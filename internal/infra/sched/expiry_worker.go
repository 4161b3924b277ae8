package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"marketplace-promotions/internal/usecase"
)

// ExpiryWorker periodically closes out active promotions whose window has
// passed. Webhook and admin paths keep statuses correct transactionally; this
// loop only handles the passage of time.
type ExpiryWorker struct {
	promos   usecase.PromotionAdminUseCase
	interval time.Duration
	log      *zerolog.Logger
}

func NewExpiryWorker(promos usecase.PromotionAdminUseCase, interval time.Duration, logger *zerolog.Logger) *ExpiryWorker {
	l := logger.With().Str("component", "expiry_worker").Logger()
	return &ExpiryWorker{promos: promos, interval: interval, log: &l}
}

// Run blocks until ctx is canceled. One sweep runs immediately on start so a
// restart never leaves stale rows waiting a full interval.
func (w *ExpiryWorker) Run(ctx context.Context) {
	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("expiry worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	n, err := w.promos.ExpireEnded(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("expiry sweep failed")
		return
	}
	w.log.Debug().Int("expired", n).Msg("expiry sweep complete")
}
