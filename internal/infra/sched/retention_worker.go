package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"rag-document-backend/internal/usecase"
)

// RetentionWorker periodically deletes job history older than the
// configured retention window.
type RetentionWorker struct {
	interval time.Duration
	maxAge   time.Duration
	cleanup  *usecase.CleanupUseCase
	log      *zerolog.Logger
}

func NewRetentionWorker(interval, maxAge time.Duration, cleanup *usecase.CleanupUseCase, logger *zerolog.Logger) *RetentionWorker {
	retLog := logger.With().Str("component", "RetentionWorker").Logger()
	return &RetentionWorker{
		interval: interval,
		maxAge:   maxAge,
		cleanup:  cleanup,
		log:      &retLog,
	}
}

func (w *RetentionWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Dur("max_age", w.maxAge).Msg("Starting retention worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping retention worker")
			return ctx.Err()
		case <-ticker.C:
			before := time.Now().UTC().Add(-w.maxAge)
			n, err := w.cleanup.Cleanup(ctx, before, false)
			if err != nil {
				w.log.Error().Err(err).Msg("retention worker error")
				continue
			}
			if n > 0 {
				w.log.Info().Int("count", n).Msg("old jobs removed")
			}
		}
	}
}
