/*-------------------------------------------------------------------------
 *
 * cleanup.go
 *    Background cleanup of idle sessions
 *
 * Periodically deactivates sessions that have seen no activity for a
 * configurable period, so stale active pointers do not linger.
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/session/cleanup.go
 *
 *-------------------------------------------------------------------------
 */

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/victorbarbieri91/zyra-comando/internal/db"
	"github.com/victorbarbieri91/zyra-comando/internal/metrics"
)

type CleanupService struct {
	queries  *db.Queries
	interval time.Duration
	maxIdle  time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewCleanupService(queries *db.Queries, interval, maxIdle time.Duration) *CleanupService {
	return &CleanupService{
		queries:  queries,
		interval: interval,
		maxIdle:  maxIdle,
		done:     make(chan struct{}),
	}
}

/* Start launches the background cleanup loop */
func (s *CleanupService) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.run(ctx)
}

/* Stop stops the cleanup loop and waits for it to exit */
func (s *CleanupService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
}

func (s *CleanupService) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.cleanup(ctx); err != nil {
				metrics.WarnWithContext(ctx, "Session cleanup failed", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}
}

func (s *CleanupService) cleanup(ctx context.Context) error {
	/* Postgres interval literal, e.g. '1440 minutes' */
	interval := fmt.Sprintf("%d minutes", int(s.maxIdle.Minutes()))

	count, err := s.queries.DeactivateIdleSessions(ctx, interval)
	if err != nil {
		return fmt.Errorf("idle session deactivation failed: max_idle='%s', error=%w", interval, err)
	}

	if count > 0 {
		metrics.InfoWithContext(ctx, "Deactivated idle sessions", map[string]interface{}{
			"count":    count,
			"max_idle": interval,
		})
	}
	return nil
}
