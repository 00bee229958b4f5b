// Package archive moves stale, unmatched missing-item reports out of the
// active listing.
package archive

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/erazemk/lostfound/internal/metrics"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
)

// Triggers, used as the metrics label of a sweep.
const (
	TriggerManual = "manual"
	TriggerCLI    = "cli"
	TriggerTicker = "ticker"
)

// Sweeper archives missing reports older than MaxAge that were never matched
// to a found item.
type Sweeper struct {
	DB     *sql.DB
	MaxAge time.Duration
	Now    func() time.Time
}

// NewSweeper creates a sweeper. A non-positive maxAge uses the default of
// seven days.
func NewSweeper(db *sql.DB, maxAge time.Duration) *Sweeper {
	if maxAge <= 0 {
		maxAge = model.ArchiveAfter
	}
	return &Sweeper{DB: db, MaxAge: maxAge, Now: time.Now}
}

// Run performs one sweep and returns how many reports were archived.
func (s *Sweeper) Run(ctx context.Context, trigger string) (int, error) {
	cutoff := s.Now().Add(-s.MaxAge)
	moved, err := store.ArchiveStaleReports(ctx, s.DB, cutoff)
	metrics.ObserveArchive(trigger, moved, err)
	if err != nil {
		slog.Error("archive sweep failed", "trigger", trigger, "error", err)
		return 0, err
	}

	if moved > 0 {
		slog.Info("archived stale missing reports", "count", moved, "trigger", trigger, "cutoff", cutoff)
	}
	return moved, nil
}

// Start runs a sweep every interval until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("archive sweeper started", "interval", interval, "max_age", s.MaxAge)

	for {
		select {
		case <-ctx.Done():
			slog.Info("archive sweeper stopped")
			return
		case <-ticker.C:
			s.Run(ctx, TriggerTicker)
		}
	}
}
