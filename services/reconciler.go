package services

import (
	"context"
	"time"

	"hrcases-be/metrics"
	"hrcases-be/store"

	"go.uber.org/zap"
)

// Reconciler replays journal entries that ChangeStatus could not write.
type Reconciler struct {
	history  store.HistoryStore
	outbox   store.HistoryOutbox
	interval time.Duration
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewReconciler(history store.HistoryStore, outbox store.HistoryOutbox, interval time.Duration, m *metrics.Metrics, logger *zap.Logger) *Reconciler {
	if m == nil {
		m = metrics.NewNop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{history: history, outbox: outbox, interval: interval, metrics: m, logger: logger}
}

// RunOnce drains the outbox in order. It stops at the first entry that
// still cannot be written, putting it back at the front.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	written := 0
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		entry, err := r.outbox.Pop(ctx)
		if err != nil {
			return written, err
		}
		if entry == nil {
			return written, nil
		}

		entry.Reconciled = true
		if err := r.history.Append(ctx, entry); err != nil {
			if qerr := r.outbox.Requeue(context.WithoutCancel(ctx), *entry); qerr != nil {
				r.logger.Error("status history entry lost during reconcile",
					zap.String("case_id", entry.CaseID),
					zap.String("old_status", entry.OldStatus),
					zap.String("new_status", entry.NewStatus),
					zap.Time("changed_at", entry.ChangedAt),
					zap.Error(qerr),
				)
			}
			return written, err
		}
		written++
		r.metrics.EntriesReconciled.Inc()
		r.logger.Info("status history entry reconciled",
			zap.String("case_id", entry.CaseID),
			zap.String("new_status", entry.NewStatus),
		)
	}
}

// Run drains the outbox every interval until ctx is done, then makes one
// last attempt with a short deadline.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			finalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			r.drain(finalCtx)
			cancel()
			return
		case <-ticker.C:
			r.drain(ctx)
		}
	}
}

func (r *Reconciler) drain(ctx context.Context) {
	n, err := r.RunOnce(ctx)
	if err != nil {
		r.logger.Warn("journal reconcile incomplete", zap.Int("written", n), zap.Error(err))
		return
	}
	if n > 0 {
		r.logger.Info("journal reconcile complete", zap.Int("written", n))
	}
}
