package workers

import (
	"context"
	"time"

	"scout-admin-system/store"
	"scout-admin-system/utils"
)

// CounterSyncWorker reconciles the materialized Member.total_nights_away
// counter against the NightsAwayLog ledger. The incremental updates done by
// the award reconciler can drift under concurrent writers (the store has no
// compare-and-swap), so this loop periodically recomputes the truth from the
// append-only log.
type CounterSyncWorker struct {
	Store *store.Store
}

func NewCounterSyncWorker(s *store.Store) *CounterSyncWorker {
	return &CounterSyncWorker{Store: s}
}

// PollCounters runs reconciliation on an interval until the context ends.
func (w *CounterSyncWorker) PollCounters(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			utils.Info("counter sync worker stopping")
			return
		case <-ticker.C:
			if err := w.ReconcileOnce(ctx); err != nil {
				utils.Error("counter reconciliation failed", "error", err)
			}
		}
	}
}

// ReconcileOnce recomputes every active member's nights-away counter from
// the log and repairs any drift.
func (w *CounterSyncWorker) ReconcileOnce(ctx context.Context) error {
	members, err := w.Store.Members.Filter(ctx, map[string]any{"active": true})
	if err != nil {
		return err
	}

	repaired := 0
	for _, member := range members {
		if err := ctx.Err(); err != nil {
			return err
		}

		logs, err := w.Store.NightsAwayLogs.Filter(ctx, map[string]any{"member_id": member.ID})
		if err != nil {
			utils.Error("nights-away log read failed", "member_id", member.ID, "error", err)
			continue
		}

		total := 0
		for _, entry := range logs {
			total += entry.Nights
		}
		if total == member.TotalNightsAway {
			continue
		}

		utils.Warn("nights-away counter drift repaired",
			"member_id", member.ID, "stored", member.TotalNightsAway, "derived", total)
		member.TotalNightsAway = total
		if err := w.Store.Members.Update(ctx, member); err != nil {
			utils.Error("counter repair failed", "member_id", member.ID, "error", err)
		} else {
			repaired++
		}
	}

	if repaired > 0 {
		utils.Info("counter reconciliation finished", "repaired", repaired)
	}
	return nil
}
