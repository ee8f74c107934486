// services/scheduler.go
package services

import (
	"context"
	"os"
	"time"

	"github.com/go-co-op/gocron/v2"

	"scout-admin-system/utils"
)

func sweepInterval(envKey string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(envKey); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
		utils.Warn("invalid sweep interval, using default", "env", envKey, "value", raw)
	}
	return fallback
}

// StartSweepScheduler runs the cross-badge aggregators on a timer. Both are
// full-population batch jobs, safe to re-run, so a fixed interval is all the
// coordination they need.
func StartSweepScheduler(gold *GoldAwardService, tenure *TenureService) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	sched.Start()

	_, err = sched.NewJob(
		gocron.DurationJob(sweepInterval("GOLD_SWEEP_INTERVAL", 24*time.Hour)),
		gocron.NewTask(func() {
			if _, err := gold.Run(context.Background()); err != nil {
				utils.Error("gold award sweep failed", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(sweepInterval("TENURE_SWEEP_INTERVAL", 24*time.Hour)),
		gocron.NewTask(func() {
			if _, err := tenure.Run(context.Background()); err != nil {
				utils.Error("tenure sweep failed", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	return sched, nil
}
