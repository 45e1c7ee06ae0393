package timer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// cronParser accepts standard 5-field cron expressions (minute, hour, dom,
// month, dow) and descriptors such as @daily or @every 12h.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// nextCronDuration parses a cron expression and returns the duration
// from t until the next fire time. Returns 0 on parse error.
func nextCronDuration(expr string, t time.Time) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	d := sched.Next(t).Sub(t)
	if d < 0 {
		return 0
	}
	return d
}

// ValidateSchedule reports whether expr is a usable cron expression.
func ValidateSchedule(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("timer: schedule %q: %w", expr, err)
	}
	return nil
}

// RunRestartSchedule restarts the countdown with hours on every fire of expr
// until ctx is cancelled. An empty expression returns immediately.
func RunRestartSchedule(ctx context.Context, db *gorm.DB, expr string, hours int) error {
	if expr == "" {
		return nil
	}
	if err := ValidateSchedule(expr); err != nil {
		return err
	}

	t := time.NewTimer(nextCronDuration(expr, now()))
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			ts, err := Restart(db, hours)
			if err != nil {
				slog.Error("scheduled timer restart failed", "error", err)
			} else {
				slog.Info("countdown restarted", "end_time", ts.EndTime)
			}
			t.Reset(nextCronDuration(expr, now()))
		}
	}
}
