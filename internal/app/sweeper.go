package app

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"coach-hub/internal/common/logging"
)

// StartSweeper schedules the expiry of stale upload sessions.
func (app *App) StartSweeper() error {
	c := cron.New()
	_, err := c.AddFunc(app.Config.SessionSweepSchedule, app.sweepSessions)
	if err != nil {
		return fmt.Errorf("invalid SESSION_SWEEP_SCHEDULE %q: %w", app.Config.SessionSweepSchedule, err)
	}
	c.Start()
	app.Sweeper = c

	app.Logger.Info("Session sweeper started",
		logging.String("schedule", app.Config.SessionSweepSchedule),
		logging.Duration("ttl", app.Config.SessionTTL),
	)
	return nil
}

func (app *App) sweepSessions() {
	if n := app.Sessions.Sweep(app.Config.SessionTTL); n > 0 {
		app.Logger.Debug("Session sweep finished", logging.Int("expired", n))
	}
}
