package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"propmarket-go/utils"
)

// ScheduleCodeCleanup registers the periodic removal of used and expired
// login codes on c.
func ScheduleCodeCleanup(c *cron.Cron, schedule string, auth *AuthService) (cron.EntryID, error) {
	return c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		removed, err := auth.CleanupExpired(ctx)
		if err != nil {
			utils.Logger.WithError(err).Error("Login code cleanup failed")
			return
		}
		utils.Logger.WithField("removed", removed).Info("Login code cleanup finished")
	})
}
