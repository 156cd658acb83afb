package services

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yeremiapane/mf-tracker/models"
	"github.com/yeremiapane/mf-tracker/utils"
)

// ReminderMonitor periodically activates mirrored reminders whose
// scheduled_at has passed, and prunes revoked tokens that expired.
type ReminderMonitor struct {
	DB       *gorm.DB
	StopChan chan struct{}
	Interval time.Duration
	Now      func() time.Time

	log      logrus.FieldLogger
	stopOnce sync.Once
}

func NewReminderMonitor(db *gorm.DB, log logrus.FieldLogger) *ReminderMonitor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ReminderMonitor{
		DB:       db,
		StopChan: make(chan struct{}),
		Interval: time.Minute,
		Now:      time.Now,
		log:      log.WithField("component", "reminder_monitor"),
	}
}

func (rm *ReminderMonitor) Start() {
	go func() {
		ticker := time.NewTicker(rm.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rm.CheckDue()
				utils.PruneBlacklist(rm.Now())
			case <-rm.StopChan:
				return
			}
		}
	}()
}

func (rm *ReminderMonitor) Stop() {
	rm.stopOnce.Do(func() { close(rm.StopChan) })
}

// CheckDue flips due scheduled reminders to active and returns how many changed.
func (rm *ReminderMonitor) CheckDue() int64 {
	res := rm.DB.Model(&models.Reminder{}).
		Where("status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?", models.NotificationStatusScheduled, rm.Now().UTC()).
		Update("status", models.NotificationStatusActive)
	if res.Error != nil {
		rm.log.WithError(res.Error).Error("activating due reminders failed")
		return 0
	}
	if res.RowsAffected > 0 {
		rm.log.WithField("count", res.RowsAffected).Info("activated due reminders")
	}
	return res.RowsAffected
}
