package services

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/mf-tracker/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Reminder{}))
	return db
}

func TestReminderMonitorActivatesDueReminders(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	require.NoError(t, db.Create(&[]models.Reminder{
		{Title: "due", Status: models.NotificationStatusScheduled, ScheduledAt: &past},
		{Title: "later", Status: models.NotificationStatusScheduled, ScheduledAt: &future},
		{Title: "already", Status: models.NotificationStatusActive},
	}).Error)

	logger, _ := test.NewNullLogger()
	rm := NewReminderMonitor(db, logger)
	rm.Now = func() time.Time { return now }

	assert.Equal(t, int64(1), rm.CheckDue())
	assert.Equal(t, int64(0), rm.CheckDue())

	var due models.Reminder
	require.NoError(t, db.Where("title = ?", "due").First(&due).Error)
	assert.Equal(t, models.NotificationStatusActive, due.Status)

	var later models.Reminder
	require.NoError(t, db.Where("title = ?", "later").First(&later).Error)
	assert.Equal(t, models.NotificationStatusScheduled, later.Status)
}

func TestReminderMonitorStartStop(t *testing.T) {
	db := setupTestDB(t)
	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.Create(&models.Reminder{Title: "due", Status: models.NotificationStatusScheduled, ScheduledAt: &past}).Error)

	rm := NewReminderMonitor(db, nil)
	rm.Interval = 10 * time.Millisecond
	rm.Start()
	defer rm.Stop()

	assert.Eventually(t, func() bool {
		var count int64
		db.Model(&models.Reminder{}).Where("status = ?", models.NotificationStatusActive).Count(&count)
		return count == 1
	}, 2*time.Second, 10*time.Millisecond)

	rm.Stop()
}
