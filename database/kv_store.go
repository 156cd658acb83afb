package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/yeremiapane/mf-tracker/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Well-known keys of the key/value storage.
const (
	KeyNotifications    = "mf_notifications"
	KeyReminderSettings = "mf_reminder_settings"
	KeyCurrentUser      = "mf_current_user"
	KeyUsers            = "mf_users"
	KeyIsAdmin          = "mf_is_admin"
	KeyAdminName        = "mf_admin_name"
)

// KVStore persists string values in the kv_entries table.
type KVStore struct {
	DB *gorm.DB
}

func NewKVStore(db *gorm.DB) *KVStore {
	return &KVStore{DB: db}
}

func (s *KVStore) Get(key string) (string, bool, error) {
	var entry models.KVEntry
	err := s.DB.Where("kv_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return entry.Value, true, nil
}

func (s *KVStore) Set(key, value string) error {
	entry := models.KVEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kv_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"kv_value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) Delete(key string) error {
	if err := s.DB.Where("kv_key = ?", key).Delete(&models.KVEntry{}).Error; err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
