package models

import "time"

// KVEntry backs the string-keyed key/value storage used for JSON documents
// such as the notification list and reminder settings.
type KVEntry struct {
	Key       string    `gorm:"column:kv_key;primaryKey;type:varchar(191)"`
	Value     string    `gorm:"column:kv_value;type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (KVEntry) TableName() string { return "kv_entries" }
