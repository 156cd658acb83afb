package models

import "time"

// Reminder is the server-side mirror of a payment reminder. The notification
// store on the owning process stays authoritative for what users see.
type Reminder struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserEmail   string     `gorm:"type:varchar(255);index" json:"userEmail"`
	Type        string     `gorm:"type:varchar(50)" json:"type"`
	Title       string     `gorm:"type:varchar(255)" json:"title"`
	Body        string     `gorm:"type:text" json:"body"`
	Amount      *float64   `json:"amount,omitempty"`
	DueDate     string     `gorm:"type:varchar(10)" json:"dueDate,omitempty"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
	Recurring   string     `gorm:"type:varchar(20)" json:"recurring,omitempty"`
	Status      string     `gorm:"type:varchar(20);not null;default:'scheduled'" json:"status"`
	CreatedAt   time.Time  `gorm:"index" json:"createdAt"`
}
