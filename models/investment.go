package models

import "time"

type Investment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserEmail string    `gorm:"type:varchar(255);index" json:"userEmail"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Amount    float64   `gorm:"not null;default:0" json:"amount"`
	Date      string    `gorm:"type:varchar(10)" json:"date"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}
