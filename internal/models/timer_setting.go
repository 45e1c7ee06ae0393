package models

import "time"

// TimerSetting is the singleton row behind the promotional countdown.
type TimerSetting struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	EndTime   time.Time `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
