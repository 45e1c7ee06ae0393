// Package timer manages the storefront's promotional countdown, a single
// row holding an end time and an active flag.
package timer

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/storefront/internal/models"
	"gorm.io/gorm"
)

// DefaultHours is the countdown length used when none is given.
const DefaultHours = 48

// ErrHoursRequired is returned by Set without a positive hour count.
var ErrHoursRequired = errors.New("timer: hours must be a positive number")

var now = time.Now

// Current returns the countdown row, creating an active one ending
// DefaultHours from now when none exists.
func Current(db *gorm.DB) (*models.TimerSetting, error) {
	var rows []models.TimerSetting
	if err := db.Order("id ASC").Limit(1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("timer: load: %w", err)
	}
	if len(rows) > 0 {
		return &rows[0], nil
	}
	ts := models.TimerSetting{IsActive: true, EndTime: now().Add(DefaultHours * time.Hour)}
	if err := db.Create(&ts).Error; err != nil {
		return nil, fmt.Errorf("timer: create: %w", err)
	}
	return &ts, nil
}

func update(db *gorm.DB, fields map[string]interface{}) (*models.TimerSetting, error) {
	ts, err := Current(db)
	if err != nil {
		return nil, err
	}
	if err := db.Model(ts).Updates(fields).Error; err != nil {
		return nil, fmt.Errorf("timer: update: %w", err)
	}
	return ts, nil
}

// Start activates the countdown without moving its end time.
func Start(db *gorm.DB) (*models.TimerSetting, error) {
	return update(db, map[string]interface{}{"is_active": true})
}

// Stop deactivates the countdown.
func Stop(db *gorm.DB) (*models.TimerSetting, error) {
	return update(db, map[string]interface{}{"is_active": false})
}

// Restart activates the countdown and ends it hours from now. Non-positive
// hours fall back to DefaultHours.
func Restart(db *gorm.DB, hours int) (*models.TimerSetting, error) {
	if hours <= 0 {
		hours = DefaultHours
	}
	return update(db, map[string]interface{}{
		"is_active": true,
		"end_time":  now().Add(time.Duration(hours) * time.Hour),
	})
}

// Set moves the end time to hours from now, leaving the active flag alone.
func Set(db *gorm.DB, hours int) (*models.TimerSetting, error) {
	if hours <= 0 {
		return nil, ErrHoursRequired
	}
	return update(db, map[string]interface{}{
		"end_time": now().Add(time.Duration(hours) * time.Hour),
	})
}

// Left is the time remaining on a countdown.
type Left struct {
	Expired bool
	Hours   int
	Minutes int
	Seconds int
}

// String formats the remaining time as "Xh Ym Zs".
func (l Left) String() string {
	if l.Expired {
		return "expired"
	}
	return fmt.Sprintf("%dh %dm %ds", l.Hours, l.Minutes, l.Seconds)
}

// Remaining returns the time left on ts at t.
func Remaining(ts models.TimerSetting, t time.Time) Left {
	d := ts.EndTime.Sub(t)
	if d <= 0 {
		return Left{Expired: true}
	}
	secs := int(d / time.Second)
	return Left{Hours: secs / 3600, Minutes: secs % 3600 / 60, Seconds: secs % 60}
}
