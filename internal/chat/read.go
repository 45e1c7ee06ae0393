package chat

import (
	"fmt"

	"github.com/zulandar/storefront/internal/models"
	"gorm.io/gorm"
)

// afterFetch runs between loading a session and marking it read. Tests use
// it to interleave writes.
var afterFetch = func() {}

// History returns a session's messages oldest first and marks the customer
// messages it returned as read. Messages arriving after the fetch stay
// unread. The returned rows reflect their state before marking.
func History(db *gorm.DB, sessionID string) ([]models.ChatMessage, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	msgs, err := sessionMessages(db, sessionID, "", false)
	if err != nil {
		return nil, err
	}
	afterFetch()
	if err := markRead(db, unreadIDs(msgs, models.SenderCustomer)); err != nil {
		return nil, err
	}
	return msgs, nil
}

// StaffReplies returns a session's unread staff messages oldest first and
// marks exactly those read.
func StaffReplies(db *gorm.DB, sessionID string) ([]models.ChatMessage, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	msgs, err := sessionMessages(db, sessionID, models.SenderStaff, true)
	if err != nil {
		return nil, err
	}
	afterFetch()
	if err := markRead(db, unreadIDs(msgs, models.SenderStaff)); err != nil {
		return nil, err
	}
	return msgs, nil
}

func sessionMessages(db *gorm.DB, sessionID, sender string, unreadOnly bool) ([]models.ChatMessage, error) {
	q := db.Where("session_id = ?", sessionID)
	if sender != "" {
		q = q.Where("sender_type = ?", sender)
	}
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var msgs []models.ChatMessage
	if err := q.Order("created_at ASC, id ASC").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("chat: load %s: %w", sessionID, err)
	}
	return msgs, nil
}

func unreadIDs(msgs []models.ChatMessage, sender string) []uint {
	var ids []uint
	for _, m := range msgs {
		if m.SenderType == sender && !m.IsRead {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// markRead flips exactly the given rows. Re-marking is a no-op.
func markRead(db *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := db.Model(&models.ChatMessage{}).
		Where("id IN ? AND is_read = ?", ids, false).
		Update("is_read", true).Error; err != nil {
		return fmt.Errorf("chat: mark read: %w", err)
	}
	return nil
}
