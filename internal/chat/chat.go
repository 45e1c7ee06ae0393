// Package chat implements the customer/staff chat channel: polling-based
// message exchange over a single table, with read tracking and a staff
// presence signal. Sessions are virtual; a session is the set of messages
// sharing a session id.
package chat

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/storefront/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrMessageRequired is returned when a send carries an empty body.
	ErrMessageRequired = errors.New("chat: message is required")
	// ErrSessionRequired is returned when an operation needs a session id.
	ErrSessionRequired = errors.New("chat: session_id is required")
)

// now is the clock used for message timestamps and presence windows.
var now = time.Now

// sessionPrefix marks generated session ids.
const sessionPrefix = "session_"

// NewSessionID returns a fresh random session identifier.
func NewSessionID() string {
	return sessionPrefix + uuid.NewString()
}

// CustomerSendOpts holds the parameters of a customer message.
type CustomerSendOpts struct {
	SessionID     string // empty starts a new session
	Message       string
	CustomerEmail string // optional
}

// CustomerSendResult is the outcome of SendCustomer.
type CustomerSendResult struct {
	SessionID string
	Message   *models.ChatMessage
	// AdminResponse is the newest unread staff reply that already existed
	// when the customer sent, or nil. It is not marked read.
	AdminResponse *models.ChatMessage
	// NewSession is true when this message opened the session.
	NewSession bool
}

// SendCustomer stores a customer message and returns any staff reply that is
// already waiting in the session.
//
// customer_email is session metadata: the first non-empty address wins. A
// message without an address inherits the session's, and the first address
// supplied is back-filled onto the session's earlier rows.
func SendCustomer(db *gorm.DB, opts CustomerSendOpts) (*CustomerSendResult, error) {
	if strings.TrimSpace(opts.Message) == "" {
		return nil, ErrMessageRequired
	}

	sessionID := opts.SessionID
	newSession := false
	if sessionID == "" {
		sessionID = NewSessionID()
		newSession = true
	} else {
		var count int64
		if err := db.Model(&models.ChatMessage{}).Where("session_id = ?", sessionID).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("chat: send %s: %w", sessionID, err)
		}
		newSession = count == 0
	}

	var email *string
	backfill := false
	if !newSession {
		established, err := SessionEmail(db, sessionID)
		if err != nil {
			return nil, err
		}
		email = established
	}
	if email == nil && opts.CustomerEmail != "" {
		addr := opts.CustomerEmail
		email = &addr
		backfill = !newSession
	}

	msg := models.ChatMessage{
		SessionID:     sessionID,
		CustomerEmail: email,
		SenderType:    models.SenderCustomer,
		Message:       opts.Message,
		IsRead:        false,
		CreatedAt:     now(),
	}
	if err := db.Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("chat: send %s: %w", sessionID, err)
	}

	if backfill {
		if err := db.Model(&models.ChatMessage{}).
			Where("session_id = ? AND customer_email IS NULL", sessionID).
			Update("customer_email", *email).Error; err != nil {
			return nil, fmt.Errorf("chat: backfill email for %s: %w", sessionID, err)
		}
	}

	reply, err := latestUnreadStaff(db, sessionID)
	if err != nil {
		return nil, err
	}

	return &CustomerSendResult{
		SessionID:     sessionID,
		Message:       &msg,
		AdminResponse: reply,
		NewSession:    newSession,
	}, nil
}

// SendStaff stores a staff reply. The session's established customer email is
// copied onto the reply; a session with no prior messages gets none.
func SendStaff(db *gorm.DB, sessionID, message string) (*models.ChatMessage, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	if strings.TrimSpace(message) == "" {
		return nil, ErrMessageRequired
	}

	email, err := SessionEmail(db, sessionID)
	if err != nil {
		return nil, err
	}

	msg := models.ChatMessage{
		SessionID:     sessionID,
		CustomerEmail: email,
		SenderType:    models.SenderStaff,
		Message:       message,
		IsRead:        false,
		CreatedAt:     now(),
	}
	if err := db.Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("chat: staff send %s: %w", sessionID, err)
	}
	return &msg, nil
}

// SessionEmail returns the session's established customer email, or nil.
func SessionEmail(db *gorm.DB, sessionID string) (*string, error) {
	var emails []string
	if err := db.Model(&models.ChatMessage{}).
		Where("session_id = ? AND customer_email IS NOT NULL AND customer_email <> ?", sessionID, "").
		Order("id ASC").Limit(1).
		Pluck("customer_email", &emails).Error; err != nil {
		return nil, fmt.Errorf("chat: email for %s: %w", sessionID, err)
	}
	if len(emails) == 0 {
		return nil, nil
	}
	return &emails[0], nil
}

// latestUnreadStaff returns the newest unread staff message in a session, or nil.
func latestUnreadStaff(db *gorm.DB, sessionID string) (*models.ChatMessage, error) {
	var msgs []models.ChatMessage
	if err := db.Where("session_id = ? AND sender_type = ? AND is_read = ?", sessionID, models.SenderStaff, false).
		Order("created_at DESC, id DESC").Limit(1).Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("chat: staff reply for %s: %w", sessionID, err)
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return &msgs[0], nil
}

// UnreadSessionCount returns the number of distinct sessions holding unread
// customer messages.
func UnreadSessionCount(db *gorm.DB) (int64, error) {
	var count int64
	if err := db.Model(&models.ChatMessage{}).
		Where("sender_type = ? AND is_read = ?", models.SenderCustomer, false).
		Distinct("session_id").
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("chat: unread count: %w", err)
	}
	return count, nil
}

// DeleteSession removes every message of a session and returns how many were
// deleted. Deleting an unknown session is not an error.
func DeleteSession(db *gorm.DB, sessionID string) (int64, error) {
	if sessionID == "" {
		return 0, ErrSessionRequired
	}
	result := db.Where("session_id = ?", sessionID).Delete(&models.ChatMessage{})
	if result.Error != nil {
		return 0, fmt.Errorf("chat: delete session %s: %w", sessionID, result.Error)
	}
	return result.RowsAffected, nil
}

// PruneBefore deletes whole sessions whose newest message is older than
// cutoff. It returns the number of sessions and messages removed.
func PruneBefore(db *gorm.DB, cutoff time.Time) (int, int64, error) {
	var stale []string
	if err := db.Model(&models.ChatMessage{}).
		Where("created_at < ?", cutoff).
		Distinct("session_id").
		Pluck("session_id", &stale).Error; err != nil {
		return 0, 0, fmt.Errorf("chat: prune: %w", err)
	}
	if len(stale) == 0 {
		return 0, 0, nil
	}

	var active []string
	if err := db.Model(&models.ChatMessage{}).
		Where("created_at >= ? AND session_id IN ?", cutoff, stale).
		Distinct("session_id").
		Pluck("session_id", &active).Error; err != nil {
		return 0, 0, fmt.Errorf("chat: prune: %w", err)
	}
	keep := make(map[string]bool, len(active))
	for _, id := range active {
		keep[id] = true
	}
	var doomed []string
	for _, id := range stale {
		if !keep[id] {
			doomed = append(doomed, id)
		}
	}
	if len(doomed) == 0 {
		return 0, 0, nil
	}

	result := db.Where("session_id IN ?", doomed).Delete(&models.ChatMessage{})
	if result.Error != nil {
		return 0, 0, fmt.Errorf("chat: prune: %w", result.Error)
	}
	return len(doomed), result.RowsAffected, nil
}
