package chat

import (
	"fmt"
	"sort"
	"time"

	"github.com/zulandar/storefront/internal/models"
	"gorm.io/gorm"
)

// anonymous is shown for sessions that never supplied an email.
const anonymous = "Anonymous"

// SessionSummary is one row of the staff inbox.
type SessionSummary struct {
	SessionID       string    `json:"session_id"`
	CustomerEmail   string    `json:"customer_email"`
	LastMessage     string    `json:"last_message"`
	LastMessageTime time.Time `json:"last_message_time"`
	MessageCount    int64     `json:"message_count"`
	UnreadCount     int64     `json:"unread_count"`
}

// sessionAggregate is the per-session GROUP BY row.
type sessionAggregate struct {
	SessionID     string
	CustomerEmail *string
	MessageCount  int64
	UnreadCount   int64
	LastID        uint
}

// Sessions lists every session, newest activity first. Counts come from one
// aggregate query and the latest messages from one batched lookup, so the
// cost does not grow with a query per session.
func Sessions(db *gorm.DB) ([]SessionSummary, error) {
	var aggs []sessionAggregate
	if err := db.Model(&models.ChatMessage{}).
		Select("session_id, MAX(customer_email) AS customer_email, COUNT(*) AS message_count, "+
			"SUM(CASE WHEN sender_type = ? AND is_read = ? THEN 1 ELSE 0 END) AS unread_count, "+
			"MAX(id) AS last_id", models.SenderCustomer, false).
		Group("session_id").
		Scan(&aggs).Error; err != nil {
		return nil, fmt.Errorf("chat: list sessions: %w", err)
	}
	if len(aggs) == 0 {
		return []SessionSummary{}, nil
	}

	ids := make([]uint, 0, len(aggs))
	for _, a := range aggs {
		ids = append(ids, a.LastID)
	}
	var latest []models.ChatMessage
	if err := db.Where("id IN ?", ids).Find(&latest).Error; err != nil {
		return nil, fmt.Errorf("chat: latest messages: %w", err)
	}
	byID := make(map[uint]models.ChatMessage, len(latest))
	for _, m := range latest {
		byID[m.ID] = m
	}

	out := make([]SessionSummary, 0, len(aggs))
	for _, a := range aggs {
		s := SessionSummary{
			SessionID:     a.SessionID,
			CustomerEmail: anonymous,
			MessageCount:  a.MessageCount,
			UnreadCount:   a.UnreadCount,
		}
		if a.CustomerEmail != nil && *a.CustomerEmail != "" {
			s.CustomerEmail = *a.CustomerEmail
		}
		if m, ok := byID[a.LastID]; ok {
			s.LastMessage = m.Message
			s.LastMessageTime = m.CreatedAt
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].LastMessageTime.Equal(out[j].LastMessageTime) {
			return out[i].LastMessageTime.After(out[j].LastMessageTime)
		}
		return out[i].SessionID > out[j].SessionID
	})
	return out, nil
}
