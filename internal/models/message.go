package models

import "time"

// Sender roles for chat messages.
const (
	SenderCustomer = "customer"
	SenderStaff    = "staff"
)

// ChatMessage is one customer or staff utterance. Sessions are not stored;
// they exist only as the grouping of messages sharing a SessionID.
type ChatMessage struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID     string    `gorm:"size:128;not null;index:idx_chat_session_sender" json:"session_id"`
	CustomerEmail *string   `gorm:"size:255" json:"customer_email"`
	SenderType    string    `gorm:"size:16;not null;index:idx_chat_session_sender" json:"sender_type"`
	Message       string    `gorm:"type:text;not null" json:"message"`
	IsRead        bool      `gorm:"default:false;index" json:"is_read"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
