package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/storefront/internal/alerts"
	"github.com/zulandar/storefront/internal/chat"
	"gorm.io/gorm"
)

type customerSendRequest struct {
	SessionID     string `json:"session_id" binding:"omitempty,max=128"`
	Message       string `json:"message" binding:"required"`
	CustomerEmail string `json:"customer_email" binding:"omitempty,email,max=255"`
}

type staffSendRequest struct {
	SessionID string `json:"session_id" binding:"required,max=128"`
	Message   string `json:"message" binding:"required"`
}

type heartbeatRequest struct {
	Name string `json:"name" binding:"omitempty,max=64"`
}

func handleChatSessions(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessions, err := chat.Sessions(db)
		if err != nil {
			respondInternal(c, "Error loading chat sessions", err)
			return
		}
		respondOK(c, gin.H{"sessions": sessions})
	}
}

func handleChatMessages(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		msgs, err := chat.History(db, c.Param("sessionId"))
		if err != nil {
			respondInternal(c, "Error loading messages", err)
			return
		}
		respondOK(c, gin.H{"messages": msgs})
	}
}

func handleStaffSend(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req staffSendRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalid(c, err)
			return
		}
		msg, err := chat.SendStaff(db, req.SessionID, req.Message)
		if err != nil {
			if respondChatInput(c, err) {
				return
			}
			respondInternal(c, "Error sending message", err)
			return
		}
		respondOK(c, gin.H{"message": msg})
	}
}

func handleCustomerSend(db *gorm.DB, n alerts.Notifier, alertTimeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req customerSendRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalid(c, err)
			return
		}
		res, err := chat.SendCustomer(db, chat.CustomerSendOpts{
			SessionID:     req.SessionID,
			Message:       req.Message,
			CustomerEmail: req.CustomerEmail,
		})
		if err != nil {
			if respondChatInput(c, err) {
				return
			}
			respondInternal(c, "Error sending message", err)
			return
		}
		if res.NewSession {
			alerts.Dispatch(n, alerts.ChatSessionOpened(*res.Message), alertTimeout)
		}
		respondOK(c, gin.H{
			"session_id":     res.SessionID,
			"message":        res.Message,
			"admin_response": res.AdminResponse,
		})
	}
}

// respondChatInput maps chat validation errors to 422. It reports whether
// it wrote a response.
func respondChatInput(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, chat.ErrMessageRequired):
		respondFieldError(c, "message", "The message field is required.")
	case errors.Is(err, chat.ErrSessionRequired):
		respondFieldError(c, "session_id", "The session id field is required.")
	default:
		return false
	}
	return true
}

func handleAdminResponses(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		msgs, err := chat.StaffReplies(db, c.Param("sessionId"))
		if err != nil {
			respondInternal(c, "Error loading admin responses", err)
			return
		}
		respondOK(c, gin.H{"messages": msgs})
	}
}

func handleAdminStatus(p chat.Presence) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := p.StaffStatus(c.Request.Context(), c.Param("sessionId"))
		if err != nil {
			respondInternal(c, "Error checking admin status", err)
			return
		}
		var name any
		if st.Online {
			name = st.Name
		}
		respondOK(c, gin.H{"online": st.Online, "admin_name": name})
	}
}

// handlePresenceHeartbeat records that a staff member is at the console. The
// name defaults to the authenticated user.
func handlePresenceHeartbeat(p chat.Presence) gin.HandlerFunc {
	return func(c *gin.Context) {
		rp, ok := p.(*chat.RedisPresence)
		if !ok {
			respondError(c, http.StatusNotImplemented, "Presence heartbeats are not enabled")
			return
		}
		var req heartbeatRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				respondInvalid(c, err)
				return
			}
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = c.GetString(gin.AuthUserKey)
		}
		if name == "" {
			respondFieldError(c, "name", "The name field is required.")
			return
		}
		if err := rp.Touch(c.Request.Context(), name); err != nil {
			respondInternal(c, "Error recording presence", err)
			return
		}
		respondOK(c, gin.H{"name": name})
	}
}

func handleUnreadCount(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := chat.UnreadSessionCount(db)
		if err != nil {
			respondInternal(c, "Error loading unread count", err)
			return
		}
		respondOK(c, gin.H{"unread_count": n})
	}
}

func handleDeleteSession(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := chat.DeleteSession(db, c.Param("sessionId")); err != nil {
			respondInternal(c, "Error deleting chat session", err)
			return
		}
		respondOK(c, gin.H{"message": "Chat session deleted successfully"})
	}
}
