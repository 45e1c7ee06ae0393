package chat

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zulandar/storefront/internal/models"
	"gorm.io/gorm"
)

// Status is the staff availability shown to a customer.
type Status struct {
	Online bool
	Name   string // empty when offline
}

// Presence reports whether staff is available for a session.
type Presence interface {
	StaffStatus(ctx context.Context, sessionID string) (Status, error)
}

// ActivityPresence treats staff as online when a staff message was written
// to the session within the window. The displayed name is drawn from the
// roster on every call.
type ActivityPresence struct {
	db     *gorm.DB
	window time.Duration
	roster []string
	pick   func(n int) int
}

// NewActivityPresence creates an activity-based presence source.
func NewActivityPresence(db *gorm.DB, window time.Duration, roster []string) *ActivityPresence {
	return &ActivityPresence{db: db, window: window, roster: roster, pick: rand.Intn}
}

// StaffStatus implements Presence.
func (p *ActivityPresence) StaffStatus(ctx context.Context, sessionID string) (Status, error) {
	var count int64
	if err := p.db.WithContext(ctx).Model(&models.ChatMessage{}).
		Where("session_id = ? AND sender_type = ? AND created_at >= ?", sessionID, models.SenderStaff, now().Add(-p.window)).
		Count(&count).Error; err != nil {
		return Status{}, fmt.Errorf("chat: presence for %s: %w", sessionID, err)
	}
	if count == 0 {
		return Status{}, nil
	}
	st := Status{Online: true}
	if len(p.roster) > 0 {
		st.Name = p.roster[p.pick(len(p.roster))]
	}
	return st, nil
}

// PresenceKey is the Redis hash holding staff heartbeats, field = staff name,
// value = unix seconds of the last heartbeat.
const PresenceKey = "storefront:staff:online"

// heartbeatStore is the subset of the Redis client used for presence.
type heartbeatStore interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisPresence tracks staff heartbeats in a Redis hash. Staff is online when
// any member has touched within the window; the freshest member's name is
// reported. It is not session specific.
type RedisPresence struct {
	rdb    heartbeatStore
	window time.Duration
}

// NewRedisPresence creates a heartbeat-based presence source.
func NewRedisPresence(rdb heartbeatStore, window time.Duration) *RedisPresence {
	return &RedisPresence{rdb: rdb, window: window}
}

// Touch records a heartbeat for the named staff member.
func (p *RedisPresence) Touch(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("chat: presence name is required")
	}
	if err := p.rdb.HSet(ctx, PresenceKey, name, now().Unix()).Err(); err != nil {
		return fmt.Errorf("chat: touch presence %s: %w", name, err)
	}
	if err := p.rdb.Expire(ctx, PresenceKey, 24*time.Hour).Err(); err != nil {
		slog.Warn("presence expire failed", "key", PresenceKey, "error", err)
	}
	return nil
}

// StaffStatus implements Presence. Stale heartbeats are removed as they are seen.
func (p *RedisPresence) StaffStatus(ctx context.Context, _ string) (Status, error) {
	members, err := p.rdb.HGetAll(ctx, PresenceKey).Result()
	if err != nil {
		return Status{}, fmt.Errorf("chat: read presence: %w", err)
	}

	cutoff := now().Add(-p.window).Unix()
	var (
		best     string
		bestSeen int64
		stale    []string
	)
	for name, raw := range members {
		seen, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || seen < cutoff {
			stale = append(stale, name)
			continue
		}
		if seen > bestSeen || (seen == bestSeen && name < best) {
			best, bestSeen = name, seen
		}
	}
	if len(stale) > 0 {
		if err := p.rdb.HDel(ctx, PresenceKey, stale...).Err(); err != nil {
			slog.Warn("presence cleanup failed", "key", PresenceKey, "stale", stale, "error", err)
		}
	}
	if best == "" {
		return Status{}, nil
	}
	return Status{Online: true, Name: best}, nil
}
