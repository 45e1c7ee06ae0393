package slack

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	slackapi "github.com/slack-go/slack"
	"github.com/zulandar/storefront/internal/alerts"
)

// --- Mock Slack client ---

type mockSlackClient struct {
	mu       sync.Mutex
	posted   []postedMessage
	failures []error // returned in order before succeeding
}

type postedMessage struct {
	channelID string
	options   []slackapi.MsgOption
}

func (m *mockSlackClient) PostMessageContext(_ context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.failures) > 0 {
		err := m.failures[0]
		m.failures = m.failures[1:]
		return "", "", err
	}
	m.posted = append(m.posted, postedMessage{channelID: channelID, options: options})
	return channelID, "1234567890.123456", nil
}

func TestNew_RequiresBotToken(t *testing.T) {
	_, err := New(NotifierOpts{ChannelID: "C1"})
	if err == nil || !strings.Contains(err.Error(), "bot token") {
		t.Errorf("err = %v, want bot token error", err)
	}
}

func TestNew_RequiresChannel(t *testing.T) {
	_, err := New(NotifierOpts{BotToken: "xoxb-test"})
	if err == nil || !strings.Contains(err.Error(), "channel") {
		t.Errorf("err = %v, want channel error", err)
	}
}

func TestNew_RealClient(t *testing.T) {
	n, err := New(NotifierOpts{BotToken: "xoxb-test", ChannelID: "C1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n.client == nil {
		t.Error("expected a Slack API client")
	}
}

func TestNotify_Posts(t *testing.T) {
	mock := &mockSlackClient{}
	n, err := New(NotifierOpts{ChannelID: "C_ORDERS", Client: mock})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := n.Notify(context.Background(), alerts.Alert{Title: "New order"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(mock.posted) != 1 || mock.posted[0].channelID != "C_ORDERS" {
		t.Fatalf("posted = %+v", mock.posted)
	}
	if len(mock.posted[0].options) != 2 {
		t.Errorf("options = %d, want text and attachment", len(mock.posted[0].options))
	}
}

func TestNotify_PostError(t *testing.T) {
	mock := &mockSlackClient{failures: []error{fmt.Errorf("channel_not_found")}}
	n, _ := New(NotifierOpts{ChannelID: "C1", Client: mock})
	err := n.Notify(context.Background(), alerts.Alert{Title: "x"})
	if err == nil || !strings.Contains(err.Error(), "slack: post message") {
		t.Errorf("err = %v", err)
	}
}

func TestNotify_RetriesRateLimit(t *testing.T) {
	mock := &mockSlackClient{failures: []error{
		&slackapi.RateLimitedError{RetryAfter: time.Millisecond},
		&slackapi.RateLimitedError{RetryAfter: time.Millisecond},
	}}
	n, _ := New(NotifierOpts{ChannelID: "C1", Client: mock})
	if err := n.Notify(context.Background(), alerts.Alert{Title: "x"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(mock.posted) != 1 {
		t.Errorf("posted = %d, want 1 after retries", len(mock.posted))
	}
}

func TestAlertToAttachment(t *testing.T) {
	att := alertToAttachment(alerts.Alert{
		Title: "New chat session",
		Body:  "hello",
		Color: "#439fe0",
		Fields: []alerts.Field{
			{Name: "Customer", Value: "Anonymous", Short: true},
		},
	})
	if att.Title != "New chat session" || att.Text != "hello" || att.Color != "#439fe0" || att.Fallback != "New chat session" {
		t.Errorf("attachment = %+v", att)
	}
	if len(att.Fields) != 1 || att.Fields[0].Title != "Customer" || !att.Fields[0].Short {
		t.Errorf("fields = %+v", att.Fields)
	}
}

func TestRateLimited(t *testing.T) {
	wait, ok := rateLimited(fmt.Errorf("post: %w", &slackapi.RateLimitedError{RetryAfter: 7 * time.Second}))
	if !ok || wait != 7*time.Second {
		t.Errorf("rateLimited(wrapped) = %v, %v, want 7s, true", wait, ok)
	}
	if _, ok := rateLimited(fmt.Errorf("invalid_auth")); ok {
		t.Error("invalid_auth reported as rate limited")
	}
}

func TestNotify_GivesUpAfterRetries(t *testing.T) {
	limited := &slackapi.RateLimitedError{RetryAfter: time.Millisecond}
	mock := &mockSlackClient{failures: []error{limited, limited, limited, limited, limited}}
	n, _ := New(NotifierOpts{ChannelID: "C1", Client: mock})
	n.backoff = alerts.Backoff{Retries: 2, Base: time.Millisecond}
	if err := n.Notify(context.Background(), alerts.Alert{Title: "x"}); err == nil {
		t.Fatal("expected error after retries are spent")
	}
	if len(mock.failures) != 2 {
		t.Errorf("failures left = %d, want 2 after 3 calls", len(mock.failures))
	}
}
