// Package slack delivers storefront alerts to a Slack channel through the
// Web API.
package slack

import (
	"context"
	"errors"
	"fmt"
	"time"

	slackapi "github.com/slack-go/slack"
	"github.com/zulandar/storefront/internal/alerts"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Notifier posts alerts as message attachments.
type Notifier struct {
	client    slackClient
	channelID string
	backoff   alerts.Backoff
}

// NotifierOpts holds parameters for creating a Slack Notifier.
type NotifierOpts struct {
	BotToken  string // xoxb-... Slack bot token
	ChannelID string // channel to post to
	// For testing: inject a mock client instead of the real Slack API.
	Client slackClient
}

// New creates a Slack Notifier.
func New(opts NotifierOpts) (*Notifier, error) {
	if opts.Client == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("slack: bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("slack: channel is required")
	}
	n := &Notifier{client: opts.Client, channelID: opts.ChannelID, backoff: alerts.DefaultBackoff}
	if n.client == nil {
		n.client = slackapi.New(opts.BotToken)
	}
	return n, nil
}

// Notify implements alerts.Notifier.
func (n *Notifier) Notify(ctx context.Context, a alerts.Alert) error {
	options := []slackapi.MsgOption{
		slackapi.MsgOptionText(a.Title, false),
		slackapi.MsgOptionAttachments(alertToAttachment(a)),
	}
	err := n.backoff.Retry(ctx, rateLimited, func() error {
		_, _, postErr := n.client.PostMessageContext(ctx, n.channelID, options...)
		return postErr
	})
	if err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}

// alertToAttachment converts an Alert to a Slack Attachment.
func alertToAttachment(a alerts.Alert) slackapi.Attachment {
	att := slackapi.Attachment{
		Title:    a.Title,
		Text:     a.Body,
		Color:    a.Color,
		Fallback: a.Title,
	}
	for _, f := range a.Fields {
		att.Fields = append(att.Fields, slackapi.AttachmentField{
			Title: f.Name,
			Value: f.Value,
			Short: f.Short,
		})
	}
	return att
}

// rateLimited reports Slack rate limit errors and the RetryAfter they carry.
func rateLimited(err error) (time.Duration, bool) {
	var rle *slackapi.RateLimitedError
	if !errors.As(err, &rle) {
		return 0, false
	}
	return rle.RetryAfter, true
}
