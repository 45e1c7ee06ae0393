// Package discord delivers storefront alerts to a Discord channel as embeds
// over the REST API.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/zulandar/storefront/internal/alerts"
)

// rateLimitBackoff starts slower than the default; Discord 429s carry no
// reliable retry hint on the REST error.
var rateLimitBackoff = alerts.Backoff{Retries: 3, Base: 2 * time.Second, Max: 30 * time.Second}

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier posts alerts as embeds.
type Notifier struct {
	sess      session
	channelID string
	backoff   alerts.Backoff
}

// NotifierOpts holds parameters for creating a Discord Notifier.
type NotifierOpts struct {
	BotToken  string // Discord bot token
	ChannelID string // channel to post to
	// For testing: inject a mock session instead of the real Discord API.
	Session session
}

// New creates a Discord Notifier. No gateway connection is opened; embeds
// are sent over REST.
func New(opts NotifierOpts) (*Notifier, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("discord: bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("discord: channel is required")
	}
	n := &Notifier{
		sess:      opts.Session,
		channelID: opts.ChannelID,
		backoff:   rateLimitBackoff,
	}
	if n.sess == nil {
		s, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("discord: create session: %w", err)
		}
		n.sess = s
	}
	return n, nil
}

// Notify implements alerts.Notifier.
func (n *Notifier) Notify(ctx context.Context, a alerts.Alert) error {
	embed := alertToEmbed(a)
	err := n.backoff.Retry(ctx, rateLimited, func() error {
		_, sendErr := n.sess.ChannelMessageSendEmbed(n.channelID, embed, discordgo.WithContext(ctx))
		return sendErr
	})
	if err != nil {
		return fmt.Errorf("discord: send embed: %w", err)
	}
	return nil
}

// alertToEmbed converts an Alert to a Discord embed.
func alertToEmbed(a alerts.Alert) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       a.Title,
		Description: a.Body,
	}
	if a.Color != "" {
		embed.Color = parseHexColor(a.Color)
	}
	for _, f := range a.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Short,
		})
	}
	return embed
}

// parseHexColor converts a hex color string (e.g. "#36a64f") to an int.
// Malformed input yields 0, Discord's default embed color.
func parseHexColor(hex string) int {
	v, err := strconv.ParseUint(strings.TrimPrefix(hex, "#"), 16, 24)
	if err != nil {
		return 0
	}
	return int(v)
}

// rateLimited reports HTTP 429 responses from the Discord REST API.
func rateLimited(err error) (time.Duration, bool) {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Response == nil {
		return 0, false
	}
	return 0, restErr.Response.StatusCode == http.StatusTooManyRequests
}
