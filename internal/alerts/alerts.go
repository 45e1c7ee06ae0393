// Package alerts pushes storefront events (new chat sessions, new orders) to
// staff chat platforms such as Slack and Discord.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/zulandar/storefront/internal/models"
)

// Colors used for alert sidebars.
const (
	ColorChat  = "#439fe0"
	ColorOrder = "#36a64f"
)

// DefaultTimeout bounds a single best-effort delivery.
const DefaultTimeout = 5 * time.Second

// Alert is one event formatted for a chat platform.
type Alert struct {
	Title  string  // headline, e.g. "New order ORD-20260101-ABCDEF"
	Body   string  // detail text
	Color  string  // sidebar color hint, e.g. "#36a64f"
	Fields []Field // key-value metadata
}

// Field is a key-value pair displayed in an alert.
type Field struct {
	Name  string
	Value string
	Short bool // render side-by-side with another field
}

// Notifier delivers alerts to one destination.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// Nop discards alerts.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Alert) error { return nil }

// Multi fans an alert out to several notifiers. Every notifier is tried; the
// joined errors are returned.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, a Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dispatch delivers a in the background with a bounded timeout, logging
// failures. It never blocks the caller.
func Dispatch(n Notifier, a Alert, timeout time.Duration) {
	if n == nil {
		return
	}
	if _, ok := n.(Nop); ok {
		return
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := n.Notify(ctx, a); err != nil {
			slog.Warn("alert delivery failed", "title", a.Title, "error", err)
		}
	}()
}

// ChatSessionOpened describes a customer starting a new chat.
func ChatSessionOpened(msg models.ChatMessage) Alert {
	email := "Anonymous"
	if msg.CustomerEmail != nil && *msg.CustomerEmail != "" {
		email = *msg.CustomerEmail
	}
	return Alert{
		Title: "New chat session",
		Body:  truncate(msg.Message, 300),
		Color: ColorChat,
		Fields: []Field{
			{Name: "Customer", Value: email, Short: true},
			{Name: "Session", Value: msg.SessionID, Short: true},
		},
	}
}

// OrderCreated describes a new order.
func OrderCreated(o models.Order) Alert {
	fields := []Field{
		{Name: "Customer", Value: fmt.Sprintf("%s <%s>", o.CustomerName, o.CustomerEmail), Short: false},
		{Name: "Product", Value: o.ProductName, Short: true},
		{Name: "Quantity", Value: strconv.Itoa(o.Quantity), Short: true},
		{Name: "Total", Value: fmt.Sprintf("%.2f %s", o.TotalAmount, o.Currency), Short: true},
	}
	if o.ProductColor != nil && *o.ProductColor != "" {
		fields = append(fields, Field{Name: "Color", Value: *o.ProductColor, Short: true})
	}
	return Alert{
		Title:  "New order " + o.OrderNumber,
		Body:   o.ShippingAddress,
		Color:  ColorOrder,
		Fields: fields,
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
