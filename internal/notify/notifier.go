package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charlesng35/autodetail/pkg/mail"
)

// DefaultTimeout bounds a single outbound send.
const DefaultTimeout = 15 * time.Second

var (
	// ErrNotConfigured is returned when no delivery channel has been configured.
	ErrNotConfigured = errors.New("notify: notifier not configured")
	// ErrTimeout is returned when a send does not complete within the configured timeout.
	ErrTimeout = errors.New("notify: send timed out")
)

// Message is a plain-text notification addressed to a single recipient.
type Message struct {
	To      string
	Subject string
	Body    string
	ReplyTo string
}

// Notifier delivers messages to people.
type Notifier interface {
	Configured() bool
	Send(ctx context.Context, msg Message) error
}

// MailNotifier delivers messages through a mail.Mailer.
type MailNotifier struct {
	mailer  mail.Mailer
	from    string
	timeout time.Duration
	enabled bool
}

// Option configures a MailNotifier.
type Option func(*MailNotifier)

// WithTimeout overrides the per-send timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(n *MailNotifier) {
		if timeout > 0 {
			n.timeout = timeout
		}
	}
}

// WithFrom sets the sender address used when the mailer has no default.
func WithFrom(from string) Option {
	return func(n *MailNotifier) {
		n.from = strings.TrimSpace(from)
	}
}

// NewMailNotifier wraps mailer. A nil mailer or enabled=false yields an
// unconfigured notifier whose sends return ErrNotConfigured.
func NewMailNotifier(mailer mail.Mailer, enabled bool, opts ...Option) *MailNotifier {
	n := &MailNotifier{
		mailer:  mailer,
		timeout: DefaultTimeout,
		enabled: enabled && mailer != nil,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Configured reports whether sends will be attempted.
func (n *MailNotifier) Configured() bool {
	return n != nil && n.enabled
}

// Send delivers msg, giving up after the configured timeout. The underlying
// mailer keeps running in the background if it ignores cancellation.
func (n *MailNotifier) Send(ctx context.Context, msg Message) error {
	if !n.Configured() {
		return ErrNotConfigured
	}
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("notify: recipient is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- n.mailer.Send(ctx, mail.Message{
			From:    n.from,
			To:      []string{msg.To},
			Subject: msg.Subject,
			Body:    msg.Body,
			ReplyTo: msg.ReplyTo,
		})
	}()

	select {
	case err := <-done:
		if errors.Is(err, mail.ErrSMTPDisabled) {
			return ErrNotConfigured
		}
		if err != nil {
			return fmt.Errorf("notify: send: %w", err)
		}
		return nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctx.Err()
	}
}
