package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/charlesng35/autodetail/internal/notify"
	apperrors "github.com/charlesng35/autodetail/pkg/errors"
	"github.com/charlesng35/autodetail/pkg/logger"
	"github.com/charlesng35/autodetail/pkg/metrics"
)

// ContactService forwards visitor messages to the site operators.
type ContactService struct {
	notifier  notify.Notifier
	recipient string
}

// NewContactService constructs a ContactService delivering to recipient.
func NewContactService(notifier notify.Notifier, recipient string) *ContactService {
	return &ContactService{notifier: notifier, recipient: strings.TrimSpace(recipient)}
}

// Send delivers a contact message. Unlike account notifications the message is
// the only outcome of the request, so delivery problems are reported.
func (s *ContactService) Send(ctx context.Context, message, emailOrPhone string) error {
	ctx = ensureContext(ctx)

	message = strings.TrimSpace(message)
	if message == "" {
		return apperrors.NewValidation("Message is required")
	}
	if s.notifier == nil || !s.notifier.Configured() || s.recipient == "" {
		metrics.NotifierSends.WithLabelValues("contact", "skipped").Inc()
		return apperrors.NewConfiguration("Email provider not configured")
	}

	if err := s.notifier.Send(ctx, notify.ContactMessage(s.recipient, emailOrPhone, message)); err != nil {
		metrics.NotifierSends.WithLabelValues("contact", "failed").Inc()
		if errors.Is(err, notify.ErrNotConfigured) {
			return apperrors.NewConfiguration("Email provider not configured")
		}
		logger.WithModule("contact").Warn("contact message send failed", zap.Error(err))
		return apperrors.Wrap(err, "Email send failed")
	}
	metrics.NotifierSends.WithLabelValues("contact", "sent").Inc()
	return nil
}
