package services

import (
	"context"
	"errors"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/charlesng35/autodetail/internal/notify"
	"github.com/charlesng35/autodetail/pkg/logger"
	"github.com/charlesng35/autodetail/pkg/metrics"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func normalisePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = defaultPage
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// trimmedOrNil returns nil for nil or blank strings and a trimmed copy otherwise.
func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// finiteOrNil drops NaN and infinite values so they are stored as NULL.
func finiteOrNil(value *float64) *float64 {
	if value == nil || math.IsNaN(*value) || math.IsInf(*value, 0) {
		return nil
	}
	v := *value
	return &v
}

func upperOrNil(value *string) *string {
	trimmed := trimmedOrNil(value)
	if trimmed == nil {
		return nil
	}
	upper := strings.ToUpper(*trimmed)
	return &upper
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// deliverBestEffort sends msg and only logs failures. An unconfigured notifier is skipped.
func deliverBestEffort(ctx context.Context, notifier notify.Notifier, kind string, msg notify.Message) {
	log := logger.WithModule("notify")
	if notifier == nil || !notifier.Configured() {
		metrics.NotifierSends.WithLabelValues(kind, "skipped").Inc()
		log.Debug("notifier not configured, skipping send", zap.String("kind", kind), zap.String("to", msg.To))
		return
	}

	if err := notifier.Send(ensureContext(ctx), msg); err != nil {
		if errors.Is(err, notify.ErrNotConfigured) {
			metrics.NotifierSends.WithLabelValues(kind, "skipped").Inc()
			return
		}
		metrics.NotifierSends.WithLabelValues(kind, "failed").Inc()
		log.Warn("notification send failed", zap.String("kind", kind), zap.String("to", msg.To), zap.Error(err))
		return
	}
	metrics.NotifierSends.WithLabelValues(kind, "sent").Inc()
}
