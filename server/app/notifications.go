package app

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ericzzh/roomwarden/server/bot"
	"github.com/ericzzh/roomwarden/server/config"
	"github.com/ericzzh/roomwarden/server/metrics"
	"github.com/ericzzh/roomwarden/server/model"
)

// NotificationBatcher hands due notifications to the dispatcher, one
// recipient at a time.
type NotificationBatcher struct {
	store           Store
	dispatcher      bot.Dispatcher
	batchSize       int
	digestThreshold int
	logger          zerolog.Logger
}

func NewNotificationBatcher(store Store, dispatcher bot.Dispatcher, cfg *config.Configuration, logger zerolog.Logger) *NotificationBatcher {
	return &NotificationBatcher{
		store:           store,
		dispatcher:      dispatcher,
		batchSize:       cfg.Notifications.BatchSize,
		digestThreshold: cfg.Notifications.DigestThreshold,
		logger:          logger.With().Str("component", "notifications").Logger(),
	}
}

type digestPayload struct {
	Count int                            `json:"count"`
	Types map[model.NotificationType]int `json:"types"`
}

func (b *NotificationBatcher) Run(ctx context.Context, now time.Time) (*RunSummary, error) {
	summary := newSummary(config.JobNotificationBatch, now)

	recipients, err := b.store.ListDueRecipients(ctx, now, b.batchSize)
	if err != nil {
		return summary.finish(), errors.Wrap(err, "failed to list recipients")
	}

	for _, r := range recipients {
		if err := ctx.Err(); err != nil {
			return summary.finish(), errors.Wrap(err, "notification batch interrupted")
		}

		summary.Processed++
		var sent int
		err := isolate(func() (err error) {
			sent, err = b.flush(ctx, r, now)
			return err
		})
		summary.add("sent", sent)
		if err != nil {
			b.logger.Error().Err(err).Str("recipient_id", r).Int("sent", sent).Msg("failed to flush notifications")
			summary.fail(r, err)
			continue
		}
		if sent > 0 {
			summary.Changed++
		}
	}

	return summary.finish(), nil
}

// flush dispatches every due notification of one recipient and marks the
// dispatched ones sent. Undispatched ones stay due for the next run.
func (b *NotificationBatcher) flush(ctx context.Context, recipient string, now time.Time) (int, error) {
	due, err := b.store.ListDueNotifications(ctx, recipient, now)
	if err != nil {
		return 0, errors.Wrap(err, "failed to list notifications")
	}

	var (
		sent     []string
		firstErr error
		types    = map[model.NotificationType]int{}
	)
	for _, n := range due {
		if err := b.dispatcher.Dispatch(ctx, n); err != nil {
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "failed to dispatch %s", n.ID)
			}
			continue
		}
		sent = append(sent, n.ID)
		types[n.Type]++
		metrics.NotificationsDispatched.WithLabelValues(string(n.Type)).Inc()
	}

	if len(sent) > 0 {
		if err := b.store.MarkNotificationsSent(ctx, sent, now); err != nil {
			return 0, errors.Wrap(err, "failed to mark notifications sent")
		}
	}

	if len(due) > b.digestThreshold {
		if err := b.digest(ctx, recipient, len(due), types, now); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return len(sent), firstErr
}

func (b *NotificationBatcher) digest(ctx context.Context, recipient string, count int, types map[model.NotificationType]int, now time.Time) error {
	n, err := newNotification(recipient, model.NotificationDigest, digestPayload{Count: count, Types: types}, now)
	if err != nil {
		return err
	}
	n.SentAt = &now

	if err := b.store.InsertNotification(ctx, n); err != nil {
		return errors.Wrap(err, "failed to store digest")
	}
	if err := b.dispatcher.Dispatch(ctx, n); err != nil {
		return errors.Wrap(err, "failed to dispatch digest")
	}
	metrics.NotificationsDispatched.WithLabelValues(string(n.Type)).Inc()
	return nil
}
