package sqlstore

import (
	"context"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/ericzzh/roomwarden/server/model"
)

// notificationRow scans the payload as text so the bytes are owned by the row.
type notificationRow struct {
	ID           string                 `db:"id"`
	RecipientID  string                 `db:"recipient_id"`
	Type         model.NotificationType `db:"type"`
	Payload      string                 `db:"payload"`
	CreatedAt    time.Time              `db:"created_at"`
	ScheduledFor time.Time              `db:"scheduled_for"`
	SentAt       *time.Time             `db:"sent_at"`
}

func (r notificationRow) toModel() model.Notification {
	return model.Notification{
		ID:           r.ID,
		RecipientID:  r.RecipientID,
		Type:         r.Type,
		Payload:      json.RawMessage(r.Payload),
		CreatedAt:    r.CreatedAt,
		ScheduledFor: r.ScheduledFor,
		SentAt:       r.SentAt,
	}
}

func (s *SQLStore) insertNotificationQuery(n model.Notification) sq.InsertBuilder {
	payload := string(n.Payload)
	if payload == "" {
		payload = "{}"
	}

	return s.builder.
		Insert("notifications").
		Columns("id", "recipient_id", "type", "payload", "created_at", "scheduled_for", "sent_at").
		Values(n.ID, n.RecipientID, n.Type, sq.Expr("?::jsonb", payload), n.CreatedAt, n.ScheduledFor, n.SentAt)
}

func (s *SQLStore) InsertNotification(ctx context.Context, n model.Notification) error {
	if _, err := s.execBuilder(ctx, s.db, s.insertNotificationQuery(n)); err != nil {
		return errors.Wrapf(err, "failed to insert notification %s", n.ID)
	}
	return nil
}

// dueRecipientsQuery picks the recipients waiting the longest first.
func (s *SQLStore) dueRecipientsQuery(now time.Time, limit int) sq.SelectBuilder {
	return s.builder.
		Select("recipient_id").
		From("notifications").
		Where(sq.Eq{"sent_at": nil}).
		Where(sq.LtOrEq{"scheduled_for": now}).
		GroupBy("recipient_id").
		OrderBy("MIN(scheduled_for)", "recipient_id").
		Limit(uint64(limit))
}

func (s *SQLStore) ListDueRecipients(ctx context.Context, now time.Time, limit int) ([]string, error) {
	recipients := []string{}
	if err := s.selectBuilder(ctx, s.db, &recipients, s.dueRecipientsQuery(now, limit)); err != nil {
		return nil, errors.Wrap(err, "failed to list due recipients")
	}
	return recipients, nil
}

func (s *SQLStore) ListDueNotifications(ctx context.Context, recipientID string, now time.Time) ([]model.Notification, error) {
	rows := []notificationRow{}

	query := s.builder.
		Select("id", "recipient_id", "type", "payload::text AS payload", "created_at", "scheduled_for", "sent_at").
		From("notifications").
		Where(sq.Eq{"recipient_id": recipientID, "sent_at": nil}).
		Where(sq.LtOrEq{"scheduled_for": now}).
		OrderBy("scheduled_for", "created_at")

	if err := s.selectBuilder(ctx, s.db, &rows, query); err != nil {
		return nil, errors.Wrapf(err, "failed to list notifications of %s", recipientID)
	}

	out := make([]model.Notification, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *SQLStore) MarkNotificationsSent(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := s.execBuilder(ctx, s.db, s.builder.
		Update("notifications").
		Set("sent_at", at).
		Where(sq.Eq{"id": ids, "sent_at": nil}))
	if err != nil {
		return errors.Wrap(err, "failed to mark notifications sent")
	}
	return nil
}
