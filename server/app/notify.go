package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ericzzh/roomwarden/server/model"
)

func newNotification(recipient string, typ model.NotificationType, payload interface{}, now time.Time) (model.Notification, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return model.Notification{}, errors.Wrapf(err, "failed to marshal %s payload", typ)
	}

	return model.Notification{
		ID:           uuid.NewString(),
		RecipientID:  recipient,
		Type:         typ,
		Payload:      raw,
		CreatedAt:    now,
		ScheduledFor: now,
	}, nil
}

// enqueue stores a notification due at now. The batcher picks it up later.
func enqueue(ctx context.Context, store Store, recipient string, typ model.NotificationType, payload interface{}, now time.Time) error {
	n, err := newNotification(recipient, typ, payload, now)
	if err != nil {
		return err
	}

	if err := store.InsertNotification(ctx, n); err != nil {
		return errors.Wrapf(err, "failed to enqueue %s for %s", typ, recipient)
	}
	return nil
}
