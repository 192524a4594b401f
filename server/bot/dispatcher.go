package bot

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ericzzh/roomwarden/server/model"
)

// OutboxKey is the Redis list delivery workers pop notifications from.
const OutboxKey = "roomwarden:notifications:outbox"

// Dispatcher hands a notification over to the delivery side. Delivery itself
// (email, push, websocket) happens outside this module.
type Dispatcher interface {
	Dispatch(ctx context.Context, n model.Notification) error
}

type RedisDispatcher struct {
	client *redis.Client
	key    string
}

func NewRedisDispatcher(ctx context.Context, redisURL string) (*RedisDispatcher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse redis url")
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to ping redis")
	}

	return &RedisDispatcher{client: client, key: OutboxKey}, nil
}

func (d *RedisDispatcher) Dispatch(ctx context.Context, n model.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal notification %s", n.ID)
	}

	if err := d.client.LPush(ctx, d.key, payload).Err(); err != nil {
		return errors.Wrapf(err, "failed to push notification %s", n.ID)
	}
	return nil
}

func (d *RedisDispatcher) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}

func (d *RedisDispatcher) Close() error {
	return d.client.Close()
}

// LogDispatcher only logs notifications. It is used when no Redis outbox is
// configured.
type LogDispatcher struct {
	logger zerolog.Logger
}

func NewLogDispatcher(logger zerolog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(_ context.Context, n model.Notification) error {
	payload := []byte(n.Payload)
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	d.logger.Info().
		Str("notification_id", n.ID).
		Str("recipient", n.RecipientID).
		Str("type", string(n.Type)).
		RawJSON("payload", payload).
		Msg("notification dispatched")
	return nil
}
