package app

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ericzzh/roomwarden/server/config"
	"github.com/ericzzh/roomwarden/server/metrics"
	"github.com/ericzzh/roomwarden/server/model"
)

var ErrInvalidExtension = errors.New("invalid extension request")

// PostExpirationEngine expires posts whose lifetime passed and warns authors
// about posts that expire soon.
type PostExpirationEngine struct {
	store      Store
	soonWindow time.Duration
	logger     zerolog.Logger
}

// expirationRun holds the state of one run, like which roots were already
// removed together with their replies.
type expirationRun struct {
	*PostExpirationEngine
	baseTime time.Time
	removed  map[string]bool
	summary  *RunSummary
}

type ExtendRequest struct {
	PostIDs []string
	Days    int
	Reason  string
}

func NewPostExpirationEngine(store Store, cfg *config.Configuration, logger zerolog.Logger) *PostExpirationEngine {
	return &PostExpirationEngine{
		store:      store,
		soonWindow: time.Duration(cfg.Posts.ExpiringSoonDays) * 24 * time.Hour,
		logger:     logger.With().Str("component", "expiration").Logger(),
	}
}

// Run expires due posts, then notifies authors of posts expiring soon.
func (e *PostExpirationEngine) Run(ctx context.Context, now time.Time) (*RunSummary, error) {
	e.logger.Debug().Time("now", now).Msg("starting post expiration")

	run := &expirationRun{
		PostExpirationEngine: e,
		baseTime:             now,
		removed:              map[string]bool{},
		summary:              newSummary(config.JobPostExpiration, now),
	}

	if err := run.expire(ctx); err != nil {
		return run.summary.finish(), err
	}
	if err := run.notifySoon(ctx); err != nil {
		return run.summary.finish(), err
	}

	return run.summary.finish(), nil
}

func (r *expirationRun) expire(ctx context.Context) error {
	posts, err := r.store.ListExpiredPosts(ctx, r.baseTime)
	if err != nil {
		return errors.Wrap(err, "failed to list expired posts")
	}

	for _, p := range posts {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "post expiration interrupted")
		}

		// Replies of a root expired earlier in this run are already gone.
		if p.IsReply() && r.removed[p.RootID] {
			continue
		}

		r.summary.Processed++
		if hasOverride(p) {
			r.summary.Skipped++
			continue
		}

		var n int64
		err := isolate(func() (err error) {
			n, err = r.store.ExpirePost(ctx, p.ID, r.baseTime)
			return err
		})
		if err != nil {
			r.logger.Error().Err(err).Str("post_id", p.ID).Str("room_id", p.RoomID).Msg("failed to expire post")
			r.summary.fail(p.ID, err)
			continue
		}

		r.removed[p.ID] = true
		r.summary.Changed++
		r.summary.add("rows_expired", int(n))
		metrics.PostsExpired.Add(float64(n))
	}

	return nil
}

func (r *expirationRun) notifySoon(ctx context.Context) error {
	posts, err := r.store.ListPostsExpiringBetween(ctx, r.baseTime, r.baseTime.Add(r.soonWindow))
	if err != nil {
		return errors.Wrap(err, "failed to list posts expiring soon")
	}

	for _, p := range posts {
		if hasOverride(p) || p.ExpiresAt == nil {
			continue
		}

		payload := expiringSoonPayload{
			PostID:    p.ID,
			RoomID:    p.RoomID,
			ExpiresAt: *p.ExpiresAt,
		}
		err := isolate(func() error {
			return enqueue(ctx, r.store, p.AuthorID, model.NotificationPostExpiringSoon, payload, r.baseTime)
		})
		if err != nil {
			r.logger.Error().Err(err).Str("post_id", p.ID).Msg("failed to notify author")
			r.summary.fail(p.ID, err)
			continue
		}
		r.summary.add("expiring_soon_notified", 1)
	}

	return nil
}

type expiringSoonPayload struct {
	PostID    string    `json:"post_id"`
	RoomID    string    `json:"room_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func hasOverride(p model.Post) bool {
	return p.Pinned || p.NoExpireReason != ""
}

// Extend pushes the expiry of the given posts by req.Days. Posts extended
// together in one request are flagged as bulk extended.
func (e *PostExpirationEngine) Extend(ctx context.Context, req ExtendRequest) (int64, error) {
	if len(req.PostIDs) == 0 {
		return 0, errors.Wrap(ErrInvalidExtension, "no posts given")
	}
	if req.Days <= 0 {
		return 0, errors.Wrapf(ErrInvalidExtension, "days must be positive, got %d", req.Days)
	}
	if req.Reason == "" {
		return 0, errors.Wrap(ErrInvalidExtension, "reason is required")
	}

	n, err := e.store.ExtendPosts(ctx, req.PostIDs, req.Days, req.Reason, len(req.PostIDs) > 1)
	if err != nil {
		return 0, errors.Wrap(err, "failed to extend posts")
	}

	e.logger.Info().Strs("post_ids", req.PostIDs).Int("days", req.Days).Int64("extended", n).Msg("posts extended")
	return n, nil
}

// Exempt marks a post as never expiring.
func (e *PostExpirationEngine) Exempt(ctx context.Context, postID, reason string) error {
	if reason == "" {
		return errors.Wrap(ErrInvalidExtension, "reason is required")
	}

	if err := e.store.ExemptPost(ctx, postID, reason); err != nil {
		return errors.Wrapf(err, "failed to exempt post %s", postID)
	}

	e.logger.Info().Str("post_id", postID).Str("reason", reason).Msg("post exempted from expiration")
	return nil
}
