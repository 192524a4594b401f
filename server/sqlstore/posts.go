package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/ericzzh/roomwarden/server/app"
	"github.com/ericzzh/roomwarden/server/model"
)

var postColumns = []string{
	"id", "room_id", "root_id", "author_id", "created_at", "expires_at", "lifetime_days",
	"pinned", "no_expire_reason", "extension_reason", "bulk_extended", "deleted_at",
}

func (s *SQLStore) postSelect() sq.SelectBuilder {
	return s.builder.
		Select(postColumns...).
		From("posts").
		Where(sq.Eq{"deleted_at": nil})
}

func (s *SQLStore) ListRoomPostsSince(ctx context.Context, roomID string, since time.Time) ([]model.Post, error) {
	posts := []model.Post{}

	query := s.postSelect().
		Where(sq.Eq{"room_id": roomID}).
		Where(sq.Gt{"created_at": since})
	if err := s.selectBuilder(ctx, s.db, &posts, query); err != nil {
		return nil, errors.Wrapf(err, "failed to list posts of room %s", roomID)
	}
	return posts, nil
}

// expiredPostsQuery lists root posts before replies, so a reply whose root
// expires in the same run can be recognized.
func (s *SQLStore) expiredPostsQuery(now time.Time) sq.SelectBuilder {
	return s.postSelect().
		Where(sq.NotEq{"expires_at": nil}).
		Where(sq.LtOrEq{"expires_at": now}).
		OrderBy("root_id", "created_at")
}

func (s *SQLStore) ListExpiredPosts(ctx context.Context, now time.Time) ([]model.Post, error) {
	posts := []model.Post{}
	if err := s.selectBuilder(ctx, s.db, &posts, s.expiredPostsQuery(now)); err != nil {
		return nil, errors.Wrap(err, "failed to list expired posts")
	}
	return posts, nil
}

func (s *SQLStore) ListPostsExpiringBetween(ctx context.Context, from, to time.Time) ([]model.Post, error) {
	posts := []model.Post{}

	query := s.postSelect().
		Where(sq.Gt{"expires_at": from}).
		Where(sq.LtOrEq{"expires_at": to}).
		Where(sq.Eq{"pinned": false, "no_expire_reason": ""}).
		OrderBy("expires_at")
	if err := s.selectBuilder(ctx, s.db, &posts, query); err != nil {
		return nil, errors.Wrap(err, "failed to list posts expiring soon")
	}
	return posts, nil
}

// ExpirePost soft-deletes the replies of the post, then the post itself.
func (s *SQLStore) ExpirePost(ctx context.Context, postID string, at time.Time) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "could not begin transaction")
	}
	defer s.finalizeTransaction(tx)

	replies, err := s.execAffected(ctx, tx, s.builder.
		Update("posts").
		Set("deleted_at", at).
		Where(sq.Eq{"root_id": postID, "deleted_at": nil}))
	if err != nil {
		return 0, errors.Wrapf(err, "failed to expire replies of %s", postID)
	}

	roots, err := s.execAffected(ctx, tx, s.builder.
		Update("posts").
		Set("deleted_at", at).
		Where(sq.Eq{"id": postID, "deleted_at": nil}))
	if err != nil {
		return 0, errors.Wrapf(err, "failed to expire post %s", postID)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "could not commit transaction")
	}
	return replies + roots, nil
}

func (s *SQLStore) extendPostsQuery(postIDs []string, days int, reason string, bulk bool) sq.UpdateBuilder {
	return s.builder.
		Update("posts").
		Set("expires_at", sq.Expr("expires_at + make_interval(days => ?)", days)).
		Set("extension_reason", reason).
		Set("bulk_extended", bulk).
		Where(sq.Eq{"id": postIDs, "deleted_at": nil}).
		Where(sq.NotEq{"expires_at": nil})
}

func (s *SQLStore) ExtendPosts(ctx context.Context, postIDs []string, days int, reason string, bulk bool) (int64, error) {
	n, err := s.execAffected(ctx, s.db, s.extendPostsQuery(postIDs, days, reason, bulk))
	if err != nil {
		return 0, errors.Wrap(err, "failed to extend posts")
	}
	return n, nil
}

func (s *SQLStore) ExemptPost(ctx context.Context, postID, reason string) error {
	n, err := s.execAffected(ctx, s.db, s.builder.
		Update("posts").
		Set("no_expire_reason", reason).
		Where(sq.Eq{"id": postID, "deleted_at": nil}))
	if err != nil {
		return errors.Wrapf(err, "failed to exempt post %s", postID)
	}
	if n == 0 {
		return errors.Wrapf(app.ErrNotFound, "post %s", postID)
	}
	return nil
}
