package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/ericzzh/roomwarden/server/model"
)

// ListUsers returns every user with the number of posts and replies they
// ever wrote, expired ones included.
func (s *SQLStore) ListUsers(ctx context.Context) ([]model.User, error) {
	users := []model.User{}

	query := s.builder.
		Select("u.id", "u.username", "u.created_at", "COUNT(p.id) AS post_count").
		From("users u").
		LeftJoin("posts p ON p.author_id = u.id").
		GroupBy("u.id", "u.username", "u.created_at").
		OrderBy("u.id")

	if err := s.selectBuilder(ctx, s.db, &users, query); err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}
	return users, nil
}

func (s *SQLStore) HasBadge(ctx context.Context, userID, badgeName string) (bool, error) {
	var exists bool

	query := s.builder.
		Select("1").
		Prefix("SELECT EXISTS (").
		From("user_badges").
		Where(sq.Eq{"user_id": userID, "badge_name": badgeName}).
		Suffix(")")

	if err := s.getBuilder(ctx, s.db, &exists, query); err != nil {
		return false, errors.Wrapf(err, "failed to look up badge %s of %s", badgeName, userID)
	}
	return exists, nil
}

// InsertBadgeAward relies on the (user_id, badge_name) key to never store an
// award twice.
func (s *SQLStore) InsertBadgeAward(ctx context.Context, award model.UserBadgeAward) (bool, error) {
	n, err := s.execAffected(ctx, s.db, s.builder.
		Insert("user_badges").
		Columns("user_id", "badge_name", "awarded_at", "awarded_by", "reason").
		Values(award.UserID, award.BadgeName, award.AwardedAt, award.AwardedBy, award.Reason).
		Suffix("ON CONFLICT (user_id, badge_name) DO NOTHING"))
	if err != nil {
		return false, errors.Wrapf(err, "failed to insert badge %s of %s", award.BadgeName, award.UserID)
	}
	return n == 1, nil
}
