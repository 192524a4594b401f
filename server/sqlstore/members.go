package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/ericzzh/roomwarden/server/model"
)

func (s *SQLStore) membershipSelect() sq.SelectBuilder {
	return s.builder.
		Select(
			"m.room_id", "m.user_id", "m.joined_at", "m.last_post_at", "m.last_view_at", "m.is_founder",
			"r.status AS room_status", "u.banned", "u.ban_expires_at",
		).
		From("room_memberships m").
		Join("rooms r ON r.id = m.room_id").
		Join("users u ON u.id = m.user_id").
		Where(sq.Eq{"m.left_at": nil})
}

func (s *SQLStore) ListMemberships(ctx context.Context, roomID string) ([]model.Membership, error) {
	members := []model.Membership{}

	query := s.membershipSelect().Where(sq.Eq{"m.room_id": roomID})
	if err := s.selectBuilder(ctx, s.db, &members, query); err != nil {
		return nil, errors.Wrapf(err, "failed to list members of room %s", roomID)
	}
	return members, nil
}

// ListActiveMemberships returns current memberships of rooms that are not
// deleted.
func (s *SQLStore) ListActiveMemberships(ctx context.Context) ([]model.Membership, error) {
	members := []model.Membership{}

	query := s.membershipSelect().
		Where(sq.NotEq{"r.status": model.RoomStatusDeleted}).
		OrderBy("m.room_id", "m.user_id")
	if err := s.selectBuilder(ctx, s.db, &members, query); err != nil {
		return nil, errors.Wrap(err, "failed to list memberships")
	}
	return members, nil
}

func (s *SQLStore) RecordViolation(ctx context.Context, v model.Violation) error {
	_, err := s.execBuilder(ctx, s.db, s.builder.
		Insert("member_violations").
		Columns("user_id", "room_id", "type", "actual_days", "required_days", "recorded_at").
		Values(v.UserID, v.RoomID, v.Type, v.ActualDays, v.RequiredDays, v.RecordedAt))
	if err != nil {
		return errors.Wrapf(err, "failed to record %s violation of %s", v.Type, v.UserID)
	}
	return nil
}
