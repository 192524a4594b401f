package sqlstore

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ericzzh/roomwarden/server/app"
	"github.com/ericzzh/roomwarden/server/model"
)

var roomColumns = []string{
	"id", "name", "member_count", "status", "unique_posters_72h",
	"activated_at", "locked_at", "deleted_at", "last_moderator_id", "version", "created_at",
}

func (s *SQLStore) ListRooms(ctx context.Context) ([]model.Room, error) {
	rooms := []model.Room{}

	query := s.builder.
		Select(roomColumns...).
		From("rooms").
		Where(sq.NotEq{"status": model.RoomStatusDeleted}).
		OrderBy("created_at")

	if err := s.selectBuilder(ctx, s.db, &rooms, query); err != nil {
		return nil, errors.Wrap(err, "failed to list rooms")
	}
	return rooms, nil
}

func (s *SQLStore) GetRoom(ctx context.Context, roomID string) (*model.Room, error) {
	var room model.Room

	query := s.builder.
		Select(roomColumns...).
		From("rooms").
		Where(sq.Eq{"id": roomID})

	if err := s.getBuilder(ctx, s.db, &room, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Wrapf(app.ErrNotFound, "room %s", roomID)
		}
		return nil, errors.Wrapf(err, "failed to get room %s", roomID)
	}
	return &room, nil
}

// updateRoomQuery writes the mutable columns of room if its version still
// matches, and bumps the version.
func (s *SQLStore) updateRoomQuery(room model.Room) sq.UpdateBuilder {
	return s.builder.
		Update("rooms").
		SetMap(map[string]interface{}{
			"member_count":       room.MemberCount,
			"status":             room.Status,
			"unique_posters_72h": room.UniquePosters72h,
			"activated_at":       room.ActivatedAt,
			"locked_at":          room.LockedAt,
			"deleted_at":         room.DeletedAt,
			"last_moderator_id":  room.LastModeratorID,
			"version":            sq.Expr("version + 1"),
		}).
		Where(sq.Eq{"id": room.ID, "version": room.Version})
}

func (s *SQLStore) updateRoom(ctx context.Context, e sqlx.ExecerContext, room model.Room) error {
	n, err := s.execAffected(ctx, e, s.updateRoomQuery(room))
	if err != nil {
		return errors.Wrapf(err, "failed to update room %s", room.ID)
	}
	if n == 0 {
		return errors.Wrapf(app.ErrConflict, "room %s at version %d", room.ID, room.Version)
	}
	return nil
}

func (s *SQLStore) UpdateRoom(ctx context.Context, room model.Room) error {
	return s.updateRoom(ctx, s.db, room)
}

func (s *SQLStore) DeleteRoom(ctx context.Context, room model.Room) (int64, error) {
	if room.DeletedAt == nil {
		return 0, errors.Errorf("room %s has no deletion time", room.ID)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "could not begin transaction")
	}
	defer s.finalizeTransaction(tx)

	if err := s.updateRoom(ctx, tx, room); err != nil {
		return 0, err
	}

	n, err := s.execAffected(ctx, tx, s.builder.
		Update("posts").
		Set("deleted_at", *room.DeletedAt).
		Where(sq.Eq{"room_id": room.ID, "deleted_at": nil}))
	if err != nil {
		return 0, errors.Wrapf(err, "failed to delete posts of room %s", room.ID)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "could not commit transaction")
	}
	return n, nil
}
