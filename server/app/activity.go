package app

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ericzzh/roomwarden/server/model"
)

// ActivityEvaluator counts the distinct members who posted in a room during
// the trailing window.
type ActivityEvaluator struct {
	store  Store
	window time.Duration
}

func NewActivityEvaluator(store Store, window time.Duration) *ActivityEvaluator {
	return &ActivityEvaluator{store: store, window: window}
}

// Evaluate reads the room's members and recent posts and counts the unique
// posters at now.
func (e *ActivityEvaluator) Evaluate(ctx context.Context, roomID string, now time.Time) (int, error) {
	members, err := e.store.ListMemberships(ctx, roomID)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to list members of room %s", roomID)
	}
	return e.evaluate(ctx, roomID, members, now)
}

func (e *ActivityEvaluator) evaluate(ctx context.Context, roomID string, members []model.Membership, now time.Time) (int, error) {
	posts, err := e.store.ListRoomPostsSince(ctx, roomID, now.Add(-e.window))
	if err != nil {
		return 0, errors.Wrapf(err, "failed to list posts of room %s", roomID)
	}

	ids := make(map[string]struct{}, len(members))
	for _, m := range members {
		ids[m.UserID] = struct{}{}
	}

	return CountUniquePosters(posts, ids, now, e.window), nil
}

// CountUniquePosters returns the number of distinct members that authored at
// least one non-deleted post in (now-window, now].
func CountUniquePosters(posts []model.Post, members map[string]struct{}, now time.Time, window time.Duration) int {
	since := now.Add(-window)
	posters := map[string]struct{}{}
	for _, p := range posts {
		if p.DeletedAt != nil {
			continue
		}
		if !p.CreatedAt.After(since) || p.CreatedAt.After(now) {
			continue
		}
		if _, ok := members[p.AuthorID]; !ok {
			continue
		}
		posters[p.AuthorID] = struct{}{}
	}
	return len(posters)
}
