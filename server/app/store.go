package app

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ericzzh/roomwarden/server/model"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a room changed between read and write.
	ErrConflict = errors.New("room was modified concurrently")
)

// Store is the persistence the core consumes. Every list method only returns
// non-deleted rows unless stated otherwise.
type Store interface {
	Ping(ctx context.Context) error

	ListRooms(ctx context.Context) ([]model.Room, error)
	GetRoom(ctx context.Context, roomID string) (*model.Room, error)
	// UpdateRoom writes room if its version still matches, and bumps it.
	UpdateRoom(ctx context.Context, room model.Room) error
	// DeleteRoom writes room like UpdateRoom and soft-deletes all of its posts
	// and replies in the same transaction. It returns the posts affected.
	DeleteRoom(ctx context.Context, room model.Room) (int64, error)

	ListMemberships(ctx context.Context, roomID string) ([]model.Membership, error)
	ListActiveMemberships(ctx context.Context) ([]model.Membership, error)
	RecordViolation(ctx context.Context, v model.Violation) error

	ListRoomPostsSince(ctx context.Context, roomID string, since time.Time) ([]model.Post, error)
	ListExpiredPosts(ctx context.Context, now time.Time) ([]model.Post, error)
	ListPostsExpiringBetween(ctx context.Context, from, to time.Time) ([]model.Post, error)
	// ExpirePost soft-deletes a post and its replies in one transaction.
	ExpirePost(ctx context.Context, postID string, at time.Time) (int64, error)
	ExtendPosts(ctx context.Context, postIDs []string, days int, reason string, bulk bool) (int64, error)
	ExemptPost(ctx context.Context, postID, reason string) error

	ListUsers(ctx context.Context) ([]model.User, error)
	HasBadge(ctx context.Context, userID, badgeName string) (bool, error)
	// InsertBadgeAward reports false when the (user, badge) pair already exists.
	InsertBadgeAward(ctx context.Context, award model.UserBadgeAward) (bool, error)

	InsertNotification(ctx context.Context, n model.Notification) error
	ListDueRecipients(ctx context.Context, now time.Time, limit int) ([]string, error)
	ListDueNotifications(ctx context.Context, recipientID string, now time.Time) ([]model.Notification, error)
	MarkNotificationsSent(ctx context.Context, ids []string, at time.Time) error
}
