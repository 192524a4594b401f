package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ericzzh/roomwarden/server/app"
	mock_app "github.com/ericzzh/roomwarden/server/app/mocks"
	"github.com/ericzzh/roomwarden/server/config"
	"github.com/ericzzh/roomwarden/server/model"
	gomock "github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExpirationEngine(store app.Store) *app.PostExpirationEngine {
	return app.NewPostExpirationEngine(store, config.Default(), zerolog.Nop())
}

func expiredAt(d time.Duration) *time.Time {
	t := checkTime.Add(d)
	return &t
}

func TestExpirationRun(t *testing.T) {
	t.Run("expire-and-skip", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_app.NewMockStore(ctrl)

		store.EXPECT().ListExpiredPosts(gomock.Any(), checkTime).Return([]model.Post{
			{ID: "root-1", RoomID: "r", ExpiresAt: expiredAt(-time.Hour)},
			{ID: "root-2", RoomID: "r", ExpiresAt: expiredAt(-time.Hour), Pinned: true},
			{ID: "root-3", RoomID: "r", ExpiresAt: expiredAt(-time.Hour), NoExpireReason: "announcement"},
			{ID: "reply-1", RoomID: "r", RootID: "root-1", ExpiresAt: expiredAt(-time.Hour)},
			{ID: "reply-2", RoomID: "r", RootID: "root-2", ExpiresAt: expiredAt(-time.Hour)},
		}, nil)
		store.EXPECT().ExpirePost(gomock.Any(), "root-1", checkTime).Return(int64(3), nil)
		store.EXPECT().ExpirePost(gomock.Any(), "reply-2", checkTime).Return(int64(1), nil)
		store.EXPECT().ListPostsExpiringBetween(gomock.Any(), checkTime, checkTime.Add(72*time.Hour)).Return(nil, nil)

		summary, err := newExpirationEngine(store).Run(context.Background(), checkTime)
		require.NoError(t, err)

		assert.Equal(t, config.JobPostExpiration, summary.Job)
		assert.Equal(t, 4, summary.Processed)
		assert.Equal(t, 2, summary.Changed)
		assert.Equal(t, 2, summary.Skipped)
		assert.Equal(t, 0, summary.Errored)
		assert.Equal(t, 4, summary.Details["rows_expired"])
	})

	t.Run("one failing post does not stop the run", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_app.NewMockStore(ctrl)

		store.EXPECT().ListExpiredPosts(gomock.Any(), checkTime).Return([]model.Post{
			{ID: "p1", ExpiresAt: expiredAt(-time.Hour)},
			{ID: "p2", ExpiresAt: expiredAt(-time.Hour)},
			{ID: "p3", ExpiresAt: expiredAt(-time.Hour)},
		}, nil)
		store.EXPECT().ExpirePost(gomock.Any(), "p1", checkTime).Return(int64(1), nil)
		store.EXPECT().ExpirePost(gomock.Any(), "p2", checkTime).Return(int64(0), errors.New("deadlock detected"))
		store.EXPECT().ExpirePost(gomock.Any(), "p3", checkTime).Return(int64(1), nil)
		store.EXPECT().ListPostsExpiringBetween(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

		summary, err := newExpirationEngine(store).Run(context.Background(), checkTime)
		require.NoError(t, err)
		assert.Equal(t, 3, summary.Processed)
		assert.Equal(t, 2, summary.Changed)
		require.Len(t, summary.Errors, 1)
		assert.Equal(t, "p2", summary.Errors[0].ID)
	})

	t.Run("expiring soon notifies the author", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_app.NewMockStore(ctrl)

		store.EXPECT().ListExpiredPosts(gomock.Any(), checkTime).Return(nil, nil)
		store.EXPECT().ListPostsExpiringBetween(gomock.Any(), checkTime, checkTime.Add(72*time.Hour)).Return([]model.Post{
			{ID: "soon-1", AuthorID: "alice", ExpiresAt: expiredAt(24 * time.Hour)},
			{ID: "soon-2", AuthorID: "bob", ExpiresAt: expiredAt(48 * time.Hour), NoExpireReason: "kept"},
		}, nil)
		store.EXPECT().InsertNotification(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, n model.Notification) error {
			assert.Equal(t, "alice", n.RecipientID)
			assert.Equal(t, model.NotificationPostExpiringSoon, n.Type)
			assert.Contains(t, string(n.Payload), `"post_id":"soon-1"`)
			return nil
		})

		summary, err := newExpirationEngine(store).Run(context.Background(), checkTime)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Details["expiring_soon_notified"])
	})

	t.Run("list failure is a run error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_app.NewMockStore(ctrl)
		store.EXPECT().ListExpiredPosts(gomock.Any(), checkTime).Return(nil, errors.New("no connection"))

		_, err := newExpirationEngine(store).Run(context.Background(), checkTime)
		assert.Error(t, err)
	})
}

func TestExtendAndExempt(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock_app.NewMockStore(ctrl)
	e := newExpirationEngine(store)
	ctx := context.Background()

	store.EXPECT().ExtendPosts(gomock.Any(), []string{"p1"}, 7, "still relevant", false).Return(int64(1), nil)
	n, err := e.Extend(ctx, app.ExtendRequest{PostIDs: []string{"p1"}, Days: 7, Reason: "still relevant"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	store.EXPECT().ExtendPosts(gomock.Any(), []string{"p1", "p2"}, 3, "event", true).Return(int64(2), nil)
	n, err = e.Extend(ctx, app.ExtendRequest{PostIDs: []string{"p1", "p2"}, Days: 3, Reason: "event"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for _, req := range []app.ExtendRequest{
		{Days: 3, Reason: "x"},
		{PostIDs: []string{"p1"}, Days: 0, Reason: "x"},
		{PostIDs: []string{"p1"}, Days: 3},
	} {
		_, err := e.Extend(ctx, req)
		assert.True(t, errors.Is(err, app.ErrInvalidExtension), "%+v", req)
	}

	store.EXPECT().ExemptPost(gomock.Any(), "p9", "rules").Return(nil)
	require.NoError(t, e.Exempt(ctx, "p9", "rules"))

	store.EXPECT().ExemptPost(gomock.Any(), "missing", "rules").Return(app.ErrNotFound)
	assert.True(t, errors.Is(e.Exempt(ctx, "missing", "rules"), app.ErrNotFound))

	assert.True(t, errors.Is(e.Exempt(ctx, "p9", ""), app.ErrInvalidExtension))
}
