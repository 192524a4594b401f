package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
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

func newRoomService(store app.Store) *app.RoomService {
	cfg := config.Default()
	return app.NewRoomService(store, app.NewActivityEvaluator(store, cfg.Rooms.PosterWindow), cfg, zerolog.Nop())
}

func members(roomID string, n int) []model.Membership {
	ms := make([]model.Membership, 0, n)
	for i := 0; i < n; i++ {
		ms = append(ms, model.Membership{
			RoomID:     roomID,
			UserID:     fmt.Sprintf("user-%d", i),
			JoinedAt:   checkTime.Add(-30 * 24 * time.Hour),
			RoomStatus: model.RoomStatusActive,
		})
	}
	return ms
}

// postsBy returns one recent post for each of the first n members.
func postsBy(roomID string, n int) []model.Post {
	ps := make([]model.Post, 0, n)
	for i := 0; i < n; i++ {
		ps = append(ps, model.Post{
			ID:        fmt.Sprintf("%s-post-%d", roomID, i),
			RoomID:    roomID,
			AuthorID:  fmt.Sprintf("user-%d", i),
			CreatedAt: checkTime.Add(-time.Duration(i+1) * time.Hour),
		})
	}
	return ps
}

func TestHandleEvent(t *testing.T) {
	t.Run("activity check locks and notifies every member", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_app.NewMockStore(ctrl)

		room := &model.Room{ID: "room-b", Name: "quiet", Status: model.RoomStatusActive, MemberCount: 12, UniquePosters72h: 6, Version: 3}
		store.EXPECT().GetRoom(gomock.Any(), "room-b").Return(room, nil)
		store.EXPECT().ListMemberships(gomock.Any(), "room-b").Return(members("room-b", 12), nil)
		store.EXPECT().ListRoomPostsSince(gomock.Any(), "room-b", checkTime.Add(-72*time.Hour)).Return(postsBy("room-b", 2), nil)

		var updated model.Room
		store.EXPECT().UpdateRoom(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r model.Room) error {
			updated = r
			return nil
		})

		recipients := map[string]int{}
		store.EXPECT().InsertNotification(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, n model.Notification) error {
			assert.Equal(t, model.NotificationRoomLocked, n.Type)
			assert.Equal(t, checkTime, n.ScheduledFor)
			assert.Nil(t, n.SentAt)
			recipients[n.RecipientID]++

			var payload map[string]string
			require.NoError(t, json.Unmarshal(n.Payload, &payload))
			assert.Equal(t, "room-b", payload["room_id"])
			assert.Equal(t, "locked", payload["to"])
			return nil
		}).Times(12)

		out, err := newRoomService(store).HandleEvent(context.Background(), "room-b", app.Event{Type: app.EventActivityCheck, At: checkTime})
		require.NoError(t, err)

		assert.Equal(t, model.RoomStatusLocked, out.To)
		assert.Equal(t, model.RoomStatusLocked, updated.Status)
		assert.Equal(t, 2, updated.UniquePosters72h)
		assert.Equal(t, int64(3), updated.Version)
		require.NotNil(t, updated.LockedAt)
		assert.Equal(t, checkTime, *updated.LockedAt)

		assert.Len(t, recipients, 12)
		for id, n := range recipients {
			assert.Equal(t, 1, n, id)
		}
	})

	t.Run("leave below minimum deletes with posts", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_app.NewMockStore(ctrl)

		room := &model.Room{ID: "room-d", Status: model.RoomStatusActive, MemberCount: 10, UniquePosters72h: 5}
		store.EXPECT().GetRoom(gomock.Any(), "room-d").Return(room, nil)
		store.EXPECT().DeleteRoom(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r model.Room) (int64, error) {
			assert.Equal(t, model.RoomStatusDeleted, r.Status)
			assert.Equal(t, 9, r.MemberCount)
			require.NotNil(t, r.DeletedAt)
			return 14, nil
		})
		store.EXPECT().ListMemberships(gomock.Any(), "room-d").Return(members("room-d", 9), nil)
		store.EXPECT().InsertNotification(gomock.Any(), gomock.Any()).Return(nil).Times(9)

		out, err := newRoomService(store).HandleEvent(context.Background(), "room-d", app.Event{Type: app.EventUserLeft, UserID: "user-9", At: checkTime})
		require.NoError(t, err)
		assert.Equal(t, model.RoomStatusDeleted, out.To)
	})

	t.Run("rejected event writes nothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_app.NewMockStore(ctrl)

		room := &model.Room{ID: "room-x", Status: model.RoomStatusActive, MemberCount: 15}
		store.EXPECT().GetRoom(gomock.Any(), "room-x").Return(room, nil)

		_, err := newRoomService(store).HandleEvent(context.Background(), "room-x", app.Event{Type: app.EventManualUnlock, ModeratorID: "mod-1"})
		assert.True(t, errors.Is(err, app.ErrNoTransition))
	})

	t.Run("lost race returns conflict", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_app.NewMockStore(ctrl)

		room := &model.Room{ID: "room-c", Status: model.RoomStatusPending, MemberCount: 3}
		store.EXPECT().GetRoom(gomock.Any(), "room-c").Return(room, nil)
		store.EXPECT().UpdateRoom(gomock.Any(), gomock.Any()).Return(app.ErrConflict)

		_, err := newRoomService(store).HandleEvent(context.Background(), "room-c", app.Event{Type: app.EventUserJoined, UserID: "user-4"})
		assert.True(t, errors.Is(err, app.ErrConflict))
	})

	t.Run("events for one room are serialized", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_app.NewMockStore(ctrl)

		var mu sync.Mutex
		stored := model.Room{ID: "room-s", Status: model.RoomStatusPending, MemberCount: 0}

		store.EXPECT().GetRoom(gomock.Any(), "room-s").DoAndReturn(func(context.Context, string) (*model.Room, error) {
			mu.Lock()
			defer mu.Unlock()
			r := stored
			return &r, nil
		}).AnyTimes()
		store.EXPECT().UpdateRoom(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r model.Room) error {
			mu.Lock()
			defer mu.Unlock()
			if r.Version != stored.Version {
				return app.ErrConflict
			}
			r.Version++
			stored = r
			return nil
		}).AnyTimes()
		store.EXPECT().ListMemberships(gomock.Any(), "room-s").Return(members("room-s", 10), nil).AnyTimes()
		store.EXPECT().InsertNotification(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

		s := newRoomService(store)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := s.HandleEvent(context.Background(), "room-s", app.Event{Type: app.EventUserJoined, UserID: fmt.Sprint(i)})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 20, stored.MemberCount)
		assert.Equal(t, model.RoomStatusActive, stored.Status)
		assert.Equal(t, int64(20), stored.Version)
	})
}

func TestCheckRooms(t *testing.T) {
	t.Run("one failing room does not stop the run", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_app.NewMockStore(ctrl)

		rooms := []model.Room{}
		for i := 0; i < 10; i++ {
			rooms = append(rooms, model.Room{ID: fmt.Sprintf("room-%d", i), Status: model.RoomStatusActive, MemberCount: 12, UniquePosters72h: 5})
		}
		store.EXPECT().ListRooms(gomock.Any()).Return(rooms, nil)

		for _, r := range rooms {
			r := r
			if r.ID == "room-5" {
				store.EXPECT().GetRoom(gomock.Any(), r.ID).Return(nil, errors.New("connection reset"))
				continue
			}
			store.EXPECT().GetRoom(gomock.Any(), r.ID).Return(&r, nil)
			store.EXPECT().ListMemberships(gomock.Any(), r.ID).Return(members(r.ID, 12), nil)
			store.EXPECT().ListRoomPostsSince(gomock.Any(), r.ID, gomock.Any()).Return(postsBy(r.ID, 5), nil)
		}

		summary, err := newRoomService(store).CheckRooms(context.Background(), checkTime)
		require.NoError(t, err)

		assert.Equal(t, config.JobRoomChecks, summary.Job)
		assert.Equal(t, 10, summary.Processed)
		assert.Equal(t, 1, summary.Errored)
		assert.Equal(t, 9, summary.Succeeded())
		assert.Equal(t, 0, summary.Changed)
		require.Len(t, summary.Errors, 1)
		assert.Equal(t, "room-5", summary.Errors[0].ID)
		assert.Contains(t, summary.Errors[0].Error, "connection reset")
	})

	t.Run("panicking room is recorded and the run goes on", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_app.NewMockStore(ctrl)

		rooms := []model.Room{}
		for i := 0; i < 10; i++ {
			rooms = append(rooms, model.Room{ID: fmt.Sprintf("room-%d", i), Status: model.RoomStatusActive, MemberCount: 12, UniquePosters72h: 5})
		}
		store.EXPECT().ListRooms(gomock.Any()).Return(rooms, nil)

		for _, r := range rooms {
			r := r
			if r.ID == "room-5" {
				store.EXPECT().GetRoom(gomock.Any(), r.ID).DoAndReturn(func(context.Context, string) (*model.Room, error) {
					panic("assignment to entry in nil map")
				})
				continue
			}
			store.EXPECT().GetRoom(gomock.Any(), r.ID).Return(&r, nil)
			store.EXPECT().ListMemberships(gomock.Any(), r.ID).Return(members(r.ID, 12), nil)
			store.EXPECT().ListRoomPostsSince(gomock.Any(), r.ID, gomock.Any()).Return(postsBy(r.ID, 5), nil)
		}

		s := newRoomService(store)
		summary, err := s.CheckRooms(context.Background(), checkTime)
		require.NoError(t, err)

		assert.Equal(t, 10, summary.Processed)
		assert.Equal(t, 1, summary.Errored)
		assert.Equal(t, 9, summary.Succeeded())
		require.Len(t, summary.Errors, 1)
		assert.Equal(t, "room-5", summary.Errors[0].ID)
		assert.Contains(t, summary.Errors[0].Error, "panic")

		// the room lock was released while unwinding
		store.EXPECT().GetRoom(gomock.Any(), "room-5").Return(&model.Room{ID: "room-5", Status: model.RoomStatusDeleted}, nil)
		_, err = s.HandleEvent(context.Background(), "room-5", app.Event{Type: app.EventUserJoined})
		assert.True(t, errors.Is(err, app.ErrNoTransition))
	})

	t.Run("list failure aborts the run", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_app.NewMockStore(ctrl)
		store.EXPECT().ListRooms(gomock.Any()).Return(nil, errors.New("database is down"))

		summary, err := newRoomService(store).CheckRooms(context.Background(), checkTime)
		require.Error(t, err)
		assert.Equal(t, 0, summary.Processed)
	})

	t.Run("room deleted since listing is skipped", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_app.NewMockStore(ctrl)

		store.EXPECT().ListRooms(gomock.Any()).Return([]model.Room{{ID: "gone", Status: model.RoomStatusActive}}, nil)
		store.EXPECT().GetRoom(gomock.Any(), "gone").Return(&model.Room{ID: "gone", Status: model.RoomStatusDeleted}, nil)

		summary, err := newRoomService(store).CheckRooms(context.Background(), checkTime)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Skipped)
		assert.Equal(t, 0, summary.Errored)
	})
}

func TestUniquePosters(t *testing.T) {
	t.Run("counts members who posted in the window", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_app.NewMockStore(ctrl)

		store.EXPECT().GetRoom(gomock.Any(), "room-a").Return(&model.Room{ID: "room-a", Status: model.RoomStatusActive}, nil)
		store.EXPECT().ListMemberships(gomock.Any(), "room-a").Return(members("room-a", 6), nil)
		posts := append(postsBy("room-a", 3), model.Post{ID: "x", RoomID: "room-a", AuthorID: "outsider", CreatedAt: checkTime.Add(-time.Hour)})
		store.EXPECT().ListRoomPostsSince(gomock.Any(), "room-a", checkTime.Add(-72*time.Hour)).Return(posts, nil)

		n, err := newRoomService(store).UniquePosters(context.Background(), "room-a", checkTime)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("unknown room", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_app.NewMockStore(ctrl)
		store.EXPECT().GetRoom(gomock.Any(), "nope").Return(nil, app.ErrNotFound)

		_, err := newRoomService(store).UniquePosters(context.Background(), "nope", checkTime)
		assert.True(t, errors.Is(err, app.ErrNotFound))
	})

	t.Run("evaluator alone", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_app.NewMockStore(ctrl)
		store.EXPECT().ListMemberships(gomock.Any(), "room-a").Return(members("room-a", 2), nil)
		store.EXPECT().ListRoomPostsSince(gomock.Any(), "room-a", checkTime.Add(-48*time.Hour)).Return(postsBy("room-a", 2), nil)

		n, err := app.NewActivityEvaluator(store, 48*time.Hour).Evaluate(context.Background(), "room-a", checkTime)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

func TestCountUniquePosters(t *testing.T) {
	now := checkTime
	deleted := now.Add(-time.Hour)
	ids := map[string]struct{}{"a": {}, "b": {}, "c": {}}

	posts := []model.Post{
		{ID: "1", AuthorID: "a", CreatedAt: now.Add(-time.Hour)},
		{ID: "2", AuthorID: "a", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "3", AuthorID: "b", CreatedAt: now.Add(-71 * time.Hour)},
		{ID: "4", AuthorID: "c", CreatedAt: now.Add(-73 * time.Hour)},
		{ID: "5", AuthorID: "c", CreatedAt: now.Add(-time.Hour), DeletedAt: &deleted},
		{ID: "6", AuthorID: "stranger", CreatedAt: now.Add(-time.Hour)},
		{ID: "7", AuthorID: "c", CreatedAt: now.Add(time.Hour)},
	}

	assert.Equal(t, 2, app.CountUniquePosters(posts, ids, now, 72*time.Hour))
	assert.Equal(t, 0, app.CountUniquePosters(nil, ids, now, 72*time.Hour))
}
