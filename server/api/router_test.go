package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ericzzh/roomwarden/server/api"
	"github.com/ericzzh/roomwarden/server/app"
	"github.com/ericzzh/roomwarden/server/model"
	"github.com/ericzzh/roomwarden/server/scheduler"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRooms struct {
	got     app.Event
	out     app.Outcome
	err     error
	posters map[string]int
}

func (f *fakeRooms) HandleEvent(_ context.Context, _ string, ev app.Event) (app.Outcome, error) {
	f.got = ev
	return f.out, f.err
}

func (f *fakeRooms) UniquePosters(_ context.Context, roomID string, _ time.Time) (int, error) {
	n, ok := f.posters[roomID]
	if !ok {
		return 0, app.ErrNotFound
	}
	return n, nil
}

type fakeDB struct{ err error }

func (f fakeDB) Ping(context.Context) error { return f.err }

func newServer(t *testing.T, rooms api.RoomEvents, db api.Pinger, jobs ...scheduler.Job) (*httptest.Server, *scheduler.Orchestrator) {
	o, err := scheduler.New(zerolog.Nop(), time.Minute, jobs...)
	require.NoError(t, err)
	t.Cleanup(o.Stop)

	srv := httptest.NewServer(api.NewRouter(zerolog.Nop(), api.NewHandler(o, rooms, db)))
	t.Cleanup(srv.Close)
	return srv, o
}

func okJob(name string, enabled bool) scheduler.Job {
	return scheduler.Job{
		Name: name, Schedule: "0 * * * *", Enabled: enabled,
		Run: func(context.Context, time.Time) (*app.RunSummary, error) {
			return &app.RunSummary{Job: name, Processed: 3}, nil
		},
	}
}

func TestHealth(t *testing.T) {
	srv, o := newServer(t, nil, fakeDB{}, okJob("room_checks", true))

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	o.Start()
	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Running  bool                 `json:"running"`
		Database string               `json:"database"`
		Jobs     []scheduler.JobStats `json:"jobs"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Running)
	assert.Equal(t, "pass", body.Database)
	require.Len(t, body.Jobs, 1)
	assert.Equal(t, "room_checks", body.Jobs[0].Name)
}

func TestHealthDatabaseDown(t *testing.T) {
	srv, o := newServer(t, nil, fakeDB{err: errors.New("refused")}, okJob("room_checks", true))
	o.Start()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRunJob(t *testing.T) {
	srv, _ := newServer(t, nil, nil, okJob("room_checks", true), okJob("badge_awards", false))

	tcases := []struct {
		job    string
		status int
	}{
		{job: "room_checks", status: http.StatusOK},
		{job: "badge_awards", status: http.StatusUnprocessableEntity},
		{job: "vacuum", status: http.StatusNotFound},
	}

	for _, tc := range tcases {
		t.Run(tc.job, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/jobs/"+tc.job+"/run", "application/json", nil)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)

			if tc.status == http.StatusOK {
				var summary app.RunSummary
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
				assert.Equal(t, 3, summary.Processed)
			}
		})
	}
}

func TestRunJobWhileStopping(t *testing.T) {
	srv, o := newServer(t, nil, nil, okJob("room_checks", true))
	o.Stop()

	resp, err := http.Post(srv.URL+"/jobs/room_checks/run", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRoomEvent(t *testing.T) {
	rooms := &fakeRooms{out: app.Outcome{From: model.RoomStatusPending, To: model.RoomStatusActive, Context: app.RoomContext{MemberCount: 10}}}
	srv, _ := newServer(t, rooms, nil)

	resp, err := http.Post(srv.URL+"/rooms/r1/events", "application/json", strings.NewReader(`{"type":"user_joined","user_id":"u10"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, app.EventUserJoined, rooms.got.Type)
	assert.Equal(t, "u10", rooms.got.UserID)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "active", body["to"])

	rooms.err = &app.TransitionError{Status: model.RoomStatusActive, Event: app.EventManualUnlock}
	resp2, err := http.Post(srv.URL+"/rooms/r1/events", "application/json", strings.NewReader(`{"type":"MANUAL_UNLOCK","moderator_id":"m"}`))
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusConflict, resp2.StatusCode)

	resp3, err := http.Post(srv.URL+"/rooms/r1/events", "application/json", strings.NewReader(`{"type":"RENAME"}`))
	require.NoError(t, err)
	resp3.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp3.StatusCode)
}

func TestRoomActivity(t *testing.T) {
	srv, _ := newServer(t, &fakeRooms{posters: map[string]int{"r1": 3}}, nil)

	resp, err := http.Get(srv.URL + "/rooms/r1/activity")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		RoomID        string `json:"room_id"`
		UniquePosters int    `json:"unique_posters"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "r1", body.RoomID)
	assert.Equal(t, 3, body.UniquePosters)

	missing, err := http.Get(srv.URL + "/rooms/nope/activity")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}
