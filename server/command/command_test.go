package command_test

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericzzh/roomwarden/server/app"
	"github.com/ericzzh/roomwarden/server/command"
)

func execute(args ...string) (string, error) {
	root := command.NewRootCommand()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCommandTree(t *testing.T) {
	root := command.NewRootCommand()

	for _, path := range [][]string{
		{"serve"},
		{"run"},
		{"health"},
		{"migrate", "up"},
		{"migrate", "down"},
		{"room", "event"},
		{"room", "posters"},
		{"posts", "extend"},
		{"posts", "exempt"},
	} {
		cmd, rest, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Empty(t, rest, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestArgumentValidation(t *testing.T) {
	tcases := []struct {
		name string
		args []string
		err  error
		msg  string
	}{
		{name: "run without job", args: []string{"run"}, msg: "accepts 1 arg"},
		{name: "run unknown job", args: []string{"run", "vacuum"}, msg: "invalid argument"},
		{name: "serve with args", args: []string{"serve", "now"}, msg: "unknown command"},
		{name: "event missing room", args: []string{"room", "event", "USER_JOINED"}, msg: "accepts 2 arg"},
		{name: "unknown event", args: []string{"room", "event", "room-1", "USER_KICKED"}, msg: "unknown event"},
		{name: "lock without moderator", args: []string{"room", "event", "room-1", "manual_lock"}, msg: "requires --moderator"},
		{name: "extend without posts", args: []string{"posts", "extend", "--days", "3", "--reason", "x"}, msg: "requires at least 1 arg"},
		{name: "extend without days", args: []string{"posts", "extend", "p1", "--reason", "keep"}, err: app.ErrInvalidExtension},
		{name: "extend without reason", args: []string{"posts", "extend", "p1", "--days", "3"}, err: app.ErrInvalidExtension},
		{name: "exempt without reason", args: []string{"posts", "exempt", "p1"}, err: app.ErrInvalidExtension},
		{name: "posters without room", args: []string{"room", "posters"}, msg: "accepts 1 arg"},
		{name: "serve with missing config", args: []string{"serve", "--config", "/nonexistent/roomwarden.yaml"}, msg: "failed to read config file"},
		{name: "migrate down zero steps", args: []string{"migrate", "down", "--steps", "0"}, msg: "steps must be positive"},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := execute(tc.args...)
			require.Error(t, err)
			if tc.err != nil {
				assert.True(t, errors.Is(err, tc.err), "got %v", err)
			}
			if tc.msg != "" {
				assert.Contains(t, err.Error(), tc.msg)
			}
		})
	}
}

func TestHealthCommand(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/healthz", r.URL.Path)
			w.Write([]byte(`{"running":true}`))
		}))
		defer srv.Close()

		out, err := execute("health", "--addr", srv.URL)
		require.NoError(t, err)
		assert.Contains(t, out, `"running":true`)
	})

	t.Run("unhealthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"running":false}`))
		}))
		defer srv.Close()

		out, err := execute("health", "--addr", srv.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
		assert.Contains(t, out, `"running":false`)
	})
}
