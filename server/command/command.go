package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ericzzh/roomwarden/server"
	"github.com/ericzzh/roomwarden/server/app"
	"github.com/ericzzh/roomwarden/server/config"
	"github.com/ericzzh/roomwarden/server/sqlstore"
)

const shutdownTimeout = 30 * time.Second

// Execute runs the root command with the process arguments.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the full command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "roomwarden",
		Short:        "Room lifecycle and moderation jobs for community rooms",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "path to the YAML config file")

	root.AddCommand(
		newServeCommand(),
		newRunCommand(),
		newHealthCommand(),
		newMigrateCommand(),
		newRoomCommand(),
		newPostsCommand(),
	)
	return root
}

func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// withServer builds a server that is never started and closes it afterwards.
func withServer(cmd *cobra.Command, f func(s *server.Server) error) error {
	c, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	s, err := server.New(cmd.Context(), c)
	if err != nil {
		return err
	}
	defer s.Close()

	return f(s)
}

func printJSON(w io.Writer, v interface{}) error {
	res, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return errors.Wrap(err, "Marshaling result to json has errors")
	}
	_, err = fmt.Fprintln(w, string(res))
	return err
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and the ops HTTP server until interrupted",
		Args:  cobra.NoArgs,
		RunE:  serveCmdF,
	}
}

func serveCmdF(cmd *cobra.Command, _ []string) error {
	c, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := server.New(ctx, c)
	if err != nil {
		return err
	}
	s.Start()

	<-ctx.Done()
	logger := s.Logger()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "run <job>",
		Short:     "Run one job now and print its summary",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: config.JobNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServer(cmd, func(s *server.Server) error {
				summary, err := s.Scheduler.RunNow(cmd.Context(), args[0])
				if summary != nil {
					if perr := printJSON(cmd.OutOrStdout(), summary); perr != nil {
						return perr
					}
				}
				return err
			})
		},
	}
}

func newHealthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Query the health endpoint of a running server",
		Args:  cobra.NoArgs,
		RunE:  healthCmdF,
	}
	cmd.Flags().String("addr", "http://localhost:8090", "base URL of the ops server")
	return cmd
}

func healthCmdF(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr+"/healthz", nil)
	if err != nil {
		return errors.Wrapf(err, "invalid address %s", addr)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to reach the ops server")
	}
	defer resp.Body.Close()

	if _, err := io.Copy(cmd.OutOrStdout(), resp.Body); err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unhealthy: %s", resp.Status)
	}
	return nil
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			version, err := sqlstore.Migrate(c.DatabaseDSN)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return nil
		},
	})

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			if steps <= 0 {
				return errors.Errorf("steps must be positive, got %d", steps)
			}
			c, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return sqlstore.MigrateDown(c.DatabaseDSN, steps)
		},
	}
	down.Flags().Int("steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	return cmd
}

func newRoomCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Act on a single room",
	}

	event := &cobra.Command{
		Use:   "event <room-id> <event>",
		Short: "Send a lifecycle event to a room",
		Long: "Send a lifecycle event to a room. Events: " +
			"USER_JOINED, USER_LEFT, ACTIVITY_CHECK, MANUAL_LOCK, MANUAL_UNLOCK.",
		Args: cobra.ExactArgs(2),
		RunE: roomEventCmdF,
	}
	event.Flags().String("user", "", "user who joined or left")
	event.Flags().String("moderator", "", "moderator performing a manual lock or unlock")
	cmd.AddCommand(event)

	cmd.AddCommand(&cobra.Command{
		Use:   "posters <room-id>",
		Short: "Count the unique posters of a room without changing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServer(cmd, func(s *server.Server) error {
				n, err := s.Rooms.UniquePosters(cmd.Context(), args[0], time.Now().UTC())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "room %s has %d unique posters\n", args[0], n)
				return nil
			})
		},
	})

	return cmd
}

func roomEventCmdF(cmd *cobra.Command, args []string) error {
	typ, err := app.ParseEventType(args[1])
	if err != nil {
		return err
	}
	user, _ := cmd.Flags().GetString("user")
	moderator, _ := cmd.Flags().GetString("moderator")
	if (typ == app.EventManualLock || typ == app.EventManualUnlock) && moderator == "" {
		return errors.Errorf("%s requires --moderator", typ)
	}

	return withServer(cmd, func(s *server.Server) error {
		out, err := s.Rooms.HandleEvent(cmd.Context(), args[0], app.Event{
			Type:        typ,
			UserID:      user,
			ModeratorID: moderator,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]interface{}{
			"room_id":      args[0],
			"from":         out.From,
			"to":           out.To,
			"member_count": out.Context.MemberCount,
		})
	})
}

func newPostsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Override post expiration",
	}

	extend := &cobra.Command{
		Use:   "extend <post-id>...",
		Short: "Push the expiry of one or more posts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")
			reason, _ := cmd.Flags().GetString("reason")
			if days <= 0 {
				return errors.Wrapf(app.ErrInvalidExtension, "days must be positive, got %d", days)
			}
			if reason == "" {
				return errors.Wrap(app.ErrInvalidExtension, "--reason is required")
			}

			return withServer(cmd, func(s *server.Server) error {
				n, err := s.Expiration.Extend(cmd.Context(), app.ExtendRequest{PostIDs: args, Days: days, Reason: reason})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "extended %d of %d posts by %d days\n", n, len(args), days)
				return nil
			})
		},
	}
	extend.Flags().Int("days", 0, "days to add to the expiry")
	extend.Flags().String("reason", "", "why the posts are kept longer")
	cmd.AddCommand(extend)

	exempt := &cobra.Command{
		Use:   "exempt <post-id>",
		Short: "Exempt a post from expiration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reason, _ := cmd.Flags().GetString("reason")
			if reason == "" {
				return errors.Wrap(app.ErrInvalidExtension, "--reason is required")
			}

			return withServer(cmd, func(s *server.Server) error {
				if err := s.Expiration.Exempt(cmd.Context(), args[0], reason); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "post %s will not expire\n", args[0])
				return nil
			})
		},
	}
	exempt.Flags().String("reason", "", "why the post is kept")
	cmd.AddCommand(exempt)

	return cmd
}
