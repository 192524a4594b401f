package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ericzzh/roomwarden/server/api"
	"github.com/ericzzh/roomwarden/server/app"
	"github.com/ericzzh/roomwarden/server/bot"
	"github.com/ericzzh/roomwarden/server/config"
	"github.com/ericzzh/roomwarden/server/scheduler"
	"github.com/ericzzh/roomwarden/server/sqlstore"
)

// Server owns every long lived component of the process.
type Server struct {
	config config.Service
	logger zerolog.Logger

	store      *sqlstore.SQLStore
	dispatcher bot.Dispatcher
	redis      *bot.RedisDispatcher

	Rooms         *app.RoomService
	Expiration    *app.PostExpirationEngine
	Compliance    *app.ComplianceMonitor
	Badges        *app.BadgeEngine
	Notifications *app.NotificationBatcher
	Scheduler     *scheduler.Orchestrator

	http *http.Server
}

// New connects to the database and Redis and builds the services. Nothing is
// scheduled until Start.
func New(ctx context.Context, c *config.Configuration) (*Server, error) {
	s := &Server{
		config: config.NewConfigService(c),
		logger: bot.NewLogger(os.Stderr, c.IsDevelopment()),
	}
	cfg := s.config.GetConfiguration()

	store, err := sqlstore.New(ctx, cfg.DatabaseDSN, s.logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed creating the SQL store")
	}
	s.store = store

	if cfg.RedisURL != "" {
		rd, err := bot.NewRedisDispatcher(ctx, cfg.RedisURL)
		if err != nil {
			_ = store.Close()
			return nil, errors.Wrapf(err, "failed creating the notification dispatcher")
		}
		s.redis = rd
		s.dispatcher = rd
	} else {
		s.logger.Warn().Msg("no redis url configured, notifications are only logged")
		s.dispatcher = bot.NewLogDispatcher(s.logger)
	}

	s.Rooms = app.NewRoomService(store, app.NewActivityEvaluator(store, cfg.Rooms.PosterWindow), cfg, s.logger)
	s.Expiration = app.NewPostExpirationEngine(store, cfg, s.logger)
	s.Compliance = app.NewComplianceMonitor(store, cfg, s.logger)
	s.Badges = app.NewBadgeEngine(store, app.BadgeCatalog, s.logger)
	s.Notifications = app.NewNotificationBatcher(store, s.dispatcher, cfg, s.logger)

	s.Scheduler, err = scheduler.New(s.logger, cfg.RunTimeout, s.jobs()...)
	if err != nil {
		s.Close()
		return nil, errors.Wrapf(err, "failed creating the scheduler")
	}

	s.http = &http.Server{
		Addr:              cfg.OpsAddr,
		Handler:           api.NewRouter(s.logger, api.NewHandler(s.Scheduler, s.Rooms, store)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

func (s *Server) jobs() []scheduler.Job {
	cfg := s.config.GetConfiguration()
	runs := map[string]scheduler.RunFunc{
		config.JobRoomChecks:        s.Rooms.CheckRooms,
		config.JobPostExpiration:    s.Expiration.Run,
		config.JobMemberActivity:    s.Compliance.Run,
		config.JobBadgeAwards:       s.Badges.Run,
		config.JobNotificationBatch: s.Notifications.Run,
	}

	jobs := make([]scheduler.Job, 0, len(config.JobNames))
	for _, name := range config.JobNames {
		j := cfg.Job(name)
		jobs = append(jobs, scheduler.Job{
			Name:     name,
			Schedule: j.Schedule,
			Enabled:  j.IsEnabled(),
			Run:      runs[name],
		})
	}
	return jobs
}

func (s *Server) Logger() zerolog.Logger {
	return s.logger
}

// Start starts the jobs and the ops listener. Listener errors after startup
// are logged.
func (s *Server) Start() {
	s.Scheduler.Start()

	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("ops server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("ops server stopped")
		}
	}()
}

// Shutdown stops accepting requests, waits for running jobs and closes the
// connections.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	s.Scheduler.Stop()
	s.Close()
	return err
}

// Close releases the database and Redis connections.
func (s *Server) Close() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to close redis")
		}
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to close the SQL store")
	}
}
