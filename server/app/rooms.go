package app

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ericzzh/roomwarden/server/config"
	"github.com/ericzzh/roomwarden/server/metrics"
	"github.com/ericzzh/roomwarden/server/model"
)

// RoomService applies lifecycle events to stored rooms. Events for the same
// room are serialized in process, and every write is checked against the
// version that was read.
type RoomService struct {
	store      Store
	evaluator  *ActivityEvaluator
	thresholds Thresholds
	locks      *keyedMutex
	logger     zerolog.Logger
}

func NewRoomService(store Store, evaluator *ActivityEvaluator, cfg *config.Configuration, logger zerolog.Logger) *RoomService {
	return &RoomService{
		store:     store,
		evaluator: evaluator,
		thresholds: Thresholds{
			MinMembers: cfg.Rooms.MinMembers,
			MinPosters: cfg.Rooms.MinPosters,
		},
		locks:  newKeyedMutex(),
		logger: logger.With().Str("component", "rooms").Logger(),
	}
}

// HandleEvent applies ev to the room. A zero ev.At is set to the current time.
func (s *RoomService) HandleEvent(ctx context.Context, roomID string, ev Event) (Outcome, error) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	unlock := s.locks.Lock(roomID)
	defer unlock()

	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return Outcome{}, errors.Wrapf(err, "failed to get room %s", roomID)
	}

	if ev.Type == EventActivityCheck && room.Status != model.RoomStatusDeleted {
		members, err := s.store.ListMemberships(ctx, roomID)
		if err != nil {
			return Outcome{}, errors.Wrapf(err, "failed to list members of room %s", roomID)
		}
		posters, err := s.evaluator.evaluate(ctx, roomID, members, ev.At)
		if err != nil {
			return Outcome{}, err
		}
		ev.MemberCount = len(members)
		ev.UniquePosters = posters
		return s.apply(ctx, *room, ev, members)
	}

	return s.apply(ctx, *room, ev, nil)
}

func (s *RoomService) apply(ctx context.Context, room model.Room, ev Event, members []model.Membership) (Outcome, error) {
	outcome, err := Transition(room.Status, contextOf(room), ev, s.thresholds)
	if err != nil {
		s.logger.Warn().Err(err).Str("room_id", room.ID).Str("event", string(ev.Type)).Msg("event rejected")
		return outcome, err
	}

	next := room
	outcome.Context.applyTo(&next)
	next.Status = outcome.To

	for _, effect := range outcome.Effects {
		switch effect.Kind {
		case EffectPersist:
			if err := s.store.UpdateRoom(ctx, next); err != nil {
				return outcome, errors.Wrapf(err, "failed to update room %s", room.ID)
			}

		case EffectCascadeDelete:
			posts, err := s.store.DeleteRoom(ctx, next)
			if err != nil {
				return outcome, errors.Wrapf(err, "failed to delete room %s", room.ID)
			}
			s.logger.Debug().Str("room_id", room.ID).Int64("posts", posts).Msg("room posts removed")

		case EffectNotify:
			if members == nil {
				members, err = s.store.ListMemberships(ctx, room.ID)
				if err != nil {
					return outcome, errors.Wrapf(err, "failed to list members of room %s", room.ID)
				}
			}
			payload := roomStatusPayload{
				RoomID:      room.ID,
				RoomName:    room.Name,
				From:        outcome.From,
				To:          outcome.To,
				ModeratorID: ev.ModeratorID,
			}
			for _, m := range members {
				if err := enqueue(ctx, s.store, m.UserID, effect.Notification, payload, ev.At); err != nil {
					return outcome, err
				}
			}

		case EffectLog:
			metrics.RoomTransitions.WithLabelValues(string(outcome.From), string(outcome.To)).Inc()
			s.logger.Info().
				Str("room_id", room.ID).
				Str("event", string(ev.Type)).
				Str("from", string(outcome.From)).
				Str("to", string(outcome.To)).
				Int("members", next.MemberCount).
				Int("posters", next.UniquePosters72h).
				Msg(effect.Message)
		}
	}

	return outcome, nil
}

type roomStatusPayload struct {
	RoomID      string           `json:"room_id"`
	RoomName    string           `json:"room_name"`
	From        model.RoomStatus `json:"from"`
	To          model.RoomStatus `json:"to"`
	ModeratorID string           `json:"moderator_id,omitempty"`
}

// UniquePosters reports the unique posters of a room at now without changing
// the room.
func (s *RoomService) UniquePosters(ctx context.Context, roomID string, now time.Time) (int, error) {
	if _, err := s.store.GetRoom(ctx, roomID); err != nil {
		return 0, errors.Wrapf(err, "failed to get room %s", roomID)
	}
	return s.evaluator.Evaluate(ctx, roomID, now)
}

// CheckRooms sends ACTIVITY_CHECK to every non-deleted room. A failing room is
// recorded in the summary and the run moves on.
func (s *RoomService) CheckRooms(ctx context.Context, now time.Time) (*RunSummary, error) {
	summary := newSummary(config.JobRoomChecks, now)

	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return summary.finish(), errors.Wrap(err, "failed to list rooms")
	}

	for _, r := range rooms {
		if err := ctx.Err(); err != nil {
			return summary.finish(), errors.Wrap(err, "room checks interrupted")
		}

		summary.Processed++
		var outcome Outcome
		err := isolate(func() (err error) {
			outcome, err = s.HandleEvent(ctx, r.ID, Event{Type: EventActivityCheck, At: now})
			return err
		})
		if errors.Is(err, ErrNoTransition) {
			summary.Skipped++
			continue
		}
		if err != nil {
			s.logger.Error().Err(err).Str("room_id", r.ID).Msg("room check failed")
			summary.fail(r.ID, err)
			continue
		}
		if outcome.Changed() {
			summary.Changed++
			summary.add(string(outcome.To), 1)
		}
	}

	return summary.finish(), nil
}
