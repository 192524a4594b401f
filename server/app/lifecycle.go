package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ericzzh/roomwarden/server/model"
)

type EventType string

const (
	EventUserJoined    EventType = "USER_JOINED"
	EventUserLeft      EventType = "USER_LEFT"
	EventActivityCheck EventType = "ACTIVITY_CHECK"
	EventManualLock    EventType = "MANUAL_LOCK"
	EventManualUnlock  EventType = "MANUAL_UNLOCK"
)

// ParseEventType accepts the event names case-insensitively.
func ParseEventType(s string) (EventType, error) {
	for _, t := range []EventType{EventUserJoined, EventUserLeft, EventActivityCheck, EventManualLock, EventManualUnlock} {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", errors.Errorf("unknown event %q", s)
}

// Event is one input to the lifecycle machine. MemberCount and UniquePosters
// are the observed counts and only read for ACTIVITY_CHECK.
type Event struct {
	Type          EventType
	At            time.Time
	UserID        string
	ModeratorID   string
	MemberCount   int
	UniquePosters int
}

// RoomContext is the part of a room the guards and effects work on.
type RoomContext struct {
	MemberCount      int
	UniquePosters72h int
	ActivatedAt      *time.Time
	LockedAt         *time.Time
	DeletedAt        *time.Time
	LastModeratorID  *string
}

func contextOf(r model.Room) RoomContext {
	return RoomContext{
		MemberCount:      r.MemberCount,
		UniquePosters72h: r.UniquePosters72h,
		ActivatedAt:      r.ActivatedAt,
		LockedAt:         r.LockedAt,
		DeletedAt:        r.DeletedAt,
		LastModeratorID:  r.LastModeratorID,
	}
}

func (c RoomContext) applyTo(r *model.Room) {
	r.MemberCount = c.MemberCount
	r.UniquePosters72h = c.UniquePosters72h
	r.ActivatedAt = c.ActivatedAt
	r.LockedAt = c.LockedAt
	r.DeletedAt = c.DeletedAt
	r.LastModeratorID = c.LastModeratorID
}

type Thresholds struct {
	MinMembers int
	MinPosters int
}

func (t Thresholds) hasEnoughMembers(c RoomContext) bool {
	return c.MemberCount >= t.MinMembers
}

func (t Thresholds) hasEnoughPosters(c RoomContext) bool {
	return c.UniquePosters72h >= t.MinPosters
}

func (t Thresholds) belowMinMembers(c RoomContext) bool {
	return c.MemberCount < t.MinMembers
}

func (t Thresholds) meetsActiveRequirements(c RoomContext) bool {
	return t.hasEnoughMembers(c) && t.hasEnoughPosters(c)
}

func (t Thresholds) shouldBeLocked(c RoomContext) bool {
	return t.hasEnoughMembers(c) && !t.hasEnoughPosters(c)
}

type EffectKind string

const (
	EffectPersist       EffectKind = "persist"
	EffectCascadeDelete EffectKind = "cascade_delete"
	EffectNotify        EffectKind = "notify"
	EffectLog           EffectKind = "log"
)

type Effect struct {
	Kind         EffectKind
	Notification model.NotificationType
	Message      string
}

// Outcome is the result of one accepted event.
type Outcome struct {
	From    model.RoomStatus
	To      model.RoomStatus
	Context RoomContext
	Effects []Effect
}

func (o Outcome) Changed() bool {
	return o.From != o.To
}

var ErrNoTransition = errors.New("no transition")

// TransitionError rejects an event the current state has no edge for.
type TransitionError struct {
	Status model.RoomStatus
	Event  EventType
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("no transition for %s in state %s", e.Event, e.Status)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrNoTransition
}

// Transition evaluates one event against the current status and context. It
// has no side effects: the caller carries out the returned effects. A rejected
// event returns a *TransitionError and an Outcome equal to the input.
func Transition(status model.RoomStatus, rc RoomContext, ev Event, th Thresholds) (Outcome, error) {
	out := Outcome{From: status, To: status, Context: rc}
	reject := func() (Outcome, error) {
		return out, &TransitionError{Status: status, Event: ev.Type}
	}

	if status == model.RoomStatusDeleted {
		return reject()
	}

	next := rc
	at := ev.At

	switch ev.Type {
	case EventUserJoined:
		next.MemberCount++
		if status == model.RoomStatusPending && th.hasEnoughMembers(next) {
			next.ActivatedAt = &at
			return changed(out, model.RoomStatusActive, next, model.NotificationRoomActivated), nil
		}
		return counted(out, next, true), nil

	case EventUserLeft:
		if next.MemberCount > 0 {
			next.MemberCount--
		}
		if th.belowMinMembers(next) {
			next.DeletedAt = &at
			return changed(out, model.RoomStatusDeleted, next, model.NotificationRoomDeleted), nil
		}
		return counted(out, next, true), nil

	case EventActivityCheck:
		next.MemberCount = ev.MemberCount
		next.UniquePosters72h = ev.UniquePosters
		switch status {
		case model.RoomStatusActive:
			if th.belowMinMembers(next) {
				next.DeletedAt = &at
				return changed(out, model.RoomStatusDeleted, next, model.NotificationRoomDeleted), nil
			}
			if th.shouldBeLocked(next) {
				next.LockedAt = &at
				return changed(out, model.RoomStatusLocked, next, model.NotificationRoomLocked), nil
			}
		case model.RoomStatusLocked:
			if th.meetsActiveRequirements(next) {
				next.LockedAt = nil
				return changed(out, model.RoomStatusActive, next, model.NotificationRoomUnlocked), nil
			}
			if th.belowMinMembers(next) {
				next.DeletedAt = &at
				return changed(out, model.RoomStatusDeleted, next, model.NotificationRoomDeleted), nil
			}
		}
		return counted(out, next, next != rc), nil

	case EventManualLock:
		if status != model.RoomStatusActive {
			return reject()
		}
		next.LockedAt = &at
		next.LastModeratorID = moderator(ev.ModeratorID)
		return changed(out, model.RoomStatusLocked, next, model.NotificationRoomLocked), nil

	case EventManualUnlock:
		if status != model.RoomStatusLocked {
			return reject()
		}
		next.LockedAt = nil
		next.LastModeratorID = moderator(ev.ModeratorID)
		return changed(out, model.RoomStatusActive, next, model.NotificationRoomUnlocked), nil
	}

	return reject()
}

func changed(out Outcome, to model.RoomStatus, next RoomContext, notification model.NotificationType) Outcome {
	out.To = to
	out.Context = next

	persist := EffectPersist
	if to == model.RoomStatusDeleted {
		persist = EffectCascadeDelete
	}
	out.Effects = []Effect{
		{Kind: persist},
		{Kind: EffectNotify, Notification: notification},
		{Kind: EffectLog, Message: fmt.Sprintf("room %s -> %s", out.From, to)},
	}
	return out
}

func counted(out Outcome, next RoomContext, persist bool) Outcome {
	out.Context = next
	if persist {
		out.Effects = []Effect{{Kind: EffectPersist}}
	}
	return out
}

func moderator(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
