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

// ComplianceMonitor checks how long members of open rooms went without
// posting or viewing.
type ComplianceMonitor struct {
	store                Store
	postingFrequencyDays int
	postingWarningDays   int
	viewingFrequencyDays int
	viewingWarningDays   int
	moderators           []string
	logger               zerolog.Logger
}

func NewComplianceMonitor(store Store, cfg *config.Configuration, logger zerolog.Logger) *ComplianceMonitor {
	return &ComplianceMonitor{
		store:                store,
		postingFrequencyDays: cfg.Compliance.PostingFrequencyDays,
		postingWarningDays:   cfg.Compliance.InactivityWarningDays,
		viewingFrequencyDays: cfg.Compliance.ViewingFrequencyDays,
		viewingWarningDays:   cfg.ViewingWarningDays(),
		moderators:           cfg.Compliance.Moderators,
		logger:               logger.With().Str("component", "compliance").Logger(),
	}
}

type violationEntry struct {
	Type         model.ViolationType `json:"type"`
	ActualDays   int                 `json:"actual_days"`
	RequiredDays int                 `json:"required_days"`
}

type violationPayload struct {
	UserID     string           `json:"user_id"`
	RoomID     string           `json:"room_id"`
	Violations []violationEntry `json:"violations"`
}

type warningPayload struct {
	RoomID       string `json:"room_id"`
	DaysSince    int    `json:"days_since"`
	RequiredDays int    `json:"required_days"`
}

func (m *ComplianceMonitor) Run(ctx context.Context, now time.Time) (*RunSummary, error) {
	summary := newSummary(config.JobMemberActivity, now)

	memberships, err := m.store.ListActiveMemberships(ctx)
	if err != nil {
		return summary.finish(), errors.Wrap(err, "failed to list memberships")
	}

	for _, ms := range memberships {
		if err := ctx.Err(); err != nil {
			return summary.finish(), errors.Wrap(err, "compliance run interrupted")
		}

		if ms.RoomStatus != model.RoomStatusPending && ms.RoomStatus != model.RoomStatusActive {
			continue
		}

		summary.Processed++
		if ms.IsBanned(now) {
			summary.Skipped++
			continue
		}

		id := ms.RoomID + "/" + ms.UserID
		var flagged bool
		err := isolate(func() (err error) {
			flagged, err = m.check(ctx, ms, now, summary)
			return err
		})
		if err != nil {
			m.logger.Error().Err(err).Str("room_id", ms.RoomID).Str("user_id", ms.UserID).Msg("compliance check failed")
			summary.fail(id, err)
			continue
		}
		if flagged {
			summary.Changed++
		}
	}

	return summary.finish(), nil
}

// check evaluates one membership and reports whether anything was sent or
// recorded for it.
func (m *ComplianceMonitor) check(ctx context.Context, ms model.Membership, now time.Time, summary *RunSummary) (bool, error) {
	sincePost := daysSince(ms.LastPostAt, ms.JoinedAt, now)
	sinceView := daysSince(ms.LastViewAt, ms.JoinedAt, now)

	var violations []violationEntry
	flagged := false

	switch {
	case sincePost >= m.postingFrequencyDays:
		violations = append(violations, violationEntry{Type: model.ViolationPosting, ActualDays: sincePost, RequiredDays: m.postingFrequencyDays})
	case sincePost >= m.postingWarningDays:
		if err := enqueue(ctx, m.store, ms.UserID, model.NotificationPostingWarning, warningPayload{
			RoomID: ms.RoomID, DaysSince: sincePost, RequiredDays: m.postingFrequencyDays,
		}, now); err != nil {
			return flagged, err
		}
		summary.add("posting_warnings", 1)
		flagged = true
	}

	switch {
	case sinceView >= m.viewingFrequencyDays:
		violations = append(violations, violationEntry{Type: model.ViolationViewing, ActualDays: sinceView, RequiredDays: m.viewingFrequencyDays})
	case sinceView >= m.viewingWarningDays:
		if err := enqueue(ctx, m.store, ms.UserID, model.NotificationViewingWarning, warningPayload{
			RoomID: ms.RoomID, DaysSince: sinceView, RequiredDays: m.viewingFrequencyDays,
		}, now); err != nil {
			return flagged, err
		}
		summary.add("viewing_warnings", 1)
		flagged = true
	}

	if len(violations) == 0 {
		return flagged, nil
	}

	for _, v := range violations {
		if err := m.store.RecordViolation(ctx, model.Violation{
			UserID:       ms.UserID,
			RoomID:       ms.RoomID,
			Type:         v.Type,
			ActualDays:   v.ActualDays,
			RequiredDays: v.RequiredDays,
			RecordedAt:   now,
		}); err != nil {
			return flagged, errors.Wrap(err, "failed to record violation")
		}
		metrics.ComplianceViolations.WithLabelValues(string(v.Type)).Inc()
		summary.add("violations", 1)
	}

	payload := violationPayload{UserID: ms.UserID, RoomID: ms.RoomID, Violations: violations}
	for _, mod := range m.moderators {
		if err := enqueue(ctx, m.store, mod, model.NotificationComplianceAlert, payload, now); err != nil {
			return true, err
		}
	}

	return true, nil
}

// daysSince counts whole days from last (or fallback when last is nil) to now.
func daysSince(last *time.Time, fallback time.Time, now time.Time) int {
	from := fallback
	if last != nil {
		from = *last
	}
	d := now.Sub(from)
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}
