package app

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ericzzh/roomwarden/server/config"
	"github.com/ericzzh/roomwarden/server/metrics"
	"github.com/ericzzh/roomwarden/server/model"
)

// BadgeCatalog is the static list of badges the system awards.
var BadgeCatalog = []model.Badge{
	{Name: "clean_30_days", CriteriaType: model.CriteriaAccountAgeDays, CriteriaValue: 30},
	{Name: "clean_60_days", CriteriaType: model.CriteriaAccountAgeDays, CriteriaValue: 60},
	{Name: "clean_90_days", CriteriaType: model.CriteriaAccountAgeDays, CriteriaValue: 90},
	{Name: "clean_180_days", CriteriaType: model.CriteriaAccountAgeDays, CriteriaValue: 180},
	{Name: "clean_365_days", CriteriaType: model.CriteriaAccountAgeDays, CriteriaValue: 365},
	{Name: "contributor_10", CriteriaType: model.CriteriaPostCount, CriteriaValue: 10},
	{Name: "contributor_50", CriteriaType: model.CriteriaPostCount, CriteriaValue: 50},
	{Name: "contributor_100", CriteriaType: model.CriteriaPostCount, CriteriaValue: 100},
}

type BadgeEngine struct {
	store   Store
	catalog []model.Badge
	logger  zerolog.Logger
}

func NewBadgeEngine(store Store, catalog []model.Badge, logger zerolog.Logger) *BadgeEngine {
	return &BadgeEngine{
		store:   store,
		catalog: catalog,
		logger:  logger.With().Str("component", "badges").Logger(),
	}
}

type badgePayload struct {
	Badge  string `json:"badge"`
	Reason string `json:"reason"`
}

// Run evaluates every user against the catalog. Running it again never awards
// a badge twice.
func (e *BadgeEngine) Run(ctx context.Context, now time.Time) (*RunSummary, error) {
	summary := newSummary(config.JobBadgeAwards, now)

	users, err := e.store.ListUsers(ctx)
	if err != nil {
		return summary.finish(), errors.Wrap(err, "failed to list users")
	}

	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return summary.finish(), errors.Wrap(err, "badge run interrupted")
		}

		summary.Processed++
		var awarded int
		err := isolate(func() (err error) {
			awarded, err = e.evaluate(ctx, u, now)
			return err
		})
		summary.add("awards", awarded)
		if err != nil {
			e.logger.Error().Err(err).Str("user_id", u.ID).Msg("badge evaluation failed")
			summary.fail(u.ID, err)
			continue
		}
		if awarded > 0 {
			summary.Changed++
		}
	}

	return summary.finish(), nil
}

func (e *BadgeEngine) evaluate(ctx context.Context, u model.User, now time.Time) (int, error) {
	awarded := 0
	for _, b := range e.catalog {
		reason, ok := qualifies(b, u, now)
		if !ok {
			continue
		}

		ok, err := e.Award(ctx, u.ID, b.Name, reason, now)
		if err != nil {
			return awarded, err
		}
		if ok {
			awarded++
		}
	}
	return awarded, nil
}

// Award gives badge to the user unless it was already given. It reports
// whether a new award row was written.
func (e *BadgeEngine) Award(ctx context.Context, userID, badge, reason string, now time.Time) (bool, error) {
	has, err := e.store.HasBadge(ctx, userID, badge)
	if err != nil {
		return false, errors.Wrapf(err, "failed to check badge %s", badge)
	}
	if has {
		return false, nil
	}

	inserted, err := e.store.InsertBadgeAward(ctx, model.UserBadgeAward{
		UserID:    userID,
		BadgeName: badge,
		AwardedAt: now,
		Reason:    reason,
	})
	if err != nil {
		return false, errors.Wrapf(err, "failed to award badge %s", badge)
	}
	if !inserted {
		return false, nil
	}

	metrics.BadgesAwarded.WithLabelValues(badge).Inc()
	e.logger.Info().Str("user_id", userID).Str("badge", badge).Msg("badge awarded")

	if err := enqueue(ctx, e.store, userID, model.NotificationBadgeAwarded, badgePayload{Badge: badge, Reason: reason}, now); err != nil {
		return true, err
	}
	return true, nil
}

func qualifies(b model.Badge, u model.User, now time.Time) (string, bool) {
	switch b.CriteriaType {
	case model.CriteriaAccountAgeDays:
		age := daysSince(nil, u.CreatedAt, now)
		return fmt.Sprintf("account age %d days", age), age >= b.CriteriaValue
	case model.CriteriaPostCount:
		return fmt.Sprintf("%d posts and replies", u.PostCount), u.PostCount >= b.CriteriaValue
	}
	return "", false
}
