// Package banlist implements the per-user violation ledger and the
// escalating ban state machine on top of the shared key-value store.
package banlist

import (
	"context"

	"filedepot/internal/kvstore"
	"filedepot/internal/logging"
	"filedepot/internal/server/events"
)

const (
	violationKeyPrefix = "file:violations:"
	banKeyPrefix       = "file:banned:"

	banValueTimed    = "BANNED"
	banValueLifetime = "LIFETIME"
)

type Service struct {
	store  kvstore.Store
	pub    events.Publisher
	rules  []Rule
	logger logging.Logger
}

func NewService(store kvstore.Store, pub events.Publisher, rules []Rule, logger logging.Logger) *Service {
	return &Service{
		store:  store,
		pub:    pub,
		rules:  rules,
		logger: logger.With("module", "banlist"),
	}
}

// IncrementAndCheck atomically increments the user's violation counter and
// applies a ban when the new count exactly matches a configured threshold.
// A failed increment is logged and treated as count 0: an infrastructure
// outage must not deny service, and must never count against the user.
func (s *Service) IncrementAndCheck(ctx context.Context, userID, email string) (int64, error) {
	count, err := s.store.Increment(ctx, violationKeyPrefix+userID)
	if err != nil {
		s.logger.Error(ctx, "failed to increment violation count", "user_id", userID, "error", err)
		return 0, nil
	}

	for _, rule := range s.rules {
		if rule.Count == count {
			s.applyBan(ctx, rule, userID, email)
			break
		}
	}

	return count, nil
}

func (s *Service) applyBan(ctx context.Context, rule Rule, userID, email string) {
	key := banKeyPrefix + userID

	var err error
	if rule.Lifetime {
		err = s.store.Set(ctx, key, banValueLifetime, 0)
	} else {
		err = s.store.Set(ctx, key, banValueTimed, rule.TTL)
	}
	if err != nil {
		s.logger.Error(ctx, "failed to write ban record", "user_id", userID, "error", err)
		return
	}

	s.logger.Warn(ctx, "user banned",
		"user_id", userID, "duration", rule.Duration, "reason", rule.Reason)

	notification := events.BanNotification{
		UserID:      userID,
		Email:       email,
		Username:    "User",
		BanDuration: rule.Duration,
		BanReason:   rule.Reason,
	}
	if err := s.pub.Publish(ctx, events.TopicBanNotifications, notification); err != nil {
		s.logger.Error(ctx, "failed to publish ban notification", "user_id", userID, "error", err)
	}
}

// IsBanned reports whether an active ban record exists for the user. It is
// an existence check only; remaining duration is never inspected.
func (s *Service) IsBanned(ctx context.Context, userID string) (bool, error) {
	return s.store.Exists(ctx, banKeyPrefix+userID)
}
