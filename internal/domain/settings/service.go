package settings

import (
	"context"
	"errors"
	"strings"

	"medcare/internal/platform/apperr"
	"medcare/internal/platform/clock"
)

var (
	ErrNotFound       = apperr.NotFound("settings not found")
	ErrNothingToPatch = apperr.Validation("no fields to update")
)

type Service struct {
	repo  Repository
	clock clock.Clock
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: clock.System()}
}

func (s *Service) WithClock(c clock.Clock) *Service {
	if c != nil {
		s.clock = c
	}
	return s
}

type UpdateInput struct {
	AlarmSound        *string
	NotificationSound *string
}

func (s *Service) Get(ctx context.Context, userID string) (Settings, error) {
	if strings.TrimSpace(userID) == "" {
		return Settings{}, apperr.ErrUnauthorized
	}
	st, err := s.repo.Get(ctx, userID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Settings{}, err
	}
	return s.repo.CreateIfAbsent(ctx, Defaults(userID, s.clock.Now()))
}

func (s *Service) Update(ctx context.Context, userID string, in UpdateInput) (Settings, error) {
	if in.AlarmSound == nil && in.NotificationSound == nil {
		return Settings{}, ErrNothingToPatch
	}
	st, err := s.Get(ctx, userID)
	if err != nil {
		return Settings{}, err
	}
	if in.AlarmSound != nil {
		v := strings.TrimSpace(*in.AlarmSound)
		if v == "" {
			return Settings{}, apperr.Validation("alarm_sound must not be empty")
		}
		st.AlarmSound = v
	}
	if in.NotificationSound != nil {
		v := strings.TrimSpace(*in.NotificationSound)
		if v == "" {
			return Settings{}, apperr.Validation("notification_sound must not be empty")
		}
		st.NotificationSound = v
	}
	st.UpdatedAt = s.clock.Now()
	if err := s.repo.Save(ctx, st); err != nil {
		return Settings{}, err
	}
	return st, nil
}
