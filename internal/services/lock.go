package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/maintlog/internal/cryptox"
	"github.com/dmitrijs2005/maintlog/internal/logging"
	"github.com/dmitrijs2005/maintlog/internal/repositories"
)

const MinPINLength = 4

type LockService interface {
	// Unlock checks pin against the stored hash. With no PIN set yet the
	// given pin becomes the PIN and first is true.
	Unlock(ctx context.Context, pin string) (first bool, err error)
	SetPIN(ctx context.Context, pin string) error
	HasPIN(ctx context.Context) (bool, error)
	Lock(ctx context.Context) error
	IsUnlocked(ctx context.Context) (bool, error)
}

type lockService struct {
	settings *repositories.Settings
	log      logging.Logger
}

func NewLockService(settings *repositories.Settings, log logging.Logger) LockService {
	return &lockService{settings: settings, log: log}
}

func (s *lockService) Unlock(ctx context.Context, pin string) (bool, error) {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return false, ErrWrongPIN
	}
	stored, err := s.settings.PinHash(ctx)
	if err != nil {
		return false, fmt.Errorf("load pin hash: %w", err)
	}

	if stored == "" {
		if err := s.SetPIN(ctx, pin); err != nil {
			return false, err
		}
		s.log.Info(ctx, "pin set on first unlock")
		return true, s.settings.SetUnlocked(ctx, true)
	}

	ok, err := cryptox.VerifyPIN(pin, stored)
	if err != nil {
		return false, fmt.Errorf("verify pin: %w", err)
	}
	if !ok {
		s.log.Warn(ctx, "unlock refused")
		return false, ErrWrongPIN
	}
	if cryptox.IsLegacy(stored) {
		if err := s.store(ctx, pin); err != nil {
			s.log.Warn(ctx, "pin hash upgrade failed", "err", err)
		} else {
			s.log.Info(ctx, "legacy pin hash upgraded")
		}
	}
	return false, s.settings.SetUnlocked(ctx, true)
}

func (s *lockService) SetPIN(ctx context.Context, pin string) error {
	pin = strings.TrimSpace(pin)
	if utf8.RuneCountInString(pin) < MinPINLength {
		return ErrPINTooShort
	}
	return s.store(ctx, pin)
}

func (s *lockService) store(ctx context.Context, pin string) error {
	h, err := cryptox.HashPIN(pin)
	if err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}
	if err := s.settings.SetPinHash(ctx, h); err != nil {
		return fmt.Errorf("save pin hash: %w", err)
	}
	return nil
}

func (s *lockService) HasPIN(ctx context.Context) (bool, error) {
	h, err := s.settings.PinHash(ctx)
	return h != "", err
}

func (s *lockService) Lock(ctx context.Context) error {
	return s.settings.SetUnlocked(ctx, false)
}

func (s *lockService) IsUnlocked(ctx context.Context) (bool, error) {
	return s.settings.Unlocked(ctx)
}
