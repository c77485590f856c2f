package repositories

import (
	"context"

	"github.com/dmitrijs2005/maintlog/internal/models"
	"github.com/dmitrijs2005/maintlog/internal/store"
)

// Well-known meta keys.
const (
	KeyNames       = "names"
	KeyMachines    = "machines"
	KeyPinHash     = "pinHash"
	KeyUnlocked    = "unlocked"
	KeyLastMachine = "lastMachine"
	KeyActiveShift = "activeShift"
	KeyActiveVisit = "activeVisit"
)

// Settings is typed access to the meta collection.
type Settings struct {
	m *store.MetaStore
}

func NewSettings(s store.Store) *Settings {
	return &Settings{m: store.NewMeta(s)}
}

func (s *Settings) Meta() *store.MetaStore { return s.m }

// Names returns the stored person-key to display-name overrides, or nil.
func (s *Settings) Names(ctx context.Context) (map[string]string, error) {
	var names map[string]string
	_, err := s.m.Load(ctx, KeyNames, &names)
	return names, err
}

func (s *Settings) SetNames(ctx context.Context, names map[string]string) error {
	return s.m.Set(ctx, KeyNames, names)
}

// Machines reports the machine list and whether it was ever set.
func (s *Settings) Machines(ctx context.Context) ([]string, bool, error) {
	var list []string
	ok, err := s.m.Load(ctx, KeyMachines, &list)
	return list, ok, err
}

func (s *Settings) SetMachines(ctx context.Context, list []string) error {
	return s.m.Set(ctx, KeyMachines, list)
}

func (s *Settings) PinHash(ctx context.Context) (string, error) {
	var h string
	_, err := s.m.Load(ctx, KeyPinHash, &h)
	return h, err
}

func (s *Settings) SetPinHash(ctx context.Context, h string) error {
	return s.m.Set(ctx, KeyPinHash, h)
}

func (s *Settings) Unlocked(ctx context.Context) (bool, error) {
	var u bool
	_, err := s.m.Load(ctx, KeyUnlocked, &u)
	return u, err
}

func (s *Settings) SetUnlocked(ctx context.Context, u bool) error {
	return s.m.Set(ctx, KeyUnlocked, u)
}

func (s *Settings) LastMachine(ctx context.Context) (string, error) {
	var m string
	_, err := s.m.Load(ctx, KeyLastMachine, &m)
	return m, err
}

func (s *Settings) SetLastMachine(ctx context.Context, m string) error {
	return s.m.Set(ctx, KeyLastMachine, m)
}

// ActiveShift returns the persisted open-shift snapshot, or nil.
func (s *Settings) ActiveShift(ctx context.Context) (*models.Shift, error) {
	var sh *models.Shift
	_, err := s.m.Load(ctx, KeyActiveShift, &sh)
	return sh, err
}

// SetActiveShift stores the snapshot; nil records that no shift is open.
func (s *Settings) SetActiveShift(ctx context.Context, sh *models.Shift) error {
	return s.m.Set(ctx, KeyActiveShift, sh)
}

func (s *Settings) ActiveVisit(ctx context.Context) (*models.Visit, error) {
	var v *models.Visit
	_, err := s.m.Load(ctx, KeyActiveVisit, &v)
	return v, err
}

func (s *Settings) SetActiveVisit(ctx context.Context, v *models.Visit) error {
	return s.m.Set(ctx, KeyActiveVisit, v)
}
