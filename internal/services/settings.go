package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/maintlog/internal/repositories"
)

// Person keys. Entries store keys, the names map resolves them for display.
const (
	PersonMe = "ME"
	Person1  = "SODELAVEC_1"
	Person2  = "SODELAVEC_2"
	Person3  = "SODELAVEC_3"
)

var PersonKeys = []string{PersonMe, Person1, Person2, Person3}

var DefaultNames = map[string]string{
	PersonMe: "JAZ",
	Person1:  "SODELAVEC 1",
	Person2:  "SODELAVEC 2",
	Person3:  "SODELAVEC 3",
}

var DefaultMachines = []string{
	"20141 FPZ UNIOR 1",
	"20142 FPZ UNIOR 2",
	"20146 FPZ UNIOR 3",
	"20170 UNIFLEX",
}

type SettingsService interface {
	// Names returns the saved display names merged over DefaultNames.
	Names(ctx context.Context) (map[string]string, error)
	// SetNames saves names; blank values fall back to the default.
	SetNames(ctx context.Context, names map[string]string) error
	Machines(ctx context.Context) ([]string, error)
	// SetMachines saves the trimmed, non-blank lines in order.
	SetMachines(ctx context.Context, lines []string) error
	// EnsureDefaultMachines seeds DefaultMachines when the list is empty.
	EnsureDefaultMachines(ctx context.Context) (bool, error)
	LastMachine(ctx context.Context) (string, error)
}

type settingsService struct {
	settings *repositories.Settings
}

func NewSettingsService(settings *repositories.Settings) SettingsService {
	return &settingsService{settings: settings}
}

func (s *settingsService) Names(ctx context.Context) (map[string]string, error) {
	saved, err := s.settings.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("load names: %w", err)
	}
	out := make(map[string]string, len(DefaultNames)+len(saved))
	for k, v := range DefaultNames {
		out[k] = v
	}
	for k, v := range saved {
		out[k] = v
	}
	return out, nil
}

func (s *settingsService) SetNames(ctx context.Context, names map[string]string) error {
	out := make(map[string]string, len(PersonKeys))
	for _, k := range PersonKeys {
		v := strings.TrimSpace(names[k])
		if v == "" {
			v = DefaultNames[k]
		}
		out[k] = v
	}
	if err := s.settings.SetNames(ctx, out); err != nil {
		return fmt.Errorf("save names: %w", err)
	}
	return nil
}

func (s *settingsService) Machines(ctx context.Context) ([]string, error) {
	list, _, err := s.settings.Machines(ctx)
	if err != nil {
		return nil, fmt.Errorf("load machines: %w", err)
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

func (s *settingsService) SetMachines(ctx context.Context, lines []string) error {
	list := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			list = append(list, l)
		}
	}
	if err := s.settings.SetMachines(ctx, list); err != nil {
		return fmt.Errorf("save machines: %w", err)
	}
	return nil
}

func (s *settingsService) EnsureDefaultMachines(ctx context.Context) (bool, error) {
	list, err := s.Machines(ctx)
	if err != nil {
		return false, err
	}
	if len(list) > 0 {
		return false, nil
	}
	return true, s.SetMachines(ctx, DefaultMachines)
}

func (s *settingsService) LastMachine(ctx context.Context) (string, error) {
	m, err := s.settings.LastMachine(ctx)
	if err != nil {
		return "", fmt.Errorf("load last machine: %w", err)
	}
	return m, nil
}

// DisplayName resolves a person key, falling back to the key itself.
func DisplayName(names map[string]string, key string) string {
	if v, ok := names[key]; ok && v != "" {
		return v
	}
	return key
}
