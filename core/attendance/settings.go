package attendance

import (
	"context"

	"github.com/pkg/errors"
)

// SettingsStore is the ConfigStore backed by a SettingsRepository.
// An unsaved zone reads as unconfigured; an unsaved window reads as defaultWindowOpen.
type SettingsStore struct {
	repo              SettingsRepository
	defaultWindowOpen bool
}

var _ ConfigStore = (*SettingsStore)(nil)

func NewSettingsStore(repo SettingsRepository, defaultWindowOpen bool) *SettingsStore {
	return &SettingsStore{repo: repo, defaultWindowOpen: defaultWindowOpen}
}

func (s *SettingsStore) GetZone(ctx context.Context) (Zone, error) {
	zone, err := s.repo.LoadZone(ctx)
	if err != nil {
		if errors.Cause(err) == ErrSettingNotFound {
			return Zone{}, nil
		}
		return Zone{}, err
	}
	return zone, nil
}

func (s *SettingsStore) GetWindow(ctx context.Context) (bool, error) {
	open, err := s.repo.LoadWindow(ctx)
	if err != nil {
		if errors.Cause(err) == ErrSettingNotFound {
			return s.defaultWindowOpen, nil
		}
		return false, err
	}
	return open, nil
}

func (s *SettingsStore) SaveZone(ctx context.Context, zone Zone) error {
	return s.repo.SaveZone(ctx, zone)
}

func (s *SettingsStore) SaveWindow(ctx context.Context, open bool) error {
	return s.repo.SaveWindow(ctx, open)
}
