package dummydb

import (
	"context"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

type attemptRepository struct {
	db *attemptTable
}

var _ attendance.RecordStore = (*attemptRepository)(nil) // interface compliance check

func NewAttemptRepository(db *DB) attendance.RecordStore {
	return &attemptRepository{db: db.attempt}
}

func (repo *attemptRepository) SaveAttempt(_ context.Context, attempt attendance.CheckInAttempt) (attendance.CheckInAttempt, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	if attempt.DistanceMeters != nil {
		d := *attempt.DistanceMeters
		attempt.DistanceMeters = &d
	}
	repo.db.rows = append(repo.db.rows, attempt)
	return attempt, nil
}

func (repo *attemptRepository) QueryAttempts(_ context.Context, filter *attendance.QueryFilter, ordering []core.DBOrdering) ([]attendance.CheckInAttempt, error) {
	repo.db.RLock()
	attempts := make([]attendance.CheckInAttempt, len(repo.db.rows))
	copy(attempts, repo.db.rows)
	repo.db.RUnlock()

	attempts = attendance.FilterAttempts(attempts, filter)
	attendance.SortAttempts(attempts, ordering)
	return attempts, nil
}

func (repo *attemptRepository) DeleteAllAttempts(_ context.Context) (int64, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	n := int64(len(repo.db.rows))
	repo.db.rows = nil
	return n, nil
}

type settingsRepository struct {
	db *settingsTable
}

var _ attendance.SettingsRepository = (*settingsRepository)(nil) // interface compliance check

func NewSettingsRepository(db *DB) attendance.SettingsRepository {
	return &settingsRepository{db: db.settings}
}

func (repo *settingsRepository) LoadZone(_ context.Context) (attendance.Zone, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	if repo.db.zone == nil {
		return attendance.Zone{}, attendance.ErrSettingNotFound
	}
	return *repo.db.zone, nil
}

func (repo *settingsRepository) LoadWindow(_ context.Context) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	if repo.db.window == nil {
		return false, attendance.ErrSettingNotFound
	}
	return *repo.db.window, nil
}

func (repo *settingsRepository) SaveZone(_ context.Context, zone attendance.Zone) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.zone = &zone
	return nil
}

func (repo *settingsRepository) SaveWindow(_ context.Context, open bool) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.window = &open
	return nil
}
