package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/geo"
)

const (
	settingZone   = "allowed_location"
	settingWindow = "attendance_window"
)

var attemptOrderings = map[string]string{
	"submitted_at":    "submitted_at",
	"prn":             "prn",
	"full_name":       "lower(full_name)",
	"outcome":         "outcome",
	"distance_meters": "distance_meters",
}

type attemptRow struct {
	ID             uuid.UUID    `db:"id"`
	PRN            string       `db:"prn"`
	FullName       string       `db:"full_name"`
	SubmittedAt    time.Time    `db:"submitted_at"`
	Latitude       float64      `db:"latitude"`
	Longitude      float64      `db:"longitude"`
	DistanceMeters null.Float64 `db:"distance_meters"`
	Admitted       bool         `db:"admitted"`
	Outcome        string       `db:"outcome"`
}

func boilAttempt(a attendance.CheckInAttempt) attemptRow {
	return attemptRow{
		ID:             a.ID,
		PRN:            a.PRN,
		FullName:       a.FullName,
		SubmittedAt:    a.SubmittedAt,
		Latitude:       a.Location.Latitude,
		Longitude:      a.Location.Longitude,
		DistanceMeters: null.Float64FromPtr(a.DistanceMeters),
		Admitted:       a.Admitted,
		Outcome:        string(a.Outcome),
	}
}

func (r attemptRow) unboil() attendance.CheckInAttempt {
	return attendance.CheckInAttempt{
		ID:             r.ID,
		PRN:            r.PRN,
		FullName:       r.FullName,
		SubmittedAt:    r.SubmittedAt.UTC(),
		Location:       geo.Point{Latitude: r.Latitude, Longitude: r.Longitude},
		DistanceMeters: r.DistanceMeters.Ptr(),
		Admitted:       r.Admitted,
		Outcome:        attendance.Outcome(r.Outcome),
	}
}

type attemptRepository struct {
	db *sqlx.DB
}

var _ attendance.RecordStore = (*attemptRepository)(nil) // interface compliance check

func NewAttemptRepository(db *sqlx.DB) attendance.RecordStore {
	return &attemptRepository{db: db}
}

func (repo *attemptRepository) SaveAttempt(ctx context.Context, attempt attendance.CheckInAttempt) (attendance.CheckInAttempt, error) {
	q := `INSERT INTO checkin_attempt
		(id, prn, full_name, submitted_at, latitude, longitude, distance_meters, admitted, outcome)
		VALUES (:id, :prn, :full_name, :submitted_at, :latitude, :longitude, :distance_meters, :admitted, :outcome)`
	row := boilAttempt(attempt)
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return attendance.CheckInAttempt{}, errors.Wrap(err, "inserting check-in attempt")
	}
	return row.unboil(), nil
}

func (repo *attemptRepository) QueryAttempts(ctx context.Context, filter *attendance.QueryFilter, ordering []core.DBOrdering) ([]attendance.CheckInAttempt, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter != nil {
		if filter.PRN != "" {
			where = append(where, "prn = "+arg(filter.PRN))
		}
		if filter.Admitted != nil {
			where = append(where, "admitted = "+arg(*filter.Admitted))
		}
		if len(filter.Outcomes) > 0 {
			placeholders := make([]string, 0, len(filter.Outcomes))
			for _, o := range filter.Outcomes {
				placeholders = append(placeholders, arg(o))
			}
			where = append(where, "outcome IN ("+strings.Join(placeholders, ", ")+")")
		}
		if !filter.From.IsZero() {
			where = append(where, "submitted_at >= "+arg(filter.From.UTC()))
		}
		if !filter.To.IsZero() {
			where = append(where, "submitted_at <= "+arg(filter.To.UTC()))
		}
	}

	q := `SELECT id, prn, full_name, submitted_at, latitude, longitude, distance_meters, admitted, outcome
		FROM checkin_attempt`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY " + core.OrderByClause(ordering, attemptOrderings, "submitted_at DESC")

	var rows []attemptRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting check-in attempts")
	}
	attempts := make([]attendance.CheckInAttempt, 0, len(rows))
	for _, r := range rows {
		attempts = append(attempts, r.unboil())
	}
	return attempts, nil
}

func (repo *attemptRepository) DeleteAllAttempts(ctx context.Context) (int64, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM checkin_attempt`)
	if err != nil {
		return 0, errors.Wrap(err, "deleting check-in attempts")
	}
	return res.RowsAffected()
}

// settingsRepository keeps each setting as a JSON value keyed by name.
type settingsRepository struct {
	db *sqlx.DB
}

var _ attendance.SettingsRepository = (*settingsRepository)(nil) // interface compliance check

func NewSettingsRepository(db *sqlx.DB) attendance.SettingsRepository {
	return &settingsRepository{db: db}
}

func (repo *settingsRepository) load(ctx context.Context, key string, v interface{}) error {
	var raw []byte
	q := `SELECT setting_value FROM setting WHERE setting_key = $1`
	if err := repo.db.QueryRowxContext(ctx, q, key).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return attendance.ErrSettingNotFound
		}
		return errors.Wrapf(err, "selecting setting %q", key)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Wrapf(err, "decoding setting %q", key)
	}
	return nil
}

func (repo *settingsRepository) save(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding setting %q", key)
	}
	q := `INSERT INTO setting (setting_key, setting_value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (setting_key) DO UPDATE SET setting_value = EXCLUDED.setting_value, updated_at = now()`
	if _, err = repo.db.ExecContext(ctx, q, key, string(raw)); err != nil {
		return errors.Wrapf(err, "saving setting %q", key)
	}
	return nil
}

func (repo *settingsRepository) LoadZone(ctx context.Context) (attendance.Zone, error) {
	var zone attendance.Zone
	if err := repo.load(ctx, settingZone, &zone); err != nil {
		return attendance.Zone{}, err
	}
	return zone, nil
}

func (repo *settingsRepository) LoadWindow(ctx context.Context) (bool, error) {
	var open bool
	if err := repo.load(ctx, settingWindow, &open); err != nil {
		return false, err
	}
	return open, nil
}

func (repo *settingsRepository) SaveZone(ctx context.Context, zone attendance.Zone) error {
	return repo.save(ctx, settingZone, zone)
}

func (repo *settingsRepository) SaveWindow(ctx context.Context, open bool) error {
	return repo.save(ctx, settingWindow, open)
}
