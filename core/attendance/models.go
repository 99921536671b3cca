package attendance

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/geo"
	"github.com/trezcool/mahudhurio/core/student"
)

// Outcome is the result of evaluating one check-in attempt.
type Outcome string

const (
	OutcomeAdmitted          Outcome = "ADMITTED"
	OutcomeIdentityUnknown   Outcome = "IDENTITY_UNKNOWN"
	OutcomeWindowClosed      Outcome = "WINDOW_CLOSED"
	OutcomeZoneNotConfigured Outcome = "ZONE_NOT_CONFIGURED"
	OutcomeInvalidLocation   Outcome = "INVALID_LOCATION"
	OutcomeOutsideRadius     Outcome = "OUTSIDE_RADIUS"
)

var Outcomes = []Outcome{
	OutcomeAdmitted,
	OutcomeIdentityUnknown,
	OutcomeWindowClosed,
	OutcomeZoneNotConfigured,
	OutcomeInvalidLocation,
	OutcomeOutsideRadius,
}

func (o Outcome) IsValid() bool {
	for _, known := range Outcomes {
		if o == known {
			return true
		}
	}
	return false
}

// HasDistance reports whether evaluations with this outcome carry a distance.
func (o Outcome) HasDistance() bool {
	return o == OutcomeAdmitted || o == OutcomeOutsideRadius
}

var (
	// ErrSettingNotFound is returned by a SettingsRepository for a setting that was never saved.
	ErrSettingNotFound = errors.New("setting not found")
	ErrNoAttempts      = errors.New("no check-in attempts found")
	ErrInvalidDate     = errors.New("invalid date, expected YYYY-MM-DD")
)

// Zone is the circular area in which check-ins are admitted.
type Zone struct {
	Center       geo.Point `json:"center"`
	RadiusMeters float64   `json:"radius_meters"`
}

// IsConfigured is false for the (0,0) center, whatever the radius.
func (z Zone) IsConfigured() bool {
	return !z.Center.IsZero()
}

// Admits reports whether a point `distance` meters from the center is inside the zone.
// The boundary is inclusive.
func (z Zone) Admits(distance float64) bool {
	return distance <= z.RadiusMeters
}

type (
	// Settings is the admin view of the gate configuration.
	Settings struct {
		Zone           Zone `json:"zone"`
		ZoneConfigured bool `json:"zone_configured"`
		WindowOpen     bool `json:"window_open"`
	}

	// Status is what students may know about the gate.
	Status struct {
		WindowOpen     bool `json:"window_open"`
		ZoneConfigured bool `json:"zone_configured"`
	}

	// CheckInAttempt is the immutable record of one evaluated submission.
	CheckInAttempt struct {
		ID             uuid.UUID `json:"id"`
		PRN            string    `json:"prn"`
		FullName       string    `json:"full_name"`
		SubmittedAt    time.Time `json:"submitted_at"` // UTC
		Location       geo.Point `json:"location"`
		DistanceMeters *float64  `json:"distance_meters"`
		Admitted       bool      `json:"admitted"`
		Outcome        Outcome   `json:"outcome"`
	}

	// Evaluation is the gate's decision. DistanceMeters is nil unless
	// Outcome is ADMITTED or OUTSIDE_RADIUS.
	Evaluation struct {
		Outcome        Outcome          `json:"outcome"`
		Admitted       bool             `json:"admitted"`
		DistanceMeters *float64         `json:"distance_meters"`
		Student        *student.Student `json:"student,omitempty"`
	}
)

type (
	// IdentityLookup resolves a PRN; it returns student.ErrNotFound for unknown ones.
	IdentityLookup interface {
		LookupStudent(ctx context.Context, prn string) (student.Student, error)
	}

	// ConfigStore yields the current zone and window. A zone never set is the zero Zone.
	ConfigStore interface {
		GetZone(ctx context.Context) (Zone, error)
		GetWindow(ctx context.Context) (bool, error)
	}

	// SettingsRepository persists gate settings. Load* return ErrSettingNotFound
	// when the setting was never saved.
	SettingsRepository interface {
		LoadZone(ctx context.Context) (Zone, error)
		LoadWindow(ctx context.Context) (bool, error)
		SaveZone(ctx context.Context, zone Zone) error
		SaveWindow(ctx context.Context, open bool) error
	}

	// RecordStore persists check-in attempts.
	RecordStore interface {
		SaveAttempt(ctx context.Context, attempt CheckInAttempt) (CheckInAttempt, error)
		QueryAttempts(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]CheckInAttempt, error)
		// DeleteAllAttempts returns how many attempts were removed.
		DeleteAllAttempts(ctx context.Context) (int64, error)
	}
)

// CheckInRequest is a student's submission.
type CheckInRequest struct {
	PRN       string   `json:"prn" validate:"notblank"`
	FullName  string   `json:"full_name" validate:"max=255"`
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
}

func (r *CheckInRequest) Validate(validate *validator.Validate) error {
	r.PRN = core.CleanString(r.PRN)
	r.FullName = core.CleanString(r.FullName)
	return validate.Struct(r)
}

func (r CheckInRequest) Location() geo.Point {
	var p geo.Point
	if r.Latitude != nil {
		p.Latitude = *r.Latitude
	}
	if r.Longitude != nil {
		p.Longitude = *r.Longitude
	}
	return p
}

// CheckInResult is the evaluation plus the recorded attempt, if any.
type CheckInResult struct {
	Evaluation
	Attempt *CheckInAttempt `json:"attempt,omitempty"`
}

// UpdateZone is the admin input for a new Zone.
type UpdateZone struct {
	Latitude     *float64 `json:"latitude" validate:"required,finite,latitude"`
	Longitude    *float64 `json:"longitude" validate:"required,finite,longitude"`
	RadiusMeters *float64 `json:"radius_meters" validate:"required,finite,gte=0"`
}

func (uz *UpdateZone) Validate(validate *validator.Validate) error {
	return validate.Struct(uz)
}

func (uz UpdateZone) Zone() Zone {
	return Zone{
		Center:       geo.Point{Latitude: *uz.Latitude, Longitude: *uz.Longitude},
		RadiusMeters: *uz.RadiusMeters,
	}
}

type UpdateWindow struct {
	Open *bool `json:"open" validate:"required"`
}

func (uw *UpdateWindow) Validate(validate *validator.Validate) error {
	return validate.Struct(uw)
}

// QueryFilter selects attempts; the zero value matches everything.
type QueryFilter struct {
	PRN      string    `query:"prn"`
	Admitted *bool     `query:"admitted"`
	Outcomes []string  `query:"outcome"`
	From     time.Time `query:"from"`
	To       time.Time `query:"to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf == nil || (qf.PRN == "" && qf.Admitted == nil && len(qf.Outcomes) == 0 && qf.From.IsZero() && qf.To.IsZero())
}

func (qf *QueryFilter) Clean() {
	qf.PRN = core.CleanString(qf.PRN)
	outcomes := qf.Outcomes[:0]
	for _, o := range qf.Outcomes {
		o = core.CleanString(o)
		if o != "" {
			outcomes = append(outcomes, o)
		}
	}
	qf.Outcomes = outcomes
}

// Matches reports whether `a` satisfies every set field of the filter.
func (qf *QueryFilter) Matches(a CheckInAttempt) bool {
	if qf == nil {
		return true
	}
	if qf.PRN != "" && a.PRN != qf.PRN {
		return false
	}
	if qf.Admitted != nil && a.Admitted != *qf.Admitted {
		return false
	}
	if len(qf.Outcomes) > 0 {
		var found bool
		for _, o := range qf.Outcomes {
			if Outcome(o) == a.Outcome {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !qf.From.IsZero() && a.SubmittedAt.Before(qf.From.UTC()) {
		return false
	}
	if !qf.To.IsZero() && a.SubmittedAt.After(qf.To.UTC()) {
		return false
	}
	return true
}
