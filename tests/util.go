package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/geo"
	"github.com/trezcool/mahudhurio/core/student"
)

func CreateStudent(
	t *testing.T,
	repo student.Repository,
	prn, name, email string,
	createdAt ...time.Time,
) student.Student {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	std, err := repo.CreateStudent(context.Background(), student.Student{
		PRN:       prn,
		Name:      name,
		Email:     email,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

// CreateAttempt records an attempt as the service would; distance < 0 means none.
func CreateAttempt(
	t *testing.T,
	repo attendance.RecordStore,
	prn, name string,
	outcome attendance.Outcome,
	distance float64,
	submittedAt time.Time,
) attendance.CheckInAttempt {
	a := attendance.CheckInAttempt{
		ID:          uuid.New(),
		PRN:         prn,
		FullName:    name,
		SubmittedAt: submittedAt.UTC(),
		Location:    geo.Point{Latitude: 18.5205, Longitude: 73.8568},
		Admitted:    outcome == attendance.OutcomeAdmitted,
		Outcome:     outcome,
	}
	if distance >= 0 {
		a.DistanceMeters = &distance
	}
	a, err := repo.SaveAttempt(context.Background(), a)
	if err != nil {
		t.Fatalf("CreateAttempt() failed: %v", err)
	}
	return a
}

func FloatPtr(f float64) *float64 { return &f }
func BoolPtr(b bool) *bool        { return &b }
