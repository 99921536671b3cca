package attendance_test

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/geo"
	"github.com/trezcool/mahudhurio/core/student"
	emailsvc "github.com/trezcool/mahudhurio/services/email"
	logsvc "github.com/trezcool/mahudhurio/services/logger"
	dummydb "github.com/trezcool/mahudhurio/storage/database/dummy"
	testutil "github.com/trezcool/mahudhurio/tests"
)

var campus = geo.Point{Latitude: 18.5204, Longitude: 73.8567}

type (
	recordingPublisher struct {
		attempts []attendance.CheckInAttempt
		settings []attendance.Settings
	}

	countingObserver struct {
		outcomes []attendance.Outcome
	}

	failingRecords struct {
		attendance.RecordStore
		err error
	}
)

func (p *recordingPublisher) PublishAttempt(a attendance.CheckInAttempt) { p.attempts = append(p.attempts, a) }
func (p *recordingPublisher) PublishSettings(s attendance.Settings)      { p.settings = append(p.settings, s) }

func (o *countingObserver) ObserveEvaluation(ev attendance.Evaluation, _ time.Duration) {
	o.outcomes = append(o.outcomes, ev.Outcome)
}

func (r failingRecords) SaveAttempt(context.Context, attendance.CheckInAttempt) (attendance.CheckInAttempt, error) {
	return attendance.CheckInAttempt{}, r.err
}

type fixture struct {
	svc       *attendance.Service
	db        *dummydb.DB
	stdRepo   student.Repository
	records   attendance.RecordStore
	mailSvc   *emailsvc.ConsoleServiceMock
	publisher *recordingPublisher
	observer  *countingObserver
}

func newFixture(t *testing.T, conf core.AttendanceConfig) *fixture {
	t.Helper()
	appConf := core.NewTestConfig()
	logger := logsvc.NewDiscardLogger()
	core.ParseEmailTemplates(appConf, logger)

	db := dummydb.Open()
	f := &fixture{
		db:        db,
		stdRepo:   dummydb.NewStudentRepository(db),
		records:   dummydb.NewAttemptRepository(db),
		mailSvc:   emailsvc.NewConsoleServiceMock(appConf, logger),
		publisher: new(recordingPublisher),
		observer:  new(countingObserver),
	}
	f.svc = attendance.NewService(attendance.ServiceDeps{
		Conf:       conf,
		Logger:     logger,
		Students:   student.NewService(f.stdRepo),
		Settings:   dummydb.NewSettingsRepository(db),
		Records:    f.records,
		MailSvc:    f.mailSvc,
		Observers:  []attendance.Observer{f.observer},
		Publishers: []attendance.Publisher{f.publisher},
	})
	return f
}

func checkIn(prn string, lat, lng float64) attendance.CheckInRequest {
	return attendance.CheckInRequest{PRN: prn, FullName: "typed name", Latitude: &lat, Longitude: &lng}
}

func TestService_CheckIn(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 7, 55, 0, 0, time.FixedZone("EAT", 3*3600))
	defer attendance.SetNowFunc(func() time.Time { return now })()

	f := newFixture(t, core.AttendanceConfig{DefaultWindowOpen: true, SendReceipts: true})
	amani := testutil.CreateStudent(t, f.stdRepo, "24020542001", "Amani Juma", "amani@test.cd")
	testutil.CreateStudent(t, f.stdRepo, "24020542002", "Baraka Otieno", "")

	_, err := f.svc.SetZone(ctx, attendance.Zone{Center: campus, RadiusMeters: 50})
	require.NoError(t, err)

	t.Run("admitted", func(t *testing.T) {
		res, err := f.svc.CheckIn(ctx, checkIn(amani.PRN, 18.5205, 73.8568))
		require.NoError(t, err)

		assert.Equal(t, attendance.OutcomeAdmitted, res.Outcome)
		assert.True(t, res.Admitted)
		require.NotNil(t, res.DistanceMeters)
		assert.InDelta(t, 15.30, *res.DistanceMeters, 0.05)

		require.NotNil(t, res.Attempt)
		assert.Equal(t, amani.PRN, res.Attempt.PRN)
		assert.Equal(t, "Amani Juma", res.Attempt.FullName, "registered name is recorded")
		assert.Equal(t, now.UTC(), res.Attempt.SubmittedAt)
		assert.Equal(t, time.UTC, res.Attempt.SubmittedAt.Location())
		assert.NotEqual(t, uuid.Nil, res.Attempt.ID)
		assert.Equal(t, *res.DistanceMeters, *res.Attempt.DistanceMeters)

		sent := f.mailSvc.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "amani@test.cd", sent[0].To[0].Address)
		assert.Equal(t, "Attendance recorded", sent[0].Subject)
		assert.Contains(t, sent[0].TextContent, "Amani Juma")
		assert.Contains(t, sent[0].TextContent, "15.3")
		assert.True(t, strings.Contains(sent[0].HTMLContent, amani.PRN))
	})

	t.Run("admitted without email sends no receipt", func(t *testing.T) {
		f.mailSvc.Reset()
		res, err := f.svc.CheckIn(ctx, checkIn("24020542002", 18.5204, 73.8567))
		require.NoError(t, err)
		assert.True(t, res.Admitted)
		assert.Empty(t, f.mailSvc.Sent())
	})

	t.Run("outside radius is recorded", func(t *testing.T) {
		f.mailSvc.Reset()
		res, err := f.svc.CheckIn(ctx, checkIn(amani.PRN, 18.53, 73.86))
		require.NoError(t, err)
		assert.Equal(t, attendance.OutcomeOutsideRadius, res.Outcome)
		assert.False(t, res.Admitted)
		require.NotNil(t, res.Attempt)
		require.NotNil(t, res.Attempt.DistanceMeters)
		assert.Greater(t, *res.Attempt.DistanceMeters, 50.0)
		assert.Empty(t, f.mailSvc.Sent())
	})

	t.Run("invalid location is not recorded", func(t *testing.T) {
		before, _ := f.records.QueryAttempts(ctx, nil, nil)
		res, err := f.svc.CheckIn(ctx, checkIn(amani.PRN, math.NaN(), 73.86))
		require.NoError(t, err)
		assert.Equal(t, attendance.OutcomeInvalidLocation, res.Outcome)
		assert.Nil(t, res.DistanceMeters)
		assert.Nil(t, res.Attempt)
		after, _ := f.records.QueryAttempts(ctx, nil, nil)
		assert.Len(t, after, len(before))
	})

	t.Run("unknown identity is not recorded by default", func(t *testing.T) {
		res, err := f.svc.CheckIn(ctx, checkIn("nobody", 18.5204, 73.8567))
		require.NoError(t, err)
		assert.Equal(t, attendance.OutcomeIdentityUnknown, res.Outcome)
		assert.Nil(t, res.Student)
		assert.Nil(t, res.Attempt)
	})

	t.Run("closed window is recorded", func(t *testing.T) {
		_, err := f.svc.SetWindow(ctx, false)
		require.NoError(t, err)
		defer func() { _, _ = f.svc.SetWindow(ctx, true) }()

		res, err := f.svc.CheckIn(ctx, checkIn(amani.PRN, 18.5204, 73.8567))
		require.NoError(t, err)
		assert.Equal(t, attendance.OutcomeWindowClosed, res.Outcome)
		assert.Nil(t, res.DistanceMeters)
		require.NotNil(t, res.Attempt)
		assert.Nil(t, res.Attempt.DistanceMeters)
	})

	attempts, err := f.svc.QueryAttempts(ctx, nil, nil)
	require.NoError(t, err)
	assert.Len(t, attempts, 4)
	assert.Len(t, f.publisher.attempts, 4)
	assert.Equal(t, []attendance.Outcome{
		attendance.OutcomeAdmitted,
		attendance.OutcomeAdmitted,
		attendance.OutcomeOutsideRadius,
		attendance.OutcomeInvalidLocation,
		attendance.OutcomeIdentityUnknown,
		attendance.OutcomeWindowClosed,
	}, f.observer.outcomes)
}

func TestService_CheckIn_recordUnknownIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, core.AttendanceConfig{DefaultWindowOpen: true, RecordUnknownIdentity: true})

	res, err := f.svc.CheckIn(ctx, checkIn("nobody", 18.5204, 73.8567))
	require.NoError(t, err)
	assert.Equal(t, attendance.OutcomeIdentityUnknown, res.Outcome)
	require.NotNil(t, res.Attempt)
	assert.Equal(t, "typed name", res.Attempt.FullName)
	assert.False(t, res.Attempt.Admitted)
}

func TestService_CheckIn_zoneNotConfigured(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, core.AttendanceConfig{DefaultWindowOpen: true})
	testutil.CreateStudent(t, f.stdRepo, "24020542001", "Amani Juma", "")

	res, err := f.svc.CheckIn(ctx, checkIn("24020542001", 18.5204, 73.8567))
	require.NoError(t, err)
	assert.Equal(t, attendance.OutcomeZoneNotConfigured, res.Outcome)
	assert.Nil(t, res.DistanceMeters)

	// a (0,0) center can be saved but still reads as unconfigured
	st, err := f.svc.SetZone(ctx, attendance.Zone{RadiusMeters: 100})
	require.NoError(t, err)
	assert.False(t, st.ZoneConfigured)

	res, err = f.svc.CheckIn(ctx, checkIn("24020542001", 0, 0))
	require.NoError(t, err)
	assert.Equal(t, attendance.OutcomeZoneNotConfigured, res.Outcome)
}

func TestService_CheckIn_saveError(t *testing.T) {
	ctx := context.Background()
	errBoom := errors.New("disk full")

	appConf := core.NewTestConfig()
	db := dummydb.Open()
	stdRepo := dummydb.NewStudentRepository(db)
	testutil.CreateStudent(t, stdRepo, "24020542001", "Amani Juma", "")
	pub := new(recordingPublisher)

	svc := attendance.NewService(attendance.ServiceDeps{
		Conf:       appConf.Attendance,
		Logger:     logsvc.NewDiscardLogger(),
		Students:   student.NewService(stdRepo),
		Settings:   dummydb.NewSettingsRepository(db),
		Records:    failingRecords{RecordStore: dummydb.NewAttemptRepository(db), err: errBoom},
		Publishers: []attendance.Publisher{pub},
	})
	_, err := svc.SetZone(ctx, attendance.Zone{Center: campus, RadiusMeters: 50})
	require.NoError(t, err)

	_, err = svc.CheckIn(ctx, checkIn("24020542001", 18.5204, 73.8567))
	require.Error(t, err)
	assert.Equal(t, errBoom, errors.Cause(err))
	assert.Empty(t, pub.attempts)
}

func TestService_Settings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, core.AttendanceConfig{DefaultWindowOpen: false})

	st, err := f.svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, attendance.Settings{}, st)

	status, err := f.svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, attendance.Status{}, status)

	zone := attendance.Zone{Center: campus, RadiusMeters: 30}
	st, err = f.svc.SetZone(ctx, zone)
	require.NoError(t, err)
	assert.Equal(t, attendance.Settings{Zone: zone, ZoneConfigured: true}, st)

	st, err = f.svc.SetWindow(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, attendance.Settings{Zone: zone, ZoneConfigured: true, WindowOpen: true}, st)

	status, err = f.svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, attendance.Status{WindowOpen: true, ZoneConfigured: true}, status)

	require.Len(t, f.publisher.settings, 2)
	assert.Equal(t, st, f.publisher.settings[1])
}

func TestService_ClearAttempts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, core.AttendanceConfig{})
	now := time.Now()
	testutil.CreateAttempt(t, f.records, "001", "Amani", attendance.OutcomeAdmitted, 3, now)
	testutil.CreateAttempt(t, f.records, "002", "Baraka", attendance.OutcomeWindowClosed, -1, now)

	n, err := f.svc.ClearAttempts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	attempts, err := f.svc.QueryAttempts(ctx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, attempts)
}

func TestService_Summary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, core.AttendanceConfig{})
	day := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	testutil.CreateAttempt(t, f.records, "001", "Amani", attendance.OutcomeAdmitted, 3, day)
	testutil.CreateAttempt(t, f.records, "002", "Baraka", attendance.OutcomeOutsideRadius, 200, day.Add(time.Hour))
	testutil.CreateAttempt(t, f.records, "001", "Amani", attendance.OutcomeAdmitted, 4, day.Add(24*time.Hour))

	sum, err := f.svc.Summary(ctx, "2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 66.67, sum.SuccessRate)
	require.NotNil(t, sum.SelectedDay)
	assert.Equal(t, 2, sum.SelectedDay.TotalAttempts)
	assert.Len(t, sum.DayAttempts, 2)

	_, err = f.svc.Summary(ctx, "yesterday")
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))

	report, err := f.svc.StudentReport(ctx, " 001 ")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Stats.Total)
	assert.Equal(t, 100.0, report.Stats.SuccessRate)

	_, err = f.svc.StudentReport(ctx, "404")
	assert.Equal(t, attendance.ErrNoAttempts, errors.Cause(err))
}
