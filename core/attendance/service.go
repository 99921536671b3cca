package attendance

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/geo"
	"github.com/trezcool/mahudhurio/core/student"
)

const receiptTemplate = "checkin_receipt"

var nowFunc = time.Now // mockable

type (
	// Observer is told about every evaluation, recorded or not.
	Observer interface {
		ObserveEvaluation(ev Evaluation, elapsed time.Duration)
	}

	// Publisher pushes changes to live admin dashboards.
	Publisher interface {
		PublishAttempt(attempt CheckInAttempt)
		PublishSettings(settings Settings)
	}

	ServiceDeps struct {
		Conf       core.AttendanceConfig
		Logger     core.Logger
		Students   IdentityLookup
		Settings   SettingsRepository
		Records    RecordStore
		Calculator geo.DistanceCalculator // defaults to geo.Haversine
		MailSvc    core.EmailService      // optional
		Observers  []Observer
		Publishers []Publisher
	}

	Service struct {
		conf       core.AttendanceConfig
		logger     core.Logger
		gate       *Gate
		settings   *SettingsStore
		records    RecordStore
		mailSvc    core.EmailService
		observers  []Observer
		publishers []Publisher
	}
)

func NewService(deps ServiceDeps) *Service {
	settings := NewSettingsStore(deps.Settings, deps.Conf.DefaultWindowOpen)
	return &Service{
		conf:       deps.Conf,
		logger:     deps.Logger,
		gate:       NewGate(deps.Students, settings, deps.Calculator),
		settings:   settings,
		records:    deps.Records,
		mailSvc:    deps.MailSvc,
		observers:  deps.Observers,
		publishers: deps.Publishers,
	}
}

// CheckIn evaluates a validated request and records the attempt.
// INVALID_LOCATION attempts are never recorded; IDENTITY_UNKNOWN ones only
// when RecordUnknownIdentity is set. Nothing is recorded if evaluation fails.
func (svc *Service) CheckIn(ctx context.Context, req CheckInRequest) (CheckInResult, error) {
	submittedAt := nowFunc().UTC()
	loc := req.Location()

	start := time.Now()
	ev, err := svc.gate.Evaluate(ctx, req.PRN, loc)
	if err != nil {
		return CheckInResult{}, errors.Wrap(err, "evaluating check-in")
	}
	for _, obs := range svc.observers {
		obs.ObserveEvaluation(ev, time.Since(start))
	}

	res := CheckInResult{Evaluation: ev}
	if !svc.shouldRecord(ev.Outcome) {
		return res, nil
	}

	attempt := CheckInAttempt{
		ID:             uuid.New(),
		PRN:            req.PRN,
		FullName:       req.FullName,
		SubmittedAt:    submittedAt,
		Location:       loc,
		DistanceMeters: ev.DistanceMeters,
		Admitted:       ev.Admitted,
		Outcome:        ev.Outcome,
	}
	if ev.Student != nil {
		attempt.FullName = ev.Student.Name
	}

	attempt, err = svc.records.SaveAttempt(ctx, attempt)
	if err != nil {
		return CheckInResult{}, errors.Wrap(err, "saving check-in attempt")
	}
	res.Attempt = &attempt

	for _, pub := range svc.publishers {
		pub.PublishAttempt(attempt)
	}
	if ev.Admitted && ev.Student != nil {
		svc.sendReceipt(*ev.Student, attempt)
	}
	return res, nil
}

func (svc *Service) shouldRecord(outcome Outcome) bool {
	switch outcome {
	case OutcomeInvalidLocation:
		return false
	case OutcomeIdentityUnknown:
		return svc.conf.RecordUnknownIdentity
	default:
		return true
	}
}

type receiptData struct {
	Name           string
	PRN            string
	SubmittedAt    string
	DistanceMeters string
}

func (svc *Service) sendReceipt(std student.Student, attempt CheckInAttempt) {
	if !svc.conf.SendReceipts || svc.mailSvc == nil || std.Email == "" {
		return
	}
	distance := "?"
	if attempt.DistanceMeters != nil {
		distance = fmt.Sprintf("%.1f", *attempt.DistanceMeters)
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: std.Name, Address: std.Email}},
		Subject:      "Attendance recorded",
		TemplateName: receiptTemplate,
		TemplateData: receiptData{
			Name:           std.Name,
			PRN:            std.PRN,
			SubmittedAt:    attempt.SubmittedAt.Format(time.RFC1123),
			DistanceMeters: distance,
		},
	})
}

// Status tells students whether checking in can currently succeed, without revealing the zone.
func (svc *Service) Status(ctx context.Context) (Status, error) {
	st, err := svc.Settings(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{WindowOpen: st.WindowOpen, ZoneConfigured: st.ZoneConfigured}, nil
}

func (svc *Service) Settings(ctx context.Context) (Settings, error) {
	zone, err := svc.settings.GetZone(ctx)
	if err != nil {
		return Settings{}, errors.Wrap(err, "getting allowed zone")
	}
	open, err := svc.settings.GetWindow(ctx)
	if err != nil {
		return Settings{}, errors.Wrap(err, "getting attendance window")
	}
	return Settings{Zone: zone, ZoneConfigured: zone.IsConfigured(), WindowOpen: open}, nil
}

// SetZone replaces the allowed zone. A (0,0) center leaves the zone unconfigured.
func (svc *Service) SetZone(ctx context.Context, zone Zone) (Settings, error) {
	if err := svc.settings.SaveZone(ctx, zone); err != nil {
		return Settings{}, errors.Wrap(err, "saving allowed zone")
	}
	svc.logger.Info(fmt.Sprintf("allowed zone set: %+v", zone))
	return svc.settingsChanged(ctx)
}

func (svc *Service) SetWindow(ctx context.Context, open bool) (Settings, error) {
	if err := svc.settings.SaveWindow(ctx, open); err != nil {
		return Settings{}, errors.Wrap(err, "saving attendance window")
	}
	svc.logger.Info(fmt.Sprintf("attendance window open: %v", open))
	return svc.settingsChanged(ctx)
}

func (svc *Service) settingsChanged(ctx context.Context) (Settings, error) {
	st, err := svc.Settings(ctx)
	if err != nil {
		return Settings{}, err
	}
	for _, pub := range svc.publishers {
		pub.PublishSettings(st)
	}
	return st, nil
}

func (svc *Service) QueryAttempts(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]CheckInAttempt, error) {
	attempts, err := svc.records.QueryAttempts(ctx, filter, ordering)
	if err != nil {
		return nil, errors.Wrap(err, "querying check-in attempts")
	}
	return attempts, nil
}

func (svc *Service) ClearAttempts(ctx context.Context) (int64, error) {
	n, err := svc.records.DeleteAllAttempts(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "deleting check-in attempts")
	}
	svc.logger.Warn(fmt.Sprintf("%d check-in attempts cleared", n))
	return n, nil
}

// Summary aggregates all recorded attempts; day (YYYY-MM-DD) is optional.
func (svc *Service) Summary(ctx context.Context, day string) (Summary, error) {
	selected, err := ParseDay(day)
	if err != nil {
		return Summary{}, core.NewFieldValidationError("date", err)
	}
	attempts, err := svc.QueryAttempts(ctx, nil, nil)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(attempts, selected), nil
}

func (svc *Service) StudentReport(ctx context.Context, prn string) (StudentReport, error) {
	prn = core.CleanString(prn)
	attempts, err := svc.QueryAttempts(ctx, &QueryFilter{PRN: prn}, nil)
	if err != nil {
		return StudentReport{}, err
	}
	return BuildStudentReport(prn, attempts)
}
