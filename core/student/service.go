package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

var (
	// errors
	ErrNotFound  = errors.New("student not found")
	ErrPRNExists = errors.New("a student with this PRN already exists")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, std Student) (Student, error)
		// GetStudent returns ErrNotFound when no student has this PRN.
		GetStudent(ctx context.Context, prn string) (Student, error)
		// QueryStudents does a case-insensitive match of QueryFilter.Search on PRN, Name or Email.
		QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		DeleteStudents(ctx context.Context, prns ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// LookupStudent resolves a PRN to a registered Student; ErrNotFound if unknown.
func (svc *Service) LookupStudent(ctx context.Context, prn string) (Student, error) {
	return svc.repo.GetStudent(ctx, core.CleanString(prn))
}

func (svc *Service) Get(ctx context.Context, prn string) (Student, error) {
	return svc.LookupStudent(ctx, prn)
}

// Create registers a Student. NewStudent must have been validated.
func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := nowFunc().UTC()
	std, err := svc.repo.CreateStudent(ctx, Student{
		PRN:       ns.PRN,
		Name:      ns.Name,
		Email:     ns.Email,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Cause(err) == ErrPRNExists {
			return Student{}, core.NewFieldValidationError("prn", ErrPRNExists)
		}
		return Student{}, errors.Wrap(err, "creating student")
	}
	return std, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, filter, ordering)
}

func (svc *Service) Delete(ctx context.Context, prns ...string) error {
	return svc.repo.DeleteStudents(ctx, prns...)
}
