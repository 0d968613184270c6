package student

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/examdesk/examblock/core"
)

var (
	ErrNotFound     = errors.New("student not found")
	ErrNumberExists = errors.New("a student with this number already exists")
)

type (
	Repository interface {
		CheckNumberUniqueness(ctx context.Context, number string, excluded ...Student) error
		CreateStudent(ctx context.Context, st Student) (Student, error)
		QueryAllStudents(ctx context.Context) ([]Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		GetStudentByNumber(ctx context.Context, number string) (Student, error)
		// FilterStudents applies AND operation on available QueryFilter fields.
		FilterStudents(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Student, error)
		UpdateStudent(ctx context.Context, st Student, aara *bool) (Student, error)
		DeleteStudentsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkNumberUniqueness(number string, excluded ...Student) error {
	if err := svc.repo.CheckNumberUniqueness(context.Background(), number, excluded...); err != nil {
		if err == ErrNumberExists {
			return core.NewValidationError(err, core.FieldError{Field: "number", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	st := Student{
		ID:        uuid.New().String(),
		Number:    ns.Number,
		Surname:   ns.Surname,
		GivenName: ns.GivenName,
		AARA:      ns.AARA,
		Units:     ns.unitRefs,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateStudent(ctx, st)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryAllStudents(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *Service) GetByNumber(ctx context.Context, number string) (Student, error) {
	return svc.repo.GetStudentByNumber(ctx, core.CleanCode(number))
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Student, error) {
	filter.Clean()
	return svc.repo.FilterStudents(ctx, filter, ordering...)
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	st := Student{
		ID:        id,
		Surname:   us.Surname,
		GivenName: us.GivenName,
		Units:     us.unitRefs,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateStudent(ctx, st, us.AARA)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteStudentsByID(ctx, ids...)
}
