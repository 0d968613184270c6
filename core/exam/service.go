package exam

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/examdesk/examblock/core"
)

var (
	ErrSubjectNotFound = errors.New("subject not found")
	ErrUnitNotFound    = errors.New("unit not found")
	ErrExamNotFound    = errors.New("exam not found")
	ErrSubjectExists   = errors.New("a subject with this code already exists")
	ErrUnitExists      = errors.New("this subject already has a unit with this code")
)

type (
	Repository interface {
		CreateSubject(ctx context.Context, sub Subject) (Subject, error)
		QuerySubjects(ctx context.Context) ([]Subject, error)
		GetSubject(ctx context.Context, code string) (Subject, error)
		UpdateSubject(ctx context.Context, sub Subject) (Subject, error)
		DeleteSubjects(ctx context.Context, codes ...string) error

		CreateUnit(ctx context.Context, unit Unit) (Unit, error)
		// QueryUnits returns all units, or the units of subjectCode when provided.
		QueryUnits(ctx context.Context, subjectCode string) ([]Unit, error)
		GetUnit(ctx context.Context, ref UnitRef) (Unit, error)
		DeleteUnit(ctx context.Context, ref UnitRef) error

		CreateExam(ctx context.Context, ex Exam) (Exam, error)
		QueryExams(ctx context.Context) ([]Exam, error)
		GetExam(ctx context.Context, id string) (Exam, error)
		DeleteExams(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkSubjectUniqueness(code string) error {
	if _, err := svc.repo.GetSubject(context.Background(), code); err == nil {
		return core.NewValidationError(ErrSubjectExists, core.FieldError{Field: "code", Error: ErrSubjectExists.Error()})
	} else if errors.Cause(err) != ErrSubjectNotFound {
		return err
	}
	return nil
}

func (svc *Service) checkUnitUniqueness(ref UnitRef) error {
	if _, err := svc.repo.GetUnit(context.Background(), ref); err == nil {
		return core.NewValidationError(ErrUnitExists, core.FieldError{Field: "code", Error: ErrUnitExists.Error()})
	} else if errors.Cause(err) != ErrUnitNotFound {
		return err
	}
	return nil
}

func (svc *Service) CreateSubject(ctx context.Context, ns NewSubject) (Subject, error) {
	now := time.Now().UTC()
	sub := Subject{
		Code:      ns.Code,
		Title:     ns.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateSubject(ctx, sub)
}

func (svc *Service) QuerySubjects(ctx context.Context) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx)
}

func (svc *Service) GetSubject(ctx context.Context, code string) (Subject, error) {
	return svc.repo.GetSubject(ctx, core.CleanCode(code))
}

func (svc *Service) UpdateSubject(ctx context.Context, code string, us UpdateSubject) (Subject, error) {
	sub, err := svc.repo.GetSubject(ctx, core.CleanCode(code))
	if err != nil {
		return Subject{}, err
	}
	sub.Title = us.Title
	sub.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSubject(ctx, sub)
}

func (svc *Service) DeleteSubjects(ctx context.Context, codes ...string) error {
	return svc.repo.DeleteSubjects(ctx, codes...)
}

func (svc *Service) CreateUnit(ctx context.Context, nu NewUnit) (Unit, error) {
	if _, err := svc.repo.GetSubject(ctx, nu.SubjectCode); err != nil {
		if errors.Cause(err) == ErrSubjectNotFound {
			return Unit{}, core.NewValidationError(err, core.FieldError{Field: "subject_code", Error: err.Error()})
		}
		return Unit{}, err
	}

	now := time.Now().UTC()
	unit := Unit{
		SubjectCode: nu.SubjectCode,
		Code:        nu.Code,
		Title:       nu.Title,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateUnit(ctx, unit)
}

func (svc *Service) QueryUnits(ctx context.Context, subjectCode string) ([]Unit, error) {
	return svc.repo.QueryUnits(ctx, core.CleanCode(subjectCode))
}

func (svc *Service) GetUnit(ctx context.Context, ref UnitRef) (Unit, error) {
	return svc.repo.GetUnit(ctx, ref)
}

func (svc *Service) DeleteUnit(ctx context.Context, ref UnitRef) error {
	return svc.repo.DeleteUnit(ctx, ref)
}

func (svc *Service) CreateExam(ctx context.Context, ne NewExam) (Exam, error) {
	if _, err := svc.repo.GetUnit(ctx, ne.unitRef); err != nil {
		if errors.Cause(err) == ErrUnitNotFound {
			return Exam{}, core.NewValidationError(err, core.FieldError{Field: "unit", Error: err.Error()})
		}
		return Exam{}, err
	}

	now := time.Now().UTC()
	ex := Exam{
		ID:        uuid.New().String(),
		Unit:      ne.unitRef,
		Title:     ne.Title,
		Minutes:   ne.Minutes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateExam(ctx, ex)
}

func (svc *Service) QueryExams(ctx context.Context) ([]Exam, error) {
	return svc.repo.QueryExams(ctx)
}

func (svc *Service) GetExam(ctx context.Context, id string) (Exam, error) {
	return svc.repo.GetExam(ctx, id)
}

func (svc *Service) DeleteExams(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteExams(ctx, ids...)
}
