package inmemdb

import (
	"context"
	"sort"

	"github.com/examdesk/examblock/core/exam"
)

type examRepository struct {
	db *examTables
}

var _ exam.Repository = (*examRepository)(nil)

func NewExamRepository(db *DB) *examRepository {
	return &examRepository{db: db.exam}
}

func (repo *examRepository) CreateSubject(_ context.Context, sub exam.Subject) (exam.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.subjects[sub.Code] = &sub
	return sub, nil
}

func (repo *examRepository) QuerySubjects(_ context.Context) ([]exam.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := make([]exam.Subject, 0, len(repo.db.subjects))
	for _, sub := range repo.db.subjects {
		subs = append(subs, *sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Code < subs[j].Code })
	return subs, nil
}

func (repo *examRepository) GetSubject(_ context.Context, code string) (exam.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sub, ok := repo.db.subjects[code]; ok {
		return *sub, nil
	}
	return exam.Subject{}, exam.ErrSubjectNotFound
}

func (repo *examRepository) UpdateSubject(_ context.Context, sub exam.Subject) (exam.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.subjects[sub.Code]
	if !ok {
		return exam.Subject{}, exam.ErrSubjectNotFound
	}
	orig.Title = sub.Title
	orig.UpdatedAt = sub.UpdatedAt
	return *orig, nil
}

func (repo *examRepository) DeleteSubjects(_ context.Context, codes ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, code := range codes {
		delete(repo.db.subjects, code)
	}
	return nil
}

func (repo *examRepository) CreateUnit(_ context.Context, unit exam.Unit) (exam.Unit, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.units[unit.Ref().String()] = &unit
	return unit, nil
}

func (repo *examRepository) QueryUnits(_ context.Context, subjectCode string) ([]exam.Unit, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	units := make([]exam.Unit, 0, len(repo.db.units))
	for _, unit := range repo.db.units {
		if subjectCode == "" || unit.SubjectCode == subjectCode {
			units = append(units, *unit)
		}
	}
	sort.Slice(units, func(i, j int) bool { return units[i].Ref().String() < units[j].Ref().String() })
	return units, nil
}

func (repo *examRepository) GetUnit(_ context.Context, ref exam.UnitRef) (exam.Unit, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if unit, ok := repo.db.units[ref.String()]; ok {
		return *unit, nil
	}
	return exam.Unit{}, exam.ErrUnitNotFound
}

func (repo *examRepository) DeleteUnit(_ context.Context, ref exam.UnitRef) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.units, ref.String())
	return nil
}

func (repo *examRepository) CreateExam(_ context.Context, ex exam.Exam) (exam.Exam, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.exams[ex.ID] = &ex
	return ex, nil
}

func (repo *examRepository) QueryExams(_ context.Context) ([]exam.Exam, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	exams := make([]exam.Exam, 0, len(repo.db.exams))
	for _, ex := range repo.db.exams {
		exams = append(exams, *ex)
	}
	sort.Slice(exams, func(i, j int) bool { return exams[i].Unit.String() < exams[j].Unit.String() })
	return exams, nil
}

func (repo *examRepository) GetExam(_ context.Context, id string) (exam.Exam, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ex, ok := repo.db.exams[id]; ok {
		return *ex, nil
	}
	return exam.Exam{}, exam.ErrExamNotFound
}

func (repo *examRepository) DeleteExams(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.exams, id)
	}
	return nil
}
