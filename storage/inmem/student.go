package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/examdesk/examblock/core"
	"github.com/examdesk/examblock/core/exam"
	"github.com/examdesk/examblock/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) query() []student.Student {
	students := make([]student.Student, 0, len(repo.db.table))
	for _, st := range repo.db.table {
		students = append(students, *st)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Number < students[j].Number })
	return students
}

func (repo *studentRepository) CheckNumberUniqueness(_ context.Context, number string, excluded ...student.Student) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, st := range repo.db.table {
		if st.Number == number && !isExcluded(*st, excluded) {
			return student.ErrNumberExists
		}
	}
	return nil
}

func isExcluded(st student.Student, excluded []student.Student) bool {
	for _, ex := range excluded {
		if ex.ID == st.ID {
			return true
		}
	}
	return false
}

func (repo *studentRepository) CreateStudent(_ context.Context, st student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[st.ID] = &st
	return st, nil
}

func (repo *studentRepository) QueryAllStudents(_ context.Context) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *studentRepository) GetStudentByID(_ context.Context, id string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if st, ok := repo.db.table[id]; ok {
		return *st, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentByNumber(_ context.Context, number string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, st := range repo.db.table {
		if st.Number == number {
			return *st, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) FilterStudents(_ context.Context, filter student.QueryFilter, _ ...core.DBOrdering) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var unitRef exam.UnitRef
	if filter.Unit != "" {
		ref, err := exam.ParseUnitRef(filter.Unit)
		if err != nil {
			return nil, err
		}
		unitRef = ref
	}

	var students []student.Student
	for _, st := range repo.query() {
		if filter.Search != "" && !matchesSearch(st, filter.Search) {
			continue
		}
		if filter.AARA != nil && st.AARA != *filter.AARA {
			continue
		}
		if !unitRef.IsZero() && !st.TakesUnit(unitRef) {
			continue
		}
		students = append(students, st)
	}
	return students, nil
}

func matchesSearch(st student.Student, search string) bool {
	search = strings.ToLower(search)
	for _, field := range []string{st.Number, st.Surname, st.GivenName} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func (repo *studentRepository) UpdateStudent(_ context.Context, st student.Student, aara *bool) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// only save set fields
	orig, ok := repo.db.table[st.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	if st.Surname != "" {
		orig.Surname = st.Surname
	}
	orig.GivenName = st.GivenName
	if st.Units != nil {
		orig.Units = st.Units
	}
	if aara != nil {
		orig.AARA = *aara
	}
	orig.UpdatedAt = st.UpdatedAt
	return *orig, nil
}

func (repo *studentRepository) DeleteStudentsByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
