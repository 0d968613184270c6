package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/examdesk/examblock/core"
	"github.com/examdesk/examblock/core/exam"
	"github.com/examdesk/examblock/core/student"
)

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

type studentRow struct {
	ID        string    `db:"id"`
	Number    string    `db:"number"`
	Surname   string    `db:"surname"`
	GivenName string    `db:"given_name"`
	AARA      bool      `db:"aara"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r studentRow) student() student.Student {
	return student.Student{
		ID:        r.ID,
		Number:    r.Number,
		Surname:   r.Surname,
		GivenName: r.GivenName,
		AARA:      r.AARA,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type studentUnitRow struct {
	StudentID   string `db:"student_id"`
	SubjectCode string `db:"subject_code"`
	UnitCode    string `db:"unit_code"`
}

// loadUnits attaches enrolled units to the given students.
func (repo *studentRepository) loadUnits(ctx context.Context, students []student.Student) error {
	if len(students) == 0 {
		return nil
	}
	ids := make([]string, 0, len(students))
	byID := make(map[string]*student.Student, len(students))
	for i := range students {
		ids = append(ids, students[i].ID)
		byID[students[i].ID] = &students[i]
	}

	var rows []studentUnitRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM student_unit WHERE student_id = ANY($1) ORDER BY subject_code, unit_code`, pq.Array(ids))
	if err != nil {
		return errors.Wrap(err, "querying student units")
	}
	for _, r := range rows {
		st := byID[r.StudentID]
		st.Units = append(st.Units, exam.UnitRef{SubjectCode: r.SubjectCode, UnitCode: r.UnitCode})
	}
	return nil
}

func (repo *studentRepository) saveUnits(ctx context.Context, tx *sqlx.Tx, id string, units []exam.UnitRef) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM student_unit WHERE student_id = $1`, id); err != nil {
		return errors.Wrap(err, "clearing student units")
	}
	for _, ref := range units {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO student_unit (student_id, subject_code, unit_code) VALUES ($1, $2, $3)`,
			id, ref.SubjectCode, ref.UnitCode)
		if err != nil {
			return errors.Wrapf(err, "inserting student unit %s", ref)
		}
	}
	return nil
}

func (repo *studentRepository) CheckNumberUniqueness(ctx context.Context, number string, excluded ...student.Student) error {
	q := `SELECT EXISTS (SELECT 1 FROM student WHERE number = $1`
	args := []interface{}{number}
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, st := range excluded {
			ids = append(ids, st.ID)
		}
		q += ` AND NOT (id = ANY($2))`
		args = append(args, pq.Array(ids))
	}
	q += `)`

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, q, args...); err != nil {
		return errors.Wrap(err, "checking student uniqueness")
	}
	if exists {
		return student.ErrNumberExists
	}
	return nil
}

func (repo *studentRepository) CreateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO student (id, number, surname, given_name, aara, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		st.ID, st.Number, st.Surname, st.GivenName, st.AARA, st.CreatedAt, st.UpdatedAt)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	if err = repo.saveUnits(ctx, tx, st.ID, st.Units); err != nil {
		return student.Student{}, err
	}
	if err = tx.Commit(); err != nil {
		return student.Student{}, errors.Wrap(err, "committing student")
	}
	return st, nil
}

func (repo *studentRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	return repo.FilterStudents(ctx, student.QueryFilter{})
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	return repo.getStudent(ctx, `SELECT * FROM student WHERE id = $1`, id)
}

func (repo *studentRepository) GetStudentByNumber(ctx context.Context, number string) (student.Student, error) {
	return repo.getStudent(ctx, `SELECT * FROM student WHERE number = $1`, number)
}

func (repo *studentRepository) getStudent(ctx context.Context, q string, arg interface{}) (student.Student, error) {
	var r studentRow
	if err := repo.db.GetContext(ctx, &r, q, arg); err != nil {
		if err == sql.ErrNoRows {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student")
	}
	students := []student.Student{r.student()}
	if err := repo.loadUnits(ctx, students); err != nil {
		return student.Student{}, err
	}
	return students[0], nil
}

func (repo *studentRepository) FilterStudents(ctx context.Context, filter student.QueryFilter, ordering ...core.DBOrdering) ([]student.Student, error) {
	q := `SELECT * FROM student`
	var conds []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		p := arg(val)
		conds = append(conds, fmt.Sprintf("(number ILIKE %s OR surname ILIKE %s OR given_name ILIKE %s)", p, p, p))
	}
	if filter.AARA != nil {
		conds = append(conds, "aara = "+arg(*filter.AARA))
	}
	if filter.Unit != "" {
		ref, err := exam.ParseUnitRef(filter.Unit)
		if err != nil {
			return nil, err
		}
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM student_unit su WHERE su.student_id = student.id AND su.subject_code = %s AND su.unit_code = %s)",
			arg(ref.SubjectCode), arg(ref.UnitCode)))
	}

	for i, c := range conds {
		if i == 0 {
			q += " WHERE " + c
		} else {
			q += " AND " + c
		}
	}

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "surname", Ascending: true}, {Field: "given_name", Ascending: true}, {Field: "number", Ascending: true}}
	}
	q += " ORDER BY "
	for i, ord := range ordering {
		if i > 0 {
			q += ", "
		}
		q += ord.String()
	}

	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.student())
	}
	if err := repo.loadUnits(ctx, students); err != nil {
		return nil, err
	}
	return students, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, st student.Student, aara *bool) (student.Student, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE student SET
			surname    = COALESCE(NULLIF($2, ''), surname),
			given_name = $3,
			aara       = COALESCE($4, aara),
			updated_at = $5
		 WHERE id = $1`,
		st.ID, st.Surname, st.GivenName, aara, st.UpdatedAt)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	if st.Units != nil {
		if err = repo.saveUnits(ctx, tx, st.ID, st.Units); err != nil {
			return student.Student{}, err
		}
	}
	if err = tx.Commit(); err != nil {
		return student.Student{}, errors.Wrap(err, "committing student")
	}
	return repo.GetStudentByID(ctx, st.ID)
}

func (repo *studentRepository) DeleteStudentsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM student WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting students")
}
