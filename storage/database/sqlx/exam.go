// Package sqlxrepos implements the domain repositories on Postgres via sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/examdesk/examblock/core/exam"
)

type examRepository struct {
	db *sqlx.DB
}

var _ exam.Repository = (*examRepository)(nil)

func NewExamRepository(db *sqlx.DB) *examRepository {
	return &examRepository{db: db}
}

type subjectRow struct {
	Code      string    `db:"code"`
	Title     string    `db:"title"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r subjectRow) subject() exam.Subject {
	return exam.Subject{Code: r.Code, Title: r.Title, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

type unitRow struct {
	SubjectCode string    `db:"subject_code"`
	Code        string    `db:"code"`
	Title       string    `db:"title"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r unitRow) unit() exam.Unit {
	return exam.Unit{SubjectCode: r.SubjectCode, Code: r.Code, Title: r.Title, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

type examRow struct {
	ID          string    `db:"id"`
	SubjectCode string    `db:"subject_code"`
	UnitCode    string    `db:"unit_code"`
	Title       string    `db:"title"`
	Minutes     int       `db:"minutes"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r examRow) exam() exam.Exam {
	return exam.Exam{
		ID:        r.ID,
		Unit:      exam.UnitRef{SubjectCode: r.SubjectCode, UnitCode: r.UnitCode},
		Title:     r.Title,
		Minutes:   r.Minutes,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (repo *examRepository) CreateSubject(ctx context.Context, sub exam.Subject) (exam.Subject, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO subject (code, title, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		sub.Code, sub.Title, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		return exam.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return sub, nil
}

func (repo *examRepository) QuerySubjects(ctx context.Context) ([]exam.Subject, error) {
	var rows []subjectRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM subject ORDER BY code`); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	subs := make([]exam.Subject, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.subject())
	}
	return subs, nil
}

func (repo *examRepository) GetSubject(ctx context.Context, code string) (exam.Subject, error) {
	var r subjectRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM subject WHERE code = $1`, code); err != nil {
		if err == sql.ErrNoRows {
			return exam.Subject{}, exam.ErrSubjectNotFound
		}
		return exam.Subject{}, errors.Wrap(err, "getting subject")
	}
	return r.subject(), nil
}

func (repo *examRepository) UpdateSubject(ctx context.Context, sub exam.Subject) (exam.Subject, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE subject SET title = $2, updated_at = $3 WHERE code = $1`,
		sub.Code, sub.Title, sub.UpdatedAt)
	if err != nil {
		return exam.Subject{}, errors.Wrap(err, "updating subject")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return exam.Subject{}, exam.ErrSubjectNotFound
	}
	return repo.GetSubject(ctx, sub.Code)
}

func (repo *examRepository) DeleteSubjects(ctx context.Context, codes ...string) error {
	if len(codes) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM subject WHERE code = ANY($1)`, pq.Array(codes))
	return errors.Wrap(err, "deleting subjects")
}

func (repo *examRepository) CreateUnit(ctx context.Context, unit exam.Unit) (exam.Unit, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO unit (subject_code, code, title, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		unit.SubjectCode, unit.Code, unit.Title, unit.CreatedAt, unit.UpdatedAt)
	if err != nil {
		return exam.Unit{}, errors.Wrap(err, "inserting unit")
	}
	return unit, nil
}

func (repo *examRepository) QueryUnits(ctx context.Context, subjectCode string) ([]exam.Unit, error) {
	q := `SELECT * FROM unit ORDER BY subject_code, code`
	args := []interface{}{}
	if subjectCode != "" {
		q = `SELECT * FROM unit WHERE subject_code = $1 ORDER BY code`
		args = append(args, subjectCode)
	}

	var rows []unitRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying units")
	}
	units := make([]exam.Unit, 0, len(rows))
	for _, r := range rows {
		units = append(units, r.unit())
	}
	return units, nil
}

func (repo *examRepository) GetUnit(ctx context.Context, ref exam.UnitRef) (exam.Unit, error) {
	var r unitRow
	err := repo.db.GetContext(ctx, &r,
		`SELECT * FROM unit WHERE subject_code = $1 AND code = $2`, ref.SubjectCode, ref.UnitCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return exam.Unit{}, exam.ErrUnitNotFound
		}
		return exam.Unit{}, errors.Wrap(err, "getting unit")
	}
	return r.unit(), nil
}

func (repo *examRepository) DeleteUnit(ctx context.Context, ref exam.UnitRef) error {
	_, err := repo.db.ExecContext(ctx,
		`DELETE FROM unit WHERE subject_code = $1 AND code = $2`, ref.SubjectCode, ref.UnitCode)
	return errors.Wrap(err, "deleting unit")
}

func (repo *examRepository) CreateExam(ctx context.Context, ex exam.Exam) (exam.Exam, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO exam (id, subject_code, unit_code, title, minutes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ex.ID, ex.Unit.SubjectCode, ex.Unit.UnitCode, ex.Title, ex.Minutes, ex.CreatedAt, ex.UpdatedAt)
	if err != nil {
		return exam.Exam{}, errors.Wrap(err, "inserting exam")
	}
	return ex, nil
}

func (repo *examRepository) QueryExams(ctx context.Context) ([]exam.Exam, error) {
	var rows []examRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM exam ORDER BY subject_code, unit_code`); err != nil {
		return nil, errors.Wrap(err, "querying exams")
	}
	exams := make([]exam.Exam, 0, len(rows))
	for _, r := range rows {
		exams = append(exams, r.exam())
	}
	return exams, nil
}

func (repo *examRepository) GetExam(ctx context.Context, id string) (exam.Exam, error) {
	var r examRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM exam WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return exam.Exam{}, exam.ErrExamNotFound
		}
		return exam.Exam{}, errors.Wrap(err, "getting exam")
	}
	return r.exam(), nil
}

func (repo *examRepository) DeleteExams(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM exam WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting exams")
}
