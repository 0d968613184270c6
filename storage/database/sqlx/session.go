package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/examdesk/examblock/core/allocation"
	"github.com/examdesk/examblock/core/session"
)

type sessionRepository struct {
	db *sqlx.DB
}

var _ session.Repository = (*sessionRepository)(nil)

func NewSessionRepository(db *sqlx.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

type sessionRow struct {
	ID             string         `db:"id"`
	VenueCode      string         `db:"venue_code"`
	StartsAt       time.Time      `db:"starts_at"`
	Finalised      bool           `db:"finalised"`
	AllocationMode sql.NullString `db:"allocation_mode"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (r sessionRow) session() session.Session {
	return session.Session{
		ID:        r.ID,
		VenueCode: r.VenueCode,
		StartsAt:  r.StartsAt,
		Finalised: r.Finalised,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type deskRow struct {
	SessionID string         `db:"session_id"`
	DeskIndex int            `db:"desk_index"`
	RowNum    int            `db:"row_num"`
	ColNum    int            `db:"col_num"`
	StudentID sql.NullString `db:"student_id"`
}

func (repo *sessionRepository) loadExamIDs(ctx context.Context, sess *session.Session) error {
	err := repo.db.SelectContext(ctx, &sess.ExamIDs,
		`SELECT exam_id FROM session_exam WHERE session_id = $1 ORDER BY position`, sess.ID)
	return errors.Wrap(err, "querying session exams")
}

func (repo *sessionRepository) saveExamIDs(ctx context.Context, tx *sqlx.Tx, id string, examIDs []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM session_exam WHERE session_id = $1`, id); err != nil {
		return errors.Wrap(err, "clearing session exams")
	}
	for pos, examID := range examIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO session_exam (session_id, exam_id, position) VALUES ($1, $2, $3)`,
			id, examID, pos)
		if err != nil {
			return errors.Wrapf(err, "inserting session exam %s", examID)
		}
	}
	return nil
}

func (repo *sessionRepository) CreateSession(ctx context.Context, sess session.Session) (session.Session, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO session (id, venue_code, starts_at, finalised, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sess.ID, sess.VenueCode, sess.StartsAt, sess.Finalised, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "inserting session")
	}
	if err = repo.saveExamIDs(ctx, tx, sess.ID, sess.ExamIDs); err != nil {
		return session.Session{}, err
	}
	if err = tx.Commit(); err != nil {
		return session.Session{}, errors.Wrap(err, "committing session")
	}
	return sess, nil
}

func (repo *sessionRepository) QueryAllSessions(ctx context.Context) ([]session.Session, error) {
	var rows []sessionRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM session ORDER BY starts_at, venue_code`); err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}
	sessions := make([]session.Session, 0, len(rows))
	for _, r := range rows {
		sess := r.session()
		if err := repo.loadExamIDs(ctx, &sess); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

func (repo *sessionRepository) GetSessionByID(ctx context.Context, id string) (session.Session, error) {
	var r sessionRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM session WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, errors.Wrap(err, "getting session")
	}
	sess := r.session()
	if err := repo.loadExamIDs(ctx, &sess); err != nil {
		return session.Session{}, err
	}
	return sess, nil
}

func (repo *sessionRepository) UpdateSession(ctx context.Context, sess session.Session) (session.Session, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE session SET starts_at = $2, updated_at = $3 WHERE id = $1`,
		sess.ID, sess.StartsAt, sess.UpdatedAt)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "updating session")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return session.Session{}, session.ErrNotFound
	}
	if sess.ExamIDs != nil {
		if err = repo.saveExamIDs(ctx, tx, sess.ID, sess.ExamIDs); err != nil {
			return session.Session{}, err
		}
	}
	if err = tx.Commit(); err != nil {
		return session.Session{}, errors.Wrap(err, "committing session")
	}
	return repo.GetSessionByID(ctx, sess.ID)
}

func (repo *sessionRepository) DeleteSessionsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM session WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting sessions")
}

func (repo *sessionRepository) VenueInUse(ctx context.Context, venueCode string) (bool, error) {
	var inUse bool
	err := repo.db.GetContext(ctx, &inUse,
		`SELECT EXISTS (SELECT 1 FROM session WHERE venue_code = $1)`, venueCode)
	return inUse, errors.Wrap(err, "checking venue usage")
}

func (repo *sessionRepository) SaveAllocation(ctx context.Context, sessionID string, asg allocation.Assignment) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE session SET allocation_mode = $2 WHERE id = $1`, sessionID, string(asg.Mode))
	if err != nil {
		return errors.Wrap(err, "updating allocation mode")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return session.ErrNotFound
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM session_desk WHERE session_id = $1`, sessionID); err != nil {
		return errors.Wrap(err, "clearing session desks")
	}
	for _, desk := range asg.Desks {
		var studentID sql.NullString
		if desk.StudentID != "" {
			studentID = sql.NullString{String: desk.StudentID, Valid: true}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO session_desk (session_id, desk_index, row_num, col_num, student_id)
			 VALUES ($1, $2, $3, $4, $5)`,
			sessionID, desk.Index, desk.Row, desk.Column, studentID)
		if err != nil {
			return errors.Wrapf(err, "inserting desk %d", desk.Index)
		}
	}
	return errors.Wrap(tx.Commit(), "committing allocation")
}

func (repo *sessionRepository) GetAllocation(ctx context.Context, sessionID string) (allocation.Assignment, error) {
	var r sessionRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM session WHERE id = $1`, sessionID); err != nil {
		if err == sql.ErrNoRows {
			return allocation.Assignment{}, session.ErrNotFound
		}
		return allocation.Assignment{}, errors.Wrap(err, "getting session")
	}
	if !r.AllocationMode.Valid {
		return allocation.Assignment{}, session.ErrNoAllocation
	}

	var desks []deskRow
	err := repo.db.SelectContext(ctx, &desks,
		`SELECT * FROM session_desk WHERE session_id = $1 ORDER BY desk_index`, sessionID)
	if err != nil {
		return allocation.Assignment{}, errors.Wrap(err, "querying session desks")
	}

	asg := allocation.Assignment{
		Mode:  allocation.Mode(r.AllocationMode.String),
		Desks: make([]allocation.Desk, 0, len(desks)),
	}
	for _, d := range desks {
		if d.RowNum+1 > asg.Rows {
			asg.Rows = d.RowNum + 1
		}
		if d.ColNum+1 > asg.Columns {
			asg.Columns = d.ColNum + 1
		}
		asg.Desks = append(asg.Desks, allocation.Desk{
			Index:     d.DeskIndex,
			Row:       d.RowNum,
			Column:    d.ColNum,
			StudentID: d.StudentID.String,
		})
	}
	return asg, nil
}

func (repo *sessionRepository) SetFinalised(ctx context.Context, sessionID string, finalised bool) (session.Session, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE session SET finalised = $2, updated_at = $3 WHERE id = $1`,
		sessionID, finalised, time.Now().UTC())
	if err != nil {
		return session.Session{}, errors.Wrap(err, "finalising session")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return session.Session{}, session.ErrNotFound
	}
	return repo.GetSessionByID(ctx, sessionID)
}
