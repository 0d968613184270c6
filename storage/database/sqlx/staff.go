package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/examdesk/examblock/core/staff"
)

type staffRepository struct {
	db *sqlx.DB
}

var _ staff.Repository = (*staffRepository)(nil)

func NewStaffRepository(db *sqlx.DB) *staffRepository {
	return &staffRepository{db: db}
}

type staffRow struct {
	ID           string       `db:"id"`
	Name         string       `db:"name"`
	Username     string       `db:"username"`
	Email        string       `db:"email"`
	IsAdmin      bool         `db:"is_admin"`
	IsActive     bool         `db:"is_active"`
	PasswordHash []byte       `db:"password_hash"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
	LastLogin    sql.NullTime `db:"last_login"`
}

func (r staffRow) staff() staff.Staff {
	return staff.Staff{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		IsAdmin:      r.IsAdmin,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
}

func (repo *staffRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excluded ...staff.Staff) error {
	q := `SELECT username, email FROM staff WHERE (username = $1 OR (email <> '' AND email = $2))`
	args := []interface{}{username, email}
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, st := range excluded {
			ids = append(ids, st.ID)
		}
		q += ` AND NOT (id = ANY($3))`
		args = append(args, pq.Array(ids))
	}
	q += ` LIMIT 1`

	var r staffRow
	err := repo.db.GetContext(ctx, &r, q, args...)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "checking staff uniqueness")
	}
	if r.Username == username {
		return staff.ErrUsernameExists
	}
	return staff.ErrEmailExists
}

func (repo *staffRepository) CreateStaff(ctx context.Context, st staff.Staff) (staff.Staff, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO staff (id, name, username, email, is_admin, is_active, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		st.ID, st.Name, st.Username, st.Email, st.IsAdmin, st.IsActive, st.PasswordHash, st.CreatedAt, st.UpdatedAt)
	if err != nil {
		return staff.Staff{}, errors.Wrap(err, "inserting staff")
	}
	return st, nil
}

func (repo *staffRepository) QueryAllStaff(ctx context.Context) ([]staff.Staff, error) {
	var rows []staffRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM staff ORDER BY username`); err != nil {
		return nil, errors.Wrap(err, "querying staff")
	}
	members := make([]staff.Staff, 0, len(rows))
	for _, r := range rows {
		members = append(members, r.staff())
	}
	return members, nil
}

func (repo *staffRepository) GetStaffByID(ctx context.Context, id string) (staff.Staff, error) {
	var r staffRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM staff WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return staff.Staff{}, staff.ErrNotFound
		}
		return staff.Staff{}, errors.Wrap(err, "getting staff")
	}
	return r.staff(), nil
}

func (repo *staffRepository) GetStaffByUsernameOrEmail(ctx context.Context, username string) (staff.Staff, error) {
	var r staffRow
	err := repo.db.GetContext(ctx, &r,
		`SELECT * FROM staff WHERE username = $1 OR (email <> '' AND email = $1)`, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return staff.Staff{}, staff.ErrNotFound
		}
		return staff.Staff{}, errors.Wrap(err, "getting staff")
	}
	return r.staff(), nil
}

func (repo *staffRepository) UpdateStaff(ctx context.Context, st staff.Staff, isActive *bool) (staff.Staff, error) {
	var lastLogin sql.NullTime
	if !st.LastLogin.IsZero() {
		lastLogin = sql.NullTime{Time: st.LastLogin, Valid: true}
	}

	res, err := repo.db.ExecContext(ctx,
		`UPDATE staff SET
			name          = COALESCE(NULLIF($2, ''), name),
			email         = COALESCE(NULLIF($3, ''), email),
			password_hash = COALESCE($4, password_hash),
			is_active     = COALESCE($5, is_active),
			last_login    = COALESCE($6, last_login),
			updated_at    = $7
		 WHERE id = $1`,
		st.ID, st.Name, st.Email, st.PasswordHash, isActive, lastLogin, time.Now().UTC())
	if err != nil {
		return staff.Staff{}, errors.Wrap(err, "updating staff")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return staff.Staff{}, staff.ErrNotFound
	}
	return repo.GetStaffByID(ctx, st.ID)
}

func (repo *staffRepository) DeleteStaffByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM staff WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting staff")
}
