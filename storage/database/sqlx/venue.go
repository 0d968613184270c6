package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/examdesk/examblock/core/venue"
)

type venueRepository struct {
	db *sqlx.DB
}

var _ venue.Repository = (*venueRepository)(nil)

func NewVenueRepository(db *sqlx.DB) *venueRepository {
	return &venueRepository{db: db}
}

type venueRow struct {
	Code      string    `db:"code"`
	Name      string    `db:"name"`
	SeatRows  int       `db:"seat_rows"`
	SeatCols  int       `db:"seat_cols"`
	AARA      bool      `db:"aara"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r venueRow) venue() venue.Venue {
	return venue.Venue{
		Code:      r.Code,
		Name:      r.Name,
		Rows:      r.SeatRows,
		Columns:   r.SeatCols,
		AARA:      r.AARA,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (repo *venueRepository) CreateVenue(ctx context.Context, v venue.Venue) (venue.Venue, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO venue (code, name, seat_rows, seat_cols, aara, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		v.Code, v.Name, v.Rows, v.Columns, v.AARA, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return venue.Venue{}, errors.Wrap(err, "inserting venue")
	}
	return v, nil
}

func (repo *venueRepository) QueryAllVenues(ctx context.Context) ([]venue.Venue, error) {
	var rows []venueRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM venue ORDER BY code`); err != nil {
		return nil, errors.Wrap(err, "querying venues")
	}
	venues := make([]venue.Venue, 0, len(rows))
	for _, r := range rows {
		venues = append(venues, r.venue())
	}
	return venues, nil
}

func (repo *venueRepository) GetVenueByCode(ctx context.Context, code string) (venue.Venue, error) {
	var r venueRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM venue WHERE code = $1`, code); err != nil {
		if err == sql.ErrNoRows {
			return venue.Venue{}, venue.ErrNotFound
		}
		return venue.Venue{}, errors.Wrap(err, "getting venue")
	}
	return r.venue(), nil
}

func (repo *venueRepository) UpdateVenue(ctx context.Context, v venue.Venue, aara *bool) (venue.Venue, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE venue SET
			name       = COALESCE(NULLIF($2, ''), name),
			seat_rows  = COALESCE(NULLIF($3, 0), seat_rows),
			seat_cols  = COALESCE(NULLIF($4, 0), seat_cols),
			aara       = COALESCE($5, aara),
			updated_at = $6
		 WHERE code = $1`,
		v.Code, v.Name, v.Rows, v.Columns, aara, v.UpdatedAt)
	if err != nil {
		return venue.Venue{}, errors.Wrap(err, "updating venue")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return venue.Venue{}, venue.ErrNotFound
	}
	return repo.GetVenueByCode(ctx, v.Code)
}

func (repo *venueRepository) DeleteVenues(ctx context.Context, codes ...string) error {
	if len(codes) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM venue WHERE code = ANY($1)`, pq.Array(codes))
	return errors.Wrap(err, "deleting venues")
}
