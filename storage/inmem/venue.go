package inmemdb

import (
	"context"
	"sort"

	"github.com/examdesk/examblock/core/venue"
)

type venueRepository struct {
	db *venueTable
}

var _ venue.Repository = (*venueRepository)(nil)

func NewVenueRepository(db *DB) *venueRepository {
	return &venueRepository{db: db.venue}
}

func (repo *venueRepository) CreateVenue(_ context.Context, v venue.Venue) (venue.Venue, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[v.Code] = &v
	return v, nil
}

func (repo *venueRepository) QueryAllVenues(_ context.Context) ([]venue.Venue, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	venues := make([]venue.Venue, 0, len(repo.db.table))
	for _, v := range repo.db.table {
		venues = append(venues, *v)
	}
	sort.Slice(venues, func(i, j int) bool { return venues[i].Code < venues[j].Code })
	return venues, nil
}

func (repo *venueRepository) GetVenueByCode(_ context.Context, code string) (venue.Venue, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if v, ok := repo.db.table[code]; ok {
		return *v, nil
	}
	return venue.Venue{}, venue.ErrNotFound
}

func (repo *venueRepository) UpdateVenue(_ context.Context, v venue.Venue, aara *bool) (venue.Venue, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// only save set fields
	orig, ok := repo.db.table[v.Code]
	if !ok {
		return venue.Venue{}, venue.ErrNotFound
	}
	if v.Name != "" {
		orig.Name = v.Name
	}
	if v.Rows != 0 {
		orig.Rows = v.Rows
	}
	if v.Columns != 0 {
		orig.Columns = v.Columns
	}
	if aara != nil {
		orig.AARA = *aara
	}
	orig.UpdatedAt = v.UpdatedAt
	return *orig, nil
}

func (repo *venueRepository) DeleteVenues(_ context.Context, codes ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, code := range codes {
		delete(repo.db.table, code)
	}
	return nil
}
