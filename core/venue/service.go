package venue

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/examdesk/examblock/core"
)

var (
	ErrNotFound   = errors.New("venue not found")
	ErrCodeExists = errors.New("a venue with this code already exists")
	ErrInUse      = errors.New("venue geometry is locked: sessions are scheduled against it")
)

type (
	Repository interface {
		CreateVenue(ctx context.Context, v Venue) (Venue, error)
		QueryAllVenues(ctx context.Context) ([]Venue, error)
		GetVenueByCode(ctx context.Context, code string) (Venue, error)
		UpdateVenue(ctx context.Context, v Venue, aara *bool) (Venue, error)
		DeleteVenues(ctx context.Context, codes ...string) error
	}

	// UsageChecker reports whether any session is scheduled against a venue.
	// Satisfied by the session repository.
	UsageChecker interface {
		VenueInUse(ctx context.Context, venueCode string) (bool, error)
	}

	Service struct {
		repo  Repository
		usage UsageChecker
	}
)

func NewService(repo Repository, usage UsageChecker) *Service {
	return &Service{repo: repo, usage: usage}
}

func (svc *Service) checkCodeUniqueness(code string) error {
	if _, err := svc.repo.GetVenueByCode(context.Background(), code); err == nil {
		return core.NewValidationError(ErrCodeExists, core.FieldError{Field: "code", Error: ErrCodeExists.Error()})
	} else if errors.Cause(err) != ErrNotFound {
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nv NewVenue) (Venue, error) {
	now := time.Now().UTC()
	v := Venue{
		Code:      nv.Code,
		Name:      nv.Name,
		Rows:      nv.Rows,
		Columns:   nv.Columns,
		AARA:      nv.AARA,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateVenue(ctx, v)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Venue, error) {
	return svc.repo.QueryAllVenues(ctx)
}

func (svc *Service) GetByCode(ctx context.Context, code string) (Venue, error) {
	return svc.repo.GetVenueByCode(ctx, core.CleanCode(code))
}

func (svc *Service) Update(ctx context.Context, code string, uv UpdateVenue) (Venue, error) {
	orig, err := svc.repo.GetVenueByCode(ctx, core.CleanCode(code))
	if err != nil {
		return Venue{}, err
	}

	changesGeometry := (uv.Rows != 0 && uv.Rows != orig.Rows) ||
		(uv.Columns != 0 && uv.Columns != orig.Columns) ||
		(uv.AARA != nil && *uv.AARA != orig.AARA)
	if changesGeometry {
		inUse, err := svc.usage.VenueInUse(ctx, orig.Code)
		if err != nil {
			return Venue{}, errors.Wrap(err, "checking venue usage")
		}
		if inUse {
			return Venue{}, core.NewValidationError(ErrInUse)
		}
	}

	v := Venue{
		Code:      orig.Code,
		Name:      uv.Name,
		Rows:      uv.Rows,
		Columns:   uv.Columns,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateVenue(ctx, v, uv.AARA)
}

func (svc *Service) Delete(ctx context.Context, codes ...string) error {
	for i, code := range codes {
		codes[i] = core.CleanCode(code)
		inUse, err := svc.usage.VenueInUse(ctx, codes[i])
		if err != nil {
			return errors.Wrap(err, "checking venue usage")
		}
		if inUse {
			return core.NewValidationError(ErrInUse)
		}
	}
	return svc.repo.DeleteVenues(ctx, codes...)
}
