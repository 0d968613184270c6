package staff

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/examdesk/examblock/core"
)

var (
	ErrNotFound       = errors.New("staff member not found")
	ErrUsernameExists = errors.New("a staff member with this username already exists")
	ErrEmailExists    = errors.New("a staff member with this email already exists")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string, excluded ...Staff) error
		CreateStaff(ctx context.Context, st Staff) (Staff, error)
		QueryAllStaff(ctx context.Context) ([]Staff, error)
		GetStaffByID(ctx context.Context, id string) (Staff, error)
		GetStaffByUsernameOrEmail(ctx context.Context, username string) (Staff, error)
		UpdateStaff(ctx context.Context, st Staff, isActive *bool) (Staff, error)
		DeleteStaffByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkUniqueness(username, email string, excluded ...Staff) error {
	if err := svc.repo.CheckUsernameUniqueness(context.Background(), username, email, excluded...); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ns NewStaff) (Staff, error) {
	now := time.Now().UTC()
	st := Staff{
		ID:        uuid.New().String(),
		Name:      ns.Name,
		Username:  ns.Username,
		Email:     ns.Email,
		IsAdmin:   ns.IsAdmin,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := st.SetPassword(ns.Password); err != nil {
		return Staff{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateStaff(ctx, st)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Staff, error) {
	return svc.repo.QueryAllStaff(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Staff, error) {
	return svc.repo.GetStaffByID(ctx, id)
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, username string) (Staff, error) {
	return svc.repo.GetStaffByUsernameOrEmail(ctx, core.CleanString(username, true /* lower */))
}

func (svc *Service) SetLastLogin(ctx context.Context, st Staff) (Staff, error) {
	st.LastLogin = time.Now().UTC()
	return svc.repo.UpdateStaff(ctx, st, nil)
}

func (svc *Service) SetPassword(ctx context.Context, id, pwd string) (Staff, error) {
	st, err := svc.repo.GetStaffByID(ctx, id)
	if err != nil {
		return Staff{}, err
	}
	if err = st.SetPassword(pwd); err != nil {
		return Staff{}, errors.Wrap(err, "hashing password")
	}
	st.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStaff(ctx, st, nil)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteStaffByID(ctx, ids...)
}
