package inmemdb

import (
	"context"
	"sort"

	"github.com/examdesk/examblock/core/staff"
)

type staffRepository struct {
	db *staffTable
}

var _ staff.Repository = (*staffRepository)(nil)

func NewStaffRepository(db *DB) *staffRepository {
	return &staffRepository{db: db.staff}
}

func (repo *staffRepository) CheckUsernameUniqueness(_ context.Context, username, email string, excluded ...staff.Staff) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, st := range repo.db.table {
		if staffExcluded(*st, excluded) {
			continue
		}
		if st.Username == username {
			return staff.ErrUsernameExists
		}
		if email != "" && st.Email == email {
			return staff.ErrEmailExists
		}
	}
	return nil
}

func staffExcluded(st staff.Staff, excluded []staff.Staff) bool {
	for _, ex := range excluded {
		if ex.ID == st.ID {
			return true
		}
	}
	return false
}

func (repo *staffRepository) CreateStaff(_ context.Context, st staff.Staff) (staff.Staff, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[st.ID] = &st
	return st, nil
}

func (repo *staffRepository) QueryAllStaff(_ context.Context) ([]staff.Staff, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	members := make([]staff.Staff, 0, len(repo.db.table))
	for _, st := range repo.db.table {
		members = append(members, *st)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Username < members[j].Username })
	return members, nil
}

func (repo *staffRepository) GetStaffByID(_ context.Context, id string) (staff.Staff, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if st, ok := repo.db.table[id]; ok {
		return *st, nil
	}
	return staff.Staff{}, staff.ErrNotFound
}

func (repo *staffRepository) GetStaffByUsernameOrEmail(_ context.Context, username string) (staff.Staff, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, st := range repo.db.table {
		if st.Username == username || (st.Email != "" && st.Email == username) {
			return *st, nil
		}
	}
	return staff.Staff{}, staff.ErrNotFound
}

func (repo *staffRepository) UpdateStaff(_ context.Context, st staff.Staff, isActive *bool) (staff.Staff, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// only save set fields
	orig, ok := repo.db.table[st.ID]
	if !ok {
		return staff.Staff{}, staff.ErrNotFound
	}
	if st.Name != "" {
		orig.Name = st.Name
	}
	if st.Email != "" {
		orig.Email = st.Email
	}
	if st.PasswordHash != nil {
		orig.PasswordHash = st.PasswordHash
	}
	if !st.LastLogin.IsZero() {
		orig.LastLogin = st.LastLogin
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	if !st.UpdatedAt.IsZero() {
		orig.UpdatedAt = st.UpdatedAt
	}
	return *orig, nil
}

func (repo *staffRepository) DeleteStaffByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
