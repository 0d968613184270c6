package inmemdb

import (
	"context"
	"sort"

	"github.com/examdesk/examblock/core/allocation"
	"github.com/examdesk/examblock/core/session"
)

type sessionRepository struct {
	db *sessionTables
}

var _ session.Repository = (*sessionRepository)(nil)

func NewSessionRepository(db *DB) *sessionRepository {
	return &sessionRepository{db: db.session}
}

func (repo *sessionRepository) CreateSession(_ context.Context, sess session.Session) (session.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[sess.ID] = &sess
	return sess, nil
}

func (repo *sessionRepository) QueryAllSessions(_ context.Context) ([]session.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sessions := make([]session.Session, 0, len(repo.db.table))
	for _, sess := range repo.db.table {
		sessions = append(sessions, *sess)
	}
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].StartsAt.Equal(sessions[j].StartsAt) {
			return sessions[i].StartsAt.Before(sessions[j].StartsAt)
		}
		return sessions[i].VenueCode < sessions[j].VenueCode
	})
	return sessions, nil
}

func (repo *sessionRepository) GetSessionByID(_ context.Context, id string) (session.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sess, ok := repo.db.table[id]; ok {
		return *sess, nil
	}
	return session.Session{}, session.ErrNotFound
}

func (repo *sessionRepository) UpdateSession(_ context.Context, sess session.Session) (session.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[sess.ID]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	if !sess.StartsAt.IsZero() {
		orig.StartsAt = sess.StartsAt
	}
	if sess.ExamIDs != nil {
		orig.ExamIDs = sess.ExamIDs
	}
	orig.UpdatedAt = sess.UpdatedAt
	return *orig, nil
}

func (repo *sessionRepository) DeleteSessionsByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
		delete(repo.db.allocations, id)
	}
	return nil
}

func (repo *sessionRepository) VenueInUse(_ context.Context, venueCode string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, sess := range repo.db.table {
		if sess.VenueCode == venueCode {
			return true, nil
		}
	}
	return false, nil
}

func (repo *sessionRepository) SaveAllocation(_ context.Context, sessionID string, asg allocation.Assignment) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[sessionID]; !ok {
		return session.ErrNotFound
	}
	repo.db.allocations[sessionID] = asg
	return nil
}

func (repo *sessionRepository) GetAllocation(_ context.Context, sessionID string) (allocation.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if asg, ok := repo.db.allocations[sessionID]; ok {
		return asg, nil
	}
	return allocation.Assignment{}, session.ErrNoAllocation
}

func (repo *sessionRepository) SetFinalised(_ context.Context, sessionID string, finalised bool) (session.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sess, ok := repo.db.table[sessionID]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	sess.Finalised = finalised
	return *sess, nil
}
