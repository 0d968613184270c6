package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/examdesk/examblock/core"
	"github.com/examdesk/examblock/core/allocation"
	"github.com/examdesk/examblock/core/exam"
	"github.com/examdesk/examblock/core/student"
	"github.com/examdesk/examblock/core/venue"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrNoAllocation = errors.New("session has no desk allocation")
	ErrFinalised    = errors.New("session is finalised")
)

type (
	Repository interface {
		CreateSession(ctx context.Context, sess Session) (Session, error)
		QueryAllSessions(ctx context.Context) ([]Session, error)
		GetSessionByID(ctx context.Context, id string) (Session, error)
		UpdateSession(ctx context.Context, sess Session) (Session, error)
		DeleteSessionsByID(ctx context.Context, ids ...string) error

		// VenueInUse satisfies venue.UsageChecker.
		VenueInUse(ctx context.Context, venueCode string) (bool, error)

		// SaveAllocation replaces the session's stored desk assignment.
		SaveAllocation(ctx context.Context, sessionID string, asg allocation.Assignment) error
		// GetAllocation returns ErrNoAllocation when the session has never
		// been allocated.
		GetAllocation(ctx context.Context, sessionID string) (allocation.Assignment, error)
		SetFinalised(ctx context.Context, sessionID string, finalised bool) (Session, error)
	}

	Service struct {
		repo     Repository
		venues   *venue.Service
		exams    *exam.Service
		students *student.Service
	}
)

func NewService(repo Repository, venues *venue.Service, exams *exam.Service, students *student.Service) *Service {
	return &Service{repo: repo, venues: venues, exams: exams, students: students}
}

func (svc *Service) checkReferences(venueCode string, examIDs []string) error {
	ctx := context.Background()
	if venueCode != "" {
		if _, err := svc.venues.GetByCode(ctx, venueCode); err != nil {
			if errors.Cause(err) == venue.ErrNotFound {
				return core.NewValidationError(err, core.FieldError{Field: "venue_code", Error: err.Error()})
			}
			return err
		}
	}
	for _, id := range examIDs {
		if _, err := svc.exams.GetExam(ctx, id); err != nil {
			if errors.Cause(err) == exam.ErrExamNotFound {
				return core.NewValidationError(err, core.FieldError{Field: "exam_ids", Error: "exam " + id + " not found"})
			}
			return err
		}
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ns NewSession) (Session, error) {
	now := time.Now().UTC()
	sess := Session{
		ID:        uuid.New().String(),
		VenueCode: ns.VenueCode,
		StartsAt:  ns.StartsAt,
		ExamIDs:   ns.ExamIDs,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateSession(ctx, sess)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Session, error) {
	return svc.repo.QueryAllSessions(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Session, error) {
	return svc.repo.GetSessionByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateSession) (Session, error) {
	sess, err := svc.repo.GetSessionByID(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if sess.Finalised {
		return Session{}, core.NewValidationError(ErrFinalised)
	}

	if !us.StartsAt.IsZero() {
		sess.StartsAt = us.StartsAt
	}
	if us.ExamIDs != nil {
		sess.ExamIDs = us.ExamIDs
	}
	sess.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSession(ctx, sess)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteSessionsByID(ctx, ids...)
}

// Venue resolves the session's venue.
func (svc *Service) Venue(ctx context.Context, sess Session) (venue.Venue, error) {
	v, err := svc.venues.GetByCode(ctx, sess.VenueCode)
	if err != nil {
		return venue.Venue{}, errors.Wrap(err, "resolving session venue")
	}
	return v, nil
}

// Exams resolves the session's exams in their scheduled order.
func (svc *Service) Exams(ctx context.Context, sess Session) ([]exam.Exam, error) {
	exams := make([]exam.Exam, 0, len(sess.ExamIDs))
	for _, id := range sess.ExamIDs {
		ex, err := svc.exams.GetExam(ctx, id)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving exam %s", id)
		}
		exams = append(exams, ex)
	}
	return exams, nil
}

// Roster returns the students eligible to sit the session: enrolled in any
// unit examined in the slot and on the venue's side of the AARA partition.
func (svc *Service) Roster(ctx context.Context, sess Session) ([]student.Student, error) {
	v, err := svc.venues.GetByCode(ctx, sess.VenueCode)
	if err != nil {
		return nil, errors.Wrap(err, "resolving session venue")
	}
	exams, err := svc.Exams(ctx, sess)
	if err != nil {
		return nil, err
	}

	aara := v.AARA
	seen := make(map[string]bool)
	var roster []student.Student
	for _, ex := range exams {
		matches, err := svc.students.Filter(ctx, student.QueryFilter{Unit: ex.Unit.String(), AARA: &aara})
		if err != nil {
			return nil, errors.Wrapf(err, "listing students for %s", ex.Unit)
		}
		for _, st := range matches {
			if !seen[st.ID] {
				seen[st.ID] = true
				roster = append(roster, st)
			}
		}
	}
	return roster, nil
}

// Allocate builds and stores the session's desk assignment. Re-running on
// unchanged inputs yields the same assignment. Finalised sessions cannot be
// re-allocated.
func (svc *Service) Allocate(ctx context.Context, id string) (allocation.Assignment, error) {
	sess, err := svc.repo.GetSessionByID(ctx, id)
	if err != nil {
		return allocation.Assignment{}, err
	}
	if sess.Finalised {
		return allocation.Assignment{}, core.NewValidationError(ErrFinalised)
	}

	v, err := svc.venues.GetByCode(ctx, sess.VenueCode)
	if err != nil {
		return allocation.Assignment{}, errors.Wrap(err, "resolving session venue")
	}
	roster, err := svc.Roster(ctx, sess)
	if err != nil {
		return allocation.Assignment{}, err
	}

	seated := make([]allocation.Seated, 0, len(roster))
	for _, st := range roster {
		seated = append(seated, allocation.Seated{
			StudentID: st.ID,
			Number:    st.Number,
			Surname:   st.Surname,
			GivenName: st.GivenName,
		})
	}

	asg, err := allocation.Allocate(v.Rows, v.Columns, seated)
	if err != nil {
		return allocation.Assignment{}, err
	}
	if err = svc.repo.SaveAllocation(ctx, sess.ID, asg); err != nil {
		return allocation.Assignment{}, errors.Wrap(err, "saving allocation")
	}
	return asg, nil
}

// Allocation returns the stored desk assignment for the session.
func (svc *Service) Allocation(ctx context.Context, id string) (allocation.Assignment, error) {
	if _, err := svc.repo.GetSessionByID(ctx, id); err != nil {
		return allocation.Assignment{}, err
	}
	return svc.repo.GetAllocation(ctx, id)
}

// Finalise freezes the session. It requires a stored allocation; finalised
// sessions reject further mutation and re-allocation.
func (svc *Service) Finalise(ctx context.Context, id string) (Session, error) {
	sess, err := svc.repo.GetSessionByID(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if sess.Finalised {
		return Session{}, core.NewValidationError(ErrFinalised)
	}
	if _, err = svc.repo.GetAllocation(ctx, id); err != nil {
		if errors.Cause(err) == ErrNoAllocation {
			return Session{}, core.NewValidationError(ErrNoAllocation)
		}
		return Session{}, err
	}
	return svc.repo.SetFinalised(ctx, id, true)
}
