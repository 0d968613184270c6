package report

import (
	"bytes"
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/examdesk/examblock/core"
	"github.com/examdesk/examblock/core/session"
	"github.com/examdesk/examblock/core/student"
)

// Service assembles and distributes finalisation reports.
type Service struct {
	sessions    *session.Service
	students    *student.Service
	mailSvc     core.EmailService
	coordinator mail.Address
}

func NewService(sessions *session.Service, students *student.Service, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		sessions:    sessions,
		students:    students,
		mailSvc:     mailSvc,
		coordinator: conf.CoordinatorEmail,
	}
}

// BuildData gathers everything needed to render the session's report.
// The session must have a stored allocation.
func (svc *Service) BuildData(ctx context.Context, sessionID string) (Data, error) {
	sess, err := svc.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return Data{}, err
	}
	asg, err := svc.sessions.Allocation(ctx, sessionID)
	if err != nil {
		return Data{}, err
	}
	v, err := svc.sessions.Venue(ctx, sess)
	if err != nil {
		return Data{}, err
	}
	exams, err := svc.sessions.Exams(ctx, sess)
	if err != nil {
		return Data{}, err
	}

	students := make(map[string]student.Student)
	for _, desk := range asg.Desks {
		if desk.StudentID == "" {
			continue
		}
		st, err := svc.students.GetByID(ctx, desk.StudentID)
		if err != nil {
			return Data{}, errors.Wrapf(err, "resolving seated student %s", desk.StudentID)
		}
		students[st.ID] = st
	}

	return Data{
		Session:    sess,
		Venue:      v,
		Exams:      exams,
		Assignment: asg,
		Students:   students,
	}, nil
}

// Generate renders the session's report.
func (svc *Service) Generate(ctx context.Context, sessionID string) ([]byte, error) {
	data, err := svc.BuildData(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return Bytes(data)
}

// Finalise freezes the session and emails its report to the exams
// coordinator as a text attachment.
func (svc *Service) Finalise(ctx context.Context, sessionID string) (session.Session, error) {
	// generate first: finalisation requires a renderable report
	content, err := svc.Generate(ctx, sessionID)
	if err != nil {
		if errors.Cause(err) == session.ErrNoAllocation {
			return session.Session{}, core.NewValidationError(session.ErrNoAllocation)
		}
		return session.Session{}, err
	}
	sess, err := svc.sessions.Finalise(ctx, sessionID)
	if err != nil {
		return session.Session{}, err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:          []mail.Address{svc.coordinator},
		Subject:     "Finalisation report: " + sess.Slot(),
		TextContent: "The session " + sess.Slot() + " has been finalised. The seating report is attached.",
		Attachments: []core.Attachment{{
			Content:     bytes.NewBuffer(content),
			ContentType: "text/plain",
			Filename:    "session-" + sess.ID + ".txt",
		}},
	})
	return sess, nil
}
