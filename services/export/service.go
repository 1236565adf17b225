// Package export renders a user's data into formats other tools understand:
// an iCalendar feed of the timetable and deadlines, and an XLSX transcript.
package export

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/unitrack/core/assignment"
	"github.com/trezcool/unitrack/core/gpa"
	"github.com/trezcool/unitrack/core/lecture"
	"github.com/trezcool/unitrack/core/subject"
	"github.com/trezcool/unitrack/core/user"
)

var nowFunc = time.Now // mockable

type (
	UserGetter interface {
		GetByID(ctx context.Context, id int) (user.User, error)
	}

	LectureLister interface {
		QueryByUser(ctx context.Context, userID int) ([]lecture.Lecture, error)
	}

	AssignmentLister interface {
		QueryByUser(ctx context.Context, userID int) ([]assignment.Assignment, error)
	}

	SubjectLister interface {
		QueryByUser(ctx context.Context, userID int) ([]subject.Subject, error)
	}

	TranscriptBuilder interface {
		Transcript(ctx context.Context, userID int) (gpa.Transcript, error)
	}

	Service struct {
		users       UserGetter
		lectures    LectureLister
		assignments AssignmentLister
		subjects    SubjectLister
		transcripts TranscriptBuilder
	}
)

func NewService(
	users UserGetter,
	lectures LectureLister,
	assignments AssignmentLister,
	subjects SubjectLister,
	transcripts TranscriptBuilder,
) *Service {
	return &Service{
		users:       users,
		lectures:    lectures,
		assignments: assignments,
		subjects:    subjects,
		transcripts: transcripts,
	}
}

// Calendar writes the iCalendar feed of the user to w.
func (svc *Service) Calendar(ctx context.Context, w io.Writer, userID int) error {
	usr, err := svc.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	lectures, err := svc.lectures.QueryByUser(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "querying lectures")
	}
	assignments, err := svc.assignments.QueryByUser(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	subjects, err := svc.subjects.QueryByUser(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}

	names := make(map[int]string, len(subjects))
	for _, sub := range subjects {
		names[sub.ID] = sub.Name
	}
	return WriteCalendar(w, CalendarData{
		Name:        usr.Name + " - UniTrack",
		Lectures:    lectures,
		Assignments: assignments,
		Subjects:    names,
	}, nowFunc())
}

// Transcript writes the XLSX transcript of the user to w.
func (svc *Service) Transcript(ctx context.Context, w io.Writer, userID int) error {
	usr, err := svc.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	tr, err := svc.transcripts.Transcript(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "building transcript")
	}
	return WriteTranscript(w, usr, tr)
}
