package gpa

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/unitrack/core/semester"
	"github.com/trezcool/unitrack/core/subject"
)

type (
	SemesterRecord struct {
		Semester semester.Semester `json:"semester"`
		Subjects []subject.Subject `json:"subjects"`
		Tally    Tally             `json:"tally"`
		GPA      float64           `json:"gpa"`
	}

	// Transcript is the per-semester breakdown of a user's grades.
	Transcript struct {
		UserID     int              `json:"user_id"`
		Semesters  []SemesterRecord `json:"semesters"`
		Tally      Tally            `json:"tally"`
		OverallGPA float64          `json:"overall_gpa"`
	}
)

// Transcript builds the user's transcript from fresh subject data (the cached
// semester GPAs are not trusted).
func (e *Engine) Transcript(ctx context.Context, userID int) (Transcript, error) {
	sems, err := e.semRepo.QuerySemestersByUser(ctx, userID)
	if err != nil {
		return Transcript{}, errors.Wrap(err, "querying user semesters")
	}

	tr := Transcript{UserID: userID, Semesters: make([]SemesterRecord, 0, len(sems))}
	for _, sem := range sems {
		subjects, err := e.subRepo.QuerySubjectsBySemester(ctx, sem.ID)
		if err != nil {
			return Transcript{}, errors.Wrap(err, "querying semester subjects")
		}
		t := TallyOf(subjects)
		tr.Tally.Merge(t)
		tr.Semesters = append(tr.Semesters, SemesterRecord{
			Semester: sem,
			Subjects: subjects,
			Tally:    t,
			GPA:      t.GPA(),
		})
	}
	tr.OverallGPA = tr.Tally.GPA()
	return tr, nil
}
