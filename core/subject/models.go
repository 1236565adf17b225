package subject

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/unitrack/core"
)

// Letter grades
const (
	GradeAPlus  = "A+"
	GradeA      = "A"
	GradeAMinus = "A-"
	GradeBPlus  = "B+"
	GradeB      = "B"
	GradeBMinus = "B-"
	GradeCPlus  = "C+"
	GradeC      = "C"
	GradeCMinus = "C-"
	GradeDPlus  = "D+"
	GradeD      = "D"
	GradeE      = "E"
	GradeF      = "F"
)

var (
	gradePoints = map[string]float64{
		GradeAPlus:  4.0,
		GradeA:      4.0,
		GradeAMinus: 3.7,
		GradeBPlus:  3.3,
		GradeB:      3.0,
		GradeBMinus: 2.7,
		GradeCPlus:  2.3,
		GradeC:      2.0,
		GradeCMinus: 1.7,
		GradeDPlus:  1.3,
		GradeD:      1.0,
		GradeE:      0.0,
		GradeF:      0.0,
	}

	// Grades is the letter-grade vocabulary, best first.
	Grades = []string{
		GradeAPlus, GradeA, GradeAMinus,
		GradeBPlus, GradeB, GradeBMinus,
		GradeCPlus, GradeC, GradeCMinus,
		GradeDPlus, GradeD,
		GradeE, GradeF,
	}
)

// GradePoints maps a letter grade (case-insensitive) to its grade points.
// Unknown grades are worth 0.0: malformed data must never block an entry.
func GradePoints(grade string) float64 {
	return gradePoints[strings.ToUpper(strings.TrimSpace(grade))]
}

// IsKnownGrade reports whether grade belongs to the letter-grade vocabulary.
func IsKnownGrade(grade string) bool {
	_, ok := gradePoints[strings.ToUpper(strings.TrimSpace(grade))]
	return ok
}

// Subject is a course taken during a Semester.
// CreditValue is expected in 1..30; it is not enforced here.
type Subject struct {
	ID           int       `json:"id"`
	SemesterID   int       `json:"semester_id"`
	Name         string    `json:"name"`
	CreditValue  int       `json:"credit_value"`
	Grade        string    `json:"grade"`
	IsCalculated bool      `json:"is_calculated"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s Subject) GradePoints() float64 {
	return GradePoints(s.Grade)
}

// affectsGPA reports whether switching from s to other may change the semester GPA.
func (s Subject) affectsGPA(other Subject) bool {
	return s.SemesterID != other.SemesterID ||
		s.CreditValue != other.CreditValue ||
		s.IsCalculated != other.IsCalculated ||
		GradePoints(s.Grade) != GradePoints(other.Grade)
}

// NewSubject contains information needed to create a new Subject.
type NewSubject struct {
	SemesterID   int    `json:"semester_id" validate:"required,gt=0"`
	Name         string `json:"name" validate:"required"`
	CreditValue  int    `json:"credit_value" validate:"required,min=1,max=30"`
	Grade        string `json:"grade" validate:"required,grade"`
	IsCalculated *bool  `json:"is_calculated"`
}

func (ns *NewSubject) Clean() {
	ns.Name = core.CleanName(ns.Name)
	ns.Grade = strings.ToUpper(core.CleanString(ns.Grade))
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Clean()
	return validate.Struct(ns)
}

// UpdateSubject holds the full replacement of an existing Subject.
type UpdateSubject struct {
	SemesterID   int    `json:"semester_id" validate:"required,gt=0"`
	Name         string `json:"name" validate:"required"`
	CreditValue  int    `json:"credit_value" validate:"required,min=1,max=30"`
	Grade        string `json:"grade" validate:"required,grade"`
	IsCalculated bool   `json:"is_calculated"`
}

func (us *UpdateSubject) Clean() {
	us.Name = core.CleanName(us.Name)
	us.Grade = strings.ToUpper(core.CleanString(us.Grade))
}

func (us *UpdateSubject) Validate(validate *validator.Validate) error {
	us.Clean()
	return validate.Struct(us)
}
