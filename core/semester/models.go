package semester

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/unitrack/core"
)

// Semester is one half of an academic year of a User.
// Year is expected in 1..4 and Number in {1, 2}; neither is enforced here.
//
// GPA is a cached value: it is stale until the GPA engine recomputes and persists it
// after a subject of this semester is added, changed or removed.
type Semester struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Year      int       `json:"year"`
	Number    int       `json:"semester_number"`
	Name      string    `json:"name"`
	GPA       float64   `json:"gpa"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultName is the name given to a semester created without one, e.g. "Year 2 - Semester 1".
func DefaultName(year, number int) string {
	return fmt.Sprintf("Year %d - Semester %d", year, number)
}

// NewSemester contains information needed to create (or rename) a Semester.
type NewSemester struct {
	UserID int    `json:"user_id" validate:"required,gt=0"`
	Year   int    `json:"year" validate:"required,min=1,max=4"`
	Number int    `json:"semester_number" validate:"required,oneof=1 2"`
	Name   string `json:"name"`
}

func (ns *NewSemester) Clean() {
	ns.Name = core.CleanName(ns.Name)
	if ns.Name == "" {
		ns.Name = DefaultName(ns.Year, ns.Number)
	}
}

func (ns *NewSemester) Validate(validate *validator.Validate) error {
	ns.Clean()
	return validate.Struct(ns)
}

// UpdateSemester holds the editable fields of a Semester. GPA is never set by callers.
type UpdateSemester struct {
	Year   int    `json:"year" validate:"required,min=1,max=4"`
	Number int    `json:"semester_number" validate:"required,oneof=1 2"`
	Name   string `json:"name" validate:"required"`
}

func (us *UpdateSemester) Validate(validate *validator.Validate) error {
	us.Name = core.CleanName(us.Name)
	return validate.Struct(us)
}
